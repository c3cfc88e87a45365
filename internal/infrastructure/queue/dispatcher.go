package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/pconlabs/control-bot/internal/api/metrics"
	"github.com/pconlabs/control-bot/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 64
)

// TaskRunner executes one queued command. The command service implements
// it, so every queued command still passes the access gate.
type TaskRunner interface {
	Run(ctx context.Context, in ports.DispatchInput) error
}

// Dispatcher fans broadcast commands out to a fixed set of workers using
// consistent hashing on the device uuid, guaranteeing per-device command
// ordering.
type Dispatcher struct {
	workers []chan ports.DispatchInput
	runner  TaskRunner
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, runner TaskRunner, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.DispatchInput, numWorkers),
		runner:  runner,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.DispatchInput, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue sends a command to the worker responsible for its device.
// Non-blocking up to channelBuffer capacity.
func (d *Dispatcher) Enqueue(in ports.DispatchInput) {
	idx := d.shardIndex(in.DeviceUUID)
	d.workers[idx] <- in
	metrics.BroadcastQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
}

// shardIndex maps a device uuid deterministically to a worker index.
func (d *Dispatcher) shardIndex(deviceUUID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(deviceUUID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.DispatchInput) {
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case in, ok := <-ch:
			if !ok {
				return
			}
			metrics.BroadcastQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			if err := d.runner.Run(ctx, in); err != nil {
				d.log.Error().Err(err).
					Str("device_uuid", in.DeviceUUID).
					Str("type", in.TaskType).
					Int("worker_id", id).
					Msg("queued command failed")
			}
		}
	}
}
