package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/pconlabs/control-bot/internal/api/metrics"
	"github.com/pconlabs/control-bot/internal/core/domain"
	"github.com/pconlabs/control-bot/internal/core/ports"
)

// CommandService is the command-issuing surface the chat glue calls.
// Every path runs the access gate before anything reaches the brain.
type CommandService struct {
	brain    ports.BrainClient
	gate     *AccessGate
	codec    ports.TokenCodec
	validate *validator.Validate
	queue    ports.TaskQueue
	log      zerolog.Logger
}

func NewCommandService(brain ports.BrainClient, gate *AccessGate, codec ports.TokenCodec, log zerolog.Logger) *CommandService {
	return &CommandService{
		brain:    brain,
		gate:     gate,
		codec:    codec,
		validate: validator.New(),
		log:      log,
	}
}

// UseQueue attaches the broadcast queue. Set after construction because
// the queue's workers run commands back through this service.
func (s *CommandService) UseQueue(q ports.TaskQueue) {
	s.queue = q
}

// Dispatch validates the input, gates the actor, authorizes the target
// device, and creates the task. Returns the brain-assigned task id.
func (s *CommandService) Dispatch(ctx context.Context, in ports.DispatchInput) (int64, error) {
	if err := s.validate.Struct(in); err != nil {
		return 0, fmt.Errorf("dispatch: %w (%v)", domain.ErrInvalidInput, err)
	}

	actor, err := s.gate.Identify(ctx, in.ActorID)
	if err != nil {
		return 0, err
	}

	device, err := s.brain.Device(ctx, in.DeviceUUID)
	if err != nil {
		return 0, fmt.Errorf("dispatch: %w", err)
	}

	if !s.gate.AuthorizeDevice(actor, device) {
		metrics.AccessDeniedTotal.WithLabelValues("level").Inc()
		s.log.Warn().
			Int64("actor_id", in.ActorID).
			Str("device_uuid", in.DeviceUUID).
			Str("level", actor.Level).
			Str("network_access", device.NetworkAccess).
			Msg("device access denied")
		return 0, fmt.Errorf("dispatch to %s: %w", in.DeviceUUID, domain.ErrAccessDenied)
	}

	id, err := s.brain.CreateTask(ctx, domain.TaskType(in.TaskType), in.DeviceUUID)
	if err != nil {
		return 0, fmt.Errorf("dispatch: %w", err)
	}

	metrics.CommandsDispatchedTotal.WithLabelValues(in.TaskType).Inc()
	s.log.Info().
		Int64("actor_id", in.ActorID).
		Str("type", in.TaskType).
		Str("device", device.DisplayName()).
		Int64("task_id", id).
		Msg("command dispatched")
	return id, nil
}

// DispatchToken verifies a callback token, parses its action descriptor,
// and dispatches it for the actor. A token that fails verification is
// rejected outright, never coerced into some default action.
func (s *CommandService) DispatchToken(ctx context.Context, actorID int64, token string) (int64, error) {
	raw, err := s.codec.Decode(token)
	if err != nil {
		s.log.Warn().Err(err).Int64("actor_id", actorID).Msg("callback token rejected")
		return 0, err
	}
	action, err := domain.ParseAction(raw)
	if err != nil {
		return 0, err
	}
	return s.Dispatch(ctx, ports.DispatchInput{
		ActorID:    actorID,
		TaskType:   action.Verb,
		DeviceUUID: action.Target,
	})
}

// ActionToken signs an action descriptor for embedding in a UI control.
func (s *CommandService) ActionToken(action domain.Action) (string, error) {
	return s.codec.Encode(action.String())
}

// DeviceList returns the actor's devices, filtered by access level.
func (s *CommandService) DeviceList(ctx context.Context, actorID int64) ([]domain.Device, error) {
	actor, err := s.gate.Identify(ctx, actorID)
	if err != nil {
		return nil, err
	}
	devices, err := s.brain.DevicesForUser(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("device list: %w", err)
	}
	return s.gate.FilterDevices(actor, devices), nil
}

// DeviceTasks lists the pending tasks for a device the actor may act on.
func (s *CommandService) DeviceTasks(ctx context.Context, actorID int64, deviceUUID string) ([]domain.Task, error) {
	actor, err := s.gate.Identify(ctx, actorID)
	if err != nil {
		return nil, err
	}
	device, err := s.brain.Device(ctx, deviceUUID)
	if err != nil {
		return nil, fmt.Errorf("device tasks: %w", err)
	}
	if !s.gate.AuthorizeDevice(actor, device) {
		metrics.AccessDeniedTotal.WithLabelValues("level").Inc()
		return nil, fmt.Errorf("device tasks for %s: %w", deviceUUID, domain.ErrAccessDenied)
	}
	return s.brain.TasksForDevice(ctx, deviceUUID)
}

// Broadcast enqueues the same command for many devices. Admin only; each
// command is re-gated when its worker runs it, so a revoked actor stops
// mid-broadcast.
func (s *CommandService) Broadcast(ctx context.Context, actorID int64, taskType string, deviceUUIDs []string) error {
	actor, err := s.gate.Identify(ctx, actorID)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() {
		metrics.AccessDeniedTotal.WithLabelValues("not_admin").Inc()
		return fmt.Errorf("broadcast by actor %d: %w", actorID, domain.ErrAccessDenied)
	}
	if !domain.ValidTaskType(taskType) {
		return fmt.Errorf("broadcast type %q: %w", taskType, domain.ErrInvalidInput)
	}
	if s.queue == nil {
		return errors.New("broadcast: no queue attached")
	}

	for _, uuid := range deviceUUIDs {
		s.queue.Enqueue(ports.DispatchInput{
			ActorID:    actorID,
			TaskType:   taskType,
			DeviceUUID: uuid,
		})
	}
	s.log.Info().
		Int64("actor_id", actorID).
		Str("type", taskType).
		Int("devices", len(deviceUUIDs)).
		Msg("broadcast enqueued")
	return nil
}

// Run executes one queued command. It is the broadcast queue's entry
// point back into the service.
func (s *CommandService) Run(ctx context.Context, in ports.DispatchInput) error {
	_, err := s.Dispatch(ctx, in)
	return err
}

// FlushDeviceTasks drops all pending tasks for a device. The actor must
// be admin; the admin code itself is validated by the brain.
func (s *CommandService) FlushDeviceTasks(ctx context.Context, actorID int64, deviceUUID, adminCode string) (bool, error) {
	if _, err := s.requireAdmin(ctx, actorID); err != nil {
		return false, err
	}
	return s.brain.FlushTasks(ctx, deviceUUID, adminCode)
}

// RegisterUser creates a user in the brain.
func (s *CommandService) RegisterUser(ctx context.Context, actorID, newID int64, username, adminCode, level string) (bool, error) {
	if _, err := s.requireAdmin(ctx, actorID); err != nil {
		return false, err
	}
	return s.brain.CreateUser(ctx, newID, username, adminCode, level)
}

// RemoveUser deletes a user from the brain and drops any cached identity
// so a stale snapshot cannot outlive the account.
func (s *CommandService) RemoveUser(ctx context.Context, actorID, id int64, adminCode string) (bool, error) {
	if _, err := s.requireAdmin(ctx, actorID); err != nil {
		return false, err
	}
	ok, err := s.brain.DeleteUser(ctx, id, adminCode)
	if ok {
		s.gate.Evict(ctx, id)
	}
	return ok, err
}

// UpdateDeviceField patches a single device field.
func (s *CommandService) UpdateDeviceField(ctx context.Context, actorID int64, deviceUUID, key, value, adminCode string) (bool, error) {
	if _, err := s.requireAdmin(ctx, actorID); err != nil {
		return false, err
	}
	return s.brain.UpdateDeviceInfo(ctx, deviceUUID, key, value, adminCode)
}

// ListUsers returns all registered users. Admin only.
func (s *CommandService) ListUsers(ctx context.Context, actorID int64) ([]domain.User, error) {
	if _, err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	return s.brain.Users(ctx)
}

// Versions reports server and client version metadata.
func (s *CommandService) Versions(ctx context.Context) (domain.VersionInfo, domain.VersionInfo, error) {
	server, err := s.brain.ServerVersion(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("versions: %w", err)
	}
	client, err := s.brain.ClientVersion(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("versions: %w", err)
	}
	return server, client, nil
}

func (s *CommandService) requireAdmin(ctx context.Context, actorID int64) (*domain.User, error) {
	actor, err := s.gate.Identify(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		metrics.AccessDeniedTotal.WithLabelValues("not_admin").Inc()
		s.log.Warn().Int64("actor_id", actorID).Msg("admin operation denied")
		return nil, fmt.Errorf("actor %d: %w", actorID, domain.ErrAccessDenied)
	}
	return actor, nil
}
