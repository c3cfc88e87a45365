package domain

import "time"

// TaskType identifies a command the device-side agent knows how to execute.
type TaskType string

const (
	TaskLock           TaskType = "lock"
	TaskReboot         TaskType = "reboot"
	TaskSleep          TaskType = "sleep"
	TaskShutdown       TaskType = "shutdown"
	TaskMediaPlayPause TaskType = "media_play_pause"
	TaskMediaNext      TaskType = "media_next"
	TaskMediaPrev      TaskType = "media_prev"
)

// TaskTypes lists every dispatchable task type.
var TaskTypes = []TaskType{
	TaskLock,
	TaskReboot,
	TaskSleep,
	TaskShutdown,
	TaskMediaPlayPause,
	TaskMediaNext,
	TaskMediaPrev,
}

// ValidTaskType reports whether s names a dispatchable task type.
func ValidTaskType(s string) bool {
	for _, t := range TaskTypes {
		if TaskType(s) == t {
			return true
		}
	}
	return false
}

// Task is a pending command enqueued for a device. The id is assigned by
// the brain and is monotonic per device.
type Task struct {
	ID         int64     `json:"id"`
	Type       TaskType  `json:"type"`
	DeviceUUID string    `json:"device_uuid"`
	CreatedAt  time.Time `json:"created_at"`
}

// VersionInfo carries whatever version fields the brain reports for the
// server or the device-side client.
type VersionInfo map[string]any
