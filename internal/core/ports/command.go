package ports

import (
	"context"

	"github.com/pconlabs/control-bot/internal/core/domain"
)

// DispatchInput carries one command for one device on behalf of one actor.
type DispatchInput struct {
	ActorID    int64  `validate:"required,gt=0"`
	TaskType   string `validate:"required,oneof=lock reboot sleep shutdown media_play_pause media_next media_prev"`
	DeviceUUID string `validate:"required,uuid4"`
}

// CommandService is the command-issuing interface consumed by the chat
// glue. It is the only path by which user intents reach the brain.
type CommandService interface {
	// Dispatch validates the input, gates the actor, authorizes the
	// device, and creates the task. Returns the brain-assigned task id.
	Dispatch(ctx context.Context, in DispatchInput) (int64, error)
	// DispatchToken verifies a callback token, parses its action, and
	// dispatches it for the actor.
	DispatchToken(ctx context.Context, actorID int64, token string) (int64, error)
	// ActionToken signs an action descriptor for embedding in a UI
	// control at render time.
	ActionToken(action domain.Action) (string, error)

	// DeviceList returns the actor's devices, filtered by access level.
	DeviceList(ctx context.Context, actorID int64) ([]domain.Device, error)
	DeviceTasks(ctx context.Context, actorID int64, deviceUUID string) ([]domain.Task, error)

	// Broadcast enqueues the same command for many devices with
	// per-device ordering. Admin only.
	Broadcast(ctx context.Context, actorID int64, taskType string, deviceUUIDs []string) error

	// Admin passthroughs. The actor must resolve to admin level locally;
	// the admin code itself is validated by the brain.
	FlushDeviceTasks(ctx context.Context, actorID int64, deviceUUID, adminCode string) (bool, error)
	RegisterUser(ctx context.Context, actorID, newID int64, username, adminCode, level string) (bool, error)
	RemoveUser(ctx context.Context, actorID, id int64, adminCode string) (bool, error)
	UpdateDeviceField(ctx context.Context, actorID int64, deviceUUID, key, value, adminCode string) (bool, error)
	ListUsers(ctx context.Context, actorID int64) ([]domain.User, error)

	// Versions reports server and client version metadata.
	Versions(ctx context.Context) (server, client domain.VersionInfo, err error)
}

// TaskQueue accepts commands for asynchronous, per-device-ordered delivery.
type TaskQueue interface {
	Enqueue(in DispatchInput)
}
