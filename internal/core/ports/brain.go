package ports

import (
	"context"

	"github.com/pconlabs/control-bot/internal/core/domain"
)

// BrainClient is the typed surface of the brain backend: the remote system
// of record for users, devices, and tasks.
//
// Errors follow a fixed taxonomy instead of the brain's loose envelope:
// domain.ErrNotFound (the brain answered, no such record),
// *domain.BackendError (application failure with type and message), and
// *domain.TransportError (unreachable, bad body, HTTP 500). Methods never
// panic; boolean operations additionally return false on any failure.
type BrainClient interface {
	// User fetches a user record. This is the raw lookup; the 300s
	// cache-aside behaviour lives in the identity cache.
	User(ctx context.Context, id int64) (*domain.User, error)
	Users(ctx context.Context) ([]domain.User, error)
	// CreateUser registers a user with the given access level. The admin
	// code is validated server-side only.
	CreateUser(ctx context.Context, id int64, username, adminCode, level string) (bool, error)
	DeleteUser(ctx context.Context, id int64, adminCode string) (bool, error)

	DevicesForUser(ctx context.Context, id int64) ([]domain.Device, error)
	Device(ctx context.Context, deviceUUID string) (*domain.Device, error)
	// UpdateDeviceInfo patches a single device field; only the named key
	// changes.
	UpdateDeviceInfo(ctx context.Context, deviceUUID, key, value, adminCode string) (bool, error)

	// CreateTask enqueues a command for a device and returns the
	// brain-assigned task id.
	CreateTask(ctx context.Context, taskType domain.TaskType, deviceUUID string) (int64, error)
	TasksForDevice(ctx context.Context, deviceUUID string) ([]domain.Task, error)
	FlushTasks(ctx context.Context, deviceUUID, adminCode string) (bool, error)

	ServerVersion(ctx context.Context) (domain.VersionInfo, error)
	ClientVersion(ctx context.Context) (domain.VersionInfo, error)
}
