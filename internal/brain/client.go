// Package brain implements the typed HTTP client for the brain backend:
// the remote system of record for users, devices, and tasks.
//
// Every call signs the request with the shared secret header, sends its
// parameters as a base64-encoded JSON body, and normalizes the brain's
// loose {ok: true, ...} / {error, error_type} envelope into the error
// taxonomy declared on ports.BrainClient.
package brain

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/pconlabs/control-bot/internal/api/metrics"
	"github.com/pconlabs/control-bot/internal/core/domain"
)

// secretHeader carries the static shared secret on every request.
const secretHeader = "X-PCON-Secret"

const defaultTimeout = 15 * time.Second

// Config captures the settings for talking to the brain.
type Config struct {
	Endpoint string
	Secret   string
	Timeout  time.Duration
}

// Client implements ports.BrainClient over HTTP. It holds no state beyond
// connection configuration.
type Client struct {
	endpoint string
	secret   string
	http     *http.Client
	log      zerolog.Logger
}

// New builds a Client. A default timeout is applied when none is provided;
// individual calls additionally honor ctx cancellation.
func New(cfg Config, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		secret:   cfg.Secret,
		http:     &http.Client{Timeout: timeout},
		log:      log,
	}
}

// envelope is the brain's response framing. A response either carries
// ok: true alongside the call-specific payload, or error/error_type.
type envelope struct {
	OK        bool   `json:"ok"`
	Error     string `json:"error"`
	ErrorType string `json:"error_type"`
}

// call performs one signed request and decodes the envelope. When out is
// non-nil the full response body is unmarshalled into it, so payload
// fields living beside "ok" land directly on the target struct.
func (c *Client) call(ctx context.Context, op, method, path string, params, out any) error {
	timer := prometheus.NewTimer(metrics.BrainRequestDuration.WithLabelValues(op))
	defer timer.ObserveDuration()

	var body io.Reader
	var logged string
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return c.fail(op, fmt.Errorf("marshal params: %w", err))
		}
		logged = truncate(string(raw), 256)
		body = strings.NewReader(base64.StdEncoding.EncodeToString(raw))
	}

	c.log.Debug().
		Str("op", op).
		Str("method", method).
		Str("path", path).
		Str("payload", logged).
		Msg("brain request")

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return c.fail(op, err)
	}
	req.Header.Set(secretHeader, c.secret)

	resp, err := c.http.Do(req)
	if err != nil {
		return c.fail(op, err)
	}
	defer resp.Body.Close()

	// A 500 is a hard failure regardless of what the body says.
	if resp.StatusCode == http.StatusInternalServerError {
		return c.fail(op, errors.New("brain internal server error"))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.fail(op, fmt.Errorf("read body: %w", err))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return c.fail(op, fmt.Errorf("decode body: %w", err))
	}

	if env.Error != "" || env.ErrorType != "" {
		berr := &domain.BackendError{Type: env.ErrorType, Message: env.Error}
		outcome := "app_error"
		if errors.Is(berr, domain.ErrNotFound) {
			outcome = "not_found"
		}
		metrics.BrainRequestsTotal.WithLabelValues(op, outcome).Inc()
		c.log.Error().
			Str("op", op).
			Int("status", resp.StatusCode).
			Str("error_type", env.ErrorType).
			Str("error", env.Error).
			Msg("brain reported an error")
		return berr
	}

	if !env.OK {
		return c.fail(op, errors.New("unexpected response shape"))
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return c.fail(op, fmt.Errorf("decode payload: %w", err))
		}
	}

	metrics.BrainRequestsTotal.WithLabelValues(op, "ok").Inc()
	return nil
}

// fail records a transport failure: connection trouble, timeouts, bad
// bodies, HTTP 500. Logged here so call sites stay clean.
func (c *Client) fail(op string, err error) error {
	metrics.BrainRequestsTotal.WithLabelValues(op, "transport_error").Inc()
	c.log.Error().Err(err).Str("op", op).Msg("brain request failed")
	return &domain.TransportError{Op: op, Err: err}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// User fetches a user record by actor id. User fields arrive inline
// beside the envelope's ok field.
func (c *Client) User(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	if err := c.call(ctx, "get_user", http.MethodGet, "/api/user", map[string]any{"id": id}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Users lists all registered users.
func (c *Client) Users(ctx context.Context) ([]domain.User, error) {
	var out struct {
		Users []domain.User `json:"users"`
	}
	if err := c.call(ctx, "list_users", http.MethodGet, "/api/users", nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

// CreateUser registers a new user. The admin code is validated by the
// brain, not here. An empty level defaults to "user".
func (c *Client) CreateUser(ctx context.Context, id int64, username, adminCode, level string) (bool, error) {
	if level == "" {
		level = domain.LevelUser
	}
	if !domain.ValidLevel(level) {
		return false, fmt.Errorf("access level %q: %w", level, domain.ErrInvalidInput)
	}
	err := c.call(ctx, "add_user", http.MethodPost, "/api/user", map[string]any{
		"id":         id,
		"username":   username,
		"level":      level,
		"admin_code": adminCode,
	}, nil)
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeleteUser removes a user from the brain.
func (c *Client) DeleteUser(ctx context.Context, id int64, adminCode string) (bool, error) {
	err := c.call(ctx, "delete_user", http.MethodDelete, "/api/user", map[string]any{
		"id":         id,
		"admin_code": adminCode,
	}, nil)
	if err != nil {
		return false, err
	}
	return true, nil
}

// DevicesForUser returns the devices registered to the given user. The
// brain filters by ownership server-side.
func (c *Client) DevicesForUser(ctx context.Context, id int64) ([]domain.Device, error) {
	var out struct {
		Devices []domain.Device `json:"devices"`
	}
	if err := c.call(ctx, "get_devices", http.MethodGet, "/api/devices", map[string]any{"id": id}, &out); err != nil {
		return nil, err
	}
	return out.Devices, nil
}

// Device fetches a single device record.
func (c *Client) Device(ctx context.Context, deviceUUID string) (*domain.Device, error) {
	if !domain.ValidUUID(deviceUUID) {
		return nil, fmt.Errorf("device uuid %q: %w", deviceUUID, domain.ErrInvalidInput)
	}
	var d domain.Device
	if err := c.call(ctx, "get_device", http.MethodGet, "/api/device", map[string]any{"device_uuid": deviceUUID}, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// UpdateDeviceInfo patches one device field; only the named key changes.
func (c *Client) UpdateDeviceInfo(ctx context.Context, deviceUUID, key, value, adminCode string) (bool, error) {
	if !domain.ValidUUID(deviceUUID) {
		return false, fmt.Errorf("device uuid %q: %w", deviceUUID, domain.ErrInvalidInput)
	}
	err := c.call(ctx, "update_device", http.MethodPatch, "/api/device", map[string]any{
		"device_uuid": deviceUUID,
		"admin_code":  adminCode,
		"updates":     map[string]string{key: value},
	}, nil)
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateTask enqueues a command for a device and returns the task id the
// brain assigned.
func (c *Client) CreateTask(ctx context.Context, taskType domain.TaskType, deviceUUID string) (int64, error) {
	if !domain.ValidUUID(deviceUUID) {
		return 0, fmt.Errorf("device uuid %q: %w", deviceUUID, domain.ErrInvalidInput)
	}
	var out struct {
		ID int64 `json:"id"`
	}
	err := c.call(ctx, "create_task", http.MethodPost, "/api/task", map[string]any{
		"device_uuid": deviceUUID,
		"type":        taskType,
	}, &out)
	if err != nil {
		return 0, err
	}
	c.log.Info().
		Str("type", string(taskType)).
		Str("device_uuid", deviceUUID).
		Int64("task_id", out.ID).
		Msg("task created")
	return out.ID, nil
}

// TasksForDevice lists the pending tasks for a device.
func (c *Client) TasksForDevice(ctx context.Context, deviceUUID string) ([]domain.Task, error) {
	if !domain.ValidUUID(deviceUUID) {
		return nil, fmt.Errorf("device uuid %q: %w", deviceUUID, domain.ErrInvalidInput)
	}
	var out struct {
		Tasks []domain.Task `json:"tasks"`
	}
	if err := c.call(ctx, "get_tasks", http.MethodGet, "/api/tasks", map[string]any{"device_uuid": deviceUUID}, &out); err != nil {
		return nil, err
	}
	return out.Tasks, nil
}

// FlushTasks drops all pending tasks for a device. Requires an admin code,
// validated server-side.
func (c *Client) FlushTasks(ctx context.Context, deviceUUID, adminCode string) (bool, error) {
	if !domain.ValidUUID(deviceUUID) {
		return false, fmt.Errorf("device uuid %q: %w", deviceUUID, domain.ErrInvalidInput)
	}
	err := c.call(ctx, "flush_tasks", http.MethodDelete, "/api/tasks", map[string]any{
		"device_uuid": deviceUUID,
		"admin_code":  adminCode,
	}, nil)
	if err != nil {
		return false, err
	}
	return true, nil
}

// ServerVersion reports the brain server's version metadata.
func (c *Client) ServerVersion(ctx context.Context) (domain.VersionInfo, error) {
	return c.version(ctx, "get_server_version", "/api/version/server")
}

// ClientVersion reports the latest device-side client version.
func (c *Client) ClientVersion(ctx context.Context) (domain.VersionInfo, error) {
	return c.version(ctx, "get_client_version", "/api/version/client")
}

func (c *Client) version(ctx context.Context, op, path string) (domain.VersionInfo, error) {
	info := domain.VersionInfo{}
	if err := c.call(ctx, op, http.MethodGet, path, nil, &info); err != nil {
		return nil, err
	}
	// The payload arrives beside the envelope fields; strip the framing.
	delete(info, "ok")
	return info, nil
}
