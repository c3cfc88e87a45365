package brain

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pconlabs/control-bot/internal/core/domain"
)

const testUUID = "8e9f0a64-1b2c-4d3e-8f90-a1b2c3d4e5f6"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{
		Endpoint: srv.URL,
		Secret:   "test-secret",
		Timeout:  2 * time.Second,
	}, zerolog.Nop())
}

// decodeBody reverses the client's base64(JSON) body encoding.
func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	b64, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(string(b64))
	if err != nil {
		t.Fatalf("body is not base64: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("body is not base64(JSON): %v", err)
	}
	return m
}

func TestClient_SignsEveryRequest(t *testing.T) {
	var gotSecret string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotSecret = r.Header.Get("X-PCON-Secret")
		_, _ = w.Write([]byte(`{"ok": true, "users": []}`))
	})

	if _, err := c.Users(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotSecret != "test-secret" {
		t.Errorf("expected secret header, got %q", gotSecret)
	}
}

func TestClient_CreateTask_UnwrapsID(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		body = decodeBody(t, r)
		_, _ = w.Write([]byte(`{"ok": true, "id": 7}`))
	})

	id, err := c.CreateTask(context.Background(), domain.TaskLock, testUUID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 7 {
		t.Errorf("expected task id 7, got %d", id)
	}
	if body["device_uuid"] != testUUID {
		t.Errorf("body device_uuid: got %v", body["device_uuid"])
	}
	if body["type"] != "lock" {
		t.Errorf("body type: got %v", body["type"])
	}
}

func TestClient_FlushTasks_ApplicationError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok": false, "error": "forbidden", "error_type": "AuthError"}`))
	})

	ok, err := c.FlushTasks(context.Background(), testUUID, "bad-code")
	if ok {
		t.Error("expected false on application error")
	}
	var berr *domain.BackendError
	if !errors.As(err, &berr) {
		t.Fatalf("expected *BackendError, got %T (%v)", err, err)
	}
	if berr.Type != "AuthError" || berr.Message != "forbidden" {
		t.Errorf("error detail lost: %+v", berr)
	}
}

func TestClient_HTTP500_IsTransportError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"ok": true, "id": 1}`))
	})

	_, err := c.CreateTask(context.Background(), domain.TaskReboot, testUUID)
	var terr *domain.TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("expected *TransportError for HTTP 500, got %T (%v)", err, err)
	}
}

func TestClient_NonJSONBody_IsTransportError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>gateway timeout</html>`))
	})

	_, err := c.User(context.Background(), 42)
	var terr *domain.TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("expected *TransportError for non-JSON body, got %T (%v)", err, err)
	}
}

func TestClient_MissingOK_IsTransportError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := c.User(context.Background(), 42)
	var terr *domain.TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("expected *TransportError for bare empty object, got %T (%v)", err, err)
	}
}

func TestClient_Unreachable_IsTransportError(t *testing.T) {
	c := New(Config{
		Endpoint: "http://127.0.0.1:1",
		Secret:   "test-secret",
		Timeout:  500 * time.Millisecond,
	}, zerolog.Nop())

	_, err := c.User(context.Background(), 42)
	var terr *domain.TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("expected *TransportError for unreachable brain, got %T (%v)", err, err)
	}
}

func TestClient_NotFound_MatchesSentinel(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok": false, "error": "no such user", "error_type": "NotFound"}`))
	})

	_, err := c.User(context.Background(), 404)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected errors.Is(err, ErrNotFound), got %v", err)
	}
}

func TestClient_User_InlineFields(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body = decodeBody(t, r)
		_, _ = w.Write([]byte(`{"ok": true, "id": 42, "username": "alice", "level": "admin", "groups": ["lab"]}`))
	})

	u, err := c.User(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != 42 || u.Username != "alice" || u.Level != "admin" {
		t.Errorf("user fields wrong: %+v", u)
	}
	if len(u.Groups) != 1 || u.Groups[0] != "lab" {
		t.Errorf("groups wrong: %v", u.Groups)
	}
	if body["id"] != float64(42) {
		t.Errorf("request body id: got %v", body["id"])
	}
}

func TestClient_DevicesForUser_UnwrapsPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok": true, "devices": [
			{"uuid": "` + testUUID + `", "hostname": "desk", "status": "Online", "network_access": "user"}
		]}`))
	})

	devices, err := c.DevicesForUser(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("expected 1 device, got %d", len(devices))
	}
	if devices[0].UUID != testUUID || !devices[0].Online() {
		t.Errorf("device fields wrong: %+v", devices[0])
	}
}

func TestClient_UpdateDeviceInfo_PartialUpdateBody(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("expected PATCH, got %s", r.Method)
		}
		body = decodeBody(t, r)
		_, _ = w.Write([]byte(`{"ok": true}`))
	})

	ok, err := c.UpdateDeviceInfo(context.Background(), testUUID, "alias", "workstation", "code-123")
	if err != nil || !ok {
		t.Fatalf("unexpected result: %v %v", ok, err)
	}
	updates, _ := body["updates"].(map[string]any)
	if updates["alias"] != "workstation" {
		t.Errorf("updates body wrong: %v", body["updates"])
	}
	if body["admin_code"] != "code-123" {
		t.Errorf("admin_code missing: %v", body["admin_code"])
	}
}

func TestClient_InvalidUUID_NoNetworkCall(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		_, _ = w.Write([]byte(`{"ok": true}`))
	})

	_, err := c.Device(context.Background(), "not-a-uuid")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if called {
		t.Error("malformed uuid must be rejected before any request")
	}
}

func TestClient_CreateUser_DefaultsLevel(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body = decodeBody(t, r)
		_, _ = w.Write([]byte(`{"ok": true}`))
	})

	ok, err := c.CreateUser(context.Background(), 77, "bob", "code", "")
	if err != nil || !ok {
		t.Fatalf("unexpected result: %v %v", ok, err)
	}
	if body["level"] != "user" {
		t.Errorf("expected default level user, got %v", body["level"])
	}
}

func TestClient_CreateUser_RejectsUnknownLevel(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request")
	})

	_, err := c.CreateUser(context.Background(), 77, "bob", "code", "root")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestClient_ServerVersion_StripsEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok": true, "version": "2.2.0", "build": "41"}`))
	})

	info, err := c.ServerVersion(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info["version"] != "2.2.0" || info["build"] != "41" {
		t.Errorf("version fields wrong: %v", info)
	}
	if _, leaked := info["ok"]; leaked {
		t.Error("envelope ok field leaked into version payload")
	}
}
