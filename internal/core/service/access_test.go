package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/pconlabs/control-bot/internal/core/domain"
)

// stubCache resolves from a fixed map; unknown ids report ErrNotFound the
// way a live fetch against the brain would.
type stubCache struct {
	users     map[int64]*domain.User
	resolveErr error
	forgotten  []int64
}

func newStubCache(users ...*domain.User) *stubCache {
	c := &stubCache{users: make(map[int64]*domain.User)}
	for _, u := range users {
		c.users[u.ID] = u
	}
	return c
}

func (c *stubCache) Resolve(_ context.Context, id int64) (*domain.User, error) {
	if c.resolveErr != nil {
		return nil, c.resolveErr
	}
	u, ok := c.users[id]
	if !ok {
		return nil, &domain.BackendError{Type: "NotFound", Message: "no such user"}
	}
	clone := *u
	return &clone, nil
}

func (c *stubCache) Forget(_ context.Context, id int64) {
	c.forgotten = append(c.forgotten, id)
	delete(c.users, id)
}

var discardLogger = zerolog.Nop()

func TestAccessGate_Identify_KnownActor(t *testing.T) {
	gate := NewAccessGate(newStubCache(&domain.User{ID: 42, Username: "alice", Level: domain.LevelUser}), discardLogger)

	actor, err := gate.Identify(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if actor.Username != "alice" || actor.Level != domain.LevelUser {
		t.Errorf("actor fields wrong: %+v", actor)
	}
}

func TestAccessGate_Identify_UnknownActorDenied(t *testing.T) {
	gate := NewAccessGate(newStubCache(), discardLogger)

	_, err := gate.Identify(context.Background(), 999)
	if !errors.Is(err, domain.ErrAccessDenied) {
		t.Errorf("expected ErrAccessDenied, got %v", err)
	}
}

func TestAccessGate_Identify_BackendTroubleFailsClosed(t *testing.T) {
	cache := newStubCache()
	cache.resolveErr = &domain.TransportError{Op: "get_user", Err: errors.New("down")}
	gate := NewAccessGate(cache, discardLogger)

	_, err := gate.Identify(context.Background(), 42)
	if !errors.Is(err, domain.ErrAccessDenied) {
		t.Errorf("unreachable brain must deny, got %v", err)
	}
}

func TestAccessGate_AuthorizeDevice(t *testing.T) {
	gate := NewAccessGate(newStubCache(), discardLogger)

	cases := []struct {
		name   string
		actor  domain.User
		device domain.Device
		want   bool
	}{
		{
			name:   "network access matches level",
			actor:  domain.User{Level: domain.LevelUser},
			device: domain.Device{NetworkAccess: "user"},
			want:   true,
		},
		{
			name:   "admin overrides tag",
			actor:  domain.User{Level: domain.LevelAdmin},
			device: domain.Device{NetworkAccess: "user"},
			want:   true,
		},
		{
			name:   "shared group grants access",
			actor:  domain.User{Level: domain.LevelUser, Groups: []string{"home", "lab"}},
			device: domain.Device{NetworkAccess: "admin", Groups: []string{"lab"}},
			want:   true,
		},
		{
			name:   "user level vs admin device, no shared groups",
			actor:  domain.User{Level: domain.LevelUser, Groups: []string{"home"}},
			device: domain.Device{NetworkAccess: "admin", Groups: []string{"office"}},
			want:   false,
		},
		{
			name:   "no groups at all",
			actor:  domain.User{Level: domain.LevelUser},
			device: domain.Device{NetworkAccess: "admin"},
			want:   false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := gate.AuthorizeDevice(&tc.actor, &tc.device); got != tc.want {
				t.Errorf("AuthorizeDevice = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAccessGate_FilterDevices_ByLevel(t *testing.T) {
	gate := NewAccessGate(newStubCache(), discardLogger)
	devices := []domain.Device{
		{UUID: "a", NetworkAccess: "user"},
		{UUID: "b", NetworkAccess: "admin"},
		{UUID: "c", NetworkAccess: "user"},
	}

	actor := &domain.User{Level: domain.LevelUser}
	got := gate.FilterDevices(actor, devices)
	if len(got) != 2 || got[0].UUID != "a" || got[1].UUID != "c" {
		t.Errorf("user filter wrong: %+v", got)
	}
}

func TestAccessGate_FilterDevices_AdminSeesAll(t *testing.T) {
	gate := NewAccessGate(newStubCache(), discardLogger)
	devices := []domain.Device{
		{UUID: "a", NetworkAccess: "user"},
		{UUID: "b", NetworkAccess: "admin"},
	}

	got := gate.FilterDevices(&domain.User{Level: domain.LevelAdmin}, devices)
	if len(got) != 2 {
		t.Errorf("admin must see all devices, got %d", len(got))
	}
}

func TestAccessGate_Evict(t *testing.T) {
	cache := newStubCache(&domain.User{ID: 42, Level: domain.LevelUser})
	gate := NewAccessGate(cache, discardLogger)

	gate.Evict(context.Background(), 42)
	if len(cache.forgotten) != 1 || cache.forgotten[0] != 42 {
		t.Errorf("expected Forget(42), got %v", cache.forgotten)
	}
}
