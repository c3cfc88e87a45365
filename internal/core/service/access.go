package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pconlabs/control-bot/internal/api/metrics"
	"github.com/pconlabs/control-bot/internal/core/domain"
	"github.com/pconlabs/control-bot/internal/core/ports"
)

// AccessGate gates every privileged action on a valid, current identity.
// Identity resolution goes through the identity cache; device-scoped
// authorization is a set-intersection test over access levels and groups.
type AccessGate struct {
	cache ports.IdentityCache
	log   zerolog.Logger
}

func NewAccessGate(cache ports.IdentityCache, log zerolog.Logger) *AccessGate {
	return &AccessGate{cache: cache, log: log}
}

// Identify resolves the actor. Any failure to produce a record (unknown
// actor, backend trouble) is a denial: the gate fails closed. The
// underlying cause is logged, not returned, so callers see one uniform
// denial outcome.
func (g *AccessGate) Identify(ctx context.Context, actorID int64) (*domain.User, error) {
	actor, err := g.cache.Resolve(ctx, actorID)
	if err != nil {
		metrics.AccessDeniedTotal.WithLabelValues("unresolved").Inc()
		g.log.Warn().Err(err).Int64("actor_id", actorID).Msg("access denied")
		return nil, fmt.Errorf("identify actor %d: %w", actorID, domain.ErrAccessDenied)
	}
	g.log.Debug().Int64("actor_id", actorID).Str("level", actor.Level).Msg("access granted")
	return actor, nil
}

// AuthorizeDevice reports whether actor may act on device: the device's
// network-access tag matches the actor's level, the actor is admin, or
// the two share at least one group.
func (g *AccessGate) AuthorizeDevice(actor *domain.User, device *domain.Device) bool {
	if device.NetworkAccess == actor.Level {
		return true
	}
	if actor.IsAdmin() {
		return true
	}
	return device.SharesGroupWith(actor)
}

// FilterDevices keeps the devices whose network-access tag matches the
// actor's level. Admins see everything.
func (g *AccessGate) FilterDevices(actor *domain.User, devices []domain.Device) []domain.Device {
	if actor.IsAdmin() {
		return devices
	}
	out := make([]domain.Device, 0, len(devices))
	for _, d := range devices {
		if d.NetworkAccess == actor.Level {
			out = append(out, d)
		}
	}
	return out
}

// Evict drops the actor's cached identity, forcing the next Identify to
// fetch live. Used after user records change upstream.
func (g *AccessGate) Evict(ctx context.Context, actorID int64) {
	g.cache.Forget(ctx, actorID)
}
