package ports

import (
	"context"

	"github.com/pconlabs/control-bot/internal/core/domain"
)

// IdentityCache resolves actor ids to user records within a freshness
// window, falling back to a live brain fetch on miss or expiry.
//
// A failed live fetch must not be stored; its error propagates unchanged.
// Concurrent resolves for the same cold id may both hit the brain; the
// duplicate fetch is tolerated and last write wins.
type IdentityCache interface {
	Resolve(ctx context.Context, id int64) (*domain.User, error)
	// Forget drops the cached entry for id, if any.
	Forget(ctx context.Context, id int64)
}
