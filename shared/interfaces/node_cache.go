package interfaces

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CurrentNodeCache is an advisory cache of the cursor position per
// (player, story). Postgres stays authoritative: only accepted transitions
// write the pair's entry (after their transaction commits), and read paths
// never write it, so a stale read cannot mask a newer transition.
//
//go:generate mockery --name CurrentNodeCache --output ./mocks --outpkg mocks --case=underscore
type CurrentNodeCache interface {
	// Get returns the cached current node ID for the pair.
	// Returns models.ErrNotFound on a cache miss.
	Get(ctx context.Context, playerID, storyID uuid.UUID) (uuid.UUID, error)

	// Set stores the current node ID for the pair with a TTL.
	Set(ctx context.Context, playerID, storyID, nodeID uuid.UUID, ttl time.Duration) error

	// Invalidate drops the pair's entry. Dropping a missing entry is not an
	// error.
	Invalidate(ctx context.Context, playerID, storyID uuid.UUID) error
}
