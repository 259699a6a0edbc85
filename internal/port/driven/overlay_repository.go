package driven

import (
	"context"
	"time"

	"github.com/alorle/overlay-manager/internal/overlay"
)

// OverlayRepository defines the interface for overlay persistence operations.
// This is a driven port implemented by the BoltDB, SQLite and in-memory adapters.
// Every method touches at most one record.
type OverlayRepository interface {
	// Insert stores a new overlay stamped at the given instant and returns the
	// identifier assigned by the store.
	Insert(ctx context.Context, attrs overlay.Attributes, at time.Time) (overlay.ID, error)

	// FindByID retrieves an overlay. Returns overlay.ErrOverlayNotFound if it does not exist.
	FindByID(ctx context.Context, id overlay.ID) (overlay.Overlay, error)

	// FindAll retrieves every overlay, most recently created first.
	FindAll(ctx context.Context) ([]overlay.Overlay, error)

	// Update replaces the attributes of an existing overlay and refreshes its
	// update time. The creation time is preserved.
	// Returns overlay.ErrOverlayNotFound if the overlay does not exist.
	Update(ctx context.Context, id overlay.ID, attrs overlay.Attributes, at time.Time) error

	// Delete removes an overlay. Returns overlay.ErrOverlayNotFound if it does not exist.
	Delete(ctx context.Context, id overlay.ID) error

	// Count returns the number of stored overlays.
	Count(ctx context.Context) (int, error)

	// Ping checks if the store is accessible and operational.
	Ping(ctx context.Context) error
}
