package driven

import (
	"context"
	"sync"
	"time"

	"github.com/alorle/overlay-manager/internal/overlay"
)

// OverlayMemoryRepository implements the OverlayRepository port in process memory.
// Contents are lost when the process exits.
type OverlayMemoryRepository struct {
	mu       sync.RWMutex
	overlays map[overlay.ID]overlay.Overlay
}

// NewOverlayMemoryRepository creates an empty in-memory overlay repository.
func NewOverlayMemoryRepository() *OverlayMemoryRepository {
	return &OverlayMemoryRepository{
		overlays: make(map[overlay.ID]overlay.Overlay),
	}
}

func (r *OverlayMemoryRepository) Insert(ctx context.Context, attrs overlay.Attributes, at time.Time) (overlay.ID, error) {
	if err := ctx.Err(); err != nil {
		return overlay.ID{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := overlay.NewID()
	r.overlays[id] = overlay.New(id, attrs, at)
	return id, nil
}

func (r *OverlayMemoryRepository) FindByID(ctx context.Context, id overlay.ID) (overlay.Overlay, error) {
	if err := ctx.Err(); err != nil {
		return overlay.Overlay{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	ov, ok := r.overlays[id]
	if !ok {
		return overlay.Overlay{}, overlay.ErrOverlayNotFound
	}
	return ov, nil
}

func (r *OverlayMemoryRepository) FindAll(ctx context.Context) ([]overlay.Overlay, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	overlays := make([]overlay.Overlay, 0, len(r.overlays))
	for _, ov := range r.overlays {
		overlays = append(overlays, ov)
	}
	r.mu.RUnlock()

	sortNewestFirst(overlays)
	return overlays, nil
}

func (r *OverlayMemoryRepository) Update(ctx context.Context, id overlay.ID, attrs overlay.Attributes, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.overlays[id]
	if !ok {
		return overlay.ErrOverlayNotFound
	}
	r.overlays[id] = stored.Replace(attrs, at)
	return nil
}

func (r *OverlayMemoryRepository) Delete(ctx context.Context, id overlay.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.overlays[id]; !ok {
		return overlay.ErrOverlayNotFound
	}
	delete(r.overlays, id)
	return nil
}

func (r *OverlayMemoryRepository) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.overlays), nil
}

func (r *OverlayMemoryRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}
