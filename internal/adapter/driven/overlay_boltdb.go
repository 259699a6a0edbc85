package driven

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"github.com/alorle/overlay-manager/internal/overlay"
)

const (
	overlaysBucket = "overlays"
)

var errOverlaysBucketMissing = errors.New("overlays bucket not found")

// OverlayBoltDBRepository implements the OverlayRepository port using BoltDB.
// Each overlay is one JSON document keyed by the 16 bytes of its id.
type OverlayBoltDBRepository struct {
	db *bbolt.DB
}

// NewOverlayBoltDBRepository creates a new BoltDB-backed overlay repository.
// It initializes the required bucket if it doesn't exist.
func NewOverlayBoltDBRepository(db *bbolt.DB) (*OverlayBoltDBRepository, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}

	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(overlaysBucket))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create overlays bucket: %w", err)
	}

	return &OverlayBoltDBRepository{db: db}, nil
}

// overlayDTO is the persisted document.
type overlayDTO struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Content   json.RawMessage `json:"content"`
	Position  positionDTO     `json:"position"`
	Size      sizeDTO         `json:"size"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type positionDTO struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type sizeDTO struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func overlayToDTO(ov overlay.Overlay) overlayDTO {
	pos, size := ov.Position(), ov.Size()
	return overlayDTO{
		ID:        ov.ID().String(),
		Name:      ov.Name(),
		Type:      ov.Type(),
		Content:   ov.Content(),
		Position:  positionDTO{X: pos.X, Y: pos.Y},
		Size:      sizeDTO{Width: size.Width, Height: size.Height},
		CreatedAt: ov.CreatedAt(),
		UpdatedAt: ov.UpdatedAt(),
	}
}

func dtoToOverlay(dto overlayDTO) (overlay.Overlay, error) {
	id, err := overlay.ParseID(dto.ID)
	if err != nil {
		return overlay.Overlay{}, fmt.Errorf("stored overlay has invalid id %q: %w", dto.ID, err)
	}

	attrs := overlay.ReconstructAttributes(
		dto.Name,
		dto.Type,
		dto.Content,
		overlay.Position{X: dto.Position.X, Y: dto.Position.Y},
		overlay.Size{Width: dto.Size.Width, Height: dto.Size.Height},
	)

	return overlay.Reconstruct(id, attrs, dto.CreatedAt, dto.UpdatedAt), nil
}

func decodeOverlay(data []byte) (overlay.Overlay, error) {
	var dto overlayDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return overlay.Overlay{}, fmt.Errorf("decode overlay: %w", err)
	}
	return dtoToOverlay(dto)
}

func putOverlay(bucket *bbolt.Bucket, ov overlay.Overlay) error {
	data, err := json.Marshal(overlayToDTO(ov))
	if err != nil {
		return fmt.Errorf("encode overlay: %w", err)
	}
	return bucket.Put(ov.ID().Bytes(), data)
}

// Insert persists a new overlay under a freshly generated id.
func (r *OverlayBoltDBRepository) Insert(ctx context.Context, attrs overlay.Attributes, at time.Time) (overlay.ID, error) {
	if err := ctx.Err(); err != nil {
		return overlay.ID{}, err
	}

	id := overlay.NewID()

	err := r.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(overlaysBucket))
		if bucket == nil {
			return errOverlaysBucketMissing
		}

		if bucket.Get(id.Bytes()) != nil {
			return fmt.Errorf("overlay id %s already in use", id)
		}

		return putOverlay(bucket, overlay.New(id, attrs, at))
	})
	if err != nil {
		return overlay.ID{}, err
	}

	return id, nil
}

// FindByID retrieves an overlay by its id from BoltDB.
func (r *OverlayBoltDBRepository) FindByID(ctx context.Context, id overlay.ID) (overlay.Overlay, error) {
	if err := ctx.Err(); err != nil {
		return overlay.Overlay{}, err
	}

	var ov overlay.Overlay

	err := r.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(overlaysBucket))
		if bucket == nil {
			return errOverlaysBucketMissing
		}

		data := bucket.Get(id.Bytes())
		if data == nil {
			return overlay.ErrOverlayNotFound
		}

		decoded, err := decodeOverlay(data)
		if err != nil {
			return err
		}

		ov = decoded
		return nil
	})

	return ov, err
}

// FindAll retrieves all overlays from BoltDB, most recently created first.
func (r *OverlayBoltDBRepository) FindAll(ctx context.Context) ([]overlay.Overlay, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	overlays := []overlay.Overlay{}

	err := r.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(overlaysBucket))
		if bucket == nil {
			return errOverlaysBucketMissing
		}

		return bucket.ForEach(func(k, v []byte) error {
			ov, err := decodeOverlay(v)
			if err != nil {
				return err
			}
			overlays = append(overlays, ov)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sortNewestFirst(overlays)
	return overlays, nil
}

// Update replaces the attributes of an existing overlay in BoltDB.
func (r *OverlayBoltDBRepository) Update(ctx context.Context, id overlay.ID, attrs overlay.Attributes, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(overlaysBucket))
		if bucket == nil {
			return errOverlaysBucketMissing
		}

		data := bucket.Get(id.Bytes())
		if data == nil {
			return overlay.ErrOverlayNotFound
		}

		stored, err := decodeOverlay(data)
		if err != nil {
			return err
		}

		return putOverlay(bucket, stored.Replace(attrs, at))
	})
}

// Delete removes an overlay by its id from BoltDB.
func (r *OverlayBoltDBRepository) Delete(ctx context.Context, id overlay.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(overlaysBucket))
		if bucket == nil {
			return errOverlaysBucketMissing
		}

		key := id.Bytes()
		if bucket.Get(key) == nil {
			return overlay.ErrOverlayNotFound
		}

		return bucket.Delete(key)
	})
}

// Count returns the number of overlays stored in BoltDB.
func (r *OverlayBoltDBRepository) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var n int
	err := r.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(overlaysBucket))
		if bucket == nil {
			return errOverlaysBucketMissing
		}
		n = bucket.Stats().KeyN
		return nil
	})
	return n, err
}

// Ping checks if the BoltDB database is accessible and operational.
func (r *OverlayBoltDBRepository) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket([]byte(overlaysBucket)) == nil {
			return errOverlaysBucketMissing
		}
		return nil
	})
}

// sortNewestFirst orders overlays by creation time descending; ties fall back
// to id order, which follows insertion order.
func sortNewestFirst(overlays []overlay.Overlay) {
	sort.SliceStable(overlays, func(i, j int) bool {
		a, b := overlays[i], overlays[j]
		if !a.CreatedAt().Equal(b.CreatedAt()) {
			return a.CreatedAt().After(b.CreatedAt())
		}
		return a.ID().Compare(b.ID()) > 0
	})
}
