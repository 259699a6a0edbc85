package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alorle/overlay-manager/internal/overlay"
	"github.com/alorle/overlay-manager/internal/port/driven"
	"github.com/alorle/overlay-manager/metrics"
)

// ErrNoRepository is returned when an OverlayService is built without a store.
var ErrNoRepository = errors.New("overlay repository is required")

// Operation names used for logging and metrics.
const (
	opCreate = "create"
	opList   = "list"
	opGet    = "get"
	opUpdate = "update"
	opDelete = "delete"
)

// OverlayService provides the overlay CRUD use cases.
// It is the only component that validates overlay payloads and talks to the store.
type OverlayService struct {
	repo   driven.OverlayRepository
	logger *slog.Logger
	clock  Clock
}

// Option configures an OverlayService.
type Option func(*OverlayService)

// WithClock overrides the clock used to stamp created_at and updated_at.
func WithClock(c Clock) Option {
	return func(s *OverlayService) {
		if c != nil {
			s.clock = c
		}
	}
}

// NewOverlayService creates an OverlayService bound to repo.
// A nil logger discards log output.
func NewOverlayService(repo driven.OverlayRepository, logger *slog.Logger, opts ...Option) (*OverlayService, error) {
	if repo == nil {
		return nil, ErrNoRepository
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &OverlayService{
		repo:   repo,
		logger: logger,
		clock:  RealClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateOverlay validates the payload and stores a new overlay.
// Returns an error wrapping overlay.ErrInvalidOverlay if the payload is rejected.
func (s *OverlayService) CreateOverlay(ctx context.Context, p overlay.Payload) (_ overlay.Overlay, err error) {
	defer s.record(opCreate, time.Now(), &err)

	attrs, err := overlay.NewAttributes(p)
	if err != nil {
		return overlay.Overlay{}, err
	}

	id, err := s.repo.Insert(ctx, attrs, s.clock.Now())
	if err != nil {
		s.logger.Error("failed to insert overlay", "operation", opCreate, "error", err)
		return overlay.Overlay{}, fmt.Errorf("insert overlay: %w", err)
	}

	created, err := s.readBack(ctx, opCreate, id)
	if err != nil {
		return overlay.Overlay{}, err
	}

	s.logger.Info("overlay created", "id", id.String(), "type", created.Type())
	return created, nil
}

// ListOverlays returns every overlay, most recently created first.
// An empty store yields an empty, non-nil slice.
func (s *OverlayService) ListOverlays(ctx context.Context) (_ []overlay.Overlay, err error) {
	defer s.record(opList, time.Now(), &err)

	overlays, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.Error("failed to list overlays", "operation", opList, "error", err)
		return nil, fmt.Errorf("list overlays: %w", err)
	}
	if overlays == nil {
		overlays = []overlay.Overlay{}
	}
	return overlays, nil
}

// GetOverlay retrieves an overlay by its string identifier.
// Returns an error wrapping overlay.ErrOverlayNotFound if the id is malformed or unknown.
func (s *OverlayService) GetOverlay(ctx context.Context, rawID string) (_ overlay.Overlay, err error) {
	defer s.record(opGet, time.Now(), &err)

	id, err := overlay.ParseID(rawID)
	if err != nil {
		return overlay.Overlay{}, err
	}

	return s.find(ctx, opGet, id)
}

// UpdateOverlay replaces the name, type, content, position and size of an
// existing overlay. The id and created_at never change.
//
// The id is resolved before the payload is validated, so an unknown id reports
// not found even when the payload is also invalid.
func (s *OverlayService) UpdateOverlay(ctx context.Context, rawID string, p overlay.Payload) (_ overlay.Overlay, err error) {
	defer s.record(opUpdate, time.Now(), &err)

	id, err := overlay.ParseID(rawID)
	if err != nil {
		return overlay.Overlay{}, err
	}

	if _, err := s.find(ctx, opUpdate, id); err != nil {
		return overlay.Overlay{}, err
	}

	attrs, err := overlay.NewAttributes(p)
	if err != nil {
		return overlay.Overlay{}, err
	}

	if err := s.repo.Update(ctx, id, attrs, s.clock.Now()); err != nil {
		if errors.Is(err, overlay.ErrOverlayNotFound) {
			return overlay.Overlay{}, err
		}
		s.logger.Error("failed to update overlay", "operation", opUpdate, "id", id.String(), "error", err)
		return overlay.Overlay{}, fmt.Errorf("update overlay %s: %w", id, err)
	}

	updated, err := s.readBack(ctx, opUpdate, id)
	if err != nil {
		return overlay.Overlay{}, err
	}

	s.logger.Info("overlay updated", "id", id.String())
	return updated, nil
}

// DeleteOverlay removes an overlay. It reports true only when a record existed
// and was removed; malformed and unknown ids report false without error.
func (s *OverlayService) DeleteOverlay(ctx context.Context, rawID string) (deleted bool, err error) {
	start := time.Now()
	defer func() {
		outcome := outcomeOf(err)
		if err == nil && !deleted {
			outcome = metrics.OutcomeNotFound
		}
		metrics.RecordOperation(opDelete, outcome, time.Since(start))
	}()

	id, err := overlay.ParseID(rawID)
	if err != nil {
		return false, nil
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, overlay.ErrOverlayNotFound) {
			return false, nil
		}
		s.logger.Error("failed to delete overlay", "operation", opDelete, "id", id.String(), "error", err)
		return false, fmt.Errorf("delete overlay %s: %w", id, err)
	}

	s.logger.Info("overlay deleted", "id", id.String())
	return true, nil
}

func (s *OverlayService) find(ctx context.Context, op string, id overlay.ID) (overlay.Overlay, error) {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, overlay.ErrOverlayNotFound) {
			return overlay.Overlay{}, err
		}
		s.logger.Error("failed to read overlay", "operation", op, "id", id.String(), "error", err)
		return overlay.Overlay{}, fmt.Errorf("read overlay %s: %w", id, err)
	}
	return o, nil
}

// readBack fetches a record the service has just written. Its absence is a
// store failure, not a client error.
func (s *OverlayService) readBack(ctx context.Context, op string, id overlay.ID) (overlay.Overlay, error) {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to read back overlay", "operation", op, "id", id.String(), "error", err)
		if errors.Is(err, overlay.ErrOverlayNotFound) {
			return overlay.Overlay{}, fmt.Errorf("overlay %s missing after %s", id, op)
		}
		return overlay.Overlay{}, fmt.Errorf("read back overlay %s: %w", id, err)
	}
	return o, nil
}

func (s *OverlayService) record(op string, start time.Time, err *error) {
	metrics.RecordOperation(op, outcomeOf(*err), time.Since(start))
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, overlay.ErrInvalidOverlay):
		return metrics.OutcomeInvalid
	case errors.Is(err, overlay.ErrOverlayNotFound):
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeError
	}
}
