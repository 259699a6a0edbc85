package driven

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alorle/overlay-manager/internal/overlay"
	port "github.com/alorle/overlay-manager/internal/port/driven"
)

var baseTime = time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)

func testAttrs(name string) overlay.Attributes {
	return overlay.ReconstructAttributes(
		name,
		"text",
		json.RawMessage(`{"text":"`+name+`"}`),
		overlay.Position{X: 10, Y: 20},
		overlay.Size{Width: 300, Height: 50},
	)
}

// runOverlayRepositoryContract exercises the behavior every OverlayRepository
// backend must share.
func runOverlayRepositoryContract(t *testing.T, newRepo func(t *testing.T) port.OverlayRepository) {
	t.Run("insert then find returns the stored overlay", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		id, err := repo.Insert(ctx, testAttrs("Caption"), baseTime)
		if err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
		if id.IsZero() {
			t.Fatal("Insert() returned zero id")
		}

		found, err := repo.FindByID(ctx, id)
		if err != nil {
			t.Fatalf("FindByID() error = %v", err)
		}
		if found.ID() != id {
			t.Errorf("ID() = %v, want %v", found.ID(), id)
		}
		if !found.Attributes().Equal(testAttrs("Caption")) {
			t.Errorf("Attributes() = %+v, want %+v", found.Attributes(), testAttrs("Caption"))
		}
		if !found.CreatedAt().Equal(baseTime) || !found.UpdatedAt().Equal(baseTime) {
			t.Errorf("timestamps = %v/%v, want %v", found.CreatedAt(), found.UpdatedAt(), baseTime)
		}
	})

	t.Run("inserts assign distinct ids", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		seen := make(map[overlay.ID]bool)
		for i := 0; i < 20; i++ {
			id, err := repo.Insert(ctx, testAttrs("Logo"), baseTime)
			if err != nil {
				t.Fatalf("Insert() error = %v", err)
			}
			if seen[id] {
				t.Fatalf("duplicate id %v", id)
			}
			seen[id] = true
		}
	})

	t.Run("find unknown id returns ErrOverlayNotFound", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.FindByID(context.Background(), overlay.NewID())
		if !errors.Is(err, overlay.ErrOverlayNotFound) {
			t.Errorf("FindByID() error = %v, want ErrOverlayNotFound", err)
		}
	})

	t.Run("find all on empty store returns empty slice", func(t *testing.T) {
		repo := newRepo(t)

		all, err := repo.FindAll(context.Background())
		if err != nil {
			t.Fatalf("FindAll() error = %v", err)
		}
		if all == nil {
			t.Error("expected non-nil slice")
		}
		if len(all) != 0 {
			t.Errorf("expected empty slice, got %d overlays", len(all))
		}
	})

	t.Run("find all orders newest first", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		a, _ := repo.Insert(ctx, testAttrs("A"), baseTime)
		b, _ := repo.Insert(ctx, testAttrs("B"), baseTime.Add(time.Second))
		c, _ := repo.Insert(ctx, testAttrs("C"), baseTime.Add(2*time.Second))

		all, err := repo.FindAll(ctx)
		if err != nil {
			t.Fatalf("FindAll() error = %v", err)
		}
		want := []overlay.ID{c, b, a}
		if len(all) != len(want) {
			t.Fatalf("expected %d overlays, got %d", len(want), len(all))
		}
		for i, id := range want {
			if all[i].ID() != id {
				t.Errorf("position %d: got %s, want %s", i, all[i].Name(), []string{"C", "B", "A"}[i])
			}
		}
	})

	t.Run("find all breaks timestamp ties by insertion order", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		first, _ := repo.Insert(ctx, testAttrs("first"), baseTime)
		second, _ := repo.Insert(ctx, testAttrs("second"), baseTime)

		all, err := repo.FindAll(ctx)
		if err != nil {
			t.Fatalf("FindAll() error = %v", err)
		}
		if len(all) != 2 || all[0].ID() != second || all[1].ID() != first {
			t.Errorf("unexpected order for equal timestamps")
		}
	})

	t.Run("update replaces attributes and keeps creation time", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		id, _ := repo.Insert(ctx, testAttrs("Before"), baseTime)
		later := baseTime.Add(time.Hour)

		if err := repo.Update(ctx, id, testAttrs("After"), later); err != nil {
			t.Fatalf("Update() error = %v", err)
		}

		found, err := repo.FindByID(ctx, id)
		if err != nil {
			t.Fatalf("FindByID() error = %v", err)
		}
		if found.Name() != "After" {
			t.Errorf("Name() = %q, want %q", found.Name(), "After")
		}
		if !found.CreatedAt().Equal(baseTime) {
			t.Errorf("CreatedAt() = %v, want %v", found.CreatedAt(), baseTime)
		}
		if !found.UpdatedAt().Equal(later) {
			t.Errorf("UpdatedAt() = %v, want %v", found.UpdatedAt(), later)
		}
	})

	t.Run("update never sets updated_at before created_at", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		id, _ := repo.Insert(ctx, testAttrs("Clock"), baseTime)
		if err := repo.Update(ctx, id, testAttrs("Clock"), baseTime.Add(-time.Hour)); err != nil {
			t.Fatalf("Update() error = %v", err)
		}

		found, _ := repo.FindByID(ctx, id)
		if found.UpdatedAt().Before(found.CreatedAt()) {
			t.Errorf("UpdatedAt() %v before CreatedAt() %v", found.UpdatedAt(), found.CreatedAt())
		}
	})

	t.Run("update unknown id returns ErrOverlayNotFound", func(t *testing.T) {
		repo := newRepo(t)

		err := repo.Update(context.Background(), overlay.NewID(), testAttrs("Ghost"), baseTime)
		if !errors.Is(err, overlay.ErrOverlayNotFound) {
			t.Errorf("Update() error = %v, want ErrOverlayNotFound", err)
		}
	})

	t.Run("delete removes overlay and is terminal", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		id, _ := repo.Insert(ctx, testAttrs("Alert"), baseTime)

		if err := repo.Delete(ctx, id); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, err := repo.FindByID(ctx, id); !errors.Is(err, overlay.ErrOverlayNotFound) {
			t.Errorf("FindByID() after delete error = %v, want ErrOverlayNotFound", err)
		}
		if err := repo.Delete(ctx, id); !errors.Is(err, overlay.ErrOverlayNotFound) {
			t.Errorf("second Delete() error = %v, want ErrOverlayNotFound", err)
		}
	})

	t.Run("count tracks inserts and deletes", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		id, _ := repo.Insert(ctx, testAttrs("one"), baseTime)
		_, _ = repo.Insert(ctx, testAttrs("two"), baseTime)

		n, err := repo.Count(ctx)
		if err != nil {
			t.Fatalf("Count() error = %v", err)
		}
		if n != 2 {
			t.Errorf("Count() = %d, want 2", n)
		}

		_ = repo.Delete(ctx, id)
		n, _ = repo.Count(ctx)
		if n != 1 {
			t.Errorf("Count() after delete = %d, want 1", n)
		}
	})

	t.Run("ping succeeds on open store", func(t *testing.T) {
		repo := newRepo(t)
		if err := repo.Ping(context.Background()); err != nil {
			t.Errorf("Ping() error = %v", err)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		repo := newRepo(t)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := repo.Insert(ctx, testAttrs("x"), baseTime); !errors.Is(err, context.Canceled) {
			t.Errorf("Insert() error = %v, want context.Canceled", err)
		}
		if _, err := repo.FindByID(ctx, overlay.NewID()); !errors.Is(err, context.Canceled) {
			t.Errorf("FindByID() error = %v, want context.Canceled", err)
		}
		if _, err := repo.FindAll(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("FindAll() error = %v, want context.Canceled", err)
		}
		if err := repo.Update(ctx, overlay.NewID(), testAttrs("x"), baseTime); !errors.Is(err, context.Canceled) {
			t.Errorf("Update() error = %v, want context.Canceled", err)
		}
		if err := repo.Delete(ctx, overlay.NewID()); !errors.Is(err, context.Canceled) {
			t.Errorf("Delete() error = %v, want context.Canceled", err)
		}
		if _, err := repo.Count(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("Count() error = %v, want context.Canceled", err)
		}
		if err := repo.Ping(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("Ping() error = %v, want context.Canceled", err)
		}
	})
}
