package driven

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/alorle/overlay-manager/internal/adapter/driven/migrations"
	"github.com/alorle/overlay-manager/internal/overlay"
)

// OverlaySQLiteRepository implements the OverlayRepository port using SQLite.
// The schema is managed by the embedded migrations; timestamps are stored as
// Unix nanoseconds so ordering by created_at is exact.
type OverlaySQLiteRepository struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database at path and configures the connection.
// path can be a file path or ":memory:".
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// NewOverlaySQLiteRepository creates a SQLite-backed overlay repository and
// brings the schema up to date.
func NewOverlaySQLiteRepository(db *sql.DB) (*OverlaySQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}

	if err := migrations.MigrateUp(db); err != nil {
		return nil, err
	}

	return &OverlaySQLiteRepository{db: db}, nil
}

const overlayColumns = `id, name, type, content, position_x, position_y, width, height, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOverlay(row rowScanner) (overlay.Overlay, error) {
	var (
		rawID, name, kind, content string
		pos                        overlay.Position
		size                       overlay.Size
		createdAt, updatedAt       int64
	)

	err := row.Scan(&rawID, &name, &kind, &content, &pos.X, &pos.Y, &size.Width, &size.Height, &createdAt, &updatedAt)
	if err != nil {
		return overlay.Overlay{}, err
	}

	id, err := overlay.ParseID(rawID)
	if err != nil {
		return overlay.Overlay{}, fmt.Errorf("stored overlay has invalid id %q: %w", rawID, err)
	}

	attrs := overlay.ReconstructAttributes(name, kind, []byte(content), pos, size)
	return overlay.Reconstruct(id, attrs, time.Unix(0, createdAt), time.Unix(0, updatedAt)), nil
}

// Insert persists a new overlay under a freshly generated id.
func (r *OverlaySQLiteRepository) Insert(ctx context.Context, attrs overlay.Attributes, at time.Time) (overlay.ID, error) {
	if err := ctx.Err(); err != nil {
		return overlay.ID{}, err
	}

	ov := overlay.New(overlay.NewID(), attrs, at)
	pos, size := ov.Position(), ov.Size()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO overlays (`+overlayColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ov.ID().String(), ov.Name(), ov.Type(), string(ov.Content()),
		pos.X, pos.Y, size.Width, size.Height,
		ov.CreatedAt().UnixNano(), ov.UpdatedAt().UnixNano(),
	)
	if err != nil {
		return overlay.ID{}, fmt.Errorf("insert overlay: %w", err)
	}

	return ov.ID(), nil
}

// FindByID retrieves an overlay by its id from SQLite.
func (r *OverlaySQLiteRepository) FindByID(ctx context.Context, id overlay.ID) (overlay.Overlay, error) {
	if err := ctx.Err(); err != nil {
		return overlay.Overlay{}, err
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+overlayColumns+` FROM overlays WHERE id = ?`, id.String())
	ov, err := scanOverlay(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return overlay.Overlay{}, overlay.ErrOverlayNotFound
		}
		return overlay.Overlay{}, fmt.Errorf("find overlay %s: %w", id, err)
	}
	return ov, nil
}

// FindAll retrieves all overlays from SQLite, most recently created first.
func (r *OverlaySQLiteRepository) FindAll(ctx context.Context) ([]overlay.Overlay, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT `+overlayColumns+` FROM overlays ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list overlays: %w", err)
	}
	defer rows.Close()

	overlays := []overlay.Overlay{}
	for rows.Next() {
		ov, err := scanOverlay(rows)
		if err != nil {
			return nil, fmt.Errorf("list overlays: %w", err)
		}
		overlays = append(overlays, ov)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list overlays: %w", err)
	}

	return overlays, nil
}

// Update replaces the attributes of an existing overlay in SQLite.
// updated_at is clamped so it never precedes created_at.
func (r *OverlaySQLiteRepository) Update(ctx context.Context, id overlay.ID, attrs overlay.Attributes, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pos, size := attrs.Position(), attrs.Size()
	res, err := r.db.ExecContext(ctx,
		`UPDATE overlays
		    SET name = ?, type = ?, content = ?,
		        position_x = ?, position_y = ?, width = ?, height = ?,
		        updated_at = MAX(created_at, ?)
		  WHERE id = ?`,
		attrs.Name(), attrs.Type(), string(attrs.Content()),
		pos.X, pos.Y, size.Width, size.Height,
		at.UTC().UnixNano(),
		id.String(),
	)
	if err != nil {
		return fmt.Errorf("update overlay %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update overlay %s: %w", id, err)
	}
	if n == 0 {
		return overlay.ErrOverlayNotFound
	}
	return nil
}

// Delete removes an overlay by its id from SQLite.
func (r *OverlaySQLiteRepository) Delete(ctx context.Context, id overlay.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM overlays WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete overlay %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete overlay %s: %w", id, err)
	}
	if n == 0 {
		return overlay.ErrOverlayNotFound
	}
	return nil
}

// Count returns the number of overlays stored in SQLite.
func (r *OverlaySQLiteRepository) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM overlays`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count overlays: %w", err)
	}
	return n, nil
}

// Ping checks that the database is reachable and the schema is current.
func (r *OverlaySQLiteRepository) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.db.PingContext(ctx); err != nil {
		return err
	}
	return migrations.CheckStatus(ctx, r.db)
}
