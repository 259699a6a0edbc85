package driven

import (
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/alorle/overlay-manager/config"
	port "github.com/alorle/overlay-manager/internal/port/driven"
)

// Store bundles an opened overlay repository with the resources backing it.
type Store struct {
	Repository port.OverlayRepository
	Driver     string
	close      func() error
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStore opens the overlay store selected by cfg.Driver.
//
// Supported drivers:
//
//	"bolt"   - BoltDB file at cfg.Path (default)
//	"sqlite" - SQLite database at cfg.Path
//	"memory" - in-memory, contents lost on exit
func OpenStore(cfg config.StoreConfig) (*Store, error) {
	switch cfg.Driver {
	case config.StoreDriverBolt, "":
		db, err := bbolt.Open(cfg.Path, 0600, &bbolt.Options{Timeout: cfg.OpenTimeout})
		if err != nil {
			return nil, fmt.Errorf("failed to open bolt database %s: %w", cfg.Path, err)
		}
		repo, err := NewOverlayBoltDBRepository(db)
		if err != nil {
			db.Close()
			return nil, err
		}
		return &Store{Repository: repo, Driver: config.StoreDriverBolt, close: db.Close}, nil

	case config.StoreDriverSQLite:
		db, err := OpenSQLite(cfg.Path)
		if err != nil {
			return nil, err
		}
		repo, err := NewOverlaySQLiteRepository(db)
		if err != nil {
			db.Close()
			return nil, err
		}
		return &Store{Repository: repo, Driver: config.StoreDriverSQLite, close: db.Close}, nil

	case config.StoreDriverMemory:
		return &Store{Repository: NewOverlayMemoryRepository(), Driver: config.StoreDriverMemory}, nil

	default:
		return nil, fmt.Errorf("unknown store driver: %q (supported: bolt, sqlite, memory)", cfg.Driver)
	}
}
