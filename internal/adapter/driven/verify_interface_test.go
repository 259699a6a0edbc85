package driven

import (
	port "github.com/alorle/overlay-manager/internal/port/driven"
)

// Compile-time checks that every overlay store implements the OverlayRepository port
var (
	_ port.OverlayRepository = (*OverlayBoltDBRepository)(nil)
	_ port.OverlayRepository = (*OverlaySQLiteRepository)(nil)
	_ port.OverlayRepository = (*OverlayMemoryRepository)(nil)
)
