package overlay

import (
	"bytes"
	"strings"

	"github.com/google/uuid"
)

// ID identifies a stored overlay. Its external form is the canonical
// 36-character UUID string; the store never exposes another representation.
type ID struct {
	value uuid.UUID
}

// NewID returns a fresh time-ordered identifier.
// IDs generated later in the same process sort after earlier ones.
func NewID() ID {
	return ID{value: uuid.Must(uuid.NewV7())}
}

// ParseID converts the external string form into an ID.
// Returns ErrInvalidID for anything other than a canonical UUID string.
func ParseID(s string) (ID, error) {
	if len(s) != 36 {
		return ID{}, ErrInvalidID
	}
	u, err := uuid.Parse(s)
	if err != nil || !strings.EqualFold(u.String(), s) {
		return ID{}, ErrInvalidID
	}
	return ID{value: u}, nil
}

// IDFromBytes rebuilds an ID from its 16-byte storage key.
func IDFromBytes(b []byte) (ID, error) {
	u, err := uuid.FromBytes(b)
	if err != nil {
		return ID{}, ErrInvalidID
	}
	return ID{value: u}, nil
}

// String returns the external representation.
func (id ID) String() string {
	return id.value.String()
}

// Bytes returns the 16-byte storage key. Byte order follows creation order.
func (id ID) Bytes() []byte {
	b := id.value
	return b[:]
}

// IsZero reports whether id is the zero value.
func (id ID) IsZero() bool {
	return id.value == uuid.Nil
}

// Compare orders ids by their storage key.
func (id ID) Compare(other ID) int {
	return bytes.Compare(id.value[:], other.value[:])
}
