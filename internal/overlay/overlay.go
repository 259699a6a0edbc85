package overlay

import (
	"bytes"
	"encoding/json"
	"time"
)

// Position is the top-left corner of an overlay, in pixels.
type Position struct {
	X int
	Y int
}

// Size is the rendered extent of an overlay, in pixels.
type Size struct {
	Width  int
	Height int
}

// Attributes holds the replaceable part of an overlay: everything except its
// identity and timestamps. Values are always normalized; build them with
// NewAttributes or ReconstructAttributes.
type Attributes struct {
	name     string
	kind     string
	content  json.RawMessage
	position Position
	size     Size
}

// ReconstructAttributes rebuilds attributes from already-normalized stored values.
// It performs no validation and is intended for persistence adapters.
func ReconstructAttributes(name, kind string, content json.RawMessage, position Position, size Size) Attributes {
	return Attributes{
		name:     name,
		kind:     kind,
		content:  cloneRaw(content),
		position: position,
		size:     size,
	}
}

// Name returns the overlay's display name.
func (a Attributes) Name() string { return a.name }

// Type returns the overlay's category, e.g. "text" or "image".
func (a Attributes) Type() string { return a.kind }

// Content returns the opaque content payload as raw JSON.
func (a Attributes) Content() json.RawMessage { return cloneRaw(a.content) }

// Position returns where the overlay is placed.
func (a Attributes) Position() Position { return a.position }

// Size returns the overlay's dimensions.
func (a Attributes) Size() Size { return a.size }

// Equal reports whether both attribute sets describe the same overlay content.
func (a Attributes) Equal(other Attributes) bool {
	return a.name == other.name &&
		a.kind == other.kind &&
		a.position == other.position &&
		a.size == other.size &&
		bytes.Equal(a.content, other.content)
}

// Overlay is a positioned, sized element rendered on top of a livestream.
type Overlay struct {
	id        ID
	attrs     Attributes
	createdAt time.Time
	updatedAt time.Time
}

// New creates an overlay stamped at the given instant.
func New(id ID, attrs Attributes, at time.Time) Overlay {
	at = at.UTC()
	return Overlay{
		id:        id,
		attrs:     attrs,
		createdAt: at,
		updatedAt: at,
	}
}

// Reconstruct rebuilds an overlay from persisted state.
func Reconstruct(id ID, attrs Attributes, createdAt, updatedAt time.Time) Overlay {
	return Overlay{
		id:        id,
		attrs:     attrs,
		createdAt: createdAt.UTC(),
		updatedAt: updatedAt.UTC(),
	}
}

// Replace returns a copy with new attributes and a refreshed update time.
// The id and creation time are kept, and the update time never precedes creation.
func (o Overlay) Replace(attrs Attributes, at time.Time) Overlay {
	at = at.UTC()
	if at.Before(o.createdAt) {
		at = o.createdAt
	}
	return Overlay{
		id:        o.id,
		attrs:     attrs,
		createdAt: o.createdAt,
		updatedAt: at,
	}
}

func (o Overlay) ID() ID                   { return o.id }
func (o Overlay) Attributes() Attributes   { return o.attrs }
func (o Overlay) Name() string             { return o.attrs.name }
func (o Overlay) Type() string             { return o.attrs.kind }
func (o Overlay) Content() json.RawMessage { return o.attrs.Content() }
func (o Overlay) Position() Position       { return o.attrs.position }
func (o Overlay) Size() Size               { return o.attrs.size }
func (o Overlay) CreatedAt() time.Time     { return o.createdAt }
func (o Overlay) UpdatedAt() time.Time     { return o.updatedAt }

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}
