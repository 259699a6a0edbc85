package overlay

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Payload is the caller-supplied body of a create or update request.
// Position and Size are kept loose so their members can be coerced to integers.
type Payload struct {
	Name     string          `json:"name"`
	Type     string          `json:"type"`
	Content  json.RawMessage `json:"content"`
	Position map[string]any  `json:"position"`
	Size     map[string]any  `json:"size"`
}

// NewAttributes validates and normalizes a payload.
// Every failure wraps ErrInvalidOverlay.
func NewAttributes(p Payload) (Attributes, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return Attributes{}, ErrEmptyName
	}

	kind := strings.TrimSpace(p.Type)
	if kind == "" {
		return Attributes{}, ErrEmptyType
	}

	content, err := normalizeContent(p.Content)
	if err != nil {
		return Attributes{}, err
	}

	x, y, err := coercePair(p.Position, "position", "x", "y")
	if err != nil {
		return Attributes{}, err
	}

	w, h, err := coercePair(p.Size, "size", "width", "height")
	if err != nil {
		return Attributes{}, err
	}

	return Attributes{
		name:     name,
		kind:     kind,
		content:  content,
		position: Position{X: x, Y: y},
		size:     Size{Width: w, Height: h},
	}, nil
}

func normalizeContent(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, ErrMissingContent
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return nil, ErrInvalidContent
	}
	return json.RawMessage(buf.Bytes()), nil
}

func coercePair(m map[string]any, parent, first, second string) (int, int, error) {
	if m == nil {
		return 0, 0, &FieldError{Field: parent, Err: ErrMissingField}
	}

	a, err := coerceField(m, parent, first)
	if err != nil {
		return 0, 0, err
	}
	b, err := coerceField(m, parent, second)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func coerceField(m map[string]any, parent, key string) (int, error) {
	field := parent + "." + key

	v, ok := m[key]
	if !ok {
		return 0, &FieldError{Field: field, Err: ErrMissingField}
	}

	n, ok := ToInt(v)
	if !ok {
		return 0, &FieldError{Field: field, Err: ErrNotInteger}
	}
	return n, nil
}

// ToInt coerces a decoded JSON value to an int.
// Integral numbers convert directly, fractional numbers truncate toward zero,
// and strings must hold a base-10 integer. Booleans, null, objects and arrays
// are rejected.
func ToInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

func floatToInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	t := math.Trunc(f)
	if t < math.MinInt64 || t >= math.MaxInt64 {
		return 0, false
	}
	return int(t), true
}
