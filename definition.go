package refract

import (
	"regexp"
	"time"
)

// Definition describes one parameter owned by a domain store. Immutable
// after registration.
type Definition struct {
	// Key identifies the parameter within its domain.
	Key string

	// Default is the value a Reset restores.
	Default Value

	// FacadeName is the engine-side parameter name. Empty means the
	// parameter is UI-only and never touches the facade.
	FacadeName string

	// Validate rejects out-of-range or malformed values. Nil accepts
	// everything.
	Validate func(Value) bool

	// ToEngine converts the cell value to the engine representation
	// before a push. Nil pushes the value as-is.
	ToEngine func(Value) Value

	// FromEngine converts an engine value to the cell representation
	// during sync or event intake. Nil applies the value as-is.
	FromEngine func(Value) Value

	// Debounce is the trailing coalescing window for continuous updates.
	// Zero means continuous updates push immediately, tracking the
	// pointer in lockstep. Set it on parameters whose push triggers an
	// expensive recomputation (geometry rebuilds).
	Debounce time.Duration

	// Min, Max, Step bound and quantize numeric controls driving this
	// parameter. Ignored for non-numeric values.
	Min, Max, Step float64

	// ResetCamera requests the engine's camera-reset side effect
	// alongside pushes of this parameter.
	ResetCamera bool
}

// Mapped reports whether the definition has an engine-side binding.
func (d Definition) Mapped() bool {
	return d.FacadeName != ""
}

// toEngine applies the outbound transform, if any.
func (d Definition) toEngine(v Value) Value {
	if d.ToEngine != nil {
		return d.ToEngine(v)
	}
	return v
}

// fromEngine normalizes and applies the inbound transform, if any.
func (d Definition) fromEngine(v Value) Value {
	v = normalizeValue(v)
	if d.FromEngine != nil {
		return d.FromEngine(v)
	}
	return v
}

// valid reports whether v passes the definition's validator.
func (d Definition) valid(v Value) bool {
	return d.Validate == nil || d.Validate(v)
}

// RangeValidator accepts float64 values within [min, max].
func RangeValidator(min, max float64) func(Value) bool {
	return func(v Value) bool {
		f, ok := v.(float64)
		return ok && f >= min && f <= max
	}
}

// BoolValidator accepts bool values.
func BoolValidator() func(Value) bool {
	return func(v Value) bool {
		_, ok := v.(bool)
		return ok
	}
}

var hexColorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// HexColorValidator accepts #rgb, #rrggbb, and #rrggbbaa strings.
func HexColorValidator() func(Value) bool {
	return func(v Value) bool {
		s, ok := v.(string)
		return ok && hexColorRe.MatchString(s)
	}
}

// OneOfValidator accepts string values from a fixed set.
func OneOfValidator(allowed ...string) func(Value) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, s := range allowed {
		set[s] = struct{}{}
	}
	return func(v Value) bool {
		s, ok := v.(string)
		if !ok {
			return false
		}
		_, ok = set[s]
		return ok
	}
}
