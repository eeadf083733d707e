package refract

// Source identifies where a parameter write originated. It is threaded
// through every propagation path; only SourceLocal writes are pushed out
// to the facade, which is what breaks store↔engine and store↔store loops.
type Source int32

const (
	// SourceLocal is a user-originated edit in the owning domain.
	SourceLocal Source = iota

	// SourcePeer is a value mirrored from another domain. Applied to the
	// local cell, never re-emitted.
	SourcePeer

	// SourceEngine is a value pulled from or pushed by the rendering
	// engine. Applied to cells, never echoed back out.
	SourceEngine
)

// String returns the string representation of the source.
func (s Source) String() string {
	switch s {
	case SourceLocal:
		return "local"
	case SourcePeer:
		return "peer"
	case SourceEngine:
		return "engine"
	default:
		return "unknown"
	}
}
