package refract

// Level is the severity of a user-visible notification.
type Level int32

const (
	// LevelInfo is an informational toast.
	LevelInfo Level = iota

	// LevelWarning is a recoverable problem the user should know about.
	LevelWarning

	// LevelError is a failed user action (preset apply, storage).
	LevelError
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Notifier surfaces toast-style notifications to the user. Preset-apply
// and storage failures route here; everything else recovers locally.
type Notifier interface {
	Notify(level Level, message string)
}

// NoopNotifier discards notifications. Use as a default or embed to
// implement only what you need.
type NoopNotifier struct{}

// Notify discards the notification.
func (NoopNotifier) Notify(Level, string) {}
