package session

import "fmt"

// Level is one of the five CLI log levels, mirroring Python's logging
// module levels the reference CLI exposes via --loglevel.
type Level int

// The log levels the CLI accepts, from most to least verbose.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelCritical
)

// String returns the lowercase level name used on the command line.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelCritical:
		return "critical"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// ParseLevel parses one of the five CLI level names.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warning":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	case "critical":
		return LevelCritical, nil
	default:
		return 0, fmt.Errorf("session: unknown log level %q", s)
	}
}

// Enabled reports whether a message at msgLevel should be emitted when
// the logger's threshold is set to l.
func (l Level) Enabled(msgLevel Level) bool {
	return msgLevel >= l
}
