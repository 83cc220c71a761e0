package app

import "fmt"

// Level grades a Notice.
type Level int

// Notice levels.
const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notice is a one-line message for the collaborator to show, produced by Update.
type Notice struct {
	Level   Level
	Message string
}

func (n Notice) String() string {
	return n.Level.String() + ": " + n.Message
}

func noticef(level Level, format string, args ...any) Notice {
	return Notice{Level: level, Message: fmt.Sprintf(format, args...)}
}
