package game

import "errors"

// Input rejections. None of them mutate the session.
var (
	ErrEmptyTheme           = errors.New("theme must not be empty")
	ErrGenerationInProgress = errors.New("a puzzle is being generated")
	ErrSessionActive        = errors.New("a puzzle is in play; reset it first")
	ErrNotPlaying           = errors.New("no puzzle is in play")
	ErrUnexpectedEvent      = errors.New("event does not apply to the current status")
	ErrUnknownDifficulty    = errors.New("unknown difficulty")
)

// LevelError describes why a generated level was rejected.
type LevelError struct {
	Field  string
	Reason string
}

func (e *LevelError) Error() string {
	if e.Field == "" {
		return "invalid level: " + e.Reason
	}
	return "invalid level: " + e.Field + ": " + e.Reason
}
