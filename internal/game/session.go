package game

import (
	"fmt"
	"strings"
)

// Session is an immutable snapshot of the single live play-through.
// Apply produces the next snapshot; nothing else edits fields.
type Session struct {
	Status         Status     `json:"status"`
	Difficulty     Difficulty `json:"difficulty"`
	AttemptID      string     `json:"attemptId,omitempty"`
	Theme          string     `json:"theme,omitempty"`
	Level          *Level     `json:"level,omitempty"`
	BaseImage      *Image     `json:"baseImage,omitempty"`
	ModifiedImage  *Image     `json:"modifiedImage,omitempty"`
	FoundCount     int        `json:"foundCount"`
	ElapsedSeconds int        `json:"elapsedSeconds"`
	LastError      string     `json:"lastError,omitempty"`
}

// NewSession returns the Idle session created at start-up.
func NewSession() Session {
	return Session{Status: StatusIdle, Difficulty: DefaultDifficulty}
}

// Clone returns a copy whose level can be modified without affecting s.
func (s Session) Clone() Session {
	s.Level = s.Level.Clone()
	return s
}

// TotalDifferences is the number of differences in the current level.
func (s Session) TotalDifferences() int {
	if s.Level == nil {
		return 0
	}
	return len(s.Level.Differences)
}

// Event is an input to Apply.
type Event interface {
	eventName() string
}

// Start begins a new generation attempt.
type Start struct {
	Theme     string
	AttemptID string
}

// MetadataReady carries the level returned by the provider.
type MetadataReady struct{ Level *Level }

// BaseImageReady carries the generated base image.
type BaseImageReady struct{ Image *Image }

// ModifiedImageReady carries the generated modified image.
type ModifiedImageReady struct{ Image *Image }

// GenerationFailed aborts the pipeline with a player-facing message.
type GenerationFailed struct{ Message string }

// DifferenceFound marks a difference as discovered.
type DifferenceFound struct{ ID string }

// Reset returns the session to Idle.
type Reset struct{}

// SetDifficulty selects the difficulty used by the next Start.
type SetDifficulty struct{ Difficulty Difficulty }

// Tick advances the elapsed-time counter by one second.
type Tick struct{}

func (Start) eventName() string              { return "start" }
func (MetadataReady) eventName() string      { return "metadata_ready" }
func (BaseImageReady) eventName() string     { return "base_image_ready" }
func (ModifiedImageReady) eventName() string { return "modified_image_ready" }
func (GenerationFailed) eventName() string   { return "generation_failed" }
func (DifferenceFound) eventName() string    { return "difference_found" }
func (Reset) eventName() string              { return "reset" }
func (SetDifficulty) eventName() string      { return "set_difficulty" }
func (Tick) eventName() string               { return "tick" }

// EventName returns a short identifier for logging.
func EventName(ev Event) string {
	if ev == nil {
		return "nil"
	}
	return ev.eventName()
}

// DefaultFailureMessage is shown when a failure carries no message of its own.
const DefaultFailureMessage = "画像の生成中にエラーが発生しました。別のテーマを試すか、リロードしてください。"

// Apply returns the session that results from ev. On error the returned
// session equals s.
func Apply(s Session, ev Event) (Session, error) {
	switch e := ev.(type) {
	case Start:
		return applyStart(s, e)
	case MetadataReady:
		return applyMetadata(s, e)
	case BaseImageReady:
		if s.Status != StatusGeneratingBaseImage {
			return s, unexpected(s, ev)
		}
		if e.Image == nil || len(e.Image.Data) == 0 {
			return failed(s, ""), nil
		}
		next := s.Clone()
		next.BaseImage = e.Image
		next.Status = StatusGeneratingModifiedImage
		return next, nil
	case ModifiedImageReady:
		if s.Status != StatusGeneratingModifiedImage {
			return s, unexpected(s, ev)
		}
		if e.Image == nil || len(e.Image.Data) == 0 {
			return failed(s, ""), nil
		}
		next := s.Clone()
		next.ModifiedImage = e.Image
		next.ElapsedSeconds = 0
		next.Status = StatusPlaying
		return next, nil
	case GenerationFailed:
		if !s.Status.Generating() {
			return s, unexpected(s, ev)
		}
		return failed(s, e.Message), nil
	case DifferenceFound:
		return applyFound(s, e)
	case Reset:
		return Session{Status: StatusIdle, Difficulty: s.Difficulty}, nil
	case SetDifficulty:
		if !e.Difficulty.Valid() {
			return s, fmt.Errorf("%w: %d", ErrUnknownDifficulty, int(e.Difficulty))
		}
		if s.Status.Generating() {
			return s, ErrGenerationInProgress
		}
		if s.Status == StatusPlaying {
			return s, ErrSessionActive
		}
		next := s.Clone()
		next.Difficulty = e.Difficulty
		return next, nil
	case Tick:
		if s.Status != StatusPlaying {
			return s, nil
		}
		next := s.Clone()
		next.ElapsedSeconds++
		return next, nil
	default:
		return s, fmt.Errorf("%w: %T", ErrUnexpectedEvent, ev)
	}
}

func applyStart(s Session, e Start) (Session, error) {
	theme := strings.TrimSpace(e.Theme)
	if theme == "" {
		return s, ErrEmptyTheme
	}
	if s.Status == StatusPlaying {
		return s, ErrSessionActive
	}
	// Generating states are superseded; the caller owns cancelling the old pipeline.
	return Session{
		Status:     StatusGeneratingMetadata,
		Difficulty: s.Difficulty,
		AttemptID:  e.AttemptID,
		Theme:      theme,
	}, nil
}

func applyMetadata(s Session, e MetadataReady) (Session, error) {
	if s.Status != StatusGeneratingMetadata {
		return s, unexpected(s, e)
	}
	// The validation detail is for logs; the player sees the generic message.
	if err := ValidateLevel(e.Level, s.Difficulty); err != nil {
		return failed(s, DefaultFailureMessage), nil
	}
	level := e.Level.Clone()
	for i := range level.Differences {
		level.Differences[i].ID = strings.TrimSpace(level.Differences[i].ID)
		level.Differences[i].Found = false
	}
	next := s
	next.Level = level
	next.FoundCount = 0
	next.Status = StatusGeneratingBaseImage
	return next, nil
}

func applyFound(s Session, e DifferenceFound) (Session, error) {
	if s.Status != StatusPlaying {
		return s, ErrNotPlaying
	}
	idx := -1
	for i, d := range s.Level.Differences {
		if d.ID == e.ID {
			idx = i
			break
		}
	}
	// Unknown ids and repeats are ignored.
	if idx < 0 || s.Level.Differences[idx].Found {
		return s, nil
	}
	next := s.Clone()
	next.Level.Differences[idx].Found = true
	next.FoundCount = next.Level.FoundCount()
	if next.FoundCount == len(next.Level.Differences) {
		next.Status = StatusCompleted
	}
	return next, nil
}

// failed drops everything the aborted attempt produced.
func failed(s Session, msg string) Session {
	if strings.TrimSpace(msg) == "" {
		msg = DefaultFailureMessage
	}
	return Session{
		Status:     StatusFailed,
		Difficulty: s.Difficulty,
		AttemptID:  s.AttemptID,
		Theme:      s.Theme,
		LastError:  msg,
	}
}

func unexpected(s Session, ev Event) error {
	return fmt.Errorf("%w: %s while %s", ErrUnexpectedEvent, EventName(ev), s.Status)
}
