package game

import (
	"fmt"
	"math"
	"strings"
)

// CoordinateMax is the upper bound of the normalized coordinate space.
// Coordinates are percentages of the image width/height.
const CoordinateMax = 100.0

// Difference is a single discoverable discrepancy between the two images.
type Difference struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Found       bool    `json:"found"`
}

// Point is a position in the normalized [0,100] coordinate space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Level is one generated puzzle. Only the Found flags change after the level
// has been accepted.
type Level struct {
	Theme              string       `json:"theme"`
	BasePrompt         string       `json:"basePrompt"`
	ModificationPrompt string       `json:"modificationPrompt"`
	Differences        []Difference `json:"differences"`
}

// Image is an encoded raster returned by the content provider. Data is shared
// between snapshots and must be treated as read-only.
type Image struct {
	Data     []byte `json:"-"`
	MIMEType string `json:"mimeType"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
}

// Clone returns a deep copy of the level.
func (l *Level) Clone() *Level {
	if l == nil {
		return nil
	}
	out := *l
	out.Differences = make([]Difference, len(l.Differences))
	copy(out.Differences, l.Differences)
	return &out
}

// FoundCount counts the differences marked as found.
func (l *Level) FoundCount() int {
	if l == nil {
		return 0
	}
	n := 0
	for _, d := range l.Differences {
		if d.Found {
			n++
		}
	}
	return n
}

// Undiscovered returns the differences not yet found, in display order.
func (l *Level) Undiscovered() []Difference {
	if l == nil {
		return nil
	}
	out := make([]Difference, 0, len(l.Differences))
	for _, d := range l.Differences {
		if !d.Found {
			out = append(out, d)
		}
	}
	return out
}

// Difference looks up a difference by id.
func (l *Level) Difference(id string) (Difference, bool) {
	if l == nil {
		return Difference{}, false
	}
	for _, d := range l.Differences {
		if d.ID == id {
			return d, true
		}
	}
	return Difference{}, false
}

// ValidateLevel checks a provider-supplied level against the difficulty it
// was requested for. Found flags are ignored; MetadataReady resets them.
func ValidateLevel(l *Level, d Difficulty) error {
	if l == nil {
		return &LevelError{Reason: "missing"}
	}
	if strings.TrimSpace(l.BasePrompt) == "" {
		return &LevelError{Field: "basePrompt", Reason: "empty"}
	}
	if strings.TrimSpace(l.ModificationPrompt) == "" {
		return &LevelError{Field: "modificationPrompt", Reason: "empty"}
	}

	want := ConfigFor(d).Count
	if len(l.Differences) != want {
		return &LevelError{
			Field:  "differences",
			Reason: fmt.Sprintf("expected %d for %s, got %d", want, d, len(l.Differences)),
		}
	}

	seen := make(map[string]struct{}, len(l.Differences))
	for i, diff := range l.Differences {
		field := fmt.Sprintf("differences[%d]", i)
		id := strings.TrimSpace(diff.ID)
		if id == "" {
			return &LevelError{Field: field + ".id", Reason: "empty"}
		}
		if _, dup := seen[id]; dup {
			return &LevelError{Field: field + ".id", Reason: fmt.Sprintf("duplicate id %q", id)}
		}
		seen[id] = struct{}{}
		if strings.TrimSpace(diff.Description) == "" {
			return &LevelError{Field: field + ".description", Reason: "empty"}
		}
		if !inRange(diff.X) {
			return &LevelError{Field: field + ".x", Reason: fmt.Sprintf("%v outside [0,100]", diff.X)}
		}
		if !inRange(diff.Y) {
			return &LevelError{Field: field + ".y", Reason: fmt.Sprintf("%v outside [0,100]", diff.Y)}
		}
	}
	return nil
}

func inRange(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= CoordinateMax
}
