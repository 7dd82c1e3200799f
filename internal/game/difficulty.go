package game

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Difficulty selects how many differences a level has and how subtle they are.
type Difficulty int

const (
	Easy Difficulty = iota
	Medium
	Hard
)

// DefaultDifficulty is the difficulty of a freshly created session.
const DefaultDifficulty = Medium

// DifficultyConfig is the fixed per-difficulty generation setup.
type DifficultyConfig struct {
	Difficulty Difficulty `json:"difficulty"`
	// Label is the player-facing name.
	Label string `json:"label"`
	// Count is the exact number of differences a level must carry.
	Count int `json:"count"`
	// Guidance is sent to the content provider to steer how visible the
	// changes are.
	Guidance string `json:"guidance"`
}

var difficulties = [...]DifficultyConfig{
	Easy: {
		Difficulty: Easy,
		Label:      "かんたん",
		Count:      3,
		Guidance:   "Make the changes very obvious, large, and high-contrast.",
	},
	Medium: {
		Difficulty: Medium,
		Label:      "ふつう",
		Count:      5,
		Guidance:   "Make the changes clear but requiring some observation.",
	},
	Hard: {
		Difficulty: Hard,
		Label:      "むずかしい",
		Count:      7,
		Guidance:   "Make the changes extremely subtle, tiny, and well-integrated into the scene.",
	},
}

var difficultyNames = map[Difficulty]string{
	Easy:   "easy",
	Medium: "medium",
	Hard:   "hard",
}

// Difficulties returns the configuration of every difficulty in ascending order.
func Difficulties() []DifficultyConfig {
	out := make([]DifficultyConfig, len(difficulties))
	copy(out, difficulties[:])
	return out
}

// ConfigFor returns the configuration for d. Unknown values fall back to the
// default difficulty so callers never index out of range.
func ConfigFor(d Difficulty) DifficultyConfig {
	if !d.Valid() {
		return difficulties[DefaultDifficulty]
	}
	return difficulties[d]
}

// Valid reports whether d is one of Easy, Medium or Hard.
func (d Difficulty) Valid() bool {
	return d >= Easy && d <= Hard
}

func (d Difficulty) String() string {
	if name, ok := difficultyNames[d]; ok {
		return name
	}
	return fmt.Sprintf("difficulty(%d)", int(d))
}

// ParseDifficulty converts a wire name ("easy", "MEDIUM", ...) to a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	s = strings.TrimSpace(s)
	for d, name := range difficultyNames {
		if strings.EqualFold(name, s) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDifficulty, s)
}

// MarshalJSON encodes the difficulty as its wire name.
func (d Difficulty) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts the wire name produced by MarshalJSON.
func (d *Difficulty) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseDifficulty(name)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
