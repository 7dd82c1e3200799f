package server

import (
	"net/url"

	"github.com/fpang/spot-the-difference/internal/game"
)

// differenceView hides everything but the found flag until a click matches
// the difference.
type differenceView struct {
	ID          string   `json:"id,omitempty"`
	Found       bool     `json:"found"`
	Description string   `json:"description,omitempty"`
	X           *float64 `json:"x,omitempty"`
	Y           *float64 `json:"y,omitempty"`
}

type sessionView struct {
	Status           game.Status      `json:"status"`
	Difficulty       game.Difficulty  `json:"difficulty"`
	AttemptID        string           `json:"attemptId,omitempty"`
	Theme            string           `json:"theme,omitempty"`
	FoundCount       int              `json:"foundCount"`
	TotalDifferences int              `json:"totalDifferences"`
	ElapsedSeconds   int              `json:"elapsedSeconds"`
	Elapsed          string           `json:"elapsed"`
	LastError        string           `json:"lastError,omitempty"`
	Differences      []differenceView `json:"differences,omitempty"`
	BaseImageURL     string           `json:"baseImageUrl,omitempty"`
	ModifiedImageURL string           `json:"modifiedImageUrl,omitempty"`
}

func newSessionView(s game.Session) sessionView {
	v := sessionView{
		Status:           s.Status,
		Difficulty:       s.Difficulty,
		AttemptID:        s.AttemptID,
		Theme:            s.Theme,
		FoundCount:       s.FoundCount,
		TotalDifferences: s.TotalDifferences(),
		ElapsedSeconds:   s.ElapsedSeconds,
		Elapsed:          game.FormatElapsed(s.ElapsedSeconds),
		LastError:        s.LastError,
	}
	if s.Level != nil {
		for _, d := range s.Level.Differences {
			dv := differenceView{Found: d.Found}
			if d.Found {
				x, y := d.X, d.Y
				dv.ID, dv.Description, dv.X, dv.Y = d.ID, d.Description, &x, &y
			}
			v.Differences = append(v.Differences, dv)
		}
	}
	if s.BaseImage != nil {
		v.BaseImageURL = imageURL("base", s.AttemptID)
	}
	if s.ModifiedImage != nil {
		v.ModifiedImageURL = imageURL("modified", s.AttemptID)
	}
	return v
}

// imageURL carries the attempt id so browsers do not reuse a cached image
// from an earlier puzzle.
func imageURL(kind, attemptID string) string {
	return "/api/session/image/" + kind + "?attempt=" + url.QueryEscape(attemptID)
}
