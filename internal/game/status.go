// Package game holds the spot-the-difference data model: session snapshots,
// the transition function that enforces every session invariant, the
// difference matcher, and the read-only difficulty and theme catalogs.
//
// Nothing in this package performs I/O. The session package drives it.
package game

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status is the lifecycle state of a session.
type Status int

const (
	StatusIdle Status = iota
	StatusGeneratingMetadata
	StatusGeneratingBaseImage
	StatusGeneratingModifiedImage
	StatusPlaying
	StatusCompleted
	StatusFailed
)

var statusNames = map[Status]string{
	StatusIdle:                    "idle",
	StatusGeneratingMetadata:      "generating_metadata",
	StatusGeneratingBaseImage:     "generating_base_image",
	StatusGeneratingModifiedImage: "generating_modified_image",
	StatusPlaying:                 "playing",
	StatusCompleted:               "completed",
	StatusFailed:                  "failed",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Generating reports whether a generation pipeline owns the session.
func (s Status) Generating() bool {
	switch s {
	case StatusGeneratingMetadata, StatusGeneratingBaseImage, StatusGeneratingModifiedImage:
		return true
	}
	return false
}

// Settled reports whether the session accepts a new start or a difficulty
// change (Idle, Completed or Failed).
func (s Status) Settled() bool {
	return s == StatusIdle || s == StatusCompleted || s == StatusFailed
}

// MarshalJSON encodes the status as its wire name.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts the wire name produced by MarshalJSON.
func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for st, n := range statusNames {
		if strings.EqualFold(n, name) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", name)
}
