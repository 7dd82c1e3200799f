package server

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/fpang/spot-the-difference/internal/game"
)

func (s *Server) handleThemes(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, game.Themes())
}

func (s *Server) handleDifficulties(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, game.Difficulties())
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, newSessionView(s.ctrl.Snapshot()))
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Theme string `json:"theme"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	theme := strings.TrimSpace(req.Theme)
	if theme == "" {
		httpError(w, http.StatusBadRequest, game.ErrEmptyTheme.Error())
		return
	}
	// Catalog ids resolve to their display name, which is what the
	// provider is prompted with.
	if t, ok := game.LookupTheme(theme); ok {
		theme = t.Name
	}
	if !s.allow() {
		httpError(w, http.StatusTooManyRequests, "too many puzzles requested, try again shortly")
		return
	}

	next, err := s.ctrl.Start(theme)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, newSessionView(next))
}

func (s *Server) handleDifficulty(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Difficulty string `json:"difficulty"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	d, err := game.ParseDifficulty(req.Difficulty)
	if err != nil {
		respondError(w, err)
		return
	}
	next, err := s.ctrl.SetDifficulty(d)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newSessionView(next))
}

type clickResponse struct {
	Hit         bool        `json:"hit"`
	ID          string      `json:"id,omitempty"`
	Description string      `json:"description,omitempty"`
	Session     sessionView `json:"session"`
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	var p game.Point
	if err := decodeJSON(w, r, &p); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.ctrl.Click(p)
	if err != nil {
		respondError(w, err)
		return
	}
	resp := clickResponse{Hit: res.Hit, Session: newSessionView(res.Session)}
	if res.Hit {
		resp.ID = res.Difference.ID
		resp.Description = res.Difference.Description
		log.Debug().Str("id", res.Difference.ID).Int("found", res.Session.FoundCount).Msg("Difference found")
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, newSessionView(s.ctrl.Reset()))
}

func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	p, err := s.ctrl.Hint()
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	snap := s.ctrl.Snapshot()
	var img *game.Image
	switch r.PathValue("kind") {
	case "base":
		img = snap.BaseImage
	case "modified":
		img = snap.ModifiedImage
	default:
		httpError(w, http.StatusNotFound, "unknown image kind")
		return
	}
	if img == nil || len(img.Data) == 0 {
		httpError(w, http.StatusNotFound, "image not available")
		return
	}
	w.Header().Set("Content-Type", img.MIMEType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(img.Data)
}
