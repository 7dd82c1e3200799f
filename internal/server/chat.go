package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

type chatResponse struct {
	Text string `json:"text"`
}

// handleChat proxies one message to Gemini. The key check comes before body
// validation so a misconfigured deployment always reports 500.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if s.chat == nil {
		httpError(w, http.StatusInternalServerError, "Missing GEMINI_API_KEY. Set it in the environment or SSM.")
		return
	}

	var req struct {
		Message json.RawMessage `json:"message"`
	}
	var message string
	if err := decodeJSON(w, r, &req); err == nil && len(req.Message) > 0 {
		// Non-string messages are rejected like missing ones.
		if err := json.Unmarshal(req.Message, &message); err != nil {
			message = ""
		}
	}
	if strings.TrimSpace(message) == "" {
		httpError(w, http.StatusBadRequest, "Missing 'message' in request body")
		return
	}
	if !s.allow() {
		httpError(w, http.StatusTooManyRequests, "too many requests, try again shortly")
		return
	}

	text, err := s.chat(r.Context(), message)
	if err != nil {
		log.Error().Err(err).Msg("Chat request failed")
		httpError(w, http.StatusInternalServerError, "Server error", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, chatResponse{Text: text})
}
