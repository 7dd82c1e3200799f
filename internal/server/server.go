// Package server exposes the session controller and the chat proxy over HTTP.
//
// Endpoints:
//
//	GET  /api/health                     health check
//	GET  /api/themes                     theme catalog
//	GET  /api/difficulties               difficulty table
//	GET  /api/session                    current snapshot
//	POST /api/session/start              start generating a puzzle
//	POST /api/session/difficulty         select the next difficulty
//	POST /api/session/click              match a click against the differences
//	POST /api/session/reset              return to idle
//	GET  /api/session/hint               position of an undiscovered difference
//	GET  /api/session/image/{kind}       base or modified image bytes
//	GET  /api/session/ws                 WebSocket stream of snapshots
//	POST /api/chat                       text chat with Gemini
package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/gzhttp"
	"golang.org/x/time/rate"

	"github.com/fpang/spot-the-difference/internal/metrics"
	"github.com/fpang/spot-the-difference/internal/session"
)

// ChatFunc answers one chat message. A nil ChatFunc means no API key is
// configured.
type ChatFunc func(ctx context.Context, message string) (string, error)

// Options configures a Server.
type Options struct {
	// AllowedOrigins are accepted for CORS and WebSocket upgrades in
	// addition to any localhost origin.
	AllowedOrigins []string
	// GenerationsPerMinute and GenerationBurst limit puzzle starts and chat
	// calls together. Zero disables the limit.
	GenerationsPerMinute float64
	GenerationBurst      int
	Chat                 ChatFunc
	Metrics              *metrics.Emitter
}

// Server routes HTTP requests to a session controller.
type Server struct {
	ctrl     *session.Controller
	chat     ChatFunc
	limiter  *rate.Limiter
	metrics  *metrics.Emitter
	origins  []string
	upgrader websocket.Upgrader
}

// New returns a Server for ctrl. A nil ctrl serves only health and chat,
// which is how the Lambda entry point runs.
func New(ctrl *session.Controller, opts Options) *Server {
	s := &Server{
		ctrl:    ctrl,
		chat:    opts.Chat,
		metrics: opts.Metrics,
		origins: opts.AllowedOrigins,
	}
	if opts.GenerationsPerMinute > 0 {
		burst := max(opts.GenerationBurst, 1)
		s.limiter = rate.NewLimiter(rate.Limit(opts.GenerationsPerMinute/60), burst)
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || s.originAllowed(origin)
		},
	}
	return s
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("/api/chat", s.handleChat)

	if s.ctrl != nil {
		mux.HandleFunc("GET /api/themes", s.handleThemes)
		mux.HandleFunc("GET /api/difficulties", s.handleDifficulties)
		mux.HandleFunc("GET /api/session", s.handleSession)
		mux.HandleFunc("POST /api/session/start", s.handleStart)
		mux.HandleFunc("POST /api/session/difficulty", s.handleDifficulty)
		mux.HandleFunc("POST /api/session/click", s.handleClick)
		mux.HandleFunc("POST /api/session/reset", s.handleReset)
		mux.HandleFunc("GET /api/session/hint", s.handleHint)
		mux.HandleFunc("GET /api/session/image/{kind}", s.handleImage)
		mux.HandleFunc("GET /api/session/ws", s.handleWebSocket)
	}

	api := s.withCORS(withLogging(s.withMetrics(mux)))
	gz := gzhttp.GzipHandler(api)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Upgrades need the raw connection, which the gzip writer hides.
		if websocket.IsWebSocketUpgrade(r) {
			api.ServeHTTP(w, r)
			return
		}
		gz.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	if strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:") {
		return true
	}
	for _, o := range s.origins {
		if strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// allow reports whether a generation request may proceed.
func (s *Server) allow() bool {
	return s.limiter == nil || s.limiter.Allow()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
