package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

// handleWebSocket streams every session snapshot to the client until either
// side closes. Client messages are ignored.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	updates, unsubscribe := s.ctrl.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	log.Debug().Str("remote", r.RemoteAddr).Msg("WebSocket client connected")
	for {
		select {
		case <-done:
			log.Debug().Str("remote", r.RemoteAddr).Msg("WebSocket client disconnected")
			return
		case snap, ok := <-updates:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := conn.WriteJSON(newSessionView(snap)); err != nil {
				log.Debug().Err(err).Msg("WebSocket write failed")
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
