package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// handleEvents streams the recipe's step events over a websocket until the
// client goes away.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "event feed disabled"})
		return
	}
	recipeID := r.PathValue("recipeID")
	if _, err := s.svc.GetRecipe(r.Context(), recipeID); err != nil {
		s.writeError(w, r, err)
		return
	}

	// Subscribe before the upgrade so no event after the handshake is missed.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := s.events.Subscribe(ctx, recipeID)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		s.logger.Warn("websocket upgrade failed", "recipe", recipeID, "error", err)
		return
	}
	defer conn.Close()
	s.logger.Debug("event subscriber connected", "recipe", recipeID)

	// Reader: handles pongs and notices the client closing.
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("event subscriber disconnected", "recipe", recipeID)
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(evt); err != nil {
				s.logger.Debug("event write failed", "recipe", recipeID, "error", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
