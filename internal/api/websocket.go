package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/BTreeMap/TriagePipe/internal/models"
)

func (s *Server) newUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
}

// checkOrigin accepts clients without an Origin header (non-browser), pages
// served from this host, and pages on the configured public URL.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	if s.publicURL != "" {
		if pu, err := url.Parse(s.publicURL); err == nil && strings.EqualFold(u.Host, pu.Host) {
			return true
		}
	}
	slog.Warn("Server.websocketHandler: origin rejected", "origin", origin, "host", r.Host)
	return false
}

// websocketHandler runs a chat over one socket. Each text frame is a ChatRequest
// and is answered with a ChatResponse. The socket remembers the user id so clients
// may omit it after the first message.
func (s *Server) websocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Server.websocketHandler: upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxBodyBytes)

	userID := r.URL.Query().Get("user_id")
	for {
		var req models.ChatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("Server.websocketHandler: read failed", "error", err, "user_id", userID)
			}
			return
		}
		if req.UserID == "" {
			req.UserID = userID
		}

		resp, err := s.engine.Handle(r.Context(), req.UserID, req.Message)
		if err != nil {
			slog.Error("Server.websocketHandler: turn failed", "error", err, "user_id", req.UserID)
			if werr := conn.WriteJSON(models.Error(turnErrorMessage(err))); werr != nil {
				return
			}
			continue
		}
		userID = resp.UserID
		if err := conn.WriteJSON(resp); err != nil {
			slog.Warn("Server.websocketHandler: write failed", "error", err, "user_id", userID)
			return
		}
	}
}
