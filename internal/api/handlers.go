package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/BTreeMap/TriagePipe/internal/classifier"
	"github.com/BTreeMap/TriagePipe/internal/models"
)

// chatHandler runs one dialogue turn. The response body is the bare ChatResponse.
func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req models.ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		slog.Warn("Server.chatHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	resp, err := s.engine.Handle(r.Context(), req.UserID, req.Message)
	if err != nil {
		s.writeTurnError(w, err, req.UserID)
		return
	}
	slog.Debug("Server.chatHandler: turn complete", "user_id", resp.UserID, "parts", len(resp.BotResponseParts))
	writeJSONResponse(w, http.StatusOK, resp)
}

func (s *Server) writeTurnError(w http.ResponseWriter, err error, userID string) {
	slog.Error("Server: turn failed", "error", err, "user_id", userID)
	writeJSONResponse(w, http.StatusInternalServerError, models.Error(turnErrorMessage(err)))
}

func turnErrorMessage(err error) string {
	if errors.Is(err, classifier.ErrShapeMismatch) {
		return "Prediction failed: model input mismatch"
	}
	return "Failed to process message"
}

// healthStatus is the result body of /healthz.
type healthStatus struct {
	Online   bool `json:"online"`
	Sessions int  `json:"sessions"`
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.Success(healthStatus{
		Online:   s.engine.Online(),
		Sessions: s.engine.Sessions(),
	}))
}
