package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/BTreeMap/TriagePipe/internal/models"
)

// twilioSignatureHeader carries Twilio's request signature.
const twilioSignatureHeader = "X-Twilio-Signature"

// twilioWebhookHandler runs a turn for an inbound WhatsApp message. The sender's
// address is the session key. The reply goes out through the Twilio API, so the
// webhook itself answers 204.
func (s *Server) twilioWebhookHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		slog.Warn("Server.twilioWebhookHandler: bad form", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid form body"))
		return
	}
	if s.validator != nil {
		params := make(map[string]string, len(r.PostForm))
		for k, v := range r.PostForm {
			if len(v) > 0 {
				params[k] = v[0]
			}
		}
		url := s.webhookURL(r)
		if !s.validator.Validate(url, params, r.Header.Get(twilioSignatureHeader)) {
			slog.Warn("Server.twilioWebhookHandler: signature mismatch", "url", url)
			writeJSONResponse(w, http.StatusForbidden, models.Error("Invalid Twilio signature"))
			return
		}
	}

	from := r.PostForm.Get("From")
	body := r.PostForm.Get("Body")
	if from == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing From"))
		return
	}

	resp, err := s.engine.Handle(r.Context(), from, body)
	if err != nil {
		s.writeTurnError(w, err, from)
		return
	}
	reply := strings.Join(resp.BotResponseParts, "\n\n")
	if err := s.sender.SendMessage(r.Context(), from, reply); err != nil {
		slog.Error("Server.twilioWebhookHandler: failed to send reply", "error", err, "to", from)
		writeJSONResponse(w, http.StatusBadGateway, models.Error("Failed to send reply"))
		return
	}
	slog.Info("Server.twilioWebhookHandler: reply sent", "to", from, "parts", len(resp.BotResponseParts))
	w.WriteHeader(http.StatusNoContent)
}

// webhookURL is the URL Twilio signed: the configured public URL when set,
// otherwise the URL as this server saw it.
func (s *Server) webhookURL(r *http.Request) string {
	if s.publicURL != "" {
		return s.publicURL + r.URL.RequestURI()
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
