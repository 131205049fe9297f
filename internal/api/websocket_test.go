package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/BTreeMap/TriagePipe/internal/flow"
	"github.com/BTreeMap/TriagePipe/internal/models"
	"github.com/BTreeMap/TriagePipe/internal/util"
)

func dialChat(t *testing.T, s *Server, query string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws"+query, nil)
	if err != nil {
		t.Fatalf("failed to dial websocket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, req models.ChatRequest) models.ChatResponse {
	t.Helper()
	if err := conn.WriteJSON(req); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	var resp models.ChatResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return resp
}

func TestWebsocket_RemembersMintedID(t *testing.T) {
	s := newTestServer(flow.NewMockClassifier("Fungal infection", 0.9))
	conn := dialChat(t, s, "")

	first := roundTrip(t, conn, models.ChatRequest{Message: "rahim"})
	if !util.IsAnonymousUserID(first.UserID) {
		t.Fatalf("expected minted id, got %q", first.UserID)
	}
	second := roundTrip(t, conn, models.ChatRequest{Message: "cough"})
	if second.UserID != first.UserID {
		t.Errorf("expected socket to keep user id %q, got %q", first.UserID, second.UserID)
	}
	if len(second.BotResponseParts) != 1 || second.BotResponseParts[0] != "Rahim, Do you have a cough? (yes/no)" {
		t.Errorf("unexpected parts: %q", second.BotResponseParts)
	}
}

func TestWebsocket_UserIDFromQuery(t *testing.T) {
	s := newTestServer(flow.NewMockClassifier("Fungal infection", 0.9))
	conn := dialChat(t, s, "?user_id=kiosk-7")
	resp := roundTrip(t, conn, models.ChatRequest{Message: "rahim"})
	if resp.UserID != "kiosk-7" {
		t.Errorf("expected kiosk-7, got %q", resp.UserID)
	}
}

func TestWebsocket_OversizedFrameClosesSocket(t *testing.T) {
	s := newTestServer(flow.NewMockClassifier("Fungal infection", 0.9))
	conn := dialChat(t, s, "")

	big := `{"message":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	// The server may close before the whole frame is written; only the read matters.
	_ = conn.WriteMessage(websocket.TextMessage, []byte(big))

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	if err == nil {
		t.Fatal("expected the socket to be closed after an oversized frame")
	}
	if ce, ok := err.(*websocket.CloseError); ok && ce.Code != websocket.CloseMessageTooBig {
		t.Errorf("expected close code %d, got %d", websocket.CloseMessageTooBig, ce.Code)
	}
}

func TestCheckOrigin(t *testing.T) {
	s := newTestServer(flow.NewMockClassifier("Fungal infection", 0.9), WithPublicURL("https://triage.example.com"))
	tests := []struct {
		name   string
		origin string
		want   bool
	}{
		{"no origin", "", true},
		{"same host", "http://api.local:8080", true},
		{"public url", "https://triage.example.com", true},
		{"foreign", "https://evil.example.org", false},
		{"garbage", "://", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "http://api.local:8080/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if got := s.checkOrigin(r); got != tt.want {
				t.Errorf("checkOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}

func TestWebsocket_ForeignOriginRejected(t *testing.T) {
	s := newTestServer(flow.NewMockClassifier("Fungal infection", 0.9))
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	header := http.Header{"Origin": {"https://evil.example.org"}}
	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", header)
	if err == nil {
		conn.Close()
		t.Fatal("expected handshake to fail for a foreign origin")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %v", resp)
	}
}
