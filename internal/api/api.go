// Package api exposes the triage engine over HTTP, a websocket and the Twilio webhook.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/twilio/twilio-go/client"

	"github.com/BTreeMap/TriagePipe/internal/flow"
	"github.com/BTreeMap/TriagePipe/internal/twiliowhatsapp"
)

const (
	// DefaultAddr is the listen address used when none is configured.
	DefaultAddr = ":8080"
	// DefaultRequestTimeout bounds a single /chat_api request.
	DefaultRequestTimeout = 30 * time.Second
	// shutdownTimeout is how long in-flight requests get on shutdown.
	shutdownTimeout = 10 * time.Second
)

// Opts holds configuration for the API server.
type Opts struct {
	Addr            string
	RequestTimeout  time.Duration
	Sender          twiliowhatsapp.Sender
	TwilioAuthToken string
	PublicURL       string
}

// Option configures the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithRequestTimeout bounds each /chat_api request.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *Opts) { o.RequestTimeout = d }
}

// WithTwilioSender enables the Twilio webhook, replying through sender.
func WithTwilioSender(sender twiliowhatsapp.Sender) Option {
	return func(o *Opts) { o.Sender = sender }
}

// WithTwilioAuthToken enables signature checks on the Twilio webhook.
func WithTwilioAuthToken(token string) Option {
	return func(o *Opts) { o.TwilioAuthToken = token }
}

// WithPublicURL sets the externally visible base URL, used to verify Twilio signatures.
func WithPublicURL(url string) Option {
	return func(o *Opts) { o.PublicURL = strings.TrimRight(url, "/") }
}

// Server routes requests to the engine.
type Server struct {
	engine    *flow.Engine
	sender    twiliowhatsapp.Sender
	validator *client.RequestValidator
	upgrader  websocket.Upgrader
	publicURL string
	addr      string
	timeout   time.Duration
	router    chi.Router
}

// NewServer builds a Server around engine.
func NewServer(engine *flow.Engine, opts ...Option) *Server {
	cfg := Opts{Addr: DefaultAddr, RequestTimeout: DefaultRequestTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &Server{
		engine:    engine,
		sender:    cfg.Sender,
		publicURL: cfg.PublicURL,
		addr:      cfg.Addr,
		timeout:   cfg.RequestTimeout,
	}
	if cfg.TwilioAuthToken != "" {
		v := client.NewRequestValidator(cfg.TwilioAuthToken)
		s.validator = &v
	}
	s.upgrader = s.newUpgrader()
	s.router = s.routes()
	slog.Debug("api.NewServer: server created", "addr", s.addr, "twilio", s.sender != nil, "signature_check", s.validator != nil)
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.healthHandler)
	r.Get("/ws", s.websocketHandler)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.timeout))
		r.Post("/chat_api", s.chatHandler)
		if s.sender != nil {
			r.Post("/twilio/webhook", s.twilioWebhookHandler)
		}
	})
	return r
}

// Handler returns the HTTP handler with all routes mounted.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("TriagePipe API running", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server failed: %w", err)
	case <-ctx.Done():
		slog.Info("Server.Run: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("api shutdown failed: %w", err)
		}
		return nil
	}
}
