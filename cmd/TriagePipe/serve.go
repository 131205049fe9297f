package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mdp/qrterminal/v3"
	"github.com/spf13/cobra"

	"github.com/BTreeMap/TriagePipe/internal/api"
	"github.com/BTreeMap/TriagePipe/internal/lockfile"
	"github.com/BTreeMap/TriagePipe/internal/twiliowhatsapp"
)

func newServeCmd(config *Config) *cobra.Command {
	var (
		showQR         bool
		requestTimeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat API, websocket and Twilio webhook",
		RunE: func(cmd *cobra.Command, args []string) error {
			lock, err := lockfile.Acquire(config.StateDir, "serve")
			if err != nil {
				return err
			}
			defer lock.Release()

			rt, err := buildEngine(*config)
			if err != nil {
				return err
			}
			defer rt.Close()

			if showQR {
				printQR(cmd.OutOrStdout(), config.PublicURL)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			slog.Info("Bootstrapping TriagePipe", "addr", config.APIAddr, "online", rt.engine.Online())
			server := api.NewServer(rt.engine, buildAPIOptions(*config, requestTimeout)...)
			if err := server.Run(ctx); err != nil {
				return err
			}
			slog.Info("TriagePipe exited successfully")
			return nil
		},
	}
	cmd.Flags().StringVar(&config.APIAddr, "api-addr", config.APIAddr, "API server address (overrides $API_ADDR)")
	cmd.Flags().StringVar(&config.PublicURL, "public-url", config.PublicURL, "externally visible base URL (overrides $TRIAGEPIPE_PUBLIC_URL)")
	cmd.Flags().BoolVar(&showQR, "qr", false, "print a QR code of the public URL")
	cmd.Flags().DurationVar(&requestTimeout, "request-timeout", api.DefaultRequestTimeout, "per-request timeout for the chat API")
	return cmd
}

// buildAPIOptions constructs API server configuration options. The Twilio
// webhook is only mounted when a sender can be built.
func buildAPIOptions(config Config, requestTimeout time.Duration) []api.Option {
	apiOpts := []api.Option{
		api.WithAddr(config.APIAddr),
		api.WithRequestTimeout(requestTimeout),
	}
	if config.PublicURL != "" {
		apiOpts = append(apiOpts, api.WithPublicURL(config.PublicURL))
	}
	if config.TwilioSID == "" {
		slog.Debug("No Twilio account configured, webhook disabled")
		return apiOpts
	}
	sender, err := twiliowhatsapp.NewClient(
		twiliowhatsapp.WithAccountSID(config.TwilioSID),
		twiliowhatsapp.WithAuthToken(config.TwilioToken),
		twiliowhatsapp.WithFromWhats(config.TwilioFrom),
	)
	if err != nil {
		slog.Warn("Twilio sender unavailable, webhook disabled", "error", err)
		return apiOpts
	}
	apiOpts = append(apiOpts, api.WithTwilioSender(sender), api.WithTwilioAuthToken(config.TwilioToken))
	if config.PublicURL == "" {
		slog.Warn("TRIAGEPIPE_PUBLIC_URL not set, Twilio signatures are checked against the request host")
	}
	return apiOpts
}

func printQR(w io.Writer, publicURL string) {
	if publicURL == "" {
		slog.Warn("--qr needs TRIAGEPIPE_PUBLIC_URL or --public-url")
		return
	}
	fmt.Fprintf(w, "Scan to open %s\n", publicURL)
	qrterminal.GenerateHalfBlock(publicURL, qrterminal.L, w)
}
