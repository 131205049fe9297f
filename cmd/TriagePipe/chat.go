package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BTreeMap/TriagePipe/internal/flow"
	"github.com/BTreeMap/TriagePipe/internal/models"
)

// terminalUserID keys the single session of the terminal chat.
const terminalUserID = "terminal"

func newChatCmd(config *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Talk to the triage bot in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildEngine(*config)
			if err != nil {
				return err
			}
			defer rt.Close()
			return runChat(cmd.Context(), rt.engine, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// runChat reads one message per line until EOF or "quit".
func runChat(ctx context.Context, engine *flow.Engine, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Hello! I'm your medical assistant. What's your name? (type 'quit' to leave)")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit":
			return nil
		}

		resp, err := engine.Handle(ctx, terminalUserID, line)
		if err != nil {
			fmt.Fprintf(out, "[error] %v\n", err)
			continue
		}
		for _, part := range resp.BotResponseParts {
			fmt.Fprintln(out, part)
		}
		if resp.MapData != nil {
			printMarkers(out, resp.MapData.Doctors)
		}
	}
}

func printMarkers(out io.Writer, doctors []models.MapDoctor) {
	for _, d := range doctors {
		fmt.Fprintf(out, "  [map] %s @ %.4f,%.4f\n", d.Name, d.Lat, d.Lng)
	}
}
