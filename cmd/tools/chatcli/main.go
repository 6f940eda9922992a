package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/talktotj/chat/backend/internal/client"
	chatservice "github.com/talktotj/chat/backend/internal/service/chat"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		serverURL string
		name      string
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "chatcli",
		Short: "Chat with the relay server from a terminal",
		Long: `Interactive terminal client for the chat relay.

Each line you type is sent to POST /api/chat on the server and the reply is
printed below it. Type /quit or press Ctrl-D to leave.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			relay := client.New(serverURL, timeout)
			return runChat(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), relay, name)
		},
	}

	cmd.Flags().StringVarP(&serverURL, "server", "s", envOrDefault("CHAT_SERVER_URL", "http://localhost:8080"), "Relay server base URL")
	cmd.Flags().StringVarP(&name, "name", "n", "TJ", "Persona name shown in the prompt")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 60*time.Second, "Per-message request timeout")

	return cmd
}

// runChat drives one conversation from in until EOF or /quit.
func runChat(ctx context.Context, in io.Reader, out io.Writer, relay chatservice.Relay, name string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	svc := chatservice.NewService(relay)
	view := newView(out, name)
	svc.OnChange(view.Update)

	view.Banner()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "/quit" {
			break
		}

		svc.SetInput(line)
		// Failures are rendered by the view from the state's Err.
		_ = svc.SubmitInput(ctx)

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return scanner.Err()
}

func envOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}
