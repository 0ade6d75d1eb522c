package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-folio/internal/log"
	"github.com/teslashibe/go-folio/pkg/assistant"
)

var askTimeout time.Duration

var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Ask the assistant a single question",
	Long: `Ask the assistant backends a single question and print the reply.

Backends are tried in order (Groq, Together, Ollama when configured) and the
rule-based responder always answers last.

Examples:
  folio ask "What are your skills?"
  folio ask "How can I contact you?" --timeout 5s`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().DurationVar(&askTimeout, "timeout", 30*time.Second, "request timeout")
}

func runAsk(cmd *cobra.Command, args []string) error {
	chain, err := newChain()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), askTimeout)
	defer cancel()

	svc := assistant.NewService(chain, log.Component("assistant"))
	answer, err := svc.Answer(ctx, assistant.Request{
		Message:   strings.Join(args, " "),
		Timestamp: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), answer.Response)
	if verbose {
		fmt.Fprintln(cmd.OutOrStdout(), defaultTheme.hintStyle().Render("answered by "+answer.Model))
	}
	return nil
}
