package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/teslashibe/go-folio/internal/httpc"
	"github.com/teslashibe/go-folio/internal/log"
	"github.com/teslashibe/go-folio/pkg/assistant"
	"github.com/teslashibe/go-folio/pkg/conversation"
	"github.com/teslashibe/go-folio/pkg/protocol"
	"github.com/teslashibe/go-folio/pkg/widget"
)

var chatRemote string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant in the terminal",
	Long: `Chat with the portfolio assistant in text-only mode.

Without --remote the conversation runs locally against the configured
assistant backends (or the webhook when N8N_WEBHOOK_URL is set). With
--remote the terminal becomes a widget client of a running folio-server.

Type /quit to leave.

Examples:
  folio chat
  folio chat --remote http://localhost:8080`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatRemote, "remote", "r", "", "folio-server URL (http://, https://, ws:// or wss://)")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := newTranscript(cmd.OutOrStdout())
	if chatRemote != "" {
		return runRemoteChat(ctx, chatRemote, cmd.InOrStdin(), out)
	}
	return runLocalChat(ctx, cmd.InOrStdin(), out)
}

func runLocalChat(ctx context.Context, in io.Reader, out *transcript) error {
	chain, err := newChain()
	if err != nil {
		return err
	}
	logger := log.Component("chat")
	gateway, err := assistant.NewGateway(cfg.Assistant, chain, logger)
	if err != nil {
		return err
	}

	ctrl, err := conversation.New(gateway, nil,
		conversation.WithChatConfig(cfg.Chat),
		conversation.WithAudio(false),
		conversation.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	w := widget.New(ctrl, logger)
	defer w.OnView(out.show)()

	out.hint("Chatting with %s. Type /quit to leave.", chain.Name())
	return readLines(ctx, in, func(line string) error {
		err := w.SendMessage(line)
		if conversation.IsBusy(err) {
			out.hint("Still thinking about the last message...")
			return nil
		}
		return err
	})
}

func runRemoteChat(ctx context.Context, remote string, in io.Reader, out *transcript) error {
	base, wsBase, err := remoteURLs(remote)
	if err != nil {
		return err
	}

	id, err := createSession(ctx, base)
	if err != nil {
		return err
	}
	defer deleteSession(base, id)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsBase+"/ws/chat/"+id, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("websocket dial: %w", err)
	}
	defer conn.Close()

	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			msg, err := protocol.ParseMessage(data)
			if err != nil {
				continue
			}
			switch msg.Type {
			case protocol.TypeView:
				if v, err := msg.GetView(); err == nil {
					out.show(*v)
				}
			case protocol.TypeError:
				if e, err := msg.GetError(); err == nil {
					out.showError(e.Message)
				}
			}
		}
	}()

	out.hint("Connected to %s (session %s). Type /quit to leave.", base, id)
	return readLines(ctx, in, func(line string) error {
		msg, err := protocol.NewCommandMessage(widget.Command{Action: widget.ActionSend, Text: line})
		if err != nil {
			return err
		}
		data, err := msg.Bytes()
		if err != nil {
			return err
		}
		return conn.WriteMessage(websocket.TextMessage, data)
	})
}

// readLines calls fn for every non-blank input line until EOF, /quit or
// ctx is cancelled.
func readLines(ctx context.Context, in io.Reader, fn func(string) error) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(line)
			switch line {
			case "":
				continue
			case "/quit", "/exit":
				return nil
			}
			if err := fn(line); err != nil {
				return err
			}
		}
	}
}

// remoteURLs returns the HTTP and WebSocket base URLs for a server address.
func remoteURLs(remote string) (string, string, error) {
	u, err := url.Parse(strings.TrimRight(remote, "/"))
	if err != nil {
		return "", "", fmt.Errorf("invalid remote %q: %w", remote, err)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("invalid remote %q: missing host", remote)
	}

	httpURL, wsURL := *u, *u
	switch u.Scheme {
	case "http", "ws":
		httpURL.Scheme, wsURL.Scheme = "http", "ws"
	case "https", "wss":
		httpURL.Scheme, wsURL.Scheme = "https", "wss"
	default:
		return "", "", fmt.Errorf("invalid remote %q: unsupported scheme %q", remote, u.Scheme)
	}
	return httpURL.String(), wsURL.String(), nil
}

func createSession(ctx context.Context, base string) (string, error) {
	resp, err := httpc.PostJSON(ctx, httpc.Client, base+"/api/chat/sessions", nil, struct{}{})
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("create session: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return created.ID, nil
}

func deleteSession(base, id string) {
	req, err := http.NewRequest(http.MethodDelete, base+"/api/chat/sessions/"+id, nil)
	if err != nil {
		return
	}
	resp, err := httpc.Do(req)
	if err != nil {
		log.Debug("failed to delete session", "session", id, "error", err)
		return
	}
	resp.Body.Close()
}
