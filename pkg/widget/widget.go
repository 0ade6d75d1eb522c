// Package widget is the presentation shell of the chat widget. It renders
// the controller snapshot into panel view models and turns user gestures
// into controller commands. It owns no conversation state.
package widget

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/teslashibe/go-folio/pkg/conversation"
)

// Command actions accepted by Handle.
const (
	ActionSend           = "send"
	ActionToggleAudio    = "toggle_audio"
	ActionToggleChat     = "toggle_chat"
	ActionSetVoice       = "set_voice"
	ActionStartListening = "start_listening"
	ActionStopListening  = "stop_listening"
	ActionDismissError   = "dismiss_error"
)

// ErrUnknownAction indicates a command with an unrecognised action.
var ErrUnknownAction = errors.New("widget: unknown action")

// Controller is the conversation surface the widget drives.
type Controller interface {
	Snapshot() conversation.Snapshot
	Subscribe(fn func(conversation.Snapshot)) func()
	Submit(text string) error
	SetAudio(on bool) error
	SetChatVisible(on bool) error
	SetVoice(name string) error
	StartListening() error
	StopListening() error
	DismissError() error
}

// Command is a user gesture.
type Command struct {
	Action string `json:"action"`
	Text   string `json:"text,omitempty"`
	Voice  string `json:"voice,omitempty"`
}

// Widget binds the panels to a controller.
type Widget struct {
	ctrl   Controller
	logger *slog.Logger
}

// New creates a widget for ctrl.
func New(ctrl Controller, logger *slog.Logger) *Widget {
	if logger == nil {
		logger = slog.Default()
	}
	return &Widget{
		ctrl:   ctrl,
		logger: logger.With("component", "widget"),
	}
}

// View renders the current state.
func (w *Widget) View() View {
	return Render(w.ctrl.Snapshot())
}

// OnView calls fn with a fresh view after every state change.
func (w *Widget) OnView(fn func(View)) func() {
	return w.ctrl.Subscribe(func(s conversation.Snapshot) {
		fn(Render(s))
	})
}

// SendMessage submits typed text. Blank input is ignored.
func (w *Widget) SendMessage(text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return w.ctrl.Submit(text)
}

// ToggleAudio flips the audio toggle. Turning audio on starts listening,
// turning it off stops listening and speaking at once.
func (w *Widget) ToggleAudio() error {
	return w.ctrl.SetAudio(!w.ctrl.Snapshot().AudioEnabled)
}

// ToggleChat shows or hides the transcript panel.
func (w *Widget) ToggleChat() error {
	return w.ctrl.SetChatVisible(!w.ctrl.Snapshot().ChatVisible)
}

// ChangeVoice selects the reply voice.
func (w *Widget) ChangeVoice(name string) error {
	return w.ctrl.SetVoice(name)
}

// TestMicrophone starts listening on demand.
func (w *Widget) TestMicrophone() error {
	return w.ctrl.StartListening()
}

// StopListening closes the microphone.
func (w *Widget) StopListening() error {
	return w.ctrl.StopListening()
}

// DismissError hides the current error banner.
func (w *Widget) DismissError() error {
	return w.ctrl.DismissError()
}

// Handle dispatches a command.
func (w *Widget) Handle(cmd Command) error {
	w.logger.Debug("command", "action", cmd.Action)

	switch cmd.Action {
	case ActionSend:
		return w.SendMessage(cmd.Text)
	case ActionToggleAudio:
		return w.ToggleAudio()
	case ActionToggleChat:
		return w.ToggleChat()
	case ActionSetVoice:
		return w.ChangeVoice(cmd.Voice)
	case ActionStartListening:
		return w.TestMicrophone()
	case ActionStopListening:
		return w.StopListening()
	case ActionDismissError:
		return w.DismissError()
	}
	return fmt.Errorf("%w: %q", ErrUnknownAction, cmd.Action)
}

var _ Controller = (*conversation.Controller)(nil)
