package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/teslashibe/go-folio/pkg/conversation"
	"github.com/teslashibe/go-folio/pkg/speech"
	"github.com/teslashibe/go-folio/pkg/widget"
)

// Theme holds the color scheme for terminal output.
type Theme struct {
	User  lipgloss.Color
	Agent lipgloss.Color
	Error lipgloss.Color
	Hint  lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	User:  lipgloss.Color("#5FAFD7"), // light blue
	Agent: lipgloss.Color("#00D787"), // green
	Error: lipgloss.Color("#FF005F"), // red
	Hint:  lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) labelStyle(role string) lipgloss.Style {
	if role == conversation.RoleUser {
		return lipgloss.NewStyle().Foreground(t.User).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(t.Agent).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// transcript prints new agent entries and errors from successive views.
// Typed user input is already on screen, so user entries are skipped.
type transcript struct {
	mu      sync.Mutex
	out     io.Writer
	theme   Theme
	lastID  int64
	lastErr string
}

func newTranscript(out io.Writer) *transcript {
	return &transcript{out: out, theme: defaultTheme}
}

func (t *transcript) show(v widget.View) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, e := range v.Transcript.Entries {
		if e.ID <= t.lastID {
			continue
		}
		t.lastID = e.ID
		if e.Role == conversation.RoleUser {
			continue
		}
		fmt.Fprintf(t.out, "%s %s\n", t.theme.labelStyle(e.Role).Render(e.Label+":"), e.Content)
	}

	// The terminal never has a microphone.
	if v.Error != "" && v.Error != t.lastErr && v.Error != speech.MsgRecognitionUnsupported {
		fmt.Fprintln(t.out, t.theme.errorStyle().Render(v.Error))
	}
	t.lastErr = v.Error
}

func (t *transcript) hint(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, t.theme.hintStyle().Render(fmt.Sprintf(format, args...)))
}

func (t *transcript) showError(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, t.theme.errorStyle().Render(msg))
}
