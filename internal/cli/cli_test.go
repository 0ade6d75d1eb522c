package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/teslashibe/go-folio/pkg/conversation"
	"github.com/teslashibe/go-folio/pkg/speech"
	"github.com/teslashibe/go-folio/pkg/widget"
)

func TestRemoteURLs(t *testing.T) {
	tests := []struct {
		remote  string
		http    string
		ws      string
		wantErr bool
	}{
		{"http://localhost:8080", "http://localhost:8080", "ws://localhost:8080", false},
		{"http://localhost:8080/", "http://localhost:8080", "ws://localhost:8080", false},
		{"wss://folio.example.com", "https://folio.example.com", "wss://folio.example.com", false},
		{"ftp://example.com", "", "", true},
		{"localhost:8080", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.remote, func(t *testing.T) {
			httpURL, wsURL, err := remoteURLs(tt.remote)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %q %q", httpURL, wsURL)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if httpURL != tt.http || wsURL != tt.ws {
				t.Errorf("got %q %q, want %q %q", httpURL, wsURL, tt.http, tt.ws)
			}
		})
	}
}

func TestReadLines(t *testing.T) {
	in := strings.NewReader("hello\n\n   \nsecond\n/quit\nignored\n")

	var got []string
	err := readLines(context.Background(), in, func(line string) error {
		got = append(got, line)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "hello" || got[1] != "second" {
		t.Errorf("lines = %q", got)
	}
}

func TestReadLinesError(t *testing.T) {
	boom := errors.New("boom")
	err := readLines(context.Background(), strings.NewReader("a\nb\n"), func(string) error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
}

func TestTranscriptShow(t *testing.T) {
	var buf bytes.Buffer
	tr := newTranscript(&buf)

	entry := func(id int64, role, content string) widget.Entry {
		label := widget.LabelAgent
		if role == conversation.RoleUser {
			label = widget.LabelUser
		}
		return widget.Entry{ID: id, Role: role, Label: label, Content: content}
	}

	view := widget.View{Error: speech.MsgRecognitionUnsupported}
	view.Transcript.Entries = []widget.Entry{
		entry(1, conversation.RoleUser, "What are your skills?"),
		entry(2, conversation.RoleAssistant, "I specialize in X"),
	}
	tr.show(view)
	tr.show(view)

	out := buf.String()
	if strings.Count(out, "I specialize in X") != 1 {
		t.Errorf("reply should print once:\n%s", out)
	}
	if strings.Contains(out, "What are your skills?") {
		t.Errorf("user entries should be skipped:\n%s", out)
	}
	if strings.Contains(out, speech.MsgRecognitionUnsupported) {
		t.Errorf("recognition error should be hidden:\n%s", out)
	}

	view.Error = "Speech error: network"
	tr.show(view)
	tr.show(view)
	if strings.Count(buf.String(), "Speech error: network") != 1 {
		t.Errorf("error should print once:\n%s", buf.String())
	}
}
