package widget

import (
	"time"

	"github.com/teslashibe/go-folio/pkg/conversation"
)

// Status texts shown in the audio panel.
const (
	StatusListening = "Listening..."
	StatusSpeaking  = "Speaking..."
	StatusThinking  = "Thinking..."
	StatusReady     = "Ready"
)

// Transcript placeholders for an empty log.
const (
	PlaceholderVoice = "Start speaking or type a message below..."
	PlaceholderText  = "Type a message to start chatting..."
)

// Speaker labels.
const (
	LabelUser  = "You"
	LabelAgent = "Agent"
)

// View is everything the shell renders for one session.
type View struct {
	SessionID  string          `json:"sessionId"`
	State      string          `json:"state"`
	Audio      AudioPanel      `json:"audio"`
	Transcript TranscriptPanel `json:"transcript"`
	Settings   SettingsPanel   `json:"settings"`
	Error      string          `json:"error,omitempty"`
}

// AudioPanel shows the microphone and playback status.
type AudioPanel struct {
	Visible   bool   `json:"visible"`
	Listening bool   `json:"listening"`
	Speaking  bool   `json:"speaking"`
	Status    string `json:"status"`
	CanStart  bool   `json:"canStart"`
	CanStop   bool   `json:"canStop"`
}

// TranscriptPanel shows the message log.
type TranscriptPanel struct {
	Visible     bool    `json:"visible"`
	Placeholder string  `json:"placeholder,omitempty"`
	Interim     string  `json:"interim,omitempty"`
	Entries     []Entry `json:"entries"`
}

// Entry is one rendered message.
type Entry struct {
	ID        int64     `json:"id"`
	Label     string    `json:"label"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// SettingsPanel shows toggles, the voice picker and connection status.
type SettingsPanel struct {
	ShowChat  bool          `json:"showChat"`
	ShowAudio bool          `json:"showAudio"`
	Connected bool          `json:"connected"`
	Voices    []VoiceOption `json:"voices"`
	Selected  string        `json:"selected,omitempty"`
}

// VoiceOption is one entry of the voice picker.
type VoiceOption struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// Render builds the view for a controller snapshot. Connected is true when
// the session has at least one speech capability attached.
func Render(s conversation.Snapshot) View {
	sp := s.Speech

	v := View{
		SessionID: s.SessionID,
		State:     s.State.String(),
		Error:     sp.Err,
	}

	v.Audio = AudioPanel{
		Visible:   s.AudioEnabled,
		Listening: sp.Listening,
		Speaking:  sp.Speaking,
		Status:    status(s),
		CanStart:  s.AudioEnabled && sp.RecognitionSupported && s.State == conversation.StateIdle,
		CanStop:   sp.Listening,
	}

	v.Transcript = TranscriptPanel{
		Visible: s.ChatVisible,
		Entries: make([]Entry, 0, len(s.Messages)),
	}
	if sp.Listening {
		v.Transcript.Interim = sp.Transcript
	}
	if len(s.Messages) == 0 {
		v.Transcript.Placeholder = PlaceholderText
		if s.AudioEnabled {
			v.Transcript.Placeholder = PlaceholderVoice
		}
	}
	for _, m := range s.Messages {
		label := LabelAgent
		if m.Role == conversation.RoleUser {
			label = LabelUser
		}
		v.Transcript.Entries = append(v.Transcript.Entries, Entry{
			ID:        m.ID,
			Label:     label,
			Role:      m.Role,
			Content:   m.Content,
			Timestamp: m.Timestamp,
		})
	}

	v.Settings = SettingsPanel{
		ShowChat:  s.ChatVisible,
		ShowAudio: s.AudioEnabled,
		Connected: sp.RecognitionSupported || sp.SynthesisSupported,
		Voices:    make([]VoiceOption, 0, len(sp.Voices)),
	}
	for _, voice := range sp.Voices {
		v.Settings.Voices = append(v.Settings.Voices, VoiceOption{
			Name:  voice.Name,
			Label: voice.Name + " (" + voice.Lang + ")",
		})
	}
	if sp.Voice != nil {
		v.Settings.Selected = sp.Voice.Name
	}

	return v
}

func status(s conversation.Snapshot) string {
	switch s.State {
	case conversation.StateListening:
		return StatusListening
	case conversation.StateSpeaking:
		return StatusSpeaking
	case conversation.StateAwaitingReply:
		return StatusThinking
	}
	return StatusReady
}
