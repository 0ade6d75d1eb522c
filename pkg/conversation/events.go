package conversation

import "github.com/teslashibe/go-folio/pkg/speech"

// Event drives the controller state machine.
type Event interface {
	event()
}

// ListeningStarted reports that the recognizer began capturing.
type ListeningStarted struct{}

// ListeningEnded reports that the recognizer stopped.
type ListeningEnded struct{}

// TranscriptInterim carries a partial hypothesis.
type TranscriptInterim struct{ Text string }

// TranscriptFinal carries a finished utterance.
type TranscriptFinal struct{ Text string }

// SpeakStarted reports that playback began.
type SpeakStarted struct{ UtteranceID uint64 }

// SpeakEnded reports that playback finished or was cancelled.
type SpeakEnded struct {
	UtteranceID uint64
	Canceled    bool
}

// SpeechFailed carries a user-visible speech error.
type SpeechFailed struct{ Message string }

// VoicesChanged reports a new voice list.
type VoicesChanged struct{}

// ReplyReceived carries the assistant reply for a turn.
type ReplyReceived struct {
	Turn uint64
	Text string
}

// ReplyFailed reports that the assistant call for a turn failed.
type ReplyFailed struct {
	Turn uint64
	Err  error
}

// SettleElapsed fires when the post-playback delay is over.
type SettleElapsed struct{ Gen uint64 }

func (ListeningStarted) event()  {}
func (ListeningEnded) event()    {}
func (TranscriptInterim) event() {}
func (TranscriptFinal) event()   {}
func (SpeakStarted) event()      {}
func (SpeakEnded) event()        {}
func (SpeechFailed) event()      {}
func (VoicesChanged) event()     {}
func (ReplyReceived) event()     {}
func (ReplyFailed) event()       {}
func (SettleElapsed) event()     {}

// fromSpeech converts an adapter event.
func fromSpeech(ev speech.Event) Event {
	switch ev.Kind {
	case speech.EventListeningStarted:
		return ListeningStarted{}
	case speech.EventListeningEnded:
		return ListeningEnded{}
	case speech.EventTranscriptInterim:
		return TranscriptInterim{Text: ev.Text}
	case speech.EventTranscriptFinal:
		return TranscriptFinal{Text: ev.Text}
	case speech.EventSpeakStarted:
		return SpeakStarted{UtteranceID: ev.UtteranceID}
	case speech.EventSpeakEnded:
		return SpeakEnded{UtteranceID: ev.UtteranceID, Canceled: ev.Canceled}
	case speech.EventError:
		return SpeechFailed{Message: ev.Err}
	case speech.EventVoicesChanged:
		return VoicesChanged{}
	}
	return nil
}
