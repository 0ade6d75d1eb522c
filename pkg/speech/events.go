package speech

// EventKind identifies an adapter event.
type EventKind int

const (
	// EventListeningStarted fires when recognition begins.
	EventListeningStarted EventKind = iota

	// EventListeningEnded fires when recognition stops for any reason.
	EventListeningEnded

	// EventTranscriptInterim carries a non-final hypothesis.
	EventTranscriptInterim

	// EventTranscriptFinal carries a finished utterance. Fires once per utterance.
	EventTranscriptFinal

	// EventSpeakStarted fires when the platform starts playing an utterance.
	EventSpeakStarted

	// EventSpeakEnded fires when playback ends, fails or is cancelled.
	EventSpeakEnded

	// EventError carries a user-visible error message.
	EventError

	// EventVoicesChanged fires when the available voice set changes.
	EventVoicesChanged
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventListeningStarted:
		return "listening_started"
	case EventListeningEnded:
		return "listening_ended"
	case EventTranscriptInterim:
		return "transcript_interim"
	case EventTranscriptFinal:
		return "transcript_final"
	case EventSpeakStarted:
		return "speak_started"
	case EventSpeakEnded:
		return "speak_ended"
	case EventError:
		return "error"
	case EventVoicesChanged:
		return "voices_changed"
	default:
		return "unknown"
	}
}

// Event is emitted by the adapter to its sink.
type Event struct {
	Kind EventKind

	// Text is the transcript for transcript events.
	Text string

	// Err is the user-visible message for EventError.
	Err string

	// UtteranceID identifies the utterance for speak events.
	UtteranceID uint64

	// Canceled is set on EventSpeakEnded when playback was stopped early.
	Canceled bool
}

// State is a point-in-time copy of the adapter's capability state.
type State struct {
	Listening  bool    `json:"listening"`
	Speaking   bool    `json:"speaking"`
	Transcript string  `json:"transcript"`
	Voice      *Voice  `json:"voice,omitempty"`
	Voices     []Voice `json:"voices"`
	Err        string  `json:"error,omitempty"`

	RecognitionSupported bool `json:"recognitionSupported"`
	SynthesisSupported   bool `json:"synthesisSupported"`
}
