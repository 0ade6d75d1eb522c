package speech

// Recognizer is the platform speech-to-text capability.
// Results and lifecycle changes arrive asynchronously via
// Adapter.HandleRecognition.
type Recognizer interface {
	// Start begins microphone capture and recognition.
	Start() error

	// Stop ends recognition. Must be safe to call when not started.
	Stop() error
}

// Synthesizer is the platform text-to-speech capability.
// Playback lifecycle arrives asynchronously via Adapter.HandleSynthesis.
type Synthesizer interface {
	// Speak queues an utterance for playback.
	Speak(u Utterance) error

	// Cancel stops all queued and in-progress playback.
	Cancel() error

	// Voices returns the voices currently known to the platform.
	Voices() []Voice
}

// Voice describes a synthesizer voice.
type Voice struct {
	Name    string `json:"name"`
	Lang    string `json:"lang"`
	URI     string `json:"uri,omitempty"`
	Default bool   `json:"default,omitempty"`
}

// Utterance is one request to speak text.
type Utterance struct {
	// ID identifies the utterance in subsequent synthesis events.
	ID uint64 `json:"id"`

	Text   string  `json:"text"`
	Voice  *Voice  `json:"voice,omitempty"`
	Rate   float64 `json:"rate"`
	Pitch  float64 `json:"pitch"`
	Volume float64 `json:"volume"`
}

// RecognitionEventType identifies a platform recognizer callback.
type RecognitionEventType string

const (
	RecognitionStart       RecognitionEventType = "start"
	RecognitionResultEvent RecognitionEventType = "result"
	RecognitionError       RecognitionEventType = "error"
	RecognitionEnd         RecognitionEventType = "end"
)

// RecognitionResult is one (possibly interim) recognition hypothesis.
type RecognitionResult struct {
	Transcript string `json:"transcript"`
	IsFinal    bool   `json:"isFinal"`
}

// RecognitionEvent is a platform recognizer callback.
// For result events, Results holds the full result list for the session and
// ResultIndex the first entry that changed.
type RecognitionEvent struct {
	Type        RecognitionEventType `json:"type"`
	ResultIndex int                  `json:"resultIndex,omitempty"`
	Results     []RecognitionResult  `json:"results,omitempty"`
	Error       string               `json:"error,omitempty"`
}

// SynthesisEventType identifies a platform synthesizer callback.
type SynthesisEventType string

const (
	SynthesisStart SynthesisEventType = "start"
	SynthesisEnd   SynthesisEventType = "end"
	SynthesisError SynthesisEventType = "error"
)

// SynthesisEvent is a platform synthesizer callback for one utterance.
type SynthesisEvent struct {
	Type        SynthesisEventType `json:"type"`
	UtteranceID uint64             `json:"utteranceId"`
	Error       string             `json:"error,omitempty"`
}
