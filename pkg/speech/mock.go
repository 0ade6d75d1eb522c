package speech

import "sync"

// MockRecognizer is a Recognizer for testing. Bind it to an adapter and use
// the Simulate* helpers to play back platform events.
type MockRecognizer struct {
	mu      sync.Mutex
	handler func(RecognitionEvent)
	active  bool
	results []RecognitionResult

	// StartErr is returned from Start when set.
	StartErr error

	// Starts and Stops count calls.
	Starts int
	Stops  int
}

// NewMockRecognizer creates a mock recognizer.
func NewMockRecognizer() *MockRecognizer {
	return &MockRecognizer{}
}

// Bind routes simulated events into the adapter.
func (m *MockRecognizer) Bind(a *Adapter) {
	m.mu.Lock()
	m.handler = a.HandleRecognition
	m.mu.Unlock()
}

// Start implements Recognizer.
func (m *MockRecognizer) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Starts++
	if m.StartErr != nil {
		return m.StartErr
	}
	m.active = true
	m.results = nil
	return nil
}

// Stop implements Recognizer.
func (m *MockRecognizer) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Stops++
	m.active = false
	return nil
}

// Active reports whether the recognizer is started.
func (m *MockRecognizer) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Calls returns the start and stop counts.
func (m *MockRecognizer) Calls() (starts, stops int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Starts, m.Stops
}

func (m *MockRecognizer) send(ev RecognitionEvent) {
	m.mu.Lock()
	h := m.handler
	m.mu.Unlock()
	if h != nil {
		h(ev)
	}
}

// SimulateInterim reports a non-final hypothesis for the current utterance.
func (m *MockRecognizer) SimulateInterim(text string) {
	m.mu.Lock()
	idx := len(m.results)
	results := append(append([]RecognitionResult(nil), m.results...), RecognitionResult{Transcript: text})
	m.mu.Unlock()
	m.send(RecognitionEvent{Type: RecognitionResultEvent, ResultIndex: idx, Results: results})
}

// SimulateFinal finalizes an utterance. Like the browser, the result list is
// cumulative for the recognition session.
func (m *MockRecognizer) SimulateFinal(text string) {
	m.mu.Lock()
	m.results = append(m.results, RecognitionResult{Transcript: text, IsFinal: true})
	idx := len(m.results) - 1
	results := append([]RecognitionResult(nil), m.results...)
	m.mu.Unlock()
	m.send(RecognitionEvent{Type: RecognitionResultEvent, ResultIndex: idx, Results: results})
}

// SimulateResults sends a raw result event.
func (m *MockRecognizer) SimulateResults(index int, results []RecognitionResult) {
	m.send(RecognitionEvent{Type: RecognitionResultEvent, ResultIndex: index, Results: results})
}

// SimulateError reports a recognition error of the given kind.
func (m *MockRecognizer) SimulateError(kind string) {
	m.mu.Lock()
	m.active = false
	m.mu.Unlock()
	m.send(RecognitionEvent{Type: RecognitionError, Error: kind})
}

// SimulateEnd reports the end of the recognition session.
func (m *MockRecognizer) SimulateEnd() {
	m.mu.Lock()
	m.active = false
	m.mu.Unlock()
	m.send(RecognitionEvent{Type: RecognitionEnd})
}

// MockSynthesizer is a Synthesizer for testing.
type MockSynthesizer struct {
	mu      sync.Mutex
	handler func(SynthesisEvent)
	voices  []Voice
	spoken  []Utterance
	cancels int

	// SpeakErr is returned from Speak when set.
	SpeakErr error

	// AutoComplete plays every utterance to completion as soon as it is spoken.
	AutoComplete bool
}

// NewMockSynthesizer creates a mock synthesizer with the given voices.
func NewMockSynthesizer(voices ...Voice) *MockSynthesizer {
	return &MockSynthesizer{voices: voices}
}

// Bind routes simulated events into the adapter.
func (m *MockSynthesizer) Bind(a *Adapter) {
	m.mu.Lock()
	m.handler = a.HandleSynthesis
	m.mu.Unlock()
}

// Speak implements Synthesizer.
func (m *MockSynthesizer) Speak(u Utterance) error {
	m.mu.Lock()
	if m.SpeakErr != nil {
		err := m.SpeakErr
		m.mu.Unlock()
		return err
	}
	m.spoken = append(m.spoken, u)
	auto := m.AutoComplete
	h := m.handler
	m.mu.Unlock()

	if auto && h != nil {
		h(SynthesisEvent{Type: SynthesisStart, UtteranceID: u.ID})
		h(SynthesisEvent{Type: SynthesisEnd, UtteranceID: u.ID})
	}
	return nil
}

// Cancel implements Synthesizer.
func (m *MockSynthesizer) Cancel() error {
	m.mu.Lock()
	m.cancels++
	m.mu.Unlock()
	return nil
}

// Voices implements Synthesizer.
func (m *MockSynthesizer) Voices() []Voice {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Voice(nil), m.voices...)
}

// SetVoices replaces the platform voice list.
func (m *MockSynthesizer) SetVoices(voices []Voice) {
	m.mu.Lock()
	m.voices = voices
	m.mu.Unlock()
}

// Spoken returns all utterances handed to the synthesizer.
func (m *MockSynthesizer) Spoken() []Utterance {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Utterance(nil), m.spoken...)
}

// Cancels returns the number of Cancel calls.
func (m *MockSynthesizer) Cancels() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancels
}

// Last returns the most recent utterance.
func (m *MockSynthesizer) Last() (Utterance, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.spoken) == 0 {
		return Utterance{}, false
	}
	return m.spoken[len(m.spoken)-1], true
}

func (m *MockSynthesizer) send(ev SynthesisEvent) {
	m.mu.Lock()
	h := m.handler
	m.mu.Unlock()
	if h != nil {
		h(ev)
	}
}

// SimulateStart reports that the last utterance began playing.
func (m *MockSynthesizer) SimulateStart() {
	if u, ok := m.Last(); ok {
		m.send(SynthesisEvent{Type: SynthesisStart, UtteranceID: u.ID})
	}
}

// SimulateEnd reports that the last utterance finished.
func (m *MockSynthesizer) SimulateEnd() {
	if u, ok := m.Last(); ok {
		m.send(SynthesisEvent{Type: SynthesisEnd, UtteranceID: u.ID})
	}
}

// SimulateError reports a playback error for the last utterance.
func (m *MockSynthesizer) SimulateError(kind string) {
	if u, ok := m.Last(); ok {
		m.send(SynthesisEvent{Type: SynthesisError, UtteranceID: u.ID, Error: kind})
	}
}

// Ensure mocks implement the capability interfaces.
var (
	_ Recognizer  = (*MockRecognizer)(nil)
	_ Synthesizer = (*MockSynthesizer)(nil)
)
