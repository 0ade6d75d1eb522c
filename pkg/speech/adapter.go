package speech

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Adapter wraps a platform recognizer and synthesizer behind a single event
// stream. It is safe for concurrent use: commands typically come from the
// conversation loop while platform events arrive on a transport goroutine.
//
// Sink callbacks are always invoked without the adapter lock held, so a sink
// may call back into the adapter.
type Adapter struct {
	cfg    *Config
	logger *slog.Logger

	mu   sync.Mutex
	rec  Recognizer
	syn  Synthesizer
	sink func(Event)

	listening  bool
	starting   bool
	speaking   bool
	transcript string
	lastFinal  int
	errMsg     string

	voices []Voice
	voice  *Voice

	nextID  uint64
	current uint64 // utterance pending or playing, 0 if none
	pending *time.Timer

	closed bool
}

// NewAdapter creates an adapter for the given capabilities. Either may be
// nil; a missing recognizer is recorded once as a capability error.
func NewAdapter(rec Recognizer, syn Synthesizer, opts ...Option) *Adapter {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	a := &Adapter{
		cfg:       cfg,
		logger:    cfg.Logger.With("component", "speech.adapter"),
		rec:       rec,
		syn:       syn,
		lastFinal: -1,
	}

	if rec == nil {
		a.errMsg = MsgRecognitionUnsupported
		a.logger.Info("speech recognition unavailable, text-only mode")
	}
	if syn != nil {
		a.voices = syn.Voices()
		a.voice = DefaultVoice(a.voices)
	}

	return a
}

// OnEvent sets the event sink. Passing nil detaches it.
func (a *Adapter) OnEvent(fn func(Event)) {
	a.mu.Lock()
	a.sink = fn
	a.mu.Unlock()
}

func (a *Adapter) emit(events ...Event) {
	if len(events) == 0 {
		return
	}
	a.mu.Lock()
	sink := a.sink
	a.mu.Unlock()
	if sink == nil {
		return
	}
	for _, ev := range events {
		sink(ev)
	}
}

// State returns a snapshot of the capability state.
func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()

	st := State{
		Listening:            a.listening,
		Speaking:             a.speaking,
		Transcript:           a.transcript,
		Err:                  a.errMsg,
		RecognitionSupported: a.rec != nil,
		SynthesisSupported:   a.syn != nil,
		Voices:               append([]Voice(nil), a.voices...),
	}
	if a.voice != nil {
		v := *a.voice
		st.Voice = &v
	}
	return st
}

// Listening reports whether recognition is active.
func (a *Adapter) Listening() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.listening || a.starting
}

// Speaking reports whether an utterance is pending or playing.
func (a *Adapter) Speaking() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current != 0
}

// ClearError resets the last error message.
func (a *Adapter) ClearError() {
	a.mu.Lock()
	a.errMsg = ""
	a.mu.Unlock()
}

// StartListening begins recognition. The transcript buffer is cleared.
func (a *Adapter) StartListening() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	if a.rec == nil {
		a.errMsg = MsgRecognitionUnsupported
		a.mu.Unlock()
		return ErrRecognitionUnsupported
	}
	if a.listening || a.starting {
		a.mu.Unlock()
		return ErrAlreadyListening
	}
	rec := a.rec
	a.starting = true
	a.transcript = ""
	a.lastFinal = -1
	a.mu.Unlock()

	if err := rec.Start(); err != nil {
		a.mu.Lock()
		a.starting = false
		a.errMsg = MsgStartFailed
		a.mu.Unlock()

		a.logger.Warn("failed to start recognition", "error", err)
		a.emit(Event{Kind: EventError, Err: MsgStartFailed})
		return fmt.Errorf("speech: start listening: %w", err)
	}

	a.mu.Lock()
	a.starting = false
	started := !a.listening
	a.listening = true
	a.errMsg = ""
	a.mu.Unlock()

	if started {
		a.logger.Debug("listening started")
		a.emit(Event{Kind: EventListeningStarted})
	}
	return nil
}

// StopListening ends recognition. Safe to call when not listening.
func (a *Adapter) StopListening() {
	a.mu.Lock()
	was := a.listening || a.starting
	a.listening = false
	a.starting = false
	rec := a.rec
	a.mu.Unlock()

	if !was {
		return
	}
	if rec != nil {
		if err := rec.Stop(); err != nil {
			a.logger.Debug("error stopping recognition", "error", err)
		}
	}
	a.emit(Event{Kind: EventListeningEnded})
}

// HandleRecognition applies a platform recognizer event.
func (a *Adapter) HandleRecognition(ev RecognitionEvent) {
	var events []Event

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}

	switch ev.Type {
	case RecognitionStart:
		if !a.listening {
			a.listening = true
			a.errMsg = ""
			events = append(events, Event{Kind: EventListeningStarted})
		}

	case RecognitionResultEvent:
		// Results that trail a stop would be heard as a new question.
		if !a.listening && !a.starting {
			a.logger.Debug("ignoring recognition result while not listening")
			break
		}
		var final, interim strings.Builder
		for i := max(ev.ResultIndex, 0); i < len(ev.Results); i++ {
			r := ev.Results[i]
			if !r.IsFinal {
				interim.WriteString(r.Transcript)
				continue
			}
			// A final result is reported again in later events; only fire it once.
			if i > a.lastFinal {
				final.WriteString(r.Transcript)
				a.lastFinal = i
			}
		}
		if final.Len() > 0 {
			a.transcript = final.String()
			events = append(events, Event{Kind: EventTranscriptFinal, Text: a.transcript})
		} else if interim.Len() > 0 {
			a.transcript = interim.String()
			events = append(events, Event{Kind: EventTranscriptInterim, Text: a.transcript})
		}

	case RecognitionError:
		was := a.listening
		a.listening = false
		if IsBenignRecognitionError(ev.Error) {
			a.logger.Debug("recognition ended", "reason", ev.Error)
		} else {
			a.errMsg = recognitionErrorMessage(ev.Error)
			a.logger.Warn("recognition error", "error", &PlatformError{Source: "recognition", Kind: ev.Error})
			events = append(events, Event{Kind: EventError, Err: a.errMsg})
		}
		if was {
			events = append(events, Event{Kind: EventListeningEnded})
		}

	case RecognitionEnd:
		if a.listening {
			a.listening = false
			events = append(events, Event{Kind: EventListeningEnded})
		}

	default:
		a.logger.Debug("unknown recognition event", "type", ev.Type)
	}
	a.mu.Unlock()

	a.emit(events...)
}

// Speak cancels any current playback and schedules text to be spoken after
// the configured delay. It returns the new utterance ID.
//
// Without a synthesizer the call is a no-op that still reports the
// utterance as ended, so callers waiting on playback make progress.
func (a *Adapter) Speak(text string) (uint64, error) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return 0, ErrClosed
	}

	a.nextID++
	id := a.nextID

	syn := a.syn
	if syn == nil {
		a.mu.Unlock()
		a.logger.Debug("speech synthesis not supported, skipping playback", "utterance", id)
		a.emit(Event{Kind: EventSpeakEnded, UtteranceID: id})
		return id, nil
	}

	cancelled := a.cancelLocked()
	a.current = id
	a.mu.Unlock()

	// The platform queue is flushed before the new utterance is scheduled.
	if err := syn.Cancel(); err != nil {
		a.logger.Debug("error cancelling playback", "error", err)
	}

	a.mu.Lock()
	if a.closed || a.current != id {
		a.mu.Unlock()
		a.emit(cancelled...)
		return id, nil
	}
	u := Utterance{
		ID:     id,
		Text:   text,
		Rate:   a.cfg.Rate,
		Pitch:  a.cfg.Pitch,
		Volume: a.cfg.Volume,
	}
	if a.voice != nil {
		v := *a.voice
		u.Voice = &v
	}
	a.pending = time.AfterFunc(a.cfg.SpeakDelay, func() { a.dispatch(u) })
	a.mu.Unlock()

	a.emit(cancelled...)
	return id, nil
}

func (a *Adapter) dispatch(u Utterance) {
	a.mu.Lock()
	if a.closed || a.current != u.ID {
		a.mu.Unlock()
		return
	}
	a.pending = nil
	syn := a.syn
	a.mu.Unlock()

	if syn == nil {
		a.finish(u.ID, false)
		return
	}

	a.logger.Debug("speaking", "utterance", u.ID, "chars", len(u.Text))
	if err := syn.Speak(u); err != nil {
		a.logger.Warn("speech synthesis failed", "utterance", u.ID, "error", err)
		a.finish(u.ID, false)
	}
}

// finish ends utterance id if it is still current.
func (a *Adapter) finish(id uint64, canceled bool) {
	a.mu.Lock()
	if a.current != id {
		a.mu.Unlock()
		return
	}
	a.current = 0
	a.speaking = false
	a.mu.Unlock()

	a.emit(Event{Kind: EventSpeakEnded, UtteranceID: id, Canceled: canceled})
}

// cancelLocked drops the pending or playing utterance. Caller holds a.mu.
func (a *Adapter) cancelLocked() []Event {
	if a.pending != nil {
		a.pending.Stop()
		a.pending = nil
	}
	if a.current == 0 {
		return nil
	}
	id := a.current
	a.current = 0
	a.speaking = false
	return []Event{{Kind: EventSpeakEnded, UtteranceID: id, Canceled: true}}
}

// StopSpeaking cancels playback immediately.
func (a *Adapter) StopSpeaking() {
	a.mu.Lock()
	events := a.cancelLocked()
	syn := a.syn
	a.mu.Unlock()

	if syn != nil && len(events) > 0 {
		if err := syn.Cancel(); err != nil {
			a.logger.Debug("error cancelling playback", "error", err)
		}
	}
	a.emit(events...)
}

// HandleSynthesis applies a platform synthesizer event. Events for
// utterances that have been replaced or cancelled are ignored.
func (a *Adapter) HandleSynthesis(ev SynthesisEvent) {
	a.mu.Lock()
	if a.closed || ev.UtteranceID == 0 || ev.UtteranceID != a.current {
		a.mu.Unlock()
		a.logger.Debug("ignoring stale synthesis event", "type", ev.Type, "utterance", ev.UtteranceID)
		return
	}

	switch ev.Type {
	case SynthesisStart:
		started := !a.speaking
		a.speaking = true
		a.mu.Unlock()
		if started {
			a.emit(Event{Kind: EventSpeakStarted, UtteranceID: ev.UtteranceID})
		}

	case SynthesisEnd:
		a.mu.Unlock()
		a.finish(ev.UtteranceID, false)

	case SynthesisError:
		a.mu.Unlock()
		benign := IsBenignSynthesisError(ev.Error)
		if !benign {
			a.logger.Warn("speech synthesis error", "error", &PlatformError{Source: "synthesis", Kind: ev.Error})
		}
		a.finish(ev.UtteranceID, benign)

	default:
		a.mu.Unlock()
		a.logger.Debug("unknown synthesis event", "type", ev.Type)
	}
}

// Voices returns the known voices.
func (a *Adapter) Voices() []Voice {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Voice(nil), a.voices...)
}

// SetVoice selects the voice for subsequent utterances.
func (a *Adapter) SetVoice(v Voice) {
	a.mu.Lock()
	a.voice = &v
	a.mu.Unlock()
	a.logger.Debug("voice selected", "voice", v.Name, "lang", v.Lang)
}

// SetVoiceByName selects a known voice by name or URI.
func (a *Adapter) SetVoiceByName(name string) error {
	a.mu.Lock()
	v, ok := FindVoice(a.voices, name)
	a.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownVoice, name)
	}
	a.SetVoice(v)
	return nil
}

// UpdateVoices replaces the voice set. The selection is kept when still
// available, otherwise the default voice is picked.
func (a *Adapter) UpdateVoices(voices []Voice) {
	a.mu.Lock()
	a.voices = append([]Voice(nil), voices...)
	keep := false
	if a.voice != nil {
		_, keep = FindVoice(a.voices, a.voice.Name)
	}
	if !keep {
		a.voice = DefaultVoice(a.voices)
	}
	a.mu.Unlock()

	a.emit(Event{Kind: EventVoicesChanged})
}

// RefreshVoices reloads the voice set from the synthesizer.
func (a *Adapter) RefreshVoices() {
	a.mu.Lock()
	syn := a.syn
	a.mu.Unlock()
	if syn == nil {
		return
	}
	a.UpdateVoices(syn.Voices())
}

// Attach binds platform capabilities to an adapter created without them.
// At most one recognizer and one synthesizer can be attached at a time.
func (a *Adapter) Attach(rec Recognizer, syn Synthesizer) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	if (rec != nil && a.rec != nil) || (syn != nil && a.syn != nil) {
		a.mu.Unlock()
		return ErrAlreadyAttached
	}
	if rec != nil {
		a.rec = rec
		if a.errMsg == MsgRecognitionUnsupported {
			a.errMsg = ""
		}
	}
	if syn != nil {
		a.syn = syn
	}
	a.mu.Unlock()

	a.logger.Info("speech capabilities attached", "recognition", rec != nil, "synthesis", syn != nil)
	if syn != nil {
		a.RefreshVoices()
	}
	return nil
}

// Detach stops any activity and releases the platform capabilities.
func (a *Adapter) Detach() {
	a.StopListening()
	a.StopSpeaking()

	a.mu.Lock()
	a.rec = nil
	a.syn = nil
	a.errMsg = MsgRecognitionUnsupported
	a.mu.Unlock()

	a.logger.Info("speech capabilities detached")
}

// Close stops recognition and playback and releases the sink.
func (a *Adapter) Close() error {
	a.StopListening()
	a.StopSpeaking()

	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	a.sink = nil
	return nil
}
