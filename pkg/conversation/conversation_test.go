package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/teslashibe/go-folio/pkg/assistant"
	"github.com/teslashibe/go-folio/pkg/speech"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

type harness struct {
	ctrl    *Controller
	adapter *speech.Adapter
	rec     *speech.MockRecognizer
	syn     *speech.MockSynthesizer
}

func newHarness(t *testing.T, gw assistant.Client, opts ...Option) *harness {
	t.Helper()
	rec := speech.NewMockRecognizer()
	syn := speech.NewMockSynthesizer(speech.Voice{Name: "Samantha", Lang: "en-US"}, speech.Voice{Name: "Daniel", Lang: "en-GB"})
	a := speech.NewAdapter(rec, syn, speech.WithSpeakDelay(time.Millisecond))
	rec.Bind(a)
	syn.Bind(a)

	opts = append([]Option{
		WithSettleDelay(10 * time.Millisecond),
		WithTurnTimeout(time.Second),
	}, opts...)
	ctrl, err := New(gw, a, opts...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		ctrl.Close()
		a.Close()
	})
	return &harness{ctrl: ctrl, adapter: a, rec: rec, syn: syn}
}

func (h *harness) messageCount() int {
	return len(h.ctrl.Snapshot().Messages)
}

func TestNewRequiresGateway(t *testing.T) {
	if _, err := New(nil, nil); !errors.Is(err, ErrMissingGateway) {
		t.Errorf("expected ErrMissingGateway, got %v", err)
	}
}

func TestTypedTurnsAlternate(t *testing.T) {
	gw := assistant.NewMock("one", "two", "three", "four")
	h := newHarness(t, gw, WithAudio(false))

	const n = 4
	for i := 0; i < n; i++ {
		if err := h.ctrl.Submit("question"); err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
		want := 2 * (i + 1)
		waitFor(t, func() bool { return h.messageCount() == want && h.ctrl.Snapshot().State == StateIdle })
	}

	msgs := h.ctrl.Messages()
	for i, m := range msgs {
		want := RoleUser
		if i%2 == 1 {
			want = RoleAssistant
		}
		if m.Role != want {
			t.Errorf("message %d role = %q, want %q", i, m.Role, want)
		}
		if i > 0 && m.ID <= msgs[i-1].ID {
			t.Errorf("message IDs not increasing at %d", i)
		}
	}
	if msgs[7].Content != "four" {
		t.Errorf("last reply = %q", msgs[7].Content)
	}

	last, _ := gw.LastRequest()
	if len(last.History) != 6 {
		t.Errorf("history = %d turns, want 6", len(last.History))
	}
	if last.SessionID != h.ctrl.SessionID() || last.SessionID == "" {
		t.Errorf("session id = %q", last.SessionID)
	}
	for _, req := range gw.Requests {
		if req.SessionID != last.SessionID {
			t.Error("session id changed between turns")
		}
	}
}

func TestInputDuringTurnIgnored(t *testing.T) {
	gw := assistant.NewMock("done")
	gw.Gate = make(chan struct{})
	h := newHarness(t, gw, WithAudio(false))

	if err := h.ctrl.Submit("first"); err != nil {
		t.Fatal(err)
	}
	if got := h.ctrl.Snapshot().State; got != StateAwaitingReply {
		t.Errorf("state = %v, want awaiting_reply", got)
	}
	if err := h.ctrl.Submit("second"); !errors.Is(err, ErrTurnInFlight) {
		t.Errorf("expected ErrTurnInFlight, got %v", err)
	}
	if err := h.ctrl.SetAudio(true); err != nil {
		t.Fatal(err)
	}
	if err := h.ctrl.StartListening(); !IsBusy(err) {
		t.Errorf("listening should be refused during a turn, got %v", err)
	}

	gw.Release()
	waitFor(t, func() bool { return h.messageCount() == 2 })

	if gw.Calls() != 1 || gw.MaxConcurrent() != 1 {
		t.Errorf("calls = %d, max concurrent = %d", gw.Calls(), gw.MaxConcurrent())
	}
	if h.ctrl.Messages()[0].Content != "first" {
		t.Error("second input should not be logged")
	}
}

func TestVoiceInputDuringTurnDropped(t *testing.T) {
	gw := assistant.NewMock("ok")
	gw.Gate = make(chan struct{})
	h := newHarness(t, gw)

	if err := h.ctrl.StartListening(); err != nil {
		t.Fatal(err)
	}
	h.rec.SimulateFinal("first question")
	waitFor(t, func() bool { return h.ctrl.Snapshot().State == StateAwaitingReply })

	// A late result from the same recognition session.
	h.rec.SimulateFinal("second question")
	time.Sleep(20 * time.Millisecond)

	gw.Release()
	waitFor(t, func() bool { return h.messageCount() == 2 })
	if gw.Calls() != 1 {
		t.Errorf("calls = %d, want 1", gw.Calls())
	}
}

// orderedSpeech records what the log looked like when Speak was called.
type orderedSpeech struct {
	*speech.Adapter
	mu     sync.Mutex
	ctrl   *Controller
	checks []bool
}

func (o *orderedSpeech) Speak(text string) (uint64, error) {
	o.mu.Lock()
	msgs := o.ctrl.Snapshot().Messages
	ok := len(msgs) > 0 && msgs[len(msgs)-1].Role == RoleAssistant && msgs[len(msgs)-1].Content == text
	o.checks = append(o.checks, ok)
	o.mu.Unlock()
	return o.Adapter.Speak(text)
}

func TestReplyAppendedBeforeSpeak(t *testing.T) {
	syn := speech.NewMockSynthesizer()
	syn.AutoComplete = true
	a := speech.NewAdapter(nil, syn, speech.WithSpeakDelay(time.Millisecond))
	syn.Bind(a)
	defer a.Close()

	sp := &orderedSpeech{Adapter: a}
	ctrl, err := New(assistant.NewMock("first reply", "second reply"), sp)
	if err != nil {
		t.Fatal(err)
	}
	defer ctrl.Close()
	sp.mu.Lock()
	sp.ctrl = ctrl
	sp.mu.Unlock()

	for i, want := range []int{2, 4} {
		if err := ctrl.Submit("hello"); err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
		waitFor(t, func() bool {
			return len(ctrl.Snapshot().Messages) == want && ctrl.Snapshot().State == StateIdle
		})
	}

	sp.mu.Lock()
	defer sp.mu.Unlock()
	if len(sp.checks) != 2 {
		t.Fatalf("speak calls = %d, want one per turn", len(sp.checks))
	}
	for i, ok := range sp.checks {
		if !ok {
			t.Errorf("turn %d: speak called before the reply was appended", i)
		}
	}
	if got := len(syn.Spoken()); got != 2 {
		t.Errorf("synthesizer received %d utterances", got)
	}
}

func TestDisableAudioWhileListening(t *testing.T) {
	h := newHarness(t, assistant.NewMock())

	if err := h.ctrl.StartListening(); err != nil {
		t.Fatal(err)
	}
	if got := h.ctrl.Snapshot().State; got != StateListening {
		t.Fatalf("state = %v, want listening", got)
	}

	if err := h.ctrl.SetAudio(false); err != nil {
		t.Fatal(err)
	}
	snap := h.ctrl.Snapshot()
	if snap.Speech.Listening || snap.Speech.Speaking || h.rec.Active() {
		t.Error("recognition should stop before SetAudio returns")
	}
	if snap.State != StateIdle || snap.AudioEnabled {
		t.Errorf("state = %v audio = %v", snap.State, snap.AudioEnabled)
	}
	if err := h.ctrl.StartListening(); !errors.Is(err, ErrAudioDisabled) {
		t.Errorf("expected ErrAudioDisabled, got %v", err)
	}
}

func TestDisableAudioWhileSpeaking(t *testing.T) {
	h := newHarness(t, assistant.NewMock("a long answer"))

	if err := h.ctrl.Submit("hi"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return len(h.syn.Spoken()) == 1 })
	h.syn.SimulateStart()
	waitFor(t, func() bool { return h.ctrl.Snapshot().State == StateSpeaking })

	if err := h.ctrl.StartListening(); !errors.Is(err, ErrSpeaking) {
		t.Errorf("expected ErrSpeaking, got %v", err)
	}

	if err := h.ctrl.SetAudio(false); err != nil {
		t.Fatal(err)
	}
	snap := h.ctrl.Snapshot()
	if snap.Speech.Speaking || snap.Speech.Listening || h.adapter.Speaking() {
		t.Error("playback should stop before SetAudio returns")
	}
	if snap.State != StateIdle {
		t.Errorf("state = %v, want idle", snap.State)
	}
	if h.syn.Cancels() == 0 {
		t.Error("synthesizer was not cancelled")
	}
}

func TestSkillsScenario(t *testing.T) {
	var stoppedFirst bool
	var rec *speech.MockRecognizer
	gw := assistant.NewMock()
	gw.ReplyFunc = func(ctx context.Context, req assistant.Request) (string, error) {
		stoppedFirst = !rec.Active()
		if req.Message != "What are your skills?" {
			return "", errors.New("unexpected message")
		}
		return "I specialize in X", nil
	}

	h := newHarness(t, gw)
	rec = h.rec
	h.syn.AutoComplete = true

	if err := h.ctrl.StartListening(); err != nil {
		t.Fatal(err)
	}
	h.rec.SimulateInterim("What are")
	h.rec.SimulateFinal("What are your skills?")

	waitFor(t, func() bool { return h.messageCount() == 2 })
	msgs := h.ctrl.Messages()
	if msgs[0].Role != RoleUser || msgs[0].Content != "What are your skills?" {
		t.Errorf("user message = %+v", msgs[0])
	}
	if msgs[1].Role != RoleAssistant || msgs[1].Content != "I specialize in X" {
		t.Errorf("assistant message = %+v", msgs[1])
	}
	if !stoppedFirst {
		t.Error("listening should stop before the request is sent")
	}

	waitFor(t, func() bool { return len(h.syn.Spoken()) == 1 })
	if u, _ := h.syn.Last(); u.Text != "I specialize in X" {
		t.Errorf("spoken = %q", u.Text)
	}
}

func TestTranscriptDuringPlaybackIgnored(t *testing.T) {
	gw := assistant.NewMock("I specialize in X", "unexpected")
	h := newHarness(t, gw)

	if err := h.ctrl.StartListening(); err != nil {
		t.Fatal(err)
	}
	h.rec.SimulateFinal("What are your skills?")
	waitFor(t, func() bool { return len(h.syn.Spoken()) == 1 })

	// The speaker is picked up by a recognizer that was already stopped.
	h.rec.SimulateFinal("I specialize in X")

	// Or by one the page restarted on its own.
	if err := h.adapter.StartListening(); err != nil {
		t.Fatal(err)
	}
	h.rec.SimulateFinal("I specialize in X")
	time.Sleep(30 * time.Millisecond)

	if gw.Calls() != 1 {
		t.Errorf("calls = %d, want 1", gw.Calls())
	}
	if n := h.messageCount(); n != 2 {
		t.Errorf("messages = %d, want 2", n)
	}
	if !h.adapter.Speaking() {
		t.Error("playback was interrupted")
	}
}

func TestGatewayFailureFallback(t *testing.T) {
	tests := []struct {
		name  string
		setup func(m *assistant.Mock)
		want  string
	}{
		{"error", func(m *assistant.Mock) { m.Err = errors.New("connection refused") }, FallbackError},
		{"api error", func(m *assistant.Mock) { m.Err = assistant.NewAPIError(502, "bad gateway") }, FallbackError},
		{"empty reply error", func(m *assistant.Mock) { m.Err = assistant.ErrEmptyReply }, FallbackEmpty},
		{"blank reply", func(m *assistant.Mock) { m.Replies = []string{"   "} }, FallbackEmpty},
		{"timeout", func(m *assistant.Mock) { m.Gate = make(chan struct{}) }, FallbackError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := assistant.NewMock()
			tt.setup(gw)
			h := newHarness(t, gw, WithAudio(false), WithTurnTimeout(30*time.Millisecond))

			if err := h.ctrl.Submit("hello"); err != nil {
				t.Fatal(err)
			}
			waitFor(t, func() bool { return h.messageCount() == 2 })

			snap := h.ctrl.Snapshot()
			if got := snap.Messages[1]; got.Role != RoleAssistant || got.Content != tt.want {
				t.Errorf("second entry = %+v, want %q", got, tt.want)
			}
			if snap.State != StateIdle {
				t.Errorf("state = %v, want idle", snap.State)
			}
		})
	}
}

func TestAudioToggleCycle(t *testing.T) {
	h := newHarness(t, assistant.NewMock())

	for _, on := range []bool{true, false, true} {
		if err := h.ctrl.SetAudio(on); err != nil {
			t.Fatalf("SetAudio(%v): %v", on, err)
		}
	}

	if got := h.ctrl.Snapshot().State; got != StateListening {
		t.Errorf("state = %v, want listening", got)
	}
	starts, stops := h.rec.Calls()
	if starts-stops != 1 || !h.rec.Active() {
		t.Errorf("starts = %d stops = %d, want exactly one active recognizer", starts, stops)
	}
	if h.adapter.Speaking() {
		t.Error("nothing should be speaking")
	}
}

func TestContinuousResumeAfterSettle(t *testing.T) {
	h := newHarness(t, assistant.NewMock("answer"), WithSettleDelay(40*time.Millisecond))
	h.syn.AutoComplete = true

	if err := h.ctrl.StartListening(); err != nil {
		t.Fatal(err)
	}
	h.rec.SimulateFinal("tell me more")

	waitFor(t, func() bool { return len(h.syn.Spoken()) == 1 && !h.adapter.Speaking() })
	if h.rec.Active() {
		t.Error("listening resumed before the settle delay")
	}

	waitFor(t, func() bool { return h.rec.Active() })
	if got := h.ctrl.Snapshot().State; got != StateListening {
		t.Errorf("state = %v, want listening", got)
	}
}

func TestTypedTurnDoesNotReopenMicrophone(t *testing.T) {
	h := newHarness(t, assistant.NewMock("answer"))
	h.syn.AutoComplete = true

	if err := h.ctrl.Submit("hi"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return len(h.syn.Spoken()) == 1 && !h.adapter.Speaking() })
	time.Sleep(50 * time.Millisecond)

	if h.rec.Active() {
		t.Error("microphone reopened after a typed turn")
	}
}

func TestContinuousDisabled(t *testing.T) {
	h := newHarness(t, assistant.NewMock("answer"), WithContinuous(false))
	h.syn.AutoComplete = true

	if err := h.ctrl.StartListening(); err != nil {
		t.Fatal(err)
	}
	h.rec.SimulateFinal("question")
	waitFor(t, func() bool { return len(h.syn.Spoken()) == 1 && !h.adapter.Speaking() })
	time.Sleep(50 * time.Millisecond)

	if h.rec.Active() {
		t.Error("listening resumed with continuous mode off")
	}
}

func TestSetVoice(t *testing.T) {
	h := newHarness(t, assistant.NewMock())

	if err := h.ctrl.SetVoice("Daniel"); err != nil {
		t.Fatal(err)
	}
	if v := h.ctrl.Snapshot().Speech.Voice; v == nil || v.Name != "Daniel" {
		t.Errorf("voice = %+v", v)
	}
	if err := h.ctrl.SetVoice("Nobody"); !errors.Is(err, speech.ErrUnknownVoice) {
		t.Errorf("expected ErrUnknownVoice, got %v", err)
	}
}

func TestSubscribe(t *testing.T) {
	h := newHarness(t, assistant.NewMock(), WithAudio(false))

	var mu sync.Mutex
	var states []State
	unsubscribe := h.ctrl.Subscribe(func(s Snapshot) {
		mu.Lock()
		states = append(states, s.State)
		mu.Unlock()
	})

	h.ctrl.Submit("hi")
	waitFor(t, func() bool { return h.messageCount() == 2 })
	unsubscribe()

	mu.Lock()
	defer mu.Unlock()
	var sawAwaiting bool
	for _, s := range states {
		if s == StateAwaitingReply {
			sawAwaiting = true
		}
	}
	if !sawAwaiting {
		t.Errorf("states = %v, expected awaiting_reply", states)
	}
	if err := h.ctrl.SetChatVisible(false); err != nil {
		t.Fatal(err)
	}
	if h.ctrl.Snapshot().ChatVisible {
		t.Error("chat should be hidden")
	}
}

func TestTextOnlyMode(t *testing.T) {
	a := speech.NewAdapter(nil, nil)
	ctrl, err := New(assistant.NewMock("hello there"), a)
	if err != nil {
		t.Fatal(err)
	}
	defer ctrl.Close()

	if err := ctrl.SetAudio(true); err != nil {
		t.Errorf("SetAudio without recognizer: %v", err)
	}
	if err := ctrl.Submit("hi"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool {
		s := ctrl.Snapshot()
		return len(s.Messages) == 2 && s.State == StateIdle
	})
	if ctrl.Snapshot().Speech.Err != speech.MsgRecognitionUnsupported {
		t.Errorf("speech error = %q", ctrl.Snapshot().Speech.Err)
	}
}

func TestClose(t *testing.T) {
	h := newHarness(t, assistant.NewMock())
	h.ctrl.StartListening()

	if err := h.ctrl.Close(); err != nil {
		t.Fatal(err)
	}
	if h.rec.Active() {
		t.Error("recognizer still active after Close")
	}
	if err := h.ctrl.Submit("hi"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	h.ctrl.Close()
}
