package conversation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-folio/pkg/assistant"
	"github.com/teslashibe/go-folio/pkg/speech"
)

// Controller runs one conversation session.
type Controller struct {
	cfg     *Config
	logger  *slog.Logger
	gateway assistant.Client
	speech  Speech

	ctx    context.Context
	cancel context.CancelFunc
	cmds   chan func()
	wake   chan struct{}
	done   chan struct{}
	once   sync.Once

	qmu   sync.Mutex
	queue []Event

	// Owned by the loop goroutine.
	messages      []Message
	nextMsgID     int64
	turn          uint64 // turn awaiting a reply, 0 if none
	turnSeq       uint64
	playback      uint64 // utterance reading the last reply, 0 if none
	pendingResume bool
	settle        *time.Timer
	settleGen     uint64
	audio         bool
	chat          bool

	smu     sync.RWMutex
	snap    Snapshot
	subs    map[int]func(Snapshot)
	nextSub int
}

// New creates a controller and starts its loop. The controller installs
// itself as sp's event sink.
func New(gateway assistant.Client, sp Speech, opts ...Option) (*Controller, error) {
	if gateway == nil {
		return nil, ErrMissingGateway
	}
	if sp == nil {
		sp = speech.NewAdapter(nil, nil)
	}

	cfg := DefaultConfig()
	cfg.Apply(opts...)
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.SessionID == "" {
		cfg.SessionID = uuid.NewString()
	}
	if cfg.FallbackReply == "" {
		cfg.FallbackReply = FallbackError
	}
	if cfg.EmptyReply == "" {
		cfg.EmptyReply = FallbackEmpty
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		cfg:     cfg,
		logger:  cfg.Logger.With("component", "conversation", "session", cfg.SessionID),
		gateway: gateway,
		speech:  sp,
		ctx:     ctx,
		cancel:  cancel,
		cmds:    make(chan func()),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		audio:   cfg.AudioEnabled,
		chat:    cfg.ChatVisible,
		subs:    make(map[int]func(Snapshot)),
	}

	sp.OnEvent(func(ev speech.Event) { c.post(fromSpeech(ev)) })
	c.publish()
	go c.run()

	return c, nil
}

// SessionID returns the identifier sent with every request.
func (c *Controller) SessionID() string {
	return c.cfg.SessionID
}

// Snapshot returns the most recently published state.
func (c *Controller) Snapshot() Snapshot {
	c.smu.RLock()
	defer c.smu.RUnlock()
	return c.snap
}

// Messages returns a copy of the conversation log.
func (c *Controller) Messages() []Message {
	s := c.Snapshot()
	return append([]Message(nil), s.Messages...)
}

// Subscribe registers fn to receive every published snapshot. fn runs on
// the controller goroutine and must not call controller commands. The
// returned function removes the subscription.
func (c *Controller) Subscribe(fn func(Snapshot)) func() {
	c.smu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.smu.Unlock()

	return func() {
		c.smu.Lock()
		delete(c.subs, id)
		c.smu.Unlock()
	}
}

// Submit starts a turn with typed text.
func (c *Controller) Submit(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}
	return c.do(func() error {
		return c.beginTurn(text, false)
	})
}

// SetAudio enables or disables voice I/O. Disabling cancels recognition and
// playback before returning. Enabling starts listening when idle.
func (c *Controller) SetAudio(on bool) error {
	return c.do(func() error {
		if !on {
			c.audio = false
			c.pendingResume = false
			c.cancelSettle()
			c.speech.StopListening()
			c.speech.StopSpeaking()
			c.playback = 0
			c.logger.Info("audio disabled")
			return nil
		}

		c.audio = true
		c.logger.Info("audio enabled")
		if c.turn != 0 || c.playback != 0 {
			return nil
		}
		return c.listen()
	})
}

// SetChatVisible shows or hides the chat panel.
func (c *Controller) SetChatVisible(on bool) error {
	return c.do(func() error {
		c.chat = on
		return nil
	})
}

// SetVoice selects the voice used for subsequent replies.
func (c *Controller) SetVoice(name string) error {
	return c.do(func() error {
		return c.speech.SetVoiceByName(name)
	})
}

// StartListening opens the microphone.
func (c *Controller) StartListening() error {
	return c.do(func() error {
		switch {
		case !c.audio:
			return ErrAudioDisabled
		case c.turn != 0:
			return ErrTurnInFlight
		case c.playback != 0:
			return ErrSpeaking
		}
		c.cancelSettle()
		err := c.speech.StartListening()
		if errors.Is(err, speech.ErrAlreadyListening) {
			return nil
		}
		return err
	})
}

// DismissError clears the speech error shown to the user.
func (c *Controller) DismissError() error {
	return c.do(func() error {
		c.speech.ClearError()
		return nil
	})
}

// StopListening closes the microphone. Continuous mode does not reopen it
// until the next voice turn.
func (c *Controller) StopListening() error {
	return c.do(func() error {
		c.cancelSettle()
		c.speech.StopListening()
		return nil
	})
}

// Close stops the loop and releases the speech capabilities. Pending
// replies are discarded.
func (c *Controller) Close() error {
	c.once.Do(func() {
		c.speech.OnEvent(nil)
		c.cancel()
		<-c.done
		c.cancelSettle()
		c.speech.StopListening()
		c.speech.StopSpeaking()
		c.logger.Debug("conversation closed", "messages", len(c.messages))
	})
	return nil
}

// do runs fn on the loop and waits for it.
func (c *Controller) do(fn func() error) error {
	errc := make(chan error, 1)
	select {
	case c.cmds <- func() { errc <- fn() }:
	case <-c.ctx.Done():
		return ErrClosed
	}
	select {
	case err := <-errc:
		return err
	case <-c.ctx.Done():
		return ErrClosed
	}
}

// post queues an event for the loop. It never blocks, so speech callbacks
// fired from inside a command are safe.
func (c *Controller) post(ev Event) {
	if ev == nil {
		return
	}
	c.qmu.Lock()
	c.queue = append(c.queue, ev)
	c.qmu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Controller) run() {
	defer close(c.done)
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-c.wake:
			if c.drain() {
				c.publish()
			}
		case cmd := <-c.cmds:
			c.drain()
			cmd()
			c.drain()
			c.publish()
		}
	}
}

// drain applies queued events in arrival order.
func (c *Controller) drain() bool {
	applied := false
	for {
		c.qmu.Lock()
		if len(c.queue) == 0 {
			c.qmu.Unlock()
			return applied
		}
		ev := c.queue[0]
		c.queue[0] = nil
		c.queue = c.queue[1:]
		c.qmu.Unlock()

		c.apply(ev)
		applied = true
	}
}

func (c *Controller) apply(ev Event) {
	switch e := ev.(type) {
	case TranscriptFinal:
		c.onTranscript(e.Text)

	case ReplyReceived:
		c.finishTurn(e.Turn, e.Text)

	case ReplyFailed:
		if e.Turn != c.turn {
			return
		}
		c.logger.Warn("assistant request failed", "turn", e.Turn, "error", e.Err)
		reply := c.cfg.FallbackReply
		if assistant.IsEmptyReply(e.Err) {
			reply = c.cfg.EmptyReply
		}
		c.finishTurn(e.Turn, reply)

	case SpeakEnded:
		if e.UtteranceID != c.playback || c.playback == 0 {
			return
		}
		c.playback = 0
		if c.pendingResume && c.audio && c.cfg.Continuous {
			c.scheduleSettle()
		}
		c.pendingResume = false

	case SettleElapsed:
		if e.Gen != c.settleGen || c.settle == nil {
			return
		}
		c.settle = nil
		if !c.audio || c.turn != 0 || c.playback != 0 {
			return
		}
		if err := c.listen(); err != nil {
			c.logger.Warn("failed to resume listening", "error", err)
		}

	case SpeechFailed:
		c.logger.Debug("speech error", "message", e.Message)

	case ListeningStarted, ListeningEnded, TranscriptInterim, SpeakStarted, VoicesChanged:
		// Reflected in the published speech state.
	}
}

func (c *Controller) onTranscript(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if !c.audio {
		c.logger.Debug("dropping transcript, audio disabled")
		return
	}
	// The microphone is closed during playback; anything heard now is the
	// reply itself.
	if c.playback != 0 {
		c.logger.Debug("dropping transcript during playback", "utterance", c.playback)
		return
	}
	if err := c.beginTurn(text, true); err != nil {
		c.logger.Info("dropping transcript", "error", err, "chars", len(text))
	}
}

// beginTurn appends the user message and sends the request. Listening is
// stopped before the request leaves.
func (c *Controller) beginTurn(text string, voice bool) error {
	if c.turn != 0 {
		return ErrTurnInFlight
	}

	wasListening := c.speech.State().Listening
	c.cancelSettle()
	c.speech.StopListening()
	c.speech.StopSpeaking()
	c.playback = 0
	c.pendingResume = voice || wasListening

	req := assistant.Request{
		Message:   text,
		History:   history(c.messages),
		SessionID: c.cfg.SessionID,
		Timestamp: time.Now(),
	}
	c.appendMessage(RoleUser, text)

	c.turnSeq++
	c.turn = c.turnSeq
	c.logger.Debug("turn started", "turn", c.turn, "voice", voice, "history", len(req.History))

	go c.ask(c.turn, req)
	return nil
}

// ask performs the round trip. It always posts exactly one result.
func (c *Controller) ask(turn uint64, req assistant.Request) {
	ctx, cancel := context.WithTimeout(c.ctx, c.cfg.TurnTimeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		text, err := c.gateway.Reply(ctx, req)
		ch <- result{text, err}
	}()

	select {
	case r := <-ch:
		switch {
		case r.err != nil:
			c.post(ReplyFailed{Turn: turn, Err: r.err})
		case strings.TrimSpace(r.text) == "":
			c.post(ReplyFailed{Turn: turn, Err: assistant.ErrEmptyReply})
		default:
			c.post(ReplyReceived{Turn: turn, Text: r.text})
		}
	case <-ctx.Done():
		c.post(ReplyFailed{Turn: turn, Err: ctx.Err()})
	}
}

// finishTurn appends the reply, publishes it, then speaks it.
func (c *Controller) finishTurn(turn uint64, reply string) {
	if turn != c.turn {
		c.logger.Debug("ignoring stale reply", "turn", turn, "current", c.turn)
		return
	}
	c.turn = 0
	c.appendMessage(RoleAssistant, reply)
	c.publish()

	if !c.audio {
		c.pendingResume = false
		return
	}

	id, err := c.speech.Speak(reply)
	if err != nil {
		c.logger.Warn("failed to speak reply", "error", err)
		c.pendingResume = false
		return
	}
	c.playback = id
}

func (c *Controller) appendMessage(role, content string) {
	c.nextMsgID++
	c.messages = append(c.messages, Message{
		ID:        c.nextMsgID,
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
}

func (c *Controller) listen() error {
	err := c.speech.StartListening()
	switch {
	case err == nil, errors.Is(err, speech.ErrAlreadyListening):
		return nil
	case errors.Is(err, speech.ErrRecognitionUnsupported):
		c.logger.Debug("recognition unsupported, staying in text mode")
		return nil
	}
	return err
}

func (c *Controller) scheduleSettle() {
	c.cancelSettle()
	gen := c.settleGen
	c.settle = time.AfterFunc(c.cfg.SettleDelay, func() {
		c.post(SettleElapsed{Gen: gen})
	})
}

func (c *Controller) cancelSettle() {
	c.settleGen++
	if c.settle != nil {
		c.settle.Stop()
		c.settle = nil
	}
}

func (c *Controller) state(sp speech.State) State {
	switch {
	case c.turn != 0:
		return StateAwaitingReply
	case c.playback != 0 || sp.Speaking:
		return StateSpeaking
	case sp.Listening:
		return StateListening
	}
	return StateIdle
}

// publish stores a fresh snapshot and notifies subscribers.
func (c *Controller) publish() {
	sp := c.speech.State()
	snap := Snapshot{
		SessionID:    c.cfg.SessionID,
		State:        c.state(sp),
		Messages:     append([]Message(nil), c.messages...),
		AudioEnabled: c.audio,
		ChatVisible:  c.chat,
		Continuous:   c.cfg.Continuous,
		Speech:       sp,
	}

	c.smu.Lock()
	c.snap = snap
	subs := make([]func(Snapshot), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.smu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
