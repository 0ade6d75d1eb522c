package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-folio/internal/config"
	"github.com/teslashibe/go-folio/pkg/assistant"
	"github.com/teslashibe/go-folio/pkg/contact"
	"github.com/teslashibe/go-folio/pkg/conversation"
	"github.com/teslashibe/go-folio/pkg/knowledge"
	"github.com/teslashibe/go-folio/pkg/protocol"
	"github.com/teslashibe/go-folio/pkg/speech"
	"github.com/teslashibe/go-folio/pkg/widget"
)

func newTestServer(t *testing.T, gateway assistant.Client) (*Server, *contact.MockMailer) {
	t.Helper()
	cfg := config.Default()
	cfg.Chat.SettleDelay = 10 * time.Millisecond
	cfg.Chat.TurnTimeout = time.Second

	mailer := contact.NewMockMailer()
	relay, err := contact.NewRelay(mailer, cfg.Contact, nil)
	if err != nil {
		t.Fatal(err)
	}

	srv := NewServer(cfg, Deps{
		Gateway:   gateway,
		Assistant: assistant.NewService(assistant.NewRuleBased(knowledge.Default()), nil),
		Relay:     relay,
	})
	t.Cleanup(srv.sessions.CloseAll)
	return srv, mailer
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = strings.NewReader(string(data))
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	out := map[string]interface{}{}
	data, _ := io.ReadAll(resp.Body)
	if len(data) > 0 {
		json.Unmarshal(data, &out)
	}
	return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, assistant.NewMock())

	status, body := doJSON(t, srv.App(), http.MethodGet, "/api/health", nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if body["status"] != "ok" || body["connected"] != float64(0) {
		t.Errorf("body = %v", body)
	}
}

func TestSite(t *testing.T) {
	srv, _ := newTestServer(t, assistant.NewMock())

	status, body := doJSON(t, srv.App(), http.MethodGet, "/api/site", nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if body["name"] != config.Default().Site.Name {
		t.Errorf("name = %v", body["name"])
	}
}

func TestAssistantEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, assistant.NewMock())

	tests := []struct {
		name   string
		body   interface{}
		status int
	}{
		{"skills", map[string]string{"message": "What are your skills?"}, http.StatusOK},
		{"empty", map[string]string{"message": "  "}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doJSON(t, srv.App(), http.MethodPost, "/api/assistant", tt.body)
			if status != tt.status {
				t.Fatalf("status = %d, want %d (%v)", status, tt.status, body)
			}
			if status == http.StatusOK {
				if body["response"] == "" || body["model"] == "" {
					t.Errorf("body = %v", body)
				}
			} else if body["error"] != "Message is required" {
				t.Errorf("error = %v", body["error"])
			}
		})
	}
}

func TestContactEndpoint(t *testing.T) {
	valid := map[string]interface{}{
		"name":    "Ada",
		"email":   "ada@example.com",
		"message": "Hello there",
	}
	with := func(k string, v interface{}) map[string]interface{} {
		m := map[string]interface{}{}
		for key, val := range valid {
			m[key] = val
		}
		m[k] = v
		return m
	}

	tests := []struct {
		name   string
		body   map[string]interface{}
		status int
		errMsg string
		sent   int
	}{
		{"valid", valid, http.StatusOK, "", 1},
		{"bad email", with("email", "nope"), http.StatusBadRequest, "Invalid form data", 0},
		{"honeypot", with("hp", "http://spam"), http.StatusBadRequest, "Invalid request", 0},
		{"expired", with("ts", time.Now().Add(-2*time.Hour).UnixMilli()), http.StatusBadRequest, "Request expired", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, mailer := newTestServer(t, assistant.NewMock())

			status, body := doJSON(t, srv.App(), http.MethodPost, "/api/contact", tt.body)
			if status != tt.status {
				t.Fatalf("status = %d, want %d (%v)", status, tt.status, body)
			}
			if tt.errMsg != "" && body["error"] != tt.errMsg {
				t.Errorf("error = %v, want %q", body["error"], tt.errMsg)
			}
			if len(mailer.Sent()) != tt.sent {
				t.Errorf("sent = %d, want %d", len(mailer.Sent()), tt.sent)
			}
		})
	}
}

func TestContactProviderFailure(t *testing.T) {
	srv, mailer := newTestServer(t, assistant.NewMock())
	mailer.Err = errors.New("provider down")

	status, body := doJSON(t, srv.App(), http.MethodPost, "/api/contact", map[string]string{
		"name": "Ada", "email": "ada@example.com", "message": "Hi",
	})
	if status != http.StatusInternalServerError || body["error"] != "Failed to send email" {
		t.Errorf("status = %d, body = %v", status, body)
	}
}

func TestContactDisabled(t *testing.T) {
	srv := NewServer(config.Default(), Deps{Gateway: assistant.NewMock()})

	status, _ := doJSON(t, srv.App(), http.MethodPost, "/api/contact", map[string]string{"name": "Ada"})
	if status != http.StatusServiceUnavailable {
		t.Errorf("status = %d", status)
	}
}

func TestSessionLifecycle(t *testing.T) {
	srv, _ := newTestServer(t, assistant.NewMock("I specialize in X"))
	app := srv.App()

	status, body := doJSON(t, app, http.MethodPost, "/api/chat/sessions", nil)
	if status != http.StatusCreated {
		t.Fatalf("create status = %d", status)
	}
	id, _ := body["id"].(string)
	if id == "" {
		t.Fatal("missing session id")
	}
	base := "/api/chat/sessions/" + id

	status, _ = doJSON(t, app, http.MethodPost, base+"/messages", map[string]string{"text": "What are your skills?"})
	if status != http.StatusAccepted {
		t.Fatalf("send status = %d", status)
	}

	sess, _ := srv.sessions.Get(id)
	deadline := time.Now().Add(2 * time.Second)
	for len(sess.Controller.Messages()) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	status, body = doJSON(t, app, http.MethodGet, base, nil)
	if status != http.StatusOK {
		t.Fatalf("get status = %d", status)
	}
	msgs, _ := body["messages"].([]interface{})
	if len(msgs) != 2 {
		t.Fatalf("messages = %v", body["messages"])
	}
	reply, _ := msgs[1].(map[string]interface{})
	if reply["content"] != "I specialize in X" {
		t.Errorf("reply = %v", reply)
	}

	status, body = doJSON(t, app, http.MethodPost, base+"/messages", map[string]string{"text": "  "})
	if status != http.StatusBadRequest || body["code"] != CodeEmptyMessage {
		t.Errorf("empty message: status = %d, body = %v", status, body)
	}

	status, _ = doJSON(t, app, http.MethodPost, base+"/audio", map[string]interface{}{})
	if status != http.StatusBadRequest {
		t.Errorf("audio without enabled: status = %d", status)
	}
	status, _ = doJSON(t, app, http.MethodPost, base+"/audio", map[string]bool{"enabled": false})
	if status != http.StatusOK || sess.Controller.Snapshot().AudioEnabled {
		t.Errorf("audio off: status = %d", status)
	}
	status, _ = doJSON(t, app, http.MethodPost, base+"/chat", map[string]bool{"visible": false})
	if status != http.StatusOK || sess.Controller.Snapshot().ChatVisible {
		t.Errorf("chat hidden: status = %d", status)
	}
	status, body = doJSON(t, app, http.MethodPost, base+"/voice", map[string]string{"name": "Nobody"})
	if status != http.StatusBadRequest || body["code"] != CodeUnknownVoice {
		t.Errorf("unknown voice: status = %d, body = %v", status, body)
	}

	status, _ = doJSON(t, app, http.MethodDelete, base, nil)
	if status != http.StatusNoContent {
		t.Errorf("delete status = %d", status)
	}
	status, body = doJSON(t, app, http.MethodGet, base, nil)
	if status != http.StatusNotFound || body["code"] != CodeSessionNotFound {
		t.Errorf("after delete: status = %d, body = %v", status, body)
	}
}

func TestSessionsReap(t *testing.T) {
	srv, _ := newTestServer(t, assistant.NewMock())
	sessions := NewSessions(time.Minute, srv.sessionFactory(assistant.NewMock()), nil)
	defer sessions.CloseAll()

	idle, err := sessions.Create()
	if err != nil {
		t.Fatal(err)
	}
	attached, err := sessions.Create()
	if err != nil {
		t.Fatal(err)
	}
	if err := attached.attach(NewBridge(func([]byte) error { return nil }), nil, nil); err != nil {
		t.Fatal(err)
	}

	if n := sessions.Reap(time.Now()); n != 0 {
		t.Errorf("reaped %d fresh sessions", n)
	}
	if n := sessions.Reap(time.Now().Add(2 * time.Minute)); n != 1 {
		t.Errorf("reaped %d, want 1", n)
	}
	if _, ok := sessions.Get(idle.ID); ok {
		t.Error("idle session should be gone")
	}
	if _, ok := sessions.Get(attached.ID); !ok {
		t.Error("connected session should survive")
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{conversation.ErrEmptyMessage, http.StatusBadRequest, CodeEmptyMessage},
		{conversation.ErrTurnInFlight, http.StatusConflict, CodeTurnInFlight},
		{conversation.ErrSpeaking, http.StatusConflict, CodeSpeaking},
		{conversation.ErrAudioDisabled, http.StatusConflict, CodeAudioDisabled},
		{speech.ErrUnknownVoice, http.StatusBadRequest, CodeUnknownVoice},
		{widget.ErrUnknownAction, http.StatusBadRequest, CodeUnknownAction},
		{conversation.ErrClosed, http.StatusGone, CodeSessionClosed},
		{errors.New("boom"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			status, code := statusFor(tt.err)
			if status != tt.status || code != tt.code {
				t.Errorf("statusFor(%v) = %d, %q", tt.err, status, code)
			}
		})
	}
}

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

// serve runs srv on a free local port and returns the chat socket base URL.
func serve(t *testing.T, srv *Server) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go srv.Serve(ctx, ln)
	t.Cleanup(func() {
		srv.Shutdown(context.Background())
		cancel()
	})
	return "ws://" + ln.Addr().String() + "/ws/chat/"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("WebSocket dial error: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

// readUntil reads frames until one of type want arrives.
func readUntil(t *testing.T, ws *websocket.Conn, want protocol.MessageType) *protocol.Message {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %s: %v", want, err)
		}
		msg, err := protocol.ParseMessage(data)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if msg.Type == want {
			return msg
		}
	}
}

// sender returns a function that writes a built message to ws.
func sender(t *testing.T, ws *websocket.Conn) func(*protocol.Message, error) {
	return func(msg *protocol.Message, err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
		data, err := msg.Bytes()
		if err != nil {
			t.Fatal(err)
		}
		if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
			t.Fatal(err)
		}
	}
}

func TestChatWebSocketVoiceTurn(t *testing.T) {
	gateway := assistant.NewMock("I specialize in X")
	srv, _ := newTestServer(t, gateway)
	base := serve(t, srv)

	sess, err := srv.sessions.Create()
	if err != nil {
		t.Fatal(err)
	}

	ws := dial(t, base+sess.ID)
	send := sender(t, ws)

	view, err := readUntil(t, ws, protocol.TypeView).GetView()
	if err != nil {
		t.Fatal(err)
	}
	if view.SessionID != sess.ID {
		t.Errorf("view session = %q", view.SessionID)
	}

	send(protocol.NewVoicesMessage(true, true, []speech.Voice{{Name: "Samantha", Lang: "en-US"}}))
	time.Sleep(50 * time.Millisecond)
	send(protocol.NewCommandMessage(widget.Command{Action: widget.ActionStartListening}))

	listen, err := readUntil(t, ws, protocol.TypeListen).GetListen()
	if err != nil {
		t.Fatal(err)
	}
	if !listen.Active {
		t.Fatal("expected listen active")
	}

	send(protocol.NewRecognitionMessage(speech.RecognitionEvent{
		Type:    speech.RecognitionResultEvent,
		Results: []speech.RecognitionResult{{Transcript: "What are your skills?", IsFinal: true}},
	}))

	utterance, err := readUntil(t, ws, protocol.TypeSpeak).GetSpeak()
	if err != nil {
		t.Fatal(err)
	}
	if utterance.Text != "I specialize in X" {
		t.Errorf("speak text = %q", utterance.Text)
	}
	if utterance.Voice == nil || utterance.Voice.Name != "Samantha" {
		t.Errorf("speak voice = %+v", utterance.Voice)
	}

	send(protocol.NewSynthesisMessage(speech.SynthesisEvent{Type: speech.SynthesisStart, UtteranceID: utterance.ID}))
	send(protocol.NewSynthesisMessage(speech.SynthesisEvent{Type: speech.SynthesisEnd, UtteranceID: utterance.ID}))

	// Continuous mode reopens the microphone after the settle delay.
	listen, err = readUntil(t, ws, protocol.TypeListen).GetListen()
	if err != nil {
		t.Fatal(err)
	}
	if !listen.Active {
		t.Error("expected listening to resume")
	}

	msgs := sess.Controller.Messages()
	if len(msgs) != 2 || msgs[0].Content != "What are your skills?" || msgs[1].Content != "I specialize in X" {
		t.Errorf("messages = %+v", msgs)
	}

	send(protocol.NewCommandMessage(widget.Command{Action: "dance"}))
	errData, err := readUntil(t, ws, protocol.TypeError).GetError()
	if err != nil {
		t.Fatal(err)
	}
	if errData.Code != CodeUnknownAction {
		t.Errorf("error code = %q", errData.Code)
	}
}

func TestChatWebSocketUnknownSession(t *testing.T) {
	srv, _ := newTestServer(t, assistant.NewMock())
	ws := dial(t, serve(t, srv)+"missing")

	errData, err := readUntil(t, ws, protocol.TypeError).GetError()
	if err != nil {
		t.Fatal(err)
	}
	if errData.Code != CodeSessionNotFound {
		t.Errorf("code = %q", errData.Code)
	}
}

func TestChatWebSocketCloseReleasesSpeech(t *testing.T) {
	srv, _ := newTestServer(t, assistant.NewMock())
	base := serve(t, srv)

	sess, err := srv.sessions.Create()
	if err != nil {
		t.Fatal(err)
	}
	ws := dial(t, base+sess.ID)
	readUntil(t, ws, protocol.TypeView)

	sender(t, ws)(protocol.NewVoicesMessage(true, true, []speech.Voice{{Name: "Samantha", Lang: "en-US"}}))
	waitFor(t, func() bool { return sess.Speech.State().RecognitionSupported })
	if _, attached := sess.idleSince(); !attached {
		t.Fatal("bridge not attached")
	}
	if _, body := doJSON(t, srv.App(), http.MethodGet, "/api/health", nil); body["connected"] != float64(1) {
		t.Errorf("health = %v", body)
	}

	ws.Close()
	waitFor(t, func() bool {
		_, attached := sess.idleSince()
		return !attached
	})

	st := sess.Speech.State()
	if st.RecognitionSupported || st.SynthesisSupported {
		t.Errorf("capabilities still attached after close: %+v", st)
	}
	if st.Err != speech.MsgRecognitionUnsupported {
		t.Errorf("Err = %q", st.Err)
	}
}

func TestChatWebSocketAudioOff(t *testing.T) {
	srv, _ := newTestServer(t, assistant.NewMock("I specialize in X"))
	base := serve(t, srv)

	sess, err := srv.sessions.Create()
	if err != nil {
		t.Fatal(err)
	}
	ws := dial(t, base+sess.ID)
	send := sender(t, ws)
	readUntil(t, ws, protocol.TypeView)

	send(protocol.NewVoicesMessage(true, true, []speech.Voice{{Name: "Samantha", Lang: "en-US"}}))
	waitFor(t, func() bool { return sess.Speech.State().RecognitionSupported })
	toggle := func() { send(protocol.NewCommandMessage(widget.Command{Action: widget.ActionToggleAudio})) }

	// Off while listening closes the microphone.
	send(protocol.NewCommandMessage(widget.Command{Action: widget.ActionStartListening}))
	if listen, _ := readUntil(t, ws, protocol.TypeListen).GetListen(); listen == nil || !listen.Active {
		t.Fatalf("expected listen active, got %+v", listen)
	}
	toggle()
	if listen, _ := readUntil(t, ws, protocol.TypeListen).GetListen(); listen == nil || listen.Active {
		t.Fatalf("expected listen inactive, got %+v", listen)
	}

	// Off while speaking silences the reply.
	toggle()
	if listen, _ := readUntil(t, ws, protocol.TypeListen).GetListen(); listen == nil || !listen.Active {
		t.Fatalf("expected listening on audio enable, got %+v", listen)
	}
	send(protocol.NewRecognitionMessage(speech.RecognitionEvent{
		Type:    speech.RecognitionResultEvent,
		Results: []speech.RecognitionResult{{Transcript: "What are your skills?", IsFinal: true}},
	}))
	readUntil(t, ws, protocol.TypeSpeak)
	toggle()
	readUntil(t, ws, protocol.TypeCancelSpeech)

	snap := sess.Controller.Snapshot()
	if snap.AudioEnabled || sess.Speech.Speaking() || sess.Speech.Listening() {
		t.Errorf("audio = %v, speaking = %v, listening = %v", snap.AudioEnabled, sess.Speech.Speaking(), sess.Speech.Listening())
	}
}

func TestChatWebSocketNewestTabWins(t *testing.T) {
	gateway := assistant.NewMock("I specialize in X")
	srv, _ := newTestServer(t, gateway)
	base := serve(t, srv)

	sess, err := srv.sessions.Create()
	if err != nil {
		t.Fatal(err)
	}
	voices := []speech.Voice{{Name: "Samantha", Lang: "en-US"}}
	final := speech.RecognitionEvent{
		Type:    speech.RecognitionResultEvent,
		Results: []speech.RecognitionResult{{Transcript: "What are your skills?", IsFinal: true}},
	}

	stale := dial(t, base+sess.ID)
	readUntil(t, stale, protocol.TypeView)
	sender(t, stale)(protocol.NewVoicesMessage(true, true, voices))
	waitFor(t, func() bool { return sess.Speech.State().RecognitionSupported })

	fresh := dial(t, base+sess.ID)
	readUntil(t, fresh, protocol.TypeView)
	sendFresh := sender(t, fresh)
	sendFresh(protocol.NewVoicesMessage(true, true, voices))
	sendFresh(protocol.NewCommandMessage(widget.Command{Action: widget.ActionStartListening}))
	if listen, _ := readUntil(t, fresh, protocol.TypeListen).GetListen(); listen == nil || !listen.Active {
		t.Fatalf("expected listen active on the new tab, got %+v", listen)
	}

	// The replaced tab's recognizer is no longer heard.
	sender(t, stale)(protocol.NewRecognitionMessage(final))
	time.Sleep(50 * time.Millisecond)
	if gateway.Calls() != 0 || len(sess.Controller.Messages()) != 0 {
		t.Fatalf("stale bridge started a turn: calls = %d", gateway.Calls())
	}

	sendFresh(protocol.NewRecognitionMessage(final))
	utterance, err := readUntil(t, fresh, protocol.TypeSpeak).GetSpeak()
	if err != nil {
		t.Fatal(err)
	}
	if utterance.Text != "I specialize in X" {
		t.Errorf("speak text = %q", utterance.Text)
	}

	// A late end event from the old tab does not finish the new playback.
	sender(t, stale)(protocol.NewSynthesisMessage(speech.SynthesisEvent{Type: speech.SynthesisEnd, UtteranceID: utterance.ID}))
	time.Sleep(50 * time.Millisecond)
	if !sess.Speech.Speaking() {
		t.Error("stale synthesis event ended playback")
	}
}
