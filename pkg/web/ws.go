package web

import (
	"time"

	"github.com/gofiber/contrib/websocket"

	"github.com/teslashibe/go-folio/pkg/assistant"
	"github.com/teslashibe/go-folio/pkg/conversation"
	"github.com/teslashibe/go-folio/pkg/hub"
	"github.com/teslashibe/go-folio/pkg/protocol"
	"github.com/teslashibe/go-folio/pkg/speech"
	"github.com/teslashibe/go-folio/pkg/widget"
)

// sessionFactory wires a speech adapter, controller and widget for one
// session and publishes every view change to the session's hub topic.
func (s *Server) sessionFactory(gateway assistant.Client) SessionFactory {
	return func(id string) (*Session, error) {
		log := s.logger.With("session", id)

		adapter := speech.NewAdapter(nil, nil, speech.WithLogger(log))
		ctrl, err := conversation.New(gateway, adapter,
			conversation.WithSessionID(id),
			conversation.WithChatConfig(s.cfg.Chat),
			conversation.WithLogger(log),
		)
		if err != nil {
			adapter.Close()
			return nil, err
		}

		w := widget.New(ctrl, log)
		now := time.Now()
		sess := &Session{
			ID:         id,
			Speech:     adapter,
			Controller: ctrl,
			Widget:     w,
			Created:    now,
			lastSeen:   now,
		}
		sess.unsubscribe = w.OnView(func(v widget.View) {
			msg, err := protocol.NewViewMessage(v)
			if err == nil {
				err = s.hub.BroadcastJSON(id, msg)
			}
			if err != nil {
				log.Error("failed to encode view", "error", err)
			}
		})
		return sess, nil
	}
}

// handleChatWS connects a browser to a chat session. The browser announces
// its speech capabilities with a voices message, then forwards commands and
// recognition and synthesis events.
func (s *Server) handleChatWS(conn *websocket.Conn) {
	id := conn.Params("id")
	sess, ok := s.sessions.Get(id)
	if !ok {
		if msg, err := protocol.NewErrorMessage(CodeSessionNotFound, "session not found"); err == nil {
			if data, err := msg.Bytes(); err == nil {
				conn.WriteMessage(websocket.TextMessage, data)
			}
		}
		conn.Close()
		return
	}

	var client *hub.Client
	bridge := NewBridge(func(data []byte) error { return client.Send(data) })
	client = hub.NewClient(s.hub, id, conn, func(data []byte) {
		s.handleInbound(sess, bridge, client, data)
	})

	s.logger.Info("chat client connected", "session", id, "clients", s.hub.ClientCount(id))
	s.replier(client)(protocol.NewViewMessage(sess.Widget.View()))

	client.Run()

	sess.detach(bridge)
	s.logger.Info("chat client disconnected", "session", id)
}

// handleInbound processes one frame from the browser.
func (s *Server) handleInbound(sess *Session, bridge *Bridge, client *hub.Client, data []byte) {
	sess.Touch()
	reply := s.replier(client)

	msg, err := protocol.ParseMessage(data)
	if err != nil {
		reply(protocol.NewErrorMessage(CodeInvalidMessage, err.Error()))
		return
	}

	switch msg.Type {
	case protocol.TypeVoices:
		caps, err := msg.GetVoices()
		if err != nil {
			reply(protocol.NewErrorMessage(CodeInvalidMessage, err.Error()))
			return
		}
		bridge.SetVoices(caps.Voices)
		if sess.bridgeIs(bridge) {
			sess.Speech.RefreshVoices()
			return
		}

		// Untyped nils keep unsupported capabilities detached.
		var rec speech.Recognizer
		var syn speech.Synthesizer
		if caps.Recognition {
			rec = bridge
		}
		if caps.Synthesis {
			syn = bridge
		}
		if err := sess.attach(bridge, rec, syn); err != nil {
			s.sendError(client, err)
		}

	case protocol.TypeRecognition:
		ev, err := msg.GetRecognition()
		if err != nil {
			reply(protocol.NewErrorMessage(CodeInvalidMessage, err.Error()))
			return
		}
		if sess.bridgeIs(bridge) {
			sess.Speech.HandleRecognition(*ev)
		}

	case protocol.TypeSynthesis:
		ev, err := msg.GetSynthesis()
		if err != nil {
			reply(protocol.NewErrorMessage(CodeInvalidMessage, err.Error()))
			return
		}
		if sess.bridgeIs(bridge) {
			sess.Speech.HandleSynthesis(*ev)
		}

	case protocol.TypeCommand:
		cmd, err := msg.GetCommand()
		if err != nil {
			reply(protocol.NewErrorMessage(CodeInvalidMessage, err.Error()))
			return
		}
		if err := sess.Widget.Handle(*cmd); err != nil {
			s.sendError(client, err)
		}

	case protocol.TypePing:
		ping, err := msg.GetPingData()
		if err != nil {
			return
		}
		reply(protocol.NewPongMessage(ping.ID, msg.Timestamp, time.Now().UnixMilli()))

	default:
		reply(protocol.NewErrorMessage(CodeUnknownType, "unknown message type: "+string(msg.Type)))
	}
}

// replier returns a function that sends a freshly built message to client.
func (s *Server) replier(client *hub.Client) func(*protocol.Message, error) {
	return func(msg *protocol.Message, err error) {
		if err != nil {
			s.logger.Error("failed to build message", "error", err)
			return
		}
		data, err := msg.Bytes()
		if err != nil {
			s.logger.Error("failed to encode message", "error", err)
			return
		}
		if err := client.Send(data); err != nil {
			s.logger.Debug("failed to send message", "type", msg.Type, "error", err)
		}
	}
}

// sendError reports a command error to a single client.
func (s *Server) sendError(client *hub.Client, err error) {
	_, code := statusFor(err)
	s.replier(client)(protocol.NewErrorMessage(code, err.Error()))
}
