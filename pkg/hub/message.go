// Package hub provides a thread-safe websocket fan-out hub keyed by topic,
// using the idiomatic Go channel-based broadcast pattern.
//
// The widget server uses one topic per chat session: every browser tab
// attached to a session receives that session's view pushes.
package hub

// Message is a text frame addressed to every client on a topic.
type Message struct {
	Topic string
	Data  []byte
}

// NewMessage creates a message for every client on topic.
func NewMessage(topic string, data []byte) Message {
	return Message{Topic: topic, Data: data}
}
