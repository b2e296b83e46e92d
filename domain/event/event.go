// Package event holds the events exchanged with live connections and their
// JSON envelope.
package event

import (
	"encoding/json"
	"time"

	"chat-relay/domain"

	"github.com/google/uuid"
)

const (
	NameConnected   = "connected"
	NameUpdateUser  = "updateUser"
	NameChatMessage = "chat-message"
	NameTyping      = "typing"
	NameError       = "error"
)

// Event is anything the relay pushes to a live connection.
type Event interface {
	Name() string
}

// Envelope is the wire frame in both directions: {"event": "...", "data": {...}}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ChatMessage is delivered to the recipient's current connection.
type ChatMessage struct {
	ID             uuid.UUID `json:"id"`
	Seq            uint64    `json:"seq"`
	ConversationID uuid.UUID `json:"conversationId"`
	Sender         string    `json:"sender"`
	Receiver       string    `json:"receiver"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (ChatMessage) Name() string { return NameChatMessage }

func FromMessage(m domain.Message) ChatMessage {
	return ChatMessage{
		ID:             m.ID,
		Seq:            m.Seq,
		ConversationID: m.ConversationID,
		Sender:         m.Sender,
		Receiver:       m.Receiver,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	}
}

// Typing is sent as the bare username of the identity that is typing.
type Typing struct {
	TypingUser string
}

func (Typing) Name() string { return NameTyping }

func (t Typing) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.TypingUser)
}

// External is an out-of-band broadcast whose name and payload are chosen by the caller.
type External struct {
	EventName string
	Payload   json.RawMessage
}

func (e External) Name() string { return e.EventName }

// ErrorSignal tells a sender that the event it submitted failed.
type ErrorSignal struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}

func (ErrorSignal) Name() string { return NameError }

// Connected is the first frame of every connection; clients echo the id in updateUser.
type Connected struct {
	ConnectionID string `json:"connectionId"`
}

func (Connected) Name() string { return NameConnected }

// Encode wraps e into its envelope.
func Encode(e Event) ([]byte, error) {
	var data json.RawMessage
	switch evt := e.(type) {
	case External:
		data = evt.Payload
	default:
		raw, err := json.Marshal(evt)
		if err != nil {
			return nil, err
		}
		data = raw
	}
	return json.Marshal(Envelope{Event: e.Name(), Data: data})
}
