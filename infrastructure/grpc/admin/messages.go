package admin

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EmitRequest struct {
	EventName string          `json:"eventName"`
	Payload   json.RawMessage `json:"payload"`
}

type EmitResponse struct {
	Delivered int `json:"delivered"`
}

type StatsRequest struct{}

type PresenceRequest struct {
	Username string `json:"username"`
}

// PresenceResponse shows the live registry binding next to the persisted
// record, which may lag behind it.
type PresenceResponse struct {
	Username     string     `json:"username"`
	Live         bool       `json:"live"`
	ConnectionID string     `json:"connectionId,omitempty"`
	Online       bool       `json:"online"`
	Admin        bool       `json:"admin"`
	LastSeen     *time.Time `json:"lastSeen,omitempty"`
}

type HistoryRequest struct {
	ConversationID string `json:"conversationId"`
	After          uint64 `json:"after"`
	Limit          int    `json:"limit"`
}

type Message struct {
	ID        uuid.UUID `json:"id"`
	Seq       uint64    `json:"seq"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type HistoryResponse struct {
	Messages  []Message `json:"messages"`
	NextAfter uint64    `json:"nextAfter"`
}
