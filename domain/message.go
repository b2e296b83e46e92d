package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is immutable once stored. Seq is assigned by the store and gives
// the insertion order within a conversation.
type Message struct {
	ID             uuid.UUID
	Seq            uint64
	ConversationID uuid.UUID
	Sender         string
	Receiver       string
	Content        string
	CreatedAt      time.Time
}

// HistoryQuery selects the messages of a conversation stored after AfterSeq.
// A zero Limit means no limit.
type HistoryQuery struct {
	ConversationID uuid.UUID
	AfterSeq       uint64
	Limit          int
}
