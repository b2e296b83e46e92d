package domain

import "github.com/google/uuid"

// RouteMessageCommand is a chat message submitted on a sender's connection.
type RouteMessageCommand struct {
	Sender         string
	Receiver       string
	Content        string
	ConversationID uuid.UUID
}

// TypingCommand signals that TypingUser is composing a message.
// ConversationID is only used when typing signals are scoped to a conversation.
type TypingCommand struct {
	TypingUser     string
	ConversationID uuid.UUID
}
