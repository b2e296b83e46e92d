package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/repositories"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

var _ contract.IBroadcaster = (*Broadcaster)(nil)

// TypingScope decides who receives a typing signal.
type TypingScope string

const (
	// TypingScopeBroadcast sends to every live connection but the sender's.
	TypingScopeBroadcast TypingScope = "broadcast"
	// TypingScopeConversation sends only to the other participant.
	TypingScopeConversation TypingScope = "conversation"
)

func ParseTypingScope(s string) (TypingScope, error) {
	switch scope := TypingScope(strings.ToLower(strings.TrimSpace(s))); scope {
	case "", TypingScopeBroadcast:
		return TypingScopeBroadcast, nil
	case TypingScopeConversation:
		return scope, nil
	default:
		return "", fmt.Errorf("%w: %q", errors.ErrUnknownTypingScope, s)
	}
}

// Broadcaster fans ephemeral signals out to live connections. Nothing is
// persisted and nothing is acknowledged.
type Broadcaster struct {
	log      *slog.Logger
	registry contract.IRegistry
	gateway  repositories.Gateway
	scope    TypingScope
}

func NewBroadcaster(log *slog.Logger, registry contract.IRegistry, gateway repositories.Gateway, scope TypingScope) *Broadcaster {
	return &Broadcaster{
		log:      log.With("component", "broadcaster"),
		registry: registry,
		gateway:  gateway,
		scope:    scope,
	}
}

// Typing returns the number of connections the signal was handed to.
func (b *Broadcaster) Typing(ctx context.Context, from contract.Connection, cmd domain.TypingCommand) int {
	signal := event.Typing{TypingUser: cmd.TypingUser}
	if b.scope == TypingScopeConversation {
		return b.typingInConversation(ctx, signal, cmd)
	}

	delivered := 0
	for _, conn := range b.registry.Connections() {
		if from != nil && conn.ID() == from.ID() {
			continue
		}
		if b.send(conn, signal) {
			delivered++
		}
	}
	return delivered
}

func (b *Broadcaster) typingInConversation(ctx context.Context, signal event.Typing, cmd domain.TypingCommand) int {
	conversation, err := b.gateway.FindConversationByID(ctx, cmd.ConversationID)
	if err != nil {
		b.log.Debug("Typing signal ignored, conversation unavailable",
			"conversation_id", cmd.ConversationID,
			"error", err)
		return 0
	}
	if !conversation.Participants.Contains(cmd.TypingUser) {
		b.log.Debug("Typing signal ignored, not a participant",
			"conversation_id", cmd.ConversationID,
			"identity", cmd.TypingUser)
		return 0
	}
	conn, ok := b.registry.Lookup(conversation.Participants.Other(cmd.TypingUser))
	if !ok {
		return 0
	}
	if b.send(conn, signal) {
		return 1
	}
	return 0
}

// EmitExternal sends an arbitrary event to every live connection.
func (b *Broadcaster) EmitExternal(eventName string, payload json.RawMessage) int {
	e := event.External{EventName: eventName, Payload: payload}
	delivered := 0
	for _, conn := range b.registry.Connections() {
		if b.send(conn, e) {
			delivered++
		}
	}
	b.log.Info("External event emitted", "event", eventName, "delivered", delivered)
	return delivered
}

func (b *Broadcaster) send(conn contract.Connection, e event.Event) bool {
	if err := conn.Send(e); err != nil {
		b.log.Debug("Broadcast dropped", "event", e.Name(), "connection_id", conn.ID(), "error", err)
		return false
	}
	return true
}
