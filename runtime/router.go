package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/repositories"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

var _ contract.IRouter = (*Router)(nil)

// Router persists a chat message and then relays it to the recipient's
// current connection, if any. A message is never relayed before it is
// stored, and delivery is a single best-effort attempt.
type Router struct {
	log      *slog.Logger
	gateway  repositories.Gateway
	registry contract.IRegistry
	now      func() time.Time
}

func NewRouter(log *slog.Logger, gateway repositories.Gateway, registry contract.IRegistry) *Router {
	return &Router{
		log:      log.With("component", "router"),
		gateway:  gateway,
		registry: registry,
		now:      time.Now,
	}
}

func (r *Router) Route(ctx context.Context, cmd domain.RouteMessageCommand) (domain.Message, contract.RouteOutcome, error) {
	message, err := r.gateway.CreateMessage(ctx, domain.Message{
		ID:             uuid.New(),
		ConversationID: cmd.ConversationID,
		Sender:         cmd.Sender,
		Receiver:       cmd.Receiver,
		Content:        cmd.Content,
		CreatedAt:      r.now().UTC(),
	})
	if err != nil {
		r.log.Error("Unable to persist message",
			"conversation_id", cmd.ConversationID,
			"sender", cmd.Sender,
			"error", err)
		return domain.Message{}, contract.OutcomeNotRouted, fmt.Errorf("persist message: %w", err)
	}

	conn, ok := r.registry.Lookup(message.Receiver)
	if !ok {
		r.log.Debug("Recipient offline, message kept for history",
			"message_id", message.ID,
			"receiver", message.Receiver)
		return message, contract.OutcomeRecipientOffline, nil
	}

	if err := conn.Send(event.FromMessage(message)); err != nil {
		r.log.Warn("Relay dropped",
			"message_id", message.ID,
			"receiver", message.Receiver,
			"connection_id", conn.ID(),
			"error", err)
		return message, contract.OutcomeRelayDropped, nil
	}
	return message, contract.OutcomeRelayed, nil
}
