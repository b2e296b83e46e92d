//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/observability"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// IChatService is what the transports (WebSocket, HTTP, admin gRPC) need
// from the relay.
type IChatService interface {
	Register(ctx context.Context, username string) (domain.Identity, bool, error)
	FindIdentity(ctx context.Context, username string) (domain.Identity, error)
	ResolveConversation(ctx context.Context, a, b string) (domain.Conversation, error)
	History(ctx context.Context, query domain.HistoryQuery) ([]domain.Message, error)
	Connect(conn contract.Connection)
	Disconnect(conn contract.Connection) (string, bool)
	Bind(identity string, conn contract.Connection) contract.Binding
	Route(ctx context.Context, cmd domain.RouteMessageCommand) (domain.Message, contract.RouteOutcome, error)
	Typing(ctx context.Context, from contract.Connection, cmd domain.TypingCommand) int
	Emit(eventName string, payload json.RawMessage) int
	Presence(ctx context.Context, username string) (domain.Presence, error)
	Stats() observability.Stats
}

type ChatService struct {
	log           *slog.Logger
	orchestrator  *runtime.Orchestrator
	gateway       repositories.Gateway
	limitMessages int
}

func NewChatService(log *slog.Logger, o *runtime.Orchestrator, gateway repositories.Gateway, limitMessages int) *ChatService {
	return &ChatService{
		log:           log.With("component", "chat_service"),
		orchestrator:  o,
		gateway:       gateway,
		limitMessages: limitMessages,
	}
}

// Register creates the identity on first registration and returns the
// stored one afterwards. The boolean reports whether it was just created.
func (s *ChatService) Register(ctx context.Context, username string) (domain.Identity, bool, error) {
	username, err := domain.NormalizeUsername(username)
	if err != nil {
		return domain.Identity{}, false, err
	}

	identity, err := s.gateway.CreateIdentity(ctx, username)
	if err == nil {
		s.log.Info("Identity registered", "identity", username)
		return identity, true, nil
	}
	if !errors.Is(err, errors.ErrIdentityAlreadyExists) {
		return domain.Identity{}, false, fmt.Errorf("create identity: %w", err)
	}

	identity, err = s.gateway.FindIdentity(ctx, username)
	if err != nil {
		return domain.Identity{}, false, fmt.Errorf("find identity: %w", err)
	}
	return identity, false, nil
}

func (s *ChatService) FindIdentity(ctx context.Context, username string) (domain.Identity, error) {
	return s.gateway.FindIdentity(ctx, username)
}

func (s *ChatService) ResolveConversation(ctx context.Context, a, b string) (domain.Conversation, error) {
	return s.orchestrator.Resolve(ctx, a, b)
}

// History returns the messages of an existing conversation in insertion
// order. The page size is capped by the configured message limit.
func (s *ChatService) History(ctx context.Context, query domain.HistoryQuery) ([]domain.Message, error) {
	if query.ConversationID == uuid.Nil {
		return nil, errors.ErrConversationNotFound
	}
	if _, err := s.gateway.FindConversationByID(ctx, query.ConversationID); err != nil {
		return nil, err
	}
	if s.limitMessages > 0 && (query.Limit <= 0 || query.Limit > s.limitMessages) {
		query.Limit = s.limitMessages
	}
	return s.gateway.FindMessages(ctx, query)
}

func (s *ChatService) Connect(conn contract.Connection) {
	s.orchestrator.Attach(conn)
}

func (s *ChatService) Disconnect(conn contract.Connection) (string, bool) {
	return s.orchestrator.Detach(conn)
}

func (s *ChatService) Bind(identity string, conn contract.Connection) contract.Binding {
	return s.orchestrator.Bind(identity, conn)
}

func (s *ChatService) Route(ctx context.Context, cmd domain.RouteMessageCommand) (domain.Message, contract.RouteOutcome, error) {
	return s.orchestrator.Route(ctx, cmd)
}

func (s *ChatService) Typing(ctx context.Context, from contract.Connection, cmd domain.TypingCommand) int {
	return s.orchestrator.Typing(ctx, from, cmd)
}

func (s *ChatService) Emit(eventName string, payload json.RawMessage) int {
	return s.orchestrator.EmitExternal(eventName, payload)
}

func (s *ChatService) Presence(ctx context.Context, username string) (domain.Presence, error) {
	identity, err := s.gateway.FindIdentity(ctx, username)
	if err != nil {
		return domain.Presence{}, err
	}
	presence := domain.Presence{Identity: identity}
	if conn, ok := s.orchestrator.Lookup(username); ok {
		presence.Live = true
		presence.ConnectionID = conn.ID()
	}
	return presence, nil
}

func (s *ChatService) Stats() observability.Stats {
	return s.orchestrator.Stats()
}
