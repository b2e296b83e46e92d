package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/repositories"
	"context"
	"fmt"
	"log/slog"
	"sync"
)

var _ contract.IResolver = (*Resolver)(nil)

type pairLock struct {
	mu   sync.Mutex
	refs int
}

// Resolver finds or creates the single conversation of an unordered pair.
// Concurrent resolutions of the same pair are serialized in-process; a
// creation that still loses a race against another process falls back to
// fetching the winner's conversation.
type Resolver struct {
	log     *slog.Logger
	gateway repositories.Gateway
	mu      sync.Mutex
	locks   map[string]*pairLock
}

func NewResolver(log *slog.Logger, gateway repositories.Gateway) *Resolver {
	return &Resolver{
		log:     log.With("component", "resolver"),
		gateway: gateway,
		locks:   make(map[string]*pairLock),
	}
}

func (r *Resolver) Resolve(ctx context.Context, a, b string) (domain.Conversation, error) {
	pair, err := domain.NewPair(a, b)
	if err != nil {
		return domain.Conversation{}, err
	}

	unlock := r.lock(pair.Key())
	defer unlock()

	conversation, err := r.gateway.FindConversation(ctx, pair)
	if err == nil {
		return conversation, nil
	}
	if !errors.Is(err, errors.ErrConversationNotFound) {
		return domain.Conversation{}, fmt.Errorf("find conversation: %w", err)
	}

	conversation, err = r.gateway.CreateConversation(ctx, pair)
	switch {
	case err == nil:
		r.log.Info("Conversation created", "conversation_id", conversation.ID, "participants", pair)
		return conversation, nil
	case errors.Is(err, errors.ErrConversationAlreadyExists):
		conversation, err = r.gateway.FindConversation(ctx, pair)
		if err != nil {
			return domain.Conversation{}, fmt.Errorf("find conversation after conflict: %w", err)
		}
		return conversation, nil
	default:
		return domain.Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
}

func (r *Resolver) lock(key string) func() {
	r.mu.Lock()
	l, ok := r.locks[key]
	if !ok {
		l = &pairLock{}
		r.locks[key] = l
	}
	l.refs++
	r.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		r.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, key)
		}
		r.mu.Unlock()
	}
}
