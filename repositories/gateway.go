//go:generate go run go.uber.org/mock/mockgen -source=gateway.go -destination=../mocks/mock_gateway.go -package=mocks
package repositories

import (
	"chat-relay/domain"
	"context"
	"time"

	"github.com/google/uuid"
)

// Gateway is the durable store for identities, conversations and messages.
// It holds no business logic: every call is a plain create or find.
type Gateway interface {
	FindIdentity(ctx context.Context, username string) (domain.Identity, error)
	CreateIdentity(ctx context.Context, username string) (domain.Identity, error)
	// UpdateIdentity returns nil and no error when the filter matches nothing.
	UpdateIdentity(ctx context.Context, filter IdentityFilter, patch IdentityPatch) (*domain.Identity, error)
	FindConversation(ctx context.Context, participants domain.Pair) (domain.Conversation, error)
	FindConversationByID(ctx context.Context, id uuid.UUID) (domain.Conversation, error)
	CreateConversation(ctx context.Context, participants domain.Pair) (domain.Conversation, error)
	CreateMessage(ctx context.Context, message domain.Message) (domain.Message, error)
	FindMessages(ctx context.Context, query domain.HistoryQuery) ([]domain.Message, error)
	Close() error
}

// IdentityFilter selects the identity to update. A non-nil ConnectionID
// additionally requires the stored connection id to match.
type IdentityFilter struct {
	Username     string
	ConnectionID *string
}

func (f IdentityFilter) Matches(identity domain.Identity) bool {
	if identity.Username != f.Username {
		return false
	}
	return f.ConnectionID == nil || *f.ConnectionID == identity.ConnectionID
}

// IdentityPatch lists the presence fields to overwrite; nil fields are kept.
type IdentityPatch struct {
	Online       *bool
	Admin        *bool
	ConnectionID *string
	LastSeen     *time.Time
}

func (p IdentityPatch) Apply(identity domain.Identity) domain.Identity {
	if p.Online != nil {
		identity.Online = *p.Online
	}
	if p.Admin != nil {
		identity.Admin = *p.Admin
	}
	if p.ConnectionID != nil {
		identity.ConnectionID = *p.ConnectionID
	}
	if p.LastSeen != nil {
		identity.LastSeen = *p.LastSeen
	}
	return identity
}
