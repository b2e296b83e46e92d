package domain

import (
	"time"

	"chat-relay/errors"

	"github.com/google/uuid"
)

// Pair is the unordered participant set of a conversation, kept sorted so
// that NewPair(a, b) == NewPair(b, a).
type Pair [2]string

func NewPair(a, b string) (Pair, error) {
	if a == "" || b == "" || a == b {
		return Pair{}, errors.ErrInvalidParticipants
	}
	if b < a {
		a, b = b, a
	}
	return Pair{a, b}, nil
}

// Key is the storage and locking key of the pair.
func (p Pair) Key() string {
	return p[0] + "\x00" + p[1]
}

func (p Pair) Contains(username string) bool {
	return p[0] == username || p[1] == username
}

// Other returns the participant that is not username, or "" when username
// is not part of the pair.
func (p Pair) Other(username string) string {
	switch username {
	case p[0]:
		return p[1]
	case p[1]:
		return p[0]
	default:
		return ""
	}
}

// Conversation is created lazily the first time two identities are resolved
// together. Its participant set never changes.
type Conversation struct {
	ID           uuid.UUID
	Participants Pair
	CreatedAt    time.Time
}
