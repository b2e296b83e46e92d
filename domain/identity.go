// Package domain contains the core concepts of the relay: identities,
// conversations between two identities and the messages they exchange.
package domain

import (
	"strings"
	"time"

	"chat-relay/errors"
)

// Identity is a registered chat participant, keyed by its username.
// Online, ConnectionID and Admin are presence fields owned by the connection registry.
type Identity struct {
	Username     string
	ConnectionID string
	Online       bool
	Admin        bool
	LastSeen     time.Time
	CreatedAt    time.Time
}

// NormalizeUsername trims surrounding blanks and rejects empty usernames.
func NormalizeUsername(username string) (string, error) {
	trimmed := strings.TrimSpace(username)
	if trimmed == "" {
		return "", errors.ErrInvalidUsername
	}
	return trimmed, nil
}

// IsAdmin reports whether username matches the configured admin name.
// An empty admin name disables the flag.
func IsAdmin(username, adminName string) bool {
	return adminName != "" && username == adminName
}

// Presence puts the live registry view of an identity next to its persisted
// record. Both agree modulo the delay of the asynchronous presence write.
type Presence struct {
	Identity     Identity
	Live         bool
	ConnectionID string
}
