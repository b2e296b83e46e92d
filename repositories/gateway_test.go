package repositories

import (
	"chat-relay/domain"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func TestIdentityFilter_Matches(t *testing.T) {
	req := require.New(t)
	identity := domain.Identity{Username: "alice", ConnectionID: "c1"}

	req.True(IdentityFilter{Username: "alice"}.Matches(identity))
	req.True(IdentityFilter{Username: "alice", ConnectionID: lo.ToPtr("c1")}.Matches(identity))
	req.False(IdentityFilter{Username: "alice", ConnectionID: lo.ToPtr("c2")}.Matches(identity))
	req.False(IdentityFilter{Username: "bob"}.Matches(identity))
}

func TestIdentityPatch_Apply_KeepsNilFields(t *testing.T) {
	req := require.New(t)
	seen := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	identity := domain.Identity{Username: "alice", Admin: true, ConnectionID: "c1"}

	// When only presence fields are patched
	patched := IdentityPatch{Online: lo.ToPtr(false), ConnectionID: lo.ToPtr(""), LastSeen: &seen}.Apply(identity)

	// Then the admin flag is untouched
	req.True(patched.Admin)
	req.False(patched.Online)
	req.Empty(patched.ConnectionID)
	req.Equal(seen, patched.LastSeen)
	req.Equal("alice", patched.Username)
}
