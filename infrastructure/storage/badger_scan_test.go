package storage

import (
	"context"
	"log/slog"
	"testing"

	"chat-relay/domain"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestScan_Decodes_Every_Record_Kind(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	gateway, err := OpenBadger(t.TempDir(), logs.GetLoggerFromLevel(slog.LevelDebug))
	req.NoError(err)
	defer gateway.Close()

	// Given an identity, a conversation and one message
	_, err = gateway.CreateIdentity(ctx, "alice")
	req.NoError(err)
	pair, err := domain.NewPair("alice", "bob")
	req.NoError(err)
	conversation, err := gateway.CreateConversation(ctx, pair)
	req.NoError(err)
	_, err = gateway.CreateMessage(ctx, domain.Message{ConversationID: conversation.ID, Sender: "alice", Receiver: "bob", Content: "hi"})
	req.NoError(err)

	// When scanning the whole keyspace
	kinds := map[RecordKind]int{}
	var message *domain.Message
	req.NoError(Scan(gateway.db, "", func(r Record) error {
		kinds[r.Kind]++
		if r.Kind == KindMessage {
			message = r.Message
		}
		return nil
	}))

	// Then each stored entity is decoded
	req.Equal(1, kinds[KindIdentity])
	req.Equal(1, kinds[KindConversation])
	req.Equal(1, kinds[KindPair])
	req.Equal(1, kinds[KindMessage])
	req.NotNil(message)
	req.Equal("hi", message.Content)

	// And a prefix narrows the scan
	count := 0
	req.NoError(Scan(gateway.db, identityPrefix, func(Record) error {
		count++
		return nil
	}))
	req.Equal(1, count)
}
