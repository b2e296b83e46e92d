package storage

import (
	"chat-relay/domain"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

type RecordKind string

const (
	KindIdentity     RecordKind = "identity"
	KindConversation RecordKind = "conversation"
	KindPair         RecordKind = "pair"
	KindMessage      RecordKind = "message"
	KindSequence     RecordKind = "sequence"
)

// Record is one decoded Badger entry. Only the field matching Kind is set.
type Record struct {
	Key          string
	Kind         RecordKind
	Identity     *domain.Identity
	Conversation *domain.Conversation
	Message      *domain.Message
}

// Scan decodes every entry whose key starts with prefix, in key order.
// It only reads, so it works on a database opened read-only.
func Scan(db *badger.DB, prefix string, fn func(Record) error) error {
	return db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: true, PrefetchSize: 100, Prefix: []byte(prefix)})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			record := Record{Key: string(item.Key())}
			err := item.Value(func(val []byte) error {
				return decodeRecord(&record, val)
			})
			if err != nil {
				return fmt.Errorf("key %q: %w", record.Key, err)
			}
			if err := fn(record); err != nil {
				return err
			}
		}
		return nil
	})
}

func decodeRecord(record *Record, val []byte) error {
	switch {
	case strings.HasPrefix(record.Key, identityPrefix):
		identity, err := unmarshalIdentity(val)
		record.Kind, record.Identity = KindIdentity, &identity
		return err
	case strings.HasPrefix(record.Key, conversationPrefix):
		conversation, err := unmarshalConversation(val)
		record.Kind, record.Conversation = KindConversation, &conversation
		return err
	case strings.HasPrefix(record.Key, messagePrefix):
		message, err := unmarshalMessage(val)
		record.Kind, record.Message = KindMessage, &message
		return err
	case strings.HasPrefix(record.Key, pairPrefix):
		record.Kind = KindPair
	default:
		record.Kind = KindSequence
	}
	return nil
}
