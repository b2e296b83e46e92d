package storage

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/repositories"
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

var _ repositories.Gateway = (*BadgerGateway)(nil)

const (
	identityPrefix     = "identity:"
	conversationPrefix = "conversation:"
	pairPrefix         = "pair:"
	messagePrefix      = "message:"
	messageSequenceKey = "seq:messages"
	sequenceBandwidth  = 1000
)

func identityKey(username string) []byte { return []byte(identityPrefix + username) }

func conversationKey(id uuid.UUID) []byte { return []byte(conversationPrefix + id.String()) }

func pairKey(pair domain.Pair) []byte { return []byte(pairPrefix + pair.Key()) }

func messageConversationPrefix(id uuid.UUID) []byte {
	return []byte(messagePrefix + id.String() + ":")
}

// messageKey pads the sequence to 20 digits so that keys sort in insertion order.
func messageKey(conversationID uuid.UUID, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d", messagePrefix, conversationID, seq))
}

// BadgerGateway stores identities, conversations and messages in Badger.
// Conversations are indexed twice: by id and by their participant pair.
type BadgerGateway struct {
	db  *badger.DB
	log *slog.Logger
	seq *badger.Sequence
	now func() time.Time
	// writeMu keeps message commits in sequence order.
	writeMu sync.Mutex
}

func NewBadgerGateway(db *badger.DB, log *slog.Logger) (*BadgerGateway, error) {
	seq, err := db.GetSequence([]byte(messageSequenceKey), sequenceBandwidth)
	if err != nil {
		return nil, fmt.Errorf("message sequence: %w", err)
	}
	return &BadgerGateway{
		db:  db,
		log: log.With("component", "badger_gateway"),
		seq: seq,
		now: time.Now,
	}, nil
}

func (g *BadgerGateway) FindIdentity(_ context.Context, username string) (domain.Identity, error) {
	var identity domain.Identity
	err := g.db.View(func(txn *badger.Txn) error {
		var err error
		identity, err = getIdentity(txn, username)
		return err
	})
	return identity, err
}

func (g *BadgerGateway) CreateIdentity(_ context.Context, username string) (domain.Identity, error) {
	identity := domain.Identity{Username: username, CreatedAt: g.now().UTC()}
	err := g.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(identityKey(username)); err == nil {
			return errors.ErrIdentityAlreadyExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(identityKey(username), marshalIdentity(identity))
	})
	if errors.Is(err, badger.ErrConflict) {
		return domain.Identity{}, errors.ErrIdentityAlreadyExists
	}
	if err != nil {
		return domain.Identity{}, err
	}
	return identity, nil
}

func (g *BadgerGateway) UpdateIdentity(_ context.Context, filter repositories.IdentityFilter, patch repositories.IdentityPatch) (*domain.Identity, error) {
	var updated *domain.Identity
	err := g.db.Update(func(txn *badger.Txn) error {
		identity, err := getIdentity(txn, filter.Username)
		if errors.Is(err, errors.ErrIdentityNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if !filter.Matches(identity) {
			return nil
		}
		identity = patch.Apply(identity)
		if err := txn.Set(identityKey(identity.Username), marshalIdentity(identity)); err != nil {
			return err
		}
		updated = &identity
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update identity %q: %w", filter.Username, err)
	}
	return updated, nil
}

func (g *BadgerGateway) FindConversation(_ context.Context, participants domain.Pair) (domain.Conversation, error) {
	var conversation domain.Conversation
	err := g.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(pairKey(participants))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrConversationNotFound
		}
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		id, err := uuid.FromBytes(raw)
		if err != nil {
			return fmt.Errorf("pair index: %w", err)
		}
		conversation, err = getConversation(txn, id)
		return err
	})
	return conversation, err
}

func (g *BadgerGateway) FindConversationByID(_ context.Context, id uuid.UUID) (domain.Conversation, error) {
	var conversation domain.Conversation
	err := g.db.View(func(txn *badger.Txn) error {
		var err error
		conversation, err = getConversation(txn, id)
		return err
	})
	return conversation, err
}

// CreateConversation fails with ErrConversationAlreadyExists when the pair
// already has a conversation, including when a concurrent transaction
// created it first.
func (g *BadgerGateway) CreateConversation(_ context.Context, participants domain.Pair) (domain.Conversation, error) {
	conversation := domain.Conversation{
		ID:           uuid.New(),
		Participants: participants,
		CreatedAt:    g.now().UTC(),
	}
	err := g.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(pairKey(participants)); err == nil {
			return errors.ErrConversationAlreadyExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(conversationKey(conversation.ID), marshalConversation(conversation)); err != nil {
			return err
		}
		return txn.Set(pairKey(participants), conversation.ID[:])
	})
	if errors.Is(err, badger.ErrConflict) {
		return domain.Conversation{}, errors.ErrConversationAlreadyExists
	}
	if err != nil {
		return domain.Conversation{}, err
	}
	return conversation, nil
}

// CreateMessage assigns the next sequence number and stores the message
// under its conversation. A message becomes visible only after every
// message with a lower sequence number, so history cursors never skip one.
func (g *BadgerGateway) CreateMessage(_ context.Context, message domain.Message) (domain.Message, error) {
	g.writeMu.Lock()
	defer g.writeMu.Unlock()

	next, err := g.seq.Next()
	if err != nil {
		return domain.Message{}, fmt.Errorf("next message sequence: %w", err)
	}
	message.Seq = next + 1

	err = g.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(conversationKey(message.ConversationID)); errors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrConversationNotFound
		} else if err != nil {
			return err
		}
		return txn.Set(messageKey(message.ConversationID, message.Seq), marshalMessage(message))
	})
	if err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

// FindMessages returns the messages of a conversation in insertion order,
// starting after query.AfterSeq.
func (g *BadgerGateway) FindMessages(_ context.Context, query domain.HistoryQuery) ([]domain.Message, error) {
	messages := make([]domain.Message, 0)
	if query.AfterSeq == math.MaxUint64 {
		return messages, nil
	}
	err := g.db.View(func(txn *badger.Txn) error {
		prefix := messageConversationPrefix(query.ConversationID)
		it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: true, PrefetchSize: 100, Prefix: prefix})
		defer it.Close()

		for it.Seek(messageKey(query.ConversationID, query.AfterSeq+1)); it.ValidForPrefix(prefix); it.Next() {
			if query.Limit > 0 && len(messages) == query.Limit {
				g.log.Debug(fmt.Sprintf("Maximum of %d messages reached", query.Limit))
				break
			}
			err := it.Item().Value(func(val []byte) error {
				message, err := unmarshalMessage(val)
				if err != nil {
					return err
				}
				messages = append(messages, message)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (g *BadgerGateway) Close() error {
	if err := g.seq.Release(); err != nil {
		g.log.Warn("Unable to release message sequence", "error", err)
	}
	return g.db.Close()
}

func getIdentity(txn *badger.Txn, username string) (domain.Identity, error) {
	item, err := txn.Get(identityKey(username))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Identity{}, errors.ErrIdentityNotFound
	}
	if err != nil {
		return domain.Identity{}, err
	}
	var identity domain.Identity
	err = item.Value(func(val []byte) error {
		identity, err = unmarshalIdentity(val)
		return err
	})
	return identity, err
}

func getConversation(txn *badger.Txn, id uuid.UUID) (domain.Conversation, error) {
	item, err := txn.Get(conversationKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Conversation{}, errors.ErrConversationNotFound
	}
	if err != nil {
		return domain.Conversation{}, err
	}
	var conversation domain.Conversation
	err = item.Value(func(val []byte) error {
		conversation, err = unmarshalConversation(val)
		return err
	})
	return conversation, err
}
