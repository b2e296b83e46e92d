package storage

import (
	"chat-relay/domain"
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"
)

// Badger values are protobuf wire messages. Field numbers are part of the
// on-disk format and must never be reused.
//
//	identity:     1 username, 2 connection_id, 3 online, 4 admin, 5 last_seen, 6 created_at
//	conversation: 1 id, 2 participant_a, 3 participant_b, 4 created_at
//	message:      1 id, 2 seq, 3 conversation_id, 4 sender, 5 receiver, 6 content, 7 created_at
//
// Times are unix nanoseconds. Zero values are not written.

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	return appendVarint(b, num, protowire.EncodeBool(v))
}

func appendTime(b []byte, num protowire.Number, t time.Time) []byte {
	if t.IsZero() {
		return b
	}
	return appendVarint(b, num, uint64(t.UnixNano()))
}

func decodeTime(v uint64) time.Time {
	return time.Unix(0, int64(v)).UTC()
}

// field is one decoded wire field. Exactly one of varint or bytes is meaningful.
type field struct {
	num    protowire.Number
	typ    protowire.Type
	varint uint64
	bytes  []byte
}

// walk calls fn for every varint and length-delimited field of b.
// Fields of other wire types are skipped.
func walk(b []byte, fn func(f field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.varint, n = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
			continue
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

func wrongType(record string, f field) error {
	return fmt.Errorf("%s field %d: unexpected wire type %d", record, f.num, f.typ)
}

func marshalIdentity(i domain.Identity) []byte {
	var b []byte
	b = appendString(b, 1, i.Username)
	b = appendString(b, 2, i.ConnectionID)
	b = appendBool(b, 3, i.Online)
	b = appendBool(b, 4, i.Admin)
	b = appendTime(b, 5, i.LastSeen)
	b = appendTime(b, 6, i.CreatedAt)
	return b
}

func unmarshalIdentity(b []byte) (domain.Identity, error) {
	var i domain.Identity
	err := walk(b, func(f field) error {
		switch {
		case f.num == 1 && f.typ == protowire.BytesType:
			i.Username = string(f.bytes)
		case f.num == 2 && f.typ == protowire.BytesType:
			i.ConnectionID = string(f.bytes)
		case f.num == 3 && f.typ == protowire.VarintType:
			i.Online = protowire.DecodeBool(f.varint)
		case f.num == 4 && f.typ == protowire.VarintType:
			i.Admin = protowire.DecodeBool(f.varint)
		case f.num == 5 && f.typ == protowire.VarintType:
			i.LastSeen = decodeTime(f.varint)
		case f.num == 6 && f.typ == protowire.VarintType:
			i.CreatedAt = decodeTime(f.varint)
		case f.num >= 1 && f.num <= 6:
			return wrongType("identity", f)
		}
		return nil
	})
	return i, err
}

func marshalConversation(c domain.Conversation) []byte {
	var b []byte
	b = appendBytes(b, 1, c.ID[:])
	b = appendString(b, 2, c.Participants[0])
	b = appendString(b, 3, c.Participants[1])
	b = appendTime(b, 4, c.CreatedAt)
	return b
}

func unmarshalConversation(b []byte) (domain.Conversation, error) {
	var c domain.Conversation
	err := walk(b, func(f field) error {
		switch {
		case f.num == 1 && f.typ == protowire.BytesType:
			id, err := uuid.FromBytes(f.bytes)
			if err != nil {
				return fmt.Errorf("conversation id: %w", err)
			}
			c.ID = id
		case f.num == 2 && f.typ == protowire.BytesType:
			c.Participants[0] = string(f.bytes)
		case f.num == 3 && f.typ == protowire.BytesType:
			c.Participants[1] = string(f.bytes)
		case f.num == 4 && f.typ == protowire.VarintType:
			c.CreatedAt = decodeTime(f.varint)
		case f.num >= 1 && f.num <= 4:
			return wrongType("conversation", f)
		}
		return nil
	})
	return c, err
}

func marshalMessage(m domain.Message) []byte {
	var b []byte
	b = appendBytes(b, 1, m.ID[:])
	b = appendVarint(b, 2, m.Seq)
	b = appendBytes(b, 3, m.ConversationID[:])
	b = appendString(b, 4, m.Sender)
	b = appendString(b, 5, m.Receiver)
	b = appendString(b, 6, m.Content)
	b = appendTime(b, 7, m.CreatedAt)
	return b
}

func unmarshalMessage(b []byte) (domain.Message, error) {
	var m domain.Message
	err := walk(b, func(f field) error {
		switch {
		case f.num == 1 && f.typ == protowire.BytesType:
			id, err := uuid.FromBytes(f.bytes)
			if err != nil {
				return fmt.Errorf("message id: %w", err)
			}
			m.ID = id
		case f.num == 2 && f.typ == protowire.VarintType:
			m.Seq = f.varint
		case f.num == 3 && f.typ == protowire.BytesType:
			id, err := uuid.FromBytes(f.bytes)
			if err != nil {
				return fmt.Errorf("message conversation id: %w", err)
			}
			m.ConversationID = id
		case f.num == 4 && f.typ == protowire.BytesType:
			m.Sender = string(f.bytes)
		case f.num == 5 && f.typ == protowire.BytesType:
			m.Receiver = string(f.bytes)
		case f.num == 6 && f.typ == protowire.BytesType:
			m.Content = string(f.bytes)
		case f.num == 7 && f.typ == protowire.VarintType:
			m.CreatedAt = decodeTime(f.varint)
		case f.num >= 1 && f.num <= 7:
			return wrongType("message", f)
		}
		return nil
	})
	return m, err
}
