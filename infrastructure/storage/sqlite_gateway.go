package storage

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/repositories"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

var _ repositories.Gateway = (*SQLiteGateway)(nil)

// SQLiteGateway stores identities, conversations and messages in a single
// sqlite file. The AUTOINCREMENT rowid of a message is its Seq.
type SQLiteGateway struct {
	conn *sql.DB
	log  *slog.Logger
	now  func() time.Time
}

func NewSQLiteGateway(path string, log *slog.Logger) (*SQLiteGateway, error) {
	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=1&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	// One writer at a time keeps sqlite away from SQLITE_BUSY.
	conn.SetMaxOpenConns(1)

	g := &SQLiteGateway{conn: conn, log: log.With("component", "sqlite_gateway"), now: time.Now}
	if err := g.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return g, nil
}

func (g *SQLiteGateway) init() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS identities (
			username TEXT PRIMARY KEY,
			connection_id TEXT NOT NULL DEFAULT '',
			online INTEGER NOT NULL DEFAULT 0,
			admin INTEGER NOT NULL DEFAULT 0,
			last_seen TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			participant_a TEXT NOT NULL,
			participant_b TEXT NOT NULL,
			created_at TEXT NOT NULL,
			UNIQUE(participant_a, participant_b)
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT UNIQUE NOT NULL,
			conversation_id TEXT NOT NULL REFERENCES conversations(id),
			sender TEXT NOT NULL,
			receiver TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, seq)`,
	}
	for _, query := range queries {
		if _, err := g.conn.Exec(query); err != nil {
			return fmt.Errorf("sqlite schema: %w", err)
		}
	}
	return nil
}

func (g *SQLiteGateway) FindIdentity(ctx context.Context, username string) (domain.Identity, error) {
	return scanIdentity(g.conn.QueryRowContext(ctx, selectIdentity, username))
}

func (g *SQLiteGateway) CreateIdentity(ctx context.Context, username string) (domain.Identity, error) {
	identity := domain.Identity{Username: username, CreatedAt: g.now().UTC()}
	_, err := g.conn.ExecContext(ctx,
		`INSERT INTO identities (username, created_at) VALUES (?, ?)`,
		identity.Username, formatTime(identity.CreatedAt))
	if isUniqueViolation(err) {
		return domain.Identity{}, errors.ErrIdentityAlreadyExists
	}
	if err != nil {
		return domain.Identity{}, err
	}
	return identity, nil
}

func (g *SQLiteGateway) UpdateIdentity(ctx context.Context, filter repositories.IdentityFilter, patch repositories.IdentityPatch) (*domain.Identity, error) {
	tx, err := g.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	identity, err := scanIdentity(tx.QueryRowContext(ctx, selectIdentity, filter.Username))
	if errors.Is(err, errors.ErrIdentityNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !filter.Matches(identity) {
		return nil, nil
	}

	identity = patch.Apply(identity)
	_, err = tx.ExecContext(ctx,
		`UPDATE identities SET connection_id = ?, online = ?, admin = ?, last_seen = ? WHERE username = ?`,
		identity.ConnectionID, identity.Online, identity.Admin, formatTime(identity.LastSeen), identity.Username)
	if err != nil {
		return nil, fmt.Errorf("update identity %q: %w", filter.Username, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &identity, nil
}

func (g *SQLiteGateway) FindConversation(ctx context.Context, participants domain.Pair) (domain.Conversation, error) {
	return scanConversation(g.conn.QueryRowContext(ctx,
		selectConversation+` WHERE participant_a = ? AND participant_b = ?`,
		participants[0], participants[1]))
}

func (g *SQLiteGateway) FindConversationByID(ctx context.Context, id uuid.UUID) (domain.Conversation, error) {
	return scanConversation(g.conn.QueryRowContext(ctx, selectConversation+` WHERE id = ?`, id.String()))
}

func (g *SQLiteGateway) CreateConversation(ctx context.Context, participants domain.Pair) (domain.Conversation, error) {
	conversation := domain.Conversation{
		ID:           uuid.New(),
		Participants: participants,
		CreatedAt:    g.now().UTC(),
	}
	_, err := g.conn.ExecContext(ctx,
		`INSERT INTO conversations (id, participant_a, participant_b, created_at) VALUES (?, ?, ?, ?)`,
		conversation.ID.String(), participants[0], participants[1], formatTime(conversation.CreatedAt))
	if isUniqueViolation(err) {
		return domain.Conversation{}, errors.ErrConversationAlreadyExists
	}
	if err != nil {
		return domain.Conversation{}, err
	}
	return conversation, nil
}

func (g *SQLiteGateway) CreateMessage(ctx context.Context, message domain.Message) (domain.Message, error) {
	res, err := g.conn.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, sender, receiver, content, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		message.ID.String(), message.ConversationID.String(), message.Sender, message.Receiver,
		message.Content, formatTime(message.CreatedAt))
	if isForeignKeyViolation(err) {
		return domain.Message{}, errors.ErrConversationNotFound
	}
	if err != nil {
		return domain.Message{}, err
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return domain.Message{}, err
	}
	message.Seq = uint64(seq)
	return message, nil
}

func (g *SQLiteGateway) FindMessages(ctx context.Context, query domain.HistoryQuery) ([]domain.Message, error) {
	if query.AfterSeq > math.MaxInt64 {
		return make([]domain.Message, 0), nil
	}
	limit := query.Limit
	if limit <= 0 {
		limit = -1
	}
	rows, err := g.conn.QueryContext(ctx,
		`SELECT seq, id, conversation_id, sender, receiver, content, created_at
		FROM messages WHERE conversation_id = ? AND seq > ? ORDER BY seq LIMIT ?`,
		query.ConversationID.String(), query.AfterSeq, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]domain.Message, 0)
	for rows.Next() {
		var (
			m                      domain.Message
			seq                    int64
			id, conversationID, at string
		)
		if err := rows.Scan(&seq, &id, &conversationID, &m.Sender, &m.Receiver, &m.Content, &at); err != nil {
			return nil, err
		}
		if m.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		if m.ConversationID, err = uuid.Parse(conversationID); err != nil {
			return nil, err
		}
		if m.CreatedAt, err = parseTime(at); err != nil {
			return nil, err
		}
		m.Seq = uint64(seq)
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (g *SQLiteGateway) Close() error {
	return g.conn.Close()
}

const (
	selectIdentity = `SELECT username, connection_id, online, admin, last_seen, created_at
		FROM identities WHERE username = ?`
	selectConversation = `SELECT id, participant_a, participant_b, created_at FROM conversations`
)

func scanIdentity(row *sql.Row) (domain.Identity, error) {
	var (
		identity            domain.Identity
		lastSeen, createdAt string
	)
	err := row.Scan(&identity.Username, &identity.ConnectionID, &identity.Online, &identity.Admin, &lastSeen, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Identity{}, errors.ErrIdentityNotFound
	}
	if err != nil {
		return domain.Identity{}, err
	}
	if identity.LastSeen, err = parseTime(lastSeen); err != nil {
		return domain.Identity{}, err
	}
	if identity.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.Identity{}, err
	}
	return identity, nil
}

func scanConversation(row *sql.Row) (domain.Conversation, error) {
	var (
		conversation  domain.Conversation
		id, createdAt string
	)
	err := row.Scan(&id, &conversation.Participants[0], &conversation.Participants[1], &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Conversation{}, errors.ErrConversationNotFound
	}
	if err != nil {
		return domain.Conversation{}, err
	}
	if conversation.ID, err = uuid.Parse(id); err != nil {
		return domain.Conversation{}, err
	}
	if conversation.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.Conversation{}, err
	}
	return conversation, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

func isForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}
