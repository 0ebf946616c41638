package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

const DefaultTable = "conversation_contexts"

// PostgresStore keeps contexts in a JSONB column, one row per session.
type PostgresStore struct {
	db    *sql.DB
	table string
	ttl   time.Duration
	now   func() time.Time
}

func NewPostgresStore(db *sql.DB, table string, ttl time.Duration) *PostgresStore {
	if table == "" {
		table = DefaultTable
	}
	return &PostgresStore{db: db, table: pq.QuoteIdentifier(table), ttl: ttl, now: time.Now}
}

// EnsureSchema creates the table when it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		session_id TEXT PRIMARY KEY,
		state JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, s.table)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", s.table, err)
	}
	return nil
}

// Get ignores rows older than the store's ttl.
func (s *PostgresStore) Get(ctx context.Context, sessionID string) (*ConversationContext, error) {
	query := fmt.Sprintf(`SELECT state, updated_at FROM %s WHERE session_id = $1`, s.table)

	var (
		raw       []byte
		updatedAt time.Time
	)
	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(&raw, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}
	if s.ttl > 0 && s.now().Sub(updatedAt) > s.ttl {
		return nil, ErrNotFound
	}
	c, err := decodeContext(raw)
	if err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return c, nil
}

func (s *PostgresStore) Put(ctx context.Context, c *ConversationContext) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	query := fmt.Sprintf(`INSERT INTO %s (session_id, state, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (session_id) DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`, s.table)
	if _, err := s.db.ExecContext(ctx, query, c.SessionID(), raw, s.now().UTC()); err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// Purge deletes sessions not updated within the ttl and returns how many.
func (s *PostgresStore) Purge(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE updated_at < $1`, s.table)
	res, err := s.db.ExecContext(ctx, query, s.now().Add(-s.ttl).UTC())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return res.RowsAffected()
}
