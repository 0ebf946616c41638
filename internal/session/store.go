package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	apperrors "travel-orchestrator/internal/common/errors"
)

var ErrNotFound = errors.New("SESSION_NOT_FOUND")

// Store persists conversation contexts by session id. Get returns ErrNotFound
// for unknown or expired sessions.
type Store interface {
	Get(ctx context.Context, sessionID string) (*ConversationContext, error)
	Put(ctx context.Context, c *ConversationContext) error
}

// LoadOrCreate returns the stored context of sessionID or a fresh one.
func LoadOrCreate(ctx context.Context, store Store, sessionID string) (*ConversationContext, error) {
	c, err := store.Get(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return New(sessionID), nil
	}
	if err != nil {
		return nil, apperrors.NewSessionLoadFailedError(sessionID, err)
	}
	return c, nil
}

// Save stores c, mapping failures to a session error.
func Save(ctx context.Context, store Store, c *ConversationContext) error {
	if err := store.Put(ctx, c); err != nil {
		return apperrors.NewSessionSaveFailedError(c.SessionID(), err)
	}
	return nil
}

func decodeContext(data []byte) (*ConversationContext, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return FromState(s), nil
}

// MemoryStore keeps serialised contexts in process memory. Callers get a
// private copy on every Get.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, sessionID string) (*ConversationContext, error) {
	m.mu.RLock()
	raw, ok := m.data[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decodeContext(raw)
}

func (m *MemoryStore) Put(_ context.Context, c *ConversationContext) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[c.SessionID()] = raw
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
