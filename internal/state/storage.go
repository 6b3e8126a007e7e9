// Package state keeps per-user conversation state between chat updates.
package state

import (
	"context"
	"sync"
	"time"
)

// Storage defines the persistence contract for conversation state.
type Storage interface {
	// Get returns the conversation of the user or ErrStateNotFound.
	Get(ctx context.Context, userID int64) (*Conversation, error)
	// Set saves the conversation, stamping UpdatedAt.
	Set(ctx context.Context, conv *Conversation) error
	// Clear removes the conversation of the user. Clearing a missing one is not an error.
	Clear(ctx context.Context, userID int64) error
	// All returns every stored conversation.
	All(ctx context.Context) ([]*Conversation, error)
}

// MemoryStorage keeps conversations in process memory.
type MemoryStorage struct {
	mu    sync.RWMutex
	items map[int64]Conversation
	now   func() time.Time
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		items: make(map[int64]Conversation),
		now:   time.Now,
	}
}

func (s *MemoryStorage) Get(_ context.Context, userID int64) (*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.items[userID]
	if !ok {
		return nil, ErrStateNotFound
	}
	return clone(conv), nil
}

func (s *MemoryStorage) Set(_ context.Context, conv *Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *clone(*conv)
	stored.UpdatedAt = s.now().UTC()
	conv.UpdatedAt = stored.UpdatedAt
	s.items[conv.UserID] = stored
	return nil
}

func (s *MemoryStorage) Clear(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, userID)
	return nil
}

func (s *MemoryStorage) All(_ context.Context) ([]*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Conversation, 0, len(s.items))
	for _, conv := range s.items {
		result = append(result, clone(conv))
	}
	return result, nil
}

// clone deep-copies the drafts so callers cannot mutate stored state.
func clone(conv Conversation) *Conversation {
	if conv.Entry != nil {
		entry := *conv.Entry
		entry.Candidates = append([]string(nil), entry.Candidates...)
		conv.Entry = &entry
	}
	if conv.Deletion != nil {
		deletion := DeletionDraft{Selected: append([]int64(nil), conv.Deletion.Selected...)}
		conv.Deletion = &deletion
	}
	return &conv
}
