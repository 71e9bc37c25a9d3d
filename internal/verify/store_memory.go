package verify

import (
	"context"
	"sync"
	"time"

	"hemolink/pkg/domain"
)

type memoryCode struct {
	code      string
	expiresAt time.Time
}

// MemoryCodeStore is the single-instance fallback when Redis is not
// configured. Expiry is checked on read; there is no background sweeper.
type MemoryCodeStore struct {
	mu    sync.Mutex
	codes map[domain.UserID]memoryCode
}

func NewMemoryCodeStore() *MemoryCodeStore {
	return &MemoryCodeStore{codes: make(map[domain.UserID]memoryCode)}
}

func (s *MemoryCodeStore) Put(_ context.Context, userID domain.UserID, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[userID] = memoryCode{code: code, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *MemoryCodeStore) Take(_ context.Context, userID domain.UserID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.codes[userID]
	if !ok {
		return "", nil
	}
	delete(s.codes, userID)
	if time.Now().After(entry.expiresAt) {
		return "", nil
	}
	return entry.code, nil
}
