package credstore

import (
	"sync"

	"github.com/ugel-satipo/portal/internal/cli/api"
)

// MemoryStore lives only as long as the process. It backs one-shot sessions
// (credential_store: memory) and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	data []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(token string, user *api.User) error {
	data, err := encode(token, user)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Load() Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return Credentials{}
	}
	return decode(s.data)
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	s.data = nil
	s.mu.Unlock()
	return nil
}

