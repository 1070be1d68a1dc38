package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/apperr"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore is the single-instance fallback used when Redis is not configured.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &MemoryStore{ttl: ttl, entries: map[string]memoryEntry{}, now: time.Now}
}

func (s *MemoryStore) Save(_ context.Context, id string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweep(now)
	s.entries[id] = memoryEntry{data: b, expiresAt: now.Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Load(_ context.Context, id string, v any) error {
	s.mu.Lock()
	e, ok := s.entries[id]
	if ok && !s.now().Before(e.expiresAt) {
		delete(s.entries, id)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return apperr.NotFound("sessions.Load", "session")
	}
	if err := json.Unmarshal(e.data, v); err != nil {
		return fmt.Errorf("decode session: %w", err)
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) sweep(now time.Time) {
	for id, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, id)
		}
	}
}
