// Package memory is a process-local session record store. Nothing survives a
// restart; it backs tests and SESSION_STORE=memory.
package memory

import (
	"context"
	"sync"

	"github.com/aussiebroadwan/console/internal/console/domain"
	"github.com/aussiebroadwan/console/internal/console/store"
)

type Store struct {
	mu      sync.RWMutex
	records map[string]domain.SessionRecord
}

func NewStore() *Store {
	return &Store{records: make(map[string]domain.SessionRecord)}
}

func (s *Store) SessionRecords() store.SessionRecords { return s }

func (s *Store) ApplyMigrations() error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) GetSessionRecord(_ context.Context, name string) (domain.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[name]
	if !ok {
		return domain.SessionRecord{}, store.ErrNotFound
	}

	rec.Payload = append([]byte(nil), rec.Payload...)
	return rec, nil
}

func (s *Store) PutSessionRecord(_ context.Context, rec domain.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.Payload = append([]byte(nil), rec.Payload...)
	s.records[rec.Name] = rec
	return nil
}

func (s *Store) DeleteSessionRecord(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, name)
	return nil
}
