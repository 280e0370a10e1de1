package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/ventas-api/internal/application/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore claves de idempotencia en memoria (tests y despliegues sin Redis).
type IdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]idemEntry
	locked  map[string]bool
	now     func() time.Time
}

type idemEntry struct {
	resp      ports.StoredResponse
	expiresAt time.Time
}

// NewIdempotencyStore crea el almacén vacío.
func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{entries: map[string]idemEntry{}, locked: map[string]bool{}, now: time.Now}
}

// Get devuelve la respuesta vigente o nil.
func (s *IdempotencyStore) Get(_ context.Context, key string) (*ports.StoredResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || s.now().After(e.expiresAt) {
		delete(s.entries, key)
		return nil, nil
	}
	resp := e.resp
	return &resp, nil
}

// Save guarda la respuesta.
func (s *IdempotencyStore) Save(_ context.Context, key string, resp ports.StoredResponse, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = idemEntry{resp: resp, expiresAt: s.now().Add(ttl)}
	return nil
}

// Lock marca la clave como en curso.
func (s *IdempotencyStore) Lock(_ context.Context, key string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked[key] {
		return nil, ports.ErrRequestInFlight
	}
	s.locked[key] = true
	return func() {
		s.mu.Lock()
		delete(s.locked, key)
		s.mu.Unlock()
	}, nil
}
