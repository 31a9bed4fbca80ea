package storage

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/dmitrijs2005/taskhub/internal/common"
)

// MemoryStore keeps objects in process memory. Used when no bucket is
// configured and in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (m *MemoryStore) Put(_ context.Context, key, _ string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), body...)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *MemoryStore) PresignGet(_ context.Context, key, filename string, ttl time.Duration) (string, error) {
	m.mu.RLock()
	_, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("object %s: %w", key, common.ErrorNotFound)
	}
	q := url.Values{"filename": {filename}, "expires": {ttl.String()}}
	return "memory:///" + key + "?" + q.Encode(), nil
}

// Get returns a copy of the stored object.
func (m *MemoryStore) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.objects[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), b...), true
}
