// Package cache provides [oracle.Cache] implementations: a bounded in-memory
// LRU with expiry and a persistent Badger-backed store.
package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/MrWong99/soundalike/internal/oracle"
)

// DefaultSize is the entry limit used when a non-positive size is given.
const DefaultSize = 4096

// Memory is an in-process oracle cache bounded by entry count. Entries
// expire after the configured TTL. It is safe for concurrent use.
type Memory struct {
	lru *expirable.LRU[string, []byte]
}

// NewMemory returns a Memory cache holding at most size entries for at most
// ttl each. A zero ttl disables expiry.
func NewMemory(size int, ttl time.Duration) *Memory {
	if size <= 0 {
		size = DefaultSize
	}
	return &Memory{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

// Get implements oracle.Cache.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.lru.Get(key)
	return v, ok, nil
}

// Set implements oracle.Cache. The value is copied.
func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.lru.Add(key, append([]byte(nil), value...))
	return nil
}

// Len reports the number of live entries.
func (m *Memory) Len() int { return m.lru.Len() }

var _ oracle.Cache = (*Memory)(nil)
