package kv

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used in tests and single-isolate
// development runs. It is not a substitute for the externalized backend in
// production: per the concurrency model, in-process state is not shared
// across isolates, so atomicity guarantees here hold only within one
// process.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]memEntry
}

type memEntry struct {
	value   []byte
	expires time.Time // zero means no expiry
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]memEntry)}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	if m.expired(e) {
		delete(m.data, key)
		return nil, false, nil
	}
	cp := make([]byte, len(e.value))
	copy(cp, e.value)
	return cp, true, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]byte, len(value))
	copy(cp, value)
	m.data[key] = memEntry{value: cp, expires: expiryFor(ttl)}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

func (m *MemoryStore) Incr(_ context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.data[key]
	if ok && m.expired(e) {
		ok = false
	}

	var cur int64
	if ok {
		cur = decodeInt64(e.value)
	}
	cur += delta

	expires := e.expires
	if !ok {
		expires = expiryFor(ttl)
	}
	m.data[key] = memEntry{value: encodeInt64(cur), expires: expires}
	return cur, nil
}

func (m *MemoryStore) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.data[key]; ok && !m.expired(e) {
		return false, nil
	}

	cp := make([]byte, len(value))
	copy(cp, value)
	m.data[key] = memEntry{value: cp, expires: expiryFor(ttl)}
	return true, nil
}

// Keys returns all non-expired keys with the given prefix, satisfying
// session.Scanner.
func (m *MemoryStore) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var keys []string
	for k, e := range m.data {
		if m.expired(e) {
			continue
		}
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (m *MemoryStore) expired(e memEntry) bool {
	return !e.expires.IsZero() && time.Now().After(e.expires)
}

func expiryFor(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}

func encodeInt64(v int64) []byte {
	return []byte(strconv.FormatInt(v, 10))
}

func decodeInt64(b []byte) int64 {
	v, _ := strconv.ParseInt(string(b), 10, 64)
	return v
}
