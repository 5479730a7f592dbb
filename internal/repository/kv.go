package repository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
)

// ErrKeyNotFound is returned by Get for a missing key
var ErrKeyNotFound = errors.New("key not found")

// ReadWriter is the set of key-value operations available inside and outside a transaction
type ReadWriter interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Scan returns the values of keys under prefix accepted by match, in key order
	Scan(ctx context.Context, prefix string, match func(key string, value []byte) bool) ([][]byte, error)
}

// KV is a key-value storage engine with atomic multi-key updates
type KV interface {
	ReadWriter
	// Update runs fn against a staged transaction. Writes become visible together
	// when fn returns nil and are dropped otherwise.
	Update(ctx context.Context, fn func(tx ReadWriter) error) error
}

// MemoryKV is an in-memory KV. Update holds the write lock for the whole
// transaction, so transactions are serialized; fn must only use tx.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryKV creates an empty in-memory store
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

// Get returns a copy of the stored value
func (m *MemoryKV) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.get(key)
}

// Put stores a copy of value
func (m *MemoryKV) Put(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = clone(value)
	return nil
}

// Delete removes key; deleting a missing key is not an error
func (m *MemoryKV) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Scan returns matching values under prefix
func (m *MemoryKV) Scan(ctx context.Context, prefix string, match func(key string, value []byte) bool) ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return scan(m.data, nil, prefix, match), nil
}

// Update runs fn in a transaction
func (m *MemoryKV) Update(ctx context.Context, fn func(tx ReadWriter) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryTx{parent: m, writes: make(map[string][]byte)}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for k, v := range tx.writes {
		if v == nil {
			delete(m.data, k)
			continue
		}
		m.data[k] = v
	}
	return nil
}

func (m *MemoryKV) get(key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return clone(v), nil
}

// memoryTx stages writes; a nil value marks a deletion
type memoryTx struct {
	parent *MemoryKV
	writes map[string][]byte
}

func (tx *memoryTx) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := tx.writes[key]; ok {
		if v == nil {
			return nil, ErrKeyNotFound
		}
		return clone(v), nil
	}
	return tx.parent.get(key)
}

func (tx *memoryTx) Put(ctx context.Context, key string, value []byte) error {
	v := clone(value)
	if v == nil {
		v = []byte{}
	}
	tx.writes[key] = v
	return nil
}

func (tx *memoryTx) Delete(ctx context.Context, key string) error {
	tx.writes[key] = nil
	return nil
}

func (tx *memoryTx) Scan(ctx context.Context, prefix string, match func(key string, value []byte) bool) ([][]byte, error) {
	return scan(tx.parent.data, tx.writes, prefix, match), nil
}

func scan(base, overlay map[string][]byte, prefix string, match func(key string, value []byte) bool) [][]byte {
	merged := make(map[string][]byte)
	for k, v := range base {
		if strings.HasPrefix(k, prefix) {
			merged[k] = v
		}
	}
	for k, v := range overlay {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out [][]byte
	for _, k := range keys {
		v := merged[k]
		if match == nil || match(k, v) {
			out = append(out, clone(v))
		}
	}
	return out
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
