package kv

import (
	"context"
	"sync"
)

// Memory is a non-durable Store used for tests and ephemeral runs.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// Begin starts a transaction.
func (m *Memory) Begin(ctx context.Context) (Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &memoryTx{m: m, ov: newOverlay()}, nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

type memoryTx struct {
	m  *Memory
	ov overlay
}

func (t *memoryTx) Get(key string) ([]byte, bool, error) {
	if t.ov.done {
		return nil, false, ErrTxDone
	}
	if v, ok := t.ov.get(key); ok {
		return v, true, nil
	}
	t.m.mu.RLock()
	defer t.m.mu.RUnlock()
	v, ok := t.m.data[key]
	if !ok {
		return nil, false, nil
	}
	return clone(v), true, nil
}

func (t *memoryTx) Set(key string, value []byte) error {
	if t.ov.done {
		return ErrTxDone
	}
	t.ov.set(key, value)
	return nil
}

func (t *memoryTx) Has(key string) (bool, error) {
	_, ok, err := t.Get(key)
	return ok, err
}

func (t *memoryTx) Commit() error {
	if t.ov.done {
		return ErrTxDone
	}
	t.ov.done = true
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	t.ov.each(func(k string, v []byte) {
		t.m.data[k] = v
	})
	return nil
}

func (t *memoryTx) Rollback() error {
	t.ov.done = true
	return nil
}
