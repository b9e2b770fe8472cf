package repository

import (
	"context"
	"fmt"
	"sync"
)

// LocalLocker is the in-process Locker used when Redis is disabled.
// Each key maps to a one-slot channel so Acquire can honor ctx.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]chan struct{})}
}

func (l *LocalLocker) Acquire(ctx context.Context, key string) (func(), error) {
	ch := l.lockFor(key)
	select {
	case ch <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-ch }) }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %s", ErrLockTimeout, key)
	}
}

func (l *LocalLocker) lockFor(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch, ok := l.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[key] = ch
	}
	return ch
}

// MemoryCursorStore keeps poller cursors in memory.
type MemoryCursorStore struct {
	mu      sync.RWMutex
	cursors map[string]string
}

func NewMemoryCursorStore() *MemoryCursorStore {
	return &MemoryCursorStore{cursors: make(map[string]string)}
}

func (s *MemoryCursorStore) GetCursor(_ context.Context, address string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursors[address], nil
}

func (s *MemoryCursorStore) SetCursor(_ context.Context, address, txHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursors[address] = txHash
	return nil
}
