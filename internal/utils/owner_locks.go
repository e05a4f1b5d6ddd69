// Package utils holds small helpers shared across modules.
package utils

import "sync"

// OwnerLocks serialises work on one owner's data. Trade mutation with its
// position recompute, imports and sync for the same owner never interleave;
// different owners proceed in parallel.
type OwnerLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewOwnerLocks creates an empty lock registry
func NewOwnerLocks() *OwnerLocks {
	return &OwnerLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock blocks until the owner's lock is held and returns the unlock func.
// The lock is not reentrant.
func (l *OwnerLocks) Lock(ownerID string) func() {
	l.mu.Lock()
	m, ok := l.locks[ownerID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[ownerID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
