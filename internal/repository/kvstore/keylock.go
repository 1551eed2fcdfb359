// Package kvstore implements the order-status repositories as JSON blobs
// stored under single keys of a repository.KeyValueStore.
package kvstore

import "sync"

// KeyLocks serialises read-modify-write cycles per storage key inside one
// process. Writers in other processes sharing the backend are not covered.
type KeyLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyLocks returns an empty lock table.
func NewKeyLocks() *KeyLocks {
	return &KeyLocks{locks: make(map[string]*sync.Mutex)}
}

// sharedLocks is used when a repository is built without an explicit table,
// so independent repositories over the same key still exclude each other.
var sharedLocks = NewKeyLocks()

// Lock acquires the mutex for key and returns its release func.
func (k *KeyLocks) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func locksOrShared(l *KeyLocks) *KeyLocks {
	if l == nil {
		return sharedLocks
	}
	return l
}
