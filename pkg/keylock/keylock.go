// Package keylock serializes mutations per logical key (one balance, one
// batch) so concurrent callers cannot race into lost updates.
package keylock

import "sync"

// KeyLock hands out one mutex per string key.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates an empty KeyLock.
func New() *KeyLock {
	return &KeyLock{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key, creating it on first use.
func (k *KeyLock) Lock(key string) {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()
	m.Lock()
}

// Unlock releases the mutex for key. Unlocking a never-locked key panics,
// same as sync.Mutex.
func (k *KeyLock) Unlock(key string) {
	k.mu.Lock()
	m, ok := k.locks[key]
	k.mu.Unlock()
	if !ok {
		panic("keylock: unlock of unknown key " + key)
	}
	m.Unlock()
}
