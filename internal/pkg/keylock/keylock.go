// Package keylock provides per-key mutual exclusion so writes for one
// shipment serialize while different shipments proceed in parallel.
package keylock

import "sync"

// KeyLock hands out one mutex per key. Locks are never evicted; the key
// space here is bounded by the fleet size.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

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

// Unlock releases the mutex for key. Panics if the key was never locked.
func (k *KeyLock) Unlock(key string) {
	k.mu.Lock()
	m := k.locks[key]
	k.mu.Unlock()
	if m == nil {
		panic("keylock: unlock of unknown key " + key)
	}
	m.Unlock()
}
