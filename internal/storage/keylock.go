package storage

import "sync"

// KeyLock serializes work per order key. Every read-modify-write on an
// order (and its index entries) must run inside Lock/unlock for that key,
// otherwise overlapping scans can lose updates during merge escalation or
// key upgrade.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*keyLockEntry
}

type keyLockEntry struct {
	mu   sync.Mutex
	refs int
}

// NewKeyLock creates an empty lock map.
func NewKeyLock() *KeyLock {
	return &KeyLock{locks: make(map[string]*keyLockEntry)}
}

// Lock acquires the lock for key and returns the matching unlock function.
// Entries are reference-counted and removed when the last holder releases,
// so the map does not grow with the number of keys ever seen.
func (k *KeyLock) Lock(key string) (unlock func()) {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &keyLockEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// LockPair acquires both keys in a stable order to avoid deadlock when two
// operations touch the same pair of orders (merge escalation).
func (k *KeyLock) LockPair(a, b string) (unlock func()) {
	if a == b {
		return k.Lock(a)
	}
	first, second := a, b
	if second < first {
		first, second = second, first
	}
	unlockFirst := k.Lock(first)
	unlockSecond := k.Lock(second)
	return func() {
		unlockSecond()
		unlockFirst()
	}
}
