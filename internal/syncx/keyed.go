// Package syncx provides a mutex keyed by string, so that unrelated keys
// never serialize each other.
package syncx

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// KeyedMutex hands out one exclusive lock per key. Entries are dropped once
// no goroutine holds or waits for them. The zero value is ready to use.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// Lock blocks until key is held exclusively and returns the release func.
// Callers should defer the returned func immediately.
func (k *KeyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.entries == nil {
		k.entries = make(map[string]*entry)
	}
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()

			k.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(k.entries, key)
			}
			k.mu.Unlock()
		})
	}
}

// Len reports how many keys are currently held or awaited.
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
