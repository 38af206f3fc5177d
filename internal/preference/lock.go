package preference

import "sync"

// keyedMutex serializes work per group id. Concurrent member-join and
// message-analysis events race on the same GroupProfile; one recompute per
// group may be in flight at a time.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedMutex) Lock(key string) {
	k.mu.Lock()
	lock, ok := k.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		k.locks[key] = lock
	}
	k.mu.Unlock()

	lock.Lock()
}

func (k *keyedMutex) Unlock(key string) {
	k.mu.Lock()
	lock := k.locks[key]
	k.mu.Unlock()

	lock.Unlock()
}
