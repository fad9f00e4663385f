package intake

import "sync"

// keyedMutex serializes work per key while leaving different keys fully
// parallel. Mutexes are created on first use and never evicted, so the map
// grows with every distinct sender seen over the process lifetime; at a few
// dozen bytes per sender that outlives any plausible deployment window.
type keyedMutex struct {
	mus sync.Map
}

// Lock acquires the mutex for key and returns its unlock func.
func (k *keyedMutex) Lock(key string) func() {
	v, _ := k.mus.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
