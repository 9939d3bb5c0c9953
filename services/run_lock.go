// services/run_lock.go
package services

import "sync"

// runLock is an advisory per-product lock held for the duration of a run.
type runLock struct {
	mu     sync.Mutex
	active map[int64]struct{}
}

func newRunLock() *runLock {
	return &runLock{active: make(map[int64]struct{})}
}

// TryAcquire returns a release func, or false when the product already has a run in progress.
func (l *runLock) TryAcquire(productID int64) (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.active[productID]; busy {
		return nil, false
	}
	l.active[productID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.active, productID)
			l.mu.Unlock()
		})
	}, true
}
