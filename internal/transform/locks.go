package transform

import (
	"path/filepath"
	"sync"
)

// pathLocks serializes writes per output path. A write is a critical
// section: acquire the target's lock, write, release. Contention is
// reported to the caller as a retryable conflict instead of queueing,
// so a stuck writer cannot stall later requests invisibly.
type pathLocks struct {
	mu   sync.Mutex
	held map[string]bool
}

func newPathLocks() *pathLocks {
	return &pathLocks{held: make(map[string]bool)}
}

// acquire claims the path, reporting false when another write holds it.
func (l *pathLocks) acquire(path string) bool {
	key := normalizePath(path)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return false
	}
	l.held[key] = true
	return true
}

func (l *pathLocks) release(path string) {
	key := normalizePath(path)
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
}

func normalizePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
