package dataset

import "sync"

// Loader is a Dataset whose root batch arrives later, typically when the
// first tile finishes loading.
type Loader struct {
	mu   sync.RWMutex
	root Batch
}

// Root implements Dataset. It returns nil until Load is called.
func (l *Loader) Root() Batch {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.root
}

// Load installs b as the root batch.
func (l *Loader) Load(b Batch) {
	l.mu.Lock()
	l.root = b
	l.mu.Unlock()
}
