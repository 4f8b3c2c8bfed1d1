package cache

// lruNode holds one entry and its place in the recency ring.
type lruNode[K comparable, V any] struct {
	key   K
	value V
	newer *lruNode[K, V]
	older *lruNode[K, V]
}

// lruList is a circular list around a sentinel. sentinel.older is the
// most recently used entry and sentinel.newer the least. The zero value
// is ready to use. Cache holds its mutex around every call.
type lruList[K comparable, V any] struct {
	sentinel lruNode[K, V]
	len      int
}

func (l *lruList[K, V]) lazyInit() {
	if l.sentinel.older == nil {
		l.sentinel.older = &l.sentinel
		l.sentinel.newer = &l.sentinel
	}
}

// touch links node as the most recent entry, unlinking it first if it is
// already in the list.
func (l *lruList[K, V]) touch(node *lruNode[K, V]) {
	l.lazyInit()
	if node.older != nil {
		if l.sentinel.older == node {
			return
		}
		l.unlink(node)
	}
	front := l.sentinel.older
	node.newer = &l.sentinel
	node.older = front
	front.newer = node
	l.sentinel.older = node
	l.len++
}

// oldest unlinks and returns the least recently used node, or nil.
func (l *lruList[K, V]) oldest() *lruNode[K, V] {
	if l.len == 0 {
		return nil
	}
	node := l.sentinel.newer
	l.unlink(node)
	return node
}

func (l *lruList[K, V]) unlink(node *lruNode[K, V]) {
	node.newer.older = node.older
	node.older.newer = node.newer
	node.newer, node.older = nil, nil
	l.len--
}
