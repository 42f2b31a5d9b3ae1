package cache

// lruNode is a node of the recency list. It stores its key so the oldest
// entry can be deleted from the map.
type lruNode[K comparable, V any] struct {
	key  K
	prev *lruNode[K, V]
	next *lruNode[K, V]
}

// lruList orders keys from most (head) to least (tail) recently used.
// The zero value is an empty list. It is not safe for concurrent use.
type lruList[K comparable, V any] struct {
	head *lruNode[K, V]
	tail *lruNode[K, V]
	len  int
}

// Len returns the number of nodes.
func (l *lruList[K, V]) Len() int { return l.len }

// PushFront inserts key as the most recently used node.
func (l *lruList[K, V]) PushFront(key K) *lruNode[K, V] {
	n := &lruNode[K, V]{key: key}
	l.linkFront(n)
	return n
}

// MoveToFront marks n most recently used.
func (l *lruList[K, V]) MoveToFront(n *lruNode[K, V]) {
	if n == nil || n == l.head {
		return
	}
	l.unlink(n)
	l.linkFront(n)
}

// Remove unlinks n.
func (l *lruList[K, V]) Remove(n *lruNode[K, V]) {
	if n != nil {
		l.unlink(n)
	}
}

// RemoveOldest unlinks the tail and returns its key.
func (l *lruList[K, V]) RemoveOldest() (K, bool) {
	if l.tail == nil {
		var zero K
		return zero, false
	}
	n := l.tail
	l.unlink(n)
	return n.key, true
}

// Clear empties the list.
func (l *lruList[K, V]) Clear() {
	*l = lruList[K, V]{}
}

func (l *lruList[K, V]) linkFront(n *lruNode[K, V]) {
	n.prev = nil
	n.next = l.head
	if l.head != nil {
		l.head.prev = n
	}
	l.head = n
	if l.tail == nil {
		l.tail = n
	}
	l.len++
}

func (l *lruList[K, V]) unlink(n *lruNode[K, V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev, n.next = nil, nil
	l.len--
}
