// Package immutable provides persistent data structures for registry snapshots.
//
// A Map never changes once built. Add and Remove copy only the path from the root to
// the touched node, so an update costs O(log n) time and allocations and every older
// version stays valid and safe to read from any goroutine.
package immutable

import "cmp"

// Map is a persistent AVL tree map ordered by key. The zero value is an empty map.
type Map[K cmp.Ordered, V any] struct {
	root *node[K, V]
}

type node[K cmp.Ordered, V any] struct {
	key    K
	value  V
	left   *node[K, V]
	right  *node[K, V]
	height int
	size   int
}

// Len returns the number of entries.
func (m Map[K, V]) Len() int {
	return m.root.len()
}

// IsEmpty reports whether the map has no entries.
func (m Map[K, V]) IsEmpty() bool {
	return m.root == nil
}

// Get returns the value stored under key.
func (m Map[K, V]) Get(key K) (V, bool) {
	n := m.root
	for n != nil {
		switch c := cmp.Compare(key, n.key); {
		case c < 0:
			n = n.left
		case c > 0:
			n = n.right
		default:
			return n.value, true
		}
	}
	var zero V
	return zero, false
}

// Contains reports whether key is present.
func (m Map[K, V]) Contains(key K) bool {
	_, ok := m.Get(key)
	return ok
}

// Add returns a map with key bound to value, replacing any previous binding.
func (m Map[K, V]) Add(key K, value V) Map[K, V] {
	return Map[K, V]{root: m.root.insert(key, value)}
}

// Remove returns a map without key. The receiver is returned as is when key is absent.
func (m Map[K, V]) Remove(key K) Map[K, V] {
	root, removed := m.root.remove(key)
	if !removed {
		return m
	}
	return Map[K, V]{root: root}
}

// Range calls fn for every entry in ascending key order until fn returns false.
func (m Map[K, V]) Range(fn func(key K, value V) bool) {
	m.root.walk(fn)
}

// Keys returns the keys in ascending order.
func (m Map[K, V]) Keys() []K {
	keys := make([]K, 0, m.Len())
	m.Range(func(key K, _ V) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// Values returns the values in ascending key order.
func (m Map[K, V]) Values() []V {
	values := make([]V, 0, m.Len())
	m.Range(func(_ K, value V) bool {
		values = append(values, value)
		return true
	})
	return values
}

func (n *node[K, V]) len() int {
	if n == nil {
		return 0
	}
	return n.size
}

func (n *node[K, V]) depth() int {
	if n == nil {
		return 0
	}
	return n.height
}

func (n *node[K, V]) walk(fn func(K, V) bool) bool {
	if n == nil {
		return true
	}
	return n.left.walk(fn) && fn(n.key, n.value) && n.right.walk(fn)
}

func (n *node[K, V]) insert(key K, value V) *node[K, V] {
	if n == nil {
		return newNode(key, value, nil, nil)
	}
	switch c := cmp.Compare(key, n.key); {
	case c < 0:
		return rebalance(n.key, n.value, n.left.insert(key, value), n.right)
	case c > 0:
		return rebalance(n.key, n.value, n.left, n.right.insert(key, value))
	default:
		return newNode(key, value, n.left, n.right)
	}
}

func (n *node[K, V]) remove(key K) (*node[K, V], bool) {
	if n == nil {
		return nil, false
	}
	switch c := cmp.Compare(key, n.key); {
	case c < 0:
		left, ok := n.left.remove(key)
		if !ok {
			return n, false
		}
		return rebalance(n.key, n.value, left, n.right), true
	case c > 0:
		right, ok := n.right.remove(key)
		if !ok {
			return n, false
		}
		return rebalance(n.key, n.value, n.left, right), true
	}

	if n.left == nil {
		return n.right, true
	}
	if n.right == nil {
		return n.left, true
	}
	successor := n.right
	for successor.left != nil {
		successor = successor.left
	}
	right, _ := n.right.remove(successor.key)
	return rebalance(successor.key, successor.value, n.left, right), true
}

func newNode[K cmp.Ordered, V any](key K, value V, left, right *node[K, V]) *node[K, V] {
	return &node[K, V]{
		key:    key,
		value:  value,
		left:   left,
		right:  right,
		height: 1 + max(left.depth(), right.depth()),
		size:   1 + left.len() + right.len(),
	}
}

// rebalance builds a node from its parts, rotating when the subtree heights differ by two.
func rebalance[K cmp.Ordered, V any](key K, value V, left, right *node[K, V]) *node[K, V] {
	hl, hr := left.depth(), right.depth()
	switch {
	case hl > hr+1:
		if left.left.depth() >= left.right.depth() {
			return newNode(left.key, left.value, left.left, newNode(key, value, left.right, right))
		}
		lr := left.right
		return newNode(lr.key, lr.value,
			newNode(left.key, left.value, left.left, lr.left),
			newNode(key, value, lr.right, right))
	case hr > hl+1:
		if right.right.depth() >= right.left.depth() {
			return newNode(right.key, right.value, newNode(key, value, left, right.left), right.right)
		}
		rl := right.left
		return newNode(rl.key, rl.value,
			newNode(key, value, left, rl.left),
			newNode(right.key, right.value, rl.right, right.right))
	default:
		return newNode(key, value, left, right)
	}
}
