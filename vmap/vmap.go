// Package vmap is the Location-keyed hashmap the rest of the engine builds
// its indices on: a primary array of buckets with singly-linked overflow
// chains, resized by doubling on growth and (bounded) halving on shrink.
package vmap

import "github.com/sarchlab/redpile/loc"

// entry is one slot, either primary (index into data) or an overflow link.
type entry struct {
	key      loc.Location
	value    any
	occupied bool
	next     *entry
}

// Map is a Location->value hashmap. The zero value is not usable; use New.
type Map struct {
	data     []entry
	size     uint32
	minSize  uint32
	overflow uint32
	resizes  uint32
	maxDepth uint32
	count    int
}

// New creates a Map whose bucket array never shrinks below minSize, which
// must be a power of two.
func New(minSize uint32) *Map {
	if minSize == 0 || minSize&(minSize-1) != 0 {
		panic("vmap: minSize must be a power of two")
	}
	return &Map{
		data:    make([]entry, minSize),
		size:    minSize,
		minSize: minSize,
	}
}

// Len returns the number of keys currently stored.
func (m *Map) Len() int { return m.count }

// Size returns the current bucket-array size (always a power of two).
func (m *Map) Size() uint32 { return m.size }

// Resizes returns how many times the bucket array has been reallocated,
// for diagnostics/tests only.
func (m *Map) Resizes() uint32 { return m.resizes }

// Get returns the value stored for key. If create is false, a miss
// returns (nil, false). If create is true, a miss allocates an empty slot
// bound to key (value starts as nil) and returns (nil, true); growing the
// table first if overflow has outpaced size.
func (m *Map) Get(key loc.Location, create bool) (any, bool) {
	e, ok := m.getEntry(key, create)
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Set stores value for key, creating the slot if necessary.
func (m *Map) Set(key loc.Location, value any) {
	e, _ := m.getEntry(key, true)
	if !e.occupied {
		e.occupied = true
		m.count++
	}
	e.value = value
}

// getEntry is the shared lookup/insert path mirroring the reference
// hashmap_get: grow before inserting if overflow has outpaced size, then
// walk the primary bucket's overflow chain for an exact key match.
func (m *Map) getEntry(key loc.Location, create bool) (*entry, bool) {
	if create && m.overflow > m.size {
		m.resize(m.size * 2)
	}

	depth := uint32(0)
	h := loc.Hash(key, m.size)
	b := &m.data[h]

	if !b.occupied && b.next == nil {
		if !create {
			return nil, false
		}
		b.key = key
		return b, true
	}

	for b.occupied && b.key != key {
		if b.next == nil {
			if !create {
				return nil, false
			}
			m.overflow++
			b.next = &entry{key: key}
			b = b.next
			break
		}
		b = b.next
		depth++
	}

	if m.maxDepth < depth {
		m.maxDepth = depth
	}

	return b, true
}

// Remove deletes key, returning its old value and whether it was present.
// May shrink the table (halved, never below minSize) once overflow drains
// to zero, matching the reference hashmap_remove ordering: the shrink
// check runs before the removal itself.
func (m *Map) Remove(key loc.Location) (any, bool) {
	if m.overflow == 0 && m.size > m.minSize {
		half := m.size / 2
		newSize := m.minSize
		if half > newSize {
			newSize = half
		}
		m.resize(newSize)
	}

	h := loc.Hash(key, m.size)
	b := &m.data[h]
	var prev *entry

	if !b.occupied {
		return nil, false
	}

	for b.key != key {
		if b.next == nil {
			return nil, false
		}
		prev = b
		b = b.next
	}

	value := b.value

	switch {
	case prev != nil:
		prev.next = b.next
		m.overflow--
	case b.next != nil:
		*b = *b.next
		m.overflow--
	default:
		*b = entry{}
	}

	m.count--
	return value, true
}

// resize reallocates the bucket array to newSize, rehashing every entry.
func (m *Map) resize(newSize uint32) {
	old := m.data
	oldSize := m.size

	m.data = make([]entry, newSize)
	m.size = newSize
	m.overflow = 0
	m.maxDepth = 0
	m.resizes++

	for i := uint32(0); i < oldSize; i++ {
		for b := &old[i]; b != nil && b.occupied; b = b.next {
			dst, _ := m.getEntry(b.key, true)
			dst.occupied = true
			dst.value = b.value
			if b.next == nil {
				break
			}
		}
	}
}
