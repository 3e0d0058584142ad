// Package store implements the Node Store: a sparse octree keyed by
// location, paired with a doubly linked live list giving the scheduler
// its enumeration order. Grounded on original_source's node.c
// (node_tree_ensure_depth/node_tree_get) and world.c
// (world_set_node/world_get_adjacent_node).
package store

import (
	"math/bits"

	"github.com/sarchlab/redpile/loc"
	"github.com/sarchlab/redpile/message"
	"github.com/sarchlab/redpile/registry"
)

const treeSize = 8 // 2^3 sign octants per axis

// Node is one occupied cell: its type, field values, per-tick message
// backlog, and its place in the live list.
type Node struct {
	Location loc.Location
	Type     *registry.Type
	Fields   []registry.Value

	Messages      *message.Store
	LastInput     []message.Message
	LastInputTick uint64

	prev, next *Node
}

// treeNode is an interior or leaf-holding octree node. Level 0 holds
// leaves directly; level > 0 holds 8 child octants. Only one of
// children/leaves is ever populated for a given node, mirroring the
// reference's tagged union of the two.
type treeNode struct {
	level    uint
	parent   *treeNode
	children [treeSize]*treeNode
	leaves   [treeSize]*leafNode
}

// leafNode holds a fixed leafWidth^3 cube of node cells.
type leafNode struct {
	parent *treeNode
	cells  []*Node
}

// Store is the sparse node store: the octree root plus the live list.
type Store struct {
	leafWidth int
	root      *treeNode

	liveHead, liveTail *Node
	count              int
}

// New constructs an empty Store with the given leaf cube side. leafWidth
// must be a power of two, as in the reference (typically 4 or 8).
func New(leafWidth int) *Store {
	if leafWidth <= 0 || leafWidth&(leafWidth-1) != 0 {
		panic("store: leafWidth must be a power of two")
	}
	return &Store{
		leafWidth: leafWidth,
		root:      &treeNode{level: 0},
	}
}

// Len reports how many nodes are occupied.
func (s *Store) Len() int { return s.count }

// Depth reports the current octree depth (0 for a freshly created
// store), surfaced as the "tree_depth" stats field.
func (s *Store) Depth() uint { return s.root.level }

func octantOffset(l loc.Location) int {
	o := 0
	if l.X < 0 {
		o |= 1
	}
	if l.Y < 0 {
		o |= 2
	}
	if l.Z < 0 {
		o |= 4
	}
	return o
}

func absCoord(c loc.Coord) loc.Coord {
	if c < 0 {
		return -c
	}
	return c
}

func maxCoord(a, b, c loc.Coord) loc.Coord {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

// shiftToChild translates a location into the child octant's local
// coordinate system: subtract the shift on the positive side, add it on
// the negative side, exactly as node_tree_get does.
func shiftToChild(l loc.Location, shift loc.Coord) loc.Location {
	move := func(v loc.Coord) loc.Coord {
		if v >= 0 {
			return v - shift
		}
		return v + shift
	}
	return loc.New(move(l.X), move(l.Y), move(l.Z))
}

// cellCoord maps a signed coordinate into [0, leafWidth) local to its
// leaf: the low bits of its two's-complement value (-1 -> leafWidth-1).
// Shifting by a multiple of leafWidth leaves the result unchanged, so a
// cell keeps its index when growOnce wraps its leaf one level deeper.
func cellCoord(c loc.Coord, leafWidth int) int {
	return int(c & loc.Coord(leafWidth-1))
}

// ensureDepth grows the tree, doubling its depth one level at a time,
// until location fits. Growth wraps the existing root contents as one
// corner of 8 new siblings at the old level, then bumps the root's own
// level — the root's address never changes, so existing node pointers
// stay valid across growth.
func (s *Store) ensureDepth(l loc.Location) {
	m := maxCoord(absCoord(l.X), absCoord(l.Y), absCoord(l.Z))
	m /= loc.Coord(s.leafWidth)
	depth := uint(bits.Len64(uint64(m)))

	for depth > s.root.level {
		s.growOnce()
	}
}

func (s *Store) growOnce() {
	old := s.root
	level := old.level

	var newChildren [treeSize]*treeNode
	if level == 0 {
		oldLeaves := old.leaves
		for i := 0; i < treeSize; i++ {
			child := &treeNode{level: 0, parent: old}
			child.leaves[treeSize-1-i] = oldLeaves[i]
			if oldLeaves[i] != nil {
				oldLeaves[i].parent = child
			}
			newChildren[i] = child
		}
		old.leaves = [treeSize]*leafNode{}
	} else {
		oldChildren := old.children
		for i := 0; i < treeSize; i++ {
			child := &treeNode{level: level, parent: old}
			child.children[treeSize-1-i] = oldChildren[i]
			if oldChildren[i] != nil {
				oldChildren[i].parent = child
			}
			newChildren[i] = child
		}
	}

	old.children = newChildren
	old.level++
}

// slot descends the tree to the cell holding l, allocating intermediate
// octants and the leaf (but never a Node) as needed when create is true.
// Returns nil if create is false and the path is missing or l lies
// outside the current tree.
func (s *Store) slot(l loc.Location, create bool) **Node {
	if !create {
		m := maxCoord(absCoord(l.X), absCoord(l.Y), absCoord(l.Z)) / loc.Coord(s.leafWidth)
		if uint(bits.Len64(uint64(m))) > s.root.level {
			return nil
		}
	}

	t := s.root
	for t.level != 0 {
		offset := octantOffset(l)
		sub := t.children[offset]
		if sub == nil {
			if !create {
				return nil
			}
			sub = &treeNode{level: t.level - 1, parent: t}
			t.children[offset] = sub
		}
		shift := loc.Coord(s.leafWidth) << (t.level - 1)
		l = shiftToChild(l, shift)
		t = sub
	}

	offset := octantOffset(l)
	leaf := t.leaves[offset]
	if leaf == nil {
		if !create {
			return nil
		}
		leaf = &leafNode{parent: t, cells: make([]*Node, s.leafWidth*s.leafWidth*s.leafWidth)}
		t.leaves[offset] = leaf
	}

	lw := s.leafWidth
	lx, ly, lz := cellCoord(l.X, lw), cellCoord(l.Y, lw), cellCoord(l.Z, lw)
	idx := lx*lw*lw + ly*lw + lz
	return &leaf.cells[idx]
}

func (s *Store) prependLive(n *Node) {
	n.next = s.liveHead
	n.prev = nil
	if s.liveHead != nil {
		s.liveHead.prev = n
	}
	s.liveHead = n
	if s.liveTail == nil {
		s.liveTail = n
	}
}

func (s *Store) unlinkLive(n *Node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		s.liveHead = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		s.liveTail = n.prev
	}
	n.next, n.prev = nil, nil
}

// Get returns the node at l. If create is false, a missing octant along
// the path reports as not-found without growing the tree. If create is
// true, the tree is deepened as needed, but a vacant-but-reachable cell
// still reports as not-found — Get never allocates a Node, only Set and
// GetAdjacent do.
func (s *Store) Get(l loc.Location, create bool) (*Node, bool) {
	if create {
		s.ensureDepth(l)
	}
	slot := s.slot(l, create)
	if slot == nil || *slot == nil {
		return nil, false
	}
	return *slot, true
}

// Set deepens the tree, materializes the cell, and assigns it typ. If
// the cell was vacant it is prepended to the live list and the
// occupied count bumps; an occupied cell simply changes type (and its
// field slice is resized to the new type's field count).
func (s *Store) Set(l loc.Location, typ *registry.Type) *Node {
	s.ensureDepth(l)
	slot := s.slot(l, true)

	n := *slot
	if n == nil {
		n = &Node{
			Location: l,
			Type:     typ,
			Fields:   make([]registry.Value, len(typ.Fields)),
			Messages: &message.Store{},
		}
		*slot = n
		s.prependLive(n)
		s.count++
		return n
	}

	n.Type = typ
	n.Fields = make([]registry.Value, len(typ.Fields))
	return n
}

// Remove vacates the cell at l, unlinking it from the live list. Tree
// structure (interior octants and the leaf itself) is preserved for
// reuse. Reports whether a node was actually removed.
func (s *Store) Remove(l loc.Location) bool {
	slot := s.slot(l, false)
	if slot == nil || *slot == nil {
		return false
	}
	n := *slot
	s.unlinkLive(n)
	*slot = nil
	s.count--
	return true
}

// GetAdjacent returns the node neighbouring n in dir, materializing a
// vacant cell with defaultType (prepended to the live list) if none
// exists yet. Always returns a non-nil handle.
func (s *Store) GetAdjacent(n *Node, dir loc.Direction, defaultType *registry.Type) *Node {
	target := n.Location.Adjacent(dir)
	s.ensureDepth(target)
	slot := s.slot(target, true)

	if *slot == nil {
		neighbor := &Node{
			Location: target,
			Type:     defaultType,
			Fields:   make([]registry.Value, len(defaultType.Fields)),
			Messages: &message.Store{},
		}
		*slot = neighbor
		s.prependLive(neighbor)
		s.count++
	}
	return *slot
}

// Live returns every occupied node in live-list order (most recently
// inserted first), the scheduler's enumeration order.
func (s *Store) Live() []*Node {
	out := make([]*Node, 0, s.count)
	for n := s.liveHead; n != nil; n = n.next {
		out = append(out, n)
	}
	return out
}
