// Package queue implements the per-tick message queue: a doubly linked
// list of QueueItems, optionally indexed by target location (for
// O(chain-length) delivery lookup) and by source location (for O(k)
// revocation when a node is recomputed). Grounded on original_source's
// queue.c (queue_push/queue_remove/queue_find) generalized to Go.
package queue

import (
	"github.com/sarchlab/redpile/loc"
	"github.com/sarchlab/redpile/message"
	"github.com/sarchlab/redpile/registry"
	"github.com/sarchlab/redpile/vmap"
)

// Item is one queued message or structural mutation.
type Item struct {
	Kind   uint32
	Tick   uint64
	Source message.Source
	Target loc.Location
	Index  int // field index, meaningful only for SYSTEM_FIELD
	Value  registry.Value

	prev, next *Item
}

// targetEntry is the value stored in the target index: how many items in
// the chain share this target, and the first of them.
type targetEntry struct {
	count int
	head  *Item
}

// Queue is a tick's pending outbox or sets list.
type Queue struct {
	head *Item

	targets *vmap.Map // loc.Location -> *targetEntry, nil if not tracking targets
	sources *vmap.Map // loc.Location -> []*Item, nil if not tracking sources
}

// New constructs an empty Queue. trackTargets/trackSources mirror
// queue_init's flags: the sets queue tracks only sources, the messages
// queue tracks both.
func New(trackTargets, trackSources bool) *Queue {
	q := &Queue{}
	if trackTargets {
		q.targets = vmap.New(16)
	}
	if trackSources {
		q.sources = vmap.New(16)
	}
	return q
}

// Len reports how many items are queued.
func (q *Queue) Len() int {
	n := 0
	for i := q.head; i != nil; i = i.next {
		n++
	}
	return n
}

// Push inserts item, preserving target-contiguity (P9): if the target
// already has a run in the list, the item is spliced immediately after
// the run's head; otherwise it is inserted at the list head.
func (q *Queue) Push(item *Item) {
	if q.targets != nil {
		entryAny, _ := q.targets.Get(item.Target, true)
		entry, ok := entryAny.(*targetEntry)
		if !ok {
			entry = &targetEntry{}
			q.targets.Set(item.Target, entry)
		}

		if entry.count == 0 {
			item.next = q.head
			item.prev = nil
			if q.head != nil {
				q.head.prev = item
			}
			q.head = item
			entry.head = item
			entry.count++
		} else {
			existing := entry.head
			item.next = existing.next
			item.prev = existing
			if existing.next != nil {
				existing.next.prev = item
			}
			existing.next = item
			entry.count++
		}
	} else {
		item.next = q.head
		item.prev = nil
		if q.head != nil {
			q.head.prev = item
		}
		q.head = item
	}

	if q.sources != nil {
		listAny, _ := q.sources.Get(item.Source.Location, true)
		list, _ := listAny.([]*Item)
		list = append(list, item)
		q.sources.Set(item.Source.Location, list)
	}
}

// Remove unlinks item from the list and shrinks both indices. If item
// was its target's head and other items with that target remain, the
// index is advanced to the next item in the run.
func (q *Queue) Remove(item *Item) {
	if q.targets != nil {
		entryAny, ok := q.targets.Get(item.Target, false)
		if ok {
			entry := entryAny.(*targetEntry)
			entry.count--
			if entry.head == item {
				if entry.count > 0 {
					entry.head = item.next
				} else {
					entry.head = nil
				}
			}
		}
	}

	if q.sources != nil {
		listAny, ok := q.sources.Get(item.Source.Location, false)
		if ok {
			list := listAny.([]*Item)
			for i, it := range list {
				if it == item {
					list = append(list[:i], list[i+1:]...)
					break
				}
			}
			q.sources.Set(item.Source.Location, list)
		}
	}

	if item.prev != nil {
		item.prev.next = item.next
	} else {
		q.head = item.next
	}
	if item.next != nil {
		item.next.prev = item.prev
	}
	item.next, item.prev = nil, nil
}

// FindByTargetAndTick walks from target's head while entries still
// belong to that target, stopping at the first whose Tick matches.
// Returns the matching item (nil if none) and how many items with this
// target remain from that point on (inclusive).
func (q *Queue) FindByTargetAndTick(target loc.Location, tick uint64) (*Item, int) {
	if q.targets == nil {
		return nil, 0
	}
	entryAny, ok := q.targets.Get(target, false)
	if !ok {
		return nil, 0
	}
	entry := entryAny.(*targetEntry)

	found := entry.head
	remaining := entry.count
	for i := 0; i < entry.count; i++ {
		if found.Tick == tick {
			return found, remaining
		}
		found = found.next
		remaining--
	}
	return nil, 0
}

// ItemsForTarget returns every item queued for target, in list order.
func (q *Queue) ItemsForTarget(target loc.Location) []*Item {
	if q.targets == nil {
		return nil
	}
	entryAny, ok := q.targets.Get(target, false)
	if !ok {
		return nil
	}
	entry := entryAny.(*targetEntry)

	out := make([]*Item, 0, entry.count)
	found := entry.head
	for i := 0; i < entry.count; i++ {
		out = append(out, found)
		found = found.next
	}
	return out
}

// Contains reports membership by value-equality of (kind, source
// location, target, value, tick) — never by pointer identity.
func (q *Queue) Contains(item Item) bool {
	for i := q.head; i != nil; i = i.next {
		if i.Kind == item.Kind &&
			i.Source.Location == item.Source.Location &&
			i.Target == item.Target &&
			i.Tick == item.Tick &&
			i.Value.Equal(item.Value) {
			return true
		}
	}
	return false
}

// RemoveBySource unlinks every item whose source is loc, in O(k) where k
// is the number of items from that source.
func (q *Queue) RemoveBySource(l loc.Location) {
	if q.sources == nil {
		for i := q.head; i != nil; {
			next := i.next
			if i.Source.Location == l {
				q.Remove(i)
			}
			i = next
		}
		return
	}

	listAny, ok := q.sources.Get(l, false)
	if !ok {
		return
	}
	list := append([]*Item(nil), listAny.([]*Item)...)
	for _, item := range list {
		q.Remove(item)
	}
}

// Merge moves every item from "from" into q, preserving each item's
// original source (a source-preserving move, not a copy), and returns
// how many items were merged. Because push always re-derives an item's
// position from its target, filter-then-merge (P10) holds regardless of
// merge order.
func (q *Queue) Merge(from *Queue) int {
	count := 0
	for i := from.head; i != nil; {
		next := i.next
		i.next, i.prev = nil, nil
		q.Push(i)
		count++
		i = next
	}
	from.head = nil
	from.targets = nil
	from.sources = nil
	return count
}

// Items returns every item in list order, head to tail, for tests and
// diagnostics (e.g. MESSAGES).
func (q *Queue) Items() []*Item {
	var out []*Item
	for i := q.head; i != nil; i = i.next {
		out = append(out, i)
	}
	return out
}
