package message

// bucket is one tick's worth of delivered messages for a single node.
type bucket struct {
	tick     uint64
	messages []Message
	next     *bucket
}

// Store is a node's per-tick backlog: an ordered linked list of buckets,
// one per tick that still has undelivered or unread messages, kept in
// strictly decreasing tick order from head to tail.
type Store struct {
	head *bucket
}

// find walks the list for an exact tick match.
func (s *Store) find(tick uint64) *bucket {
	for b := s.head; b != nil; b = b.next {
		if b.tick == tick {
			return b
		}
	}
	return nil
}

// Messages returns the messages stored for tick, or nil if there are
// none.
func (s *Store) Messages(tick uint64) []Message {
	if b := s.find(tick); b != nil {
		return b.messages
	}
	return nil
}

// FindOrCreate returns the bucket for tick, inserting a fresh one if no
// bucket matches yet: at the head when tick is the newest, otherwise at
// the position that keeps the list in decreasing tick order.
func (s *Store) FindOrCreate(tick uint64) *bucket {
	if b := s.find(tick); b != nil {
		return b
	}
	b := &bucket{tick: tick}
	if s.head == nil || s.head.tick < tick {
		b.next = s.head
		s.head = b
		return b
	}
	prev := s.head
	for prev.next != nil && prev.next.tick > tick {
		prev = prev.next
	}
	b.next = prev.next
	prev.next = b
	return b
}

// Append adds msgs to the backlog for tick, creating its bucket if
// necessary. The caller is expected to grow the bucket's slice at most
// once per scheduler delivery step.
func (s *Store) Append(tick uint64, msgs ...Message) {
	b := s.FindOrCreate(tick)
	b.messages = append(b.messages, msgs...)
}

// DiscardOld drops every bucket older than current. Buckets at or after
// current are preserved in their existing order.
func (s *Store) DiscardOld(current uint64) {
	for s.head != nil && s.head.tick < current {
		s.head = s.head.next
	}
	if s.head == nil {
		return
	}

	prev := s.head
	for b := s.head.next; b != nil; b = b.next {
		if b.tick < current {
			prev.next = b.next
			continue
		}
		prev = b
	}
}

// Empty reports whether the store holds no buckets at all.
func (s *Store) Empty() bool { return s.head == nil }

// Ticks returns every bucket's tick, head to tail, for tests and
// diagnostics (e.g. MESSAGES).
func (s *Store) Ticks() []uint64 {
	var ticks []uint64
	for b := s.head; b != nil; b = b.next {
		ticks = append(ticks, b.tick)
	}
	return ticks
}
