// Package message defines the Message value the scheduler passes between
// nodes and the per-node MessageStore backlog it accumulates into.
package message

import (
	"github.com/sarchlab/redpile/loc"
	"github.com/sarchlab/redpile/registry"
)

// Source identifies where a message came from: a location and the type
// the sending node had at send time (types never change identity, so
// holding a *registry.Type pointer is safe to compare across ticks).
type Source struct {
	Location loc.Location
	Type     *registry.Type
}

// Message is one delivered or pending message: who sent it, which kind it
// is, and its payload.
type Message struct {
	Source Source
	Kind   uint32
	Value  registry.Value
}

// Filter returns a new slice containing only the messages whose kind bit
// is set in mask, preserving order. This is how each behavior is handed
// only the message kinds it subscribes to.
func Filter(msgs []Message, mask uint32) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Kind&mask != 0 {
			out = append(out, m)
		}
	}
	return out
}

// Equal reports whether a and b contain the same messages as sets —
// order does not matter, only that every entry in a matches some entry
// in b by (source location, kind, value), and vice versa via the size
// check. This is deliberately not sequence equality: the scheduler's
// fixpoint check depends on set semantics so that re-ordered-but-identical
// inputs don't spuriously mark a node "changed".
func Equal(a, b []Message) bool {
	if len(a) != len(b) {
		return false
	}

	used := make([]bool, len(b))
	for _, ma := range a {
		found := false
		for j, mb := range b {
			if used[j] {
				continue
			}
			if ma.Source.Location == mb.Source.Location && ma.Kind == mb.Kind && ma.Value.Equal(mb.Value) {
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
