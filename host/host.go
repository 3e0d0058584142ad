// Package host defines the Behavior Host boundary: the external
// interface a pluggable scripting runtime implements to evaluate a
// node's behaviors. The engine only ever sees this interface — it never
// interprets a registry.HostRef itself.
package host

import (
	"github.com/sarchlab/redpile/loc"
	"github.com/sarchlab/redpile/message"
	"github.com/sarchlab/redpile/registry"
)

// NodeView is the read-only snapshot of a node a behavior is handed:
// its location, type name, and current field values.
type NodeView struct {
	Location   loc.Location
	TypeName   string
	Fields     []registry.Value
	FieldTypes []registry.FieldType
}

// Context is everything a running behavior can observe or emit: the
// current node, its filtered inbox, and the outbox/sets sinks. Send is
// a no-op if target's behavior mask doesn't subscribe to kind — the
// host must enforce this itself, not merely document it.
type Context interface {
	Node() NodeView
	Inbox() []message.Message

	// Send emits a message to target, delayed by delay ticks (0 =
	// the current tick). No-op if target's behavior_mask doesn't include kind.
	Send(target loc.Location, kind uint32, delay uint64, value registry.Value)

	// Move, Remove and SetField emit structural mutations targeting
	// the current node itself, applied after the tick's passes settle.
	Move(dir loc.Direction)
	Remove()
	SetField(index int, value registry.Value)

	// Adjacent resolves a neighbour by absolute direction or by
	// movement relative to the node's own "direction" field, if it has
	// one. Adjacency is never cached: each call re-resolves through
	// the node store.
	Adjacent(dir loc.Direction) NodeView
	AdjacentMovement(m loc.Movement) NodeView
}

// Host runs a single behavior against a context. A HostRef produced by
// registry.DefineBehavior is opaque to everyone except the Host
// implementation that created it.
type Host interface {
	Run(ref registry.HostRef, ctx Context) error
}
