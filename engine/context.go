package engine

import (
	"github.com/sarchlab/redpile/host"
	"github.com/sarchlab/redpile/loc"
	"github.com/sarchlab/redpile/message"
	"github.com/sarchlab/redpile/queue"
	"github.com/sarchlab/redpile/registry"
	"github.com/sarchlab/redpile/store"
)

// nodeContext is the host.Context handed to a behavior while evaluating
// node n: a snapshot of its inbox plus the outbox/sets sinks it can
// write into. One is built fresh per behavior invocation.
type nodeContext struct {
	world *World
	node  *store.Node
	tick  uint64
	inbox []message.Message

	output *queue.Queue // this node's emitted messages for the current tick
	sets   *queue.Queue // this tick's structural mutations, shared across all nodes
}

func newNodeContext(w *World, n *store.Node, tick uint64, inbox []message.Message, output, sets *queue.Queue) *nodeContext {
	return &nodeContext{world: w, node: n, tick: tick, inbox: inbox, output: output, sets: sets}
}

func fieldTypes(t *registry.Type) []registry.FieldType {
	out := make([]registry.FieldType, len(t.Fields))
	for i, f := range t.Fields {
		out[i] = f.Type
	}
	return out
}

func nodeView(n *store.Node) host.NodeView {
	return host.NodeView{
		Location:   n.Location,
		TypeName:   n.Type.Name,
		Fields:     append([]registry.Value(nil), n.Fields...),
		FieldTypes: fieldTypes(n.Type),
	}
}

func (c *nodeContext) Node() host.NodeView      { return nodeView(c.node) }
func (c *nodeContext) Inbox() []message.Message { return c.inbox }

// Send is a no-op if target is an existing node whose behavior mask
// doesn't subscribe to kind. A vacant target is not filtered; delivery
// materializes it with the default type.
func (c *nodeContext) Send(target loc.Location, kind uint32, delay uint64, value registry.Value) {
	targetNode, ok := c.world.Store.Get(target, false)
	if ok && targetNode.Type.BehaviorMask&kind == 0 {
		return
	}

	c.output.Push(&queue.Item{
		Kind:   kind,
		Tick:   c.tick + delay,
		Source: message.Source{Location: c.node.Location, Type: c.node.Type},
		Target: target,
		Value:  value,
	})
}

func (c *nodeContext) Move(dir loc.Direction) {
	c.sets.Push(&queue.Item{
		Kind:   registry.SystemMoveBit,
		Tick:   c.tick,
		Source: message.Source{Location: c.node.Location, Type: c.node.Type},
		Target: c.node.Location,
		Value:  registry.DirectionValue(dir),
	})
}

func (c *nodeContext) Remove() {
	c.sets.Push(&queue.Item{
		Kind:   registry.SystemRemoveBit,
		Tick:   c.tick,
		Source: message.Source{Location: c.node.Location, Type: c.node.Type},
		Target: c.node.Location,
	})
}

func (c *nodeContext) SetField(index int, value registry.Value) {
	c.sets.Push(&queue.Item{
		Kind:   registry.SystemFieldBit,
		Tick:   c.tick,
		Source: message.Source{Location: c.node.Location, Type: c.node.Type},
		Target: c.node.Location,
		Index:  index,
		Value:  value,
	})
}

func (c *nodeContext) Adjacent(dir loc.Direction) host.NodeView {
	n := c.world.Store.GetAdjacent(c.node, dir, c.world.Registry.DefaultType())
	return nodeView(n)
}

func (c *nodeContext) AdjacentMovement(m loc.Movement) host.NodeView {
	facing := loc.North
	if idx, ok := c.node.Type.FieldIndex("direction"); ok && idx < len(c.node.Fields) {
		facing = c.node.Fields[idx].Direction
	}
	return c.Adjacent(m.Resolve(facing))
}
