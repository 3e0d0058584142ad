// Package engine implements the World Facade and the Tick Scheduler:
// the public operations a command layer drives (get/set/remove node,
// run N ticks, stats) and the fixpoint evaluation loop that drives
// behaviors each tick. Grounded on original_source's world.c
// (world_set_node/world_get_adjacent_node/world_get_stats) and tick.c's
// pass/fixpoint structure.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/sarchlab/redpile/host"
	"github.com/sarchlab/redpile/loc"
	"github.com/sarchlab/redpile/registry"
	"github.com/sarchlab/redpile/store"
)

// maxPasses caps a tick's fixpoint loop; exceeding it is a logged
// diagnostic, not a fatal error (it usually means a behavior script has
// an oscillating feedback loop).
const maxPasses = 16

// Stats mirrors the reference's STATS line.
type Stats struct {
	Ticks             uint64
	Nodes             int
	TreeDepth         uint
	MessageMaxInputs  int
	MessageMaxOutputs int
	MessageMaxQueued  int
}

// World is the simulation's single owner of types, nodes and queues.
// It is not safe for concurrent use — the engine is single-threaded
// cooperative, per the concurrency model.
type World struct {
	Registry *registry.Registry
	Host     host.Host
	Store    *store.Store

	ticks      uint64
	maxInputs  int
	maxOutputs int
	maxQueued  int
	log        *slog.Logger
}

// New constructs a World. leafWidth must be a power of two (see
// store.New); reg must already have at least a default type registered
// before any node is inserted.
func New(reg *registry.Registry, h host.Host, leafWidth int, log *slog.Logger) *World {
	if log == nil {
		log = slog.Default()
	}
	return &World{
		Registry: reg,
		Host:     h,
		Store:    store.New(leafWidth),
		log:      log,
	}
}

// GetNode looks up the node at l without creating anything.
func (w *World) GetNode(l loc.Location) (*store.Node, bool) {
	return w.Store.Get(l, false)
}

// SetNode assigns typeName to the node at l, creating it (and deepening
// the tree) if necessary.
func (w *World) SetNode(l loc.Location, typeName string) (*store.Node, error) {
	t, ok := w.Registry.FindType(typeName)
	if !ok {
		return nil, fmt.Errorf("engine: unknown type %q", typeName)
	}
	return w.Store.Set(l, t), nil
}

// RemoveNode vacates the node at l. Reports whether a node was removed.
func (w *World) RemoveNode(l loc.Location) bool {
	return w.Store.Remove(l)
}

// Stats reports the current world statistics for the STATS command.
func (w *World) Stats() Stats {
	return Stats{
		Ticks:             w.ticks,
		Nodes:             w.Store.Len(),
		TreeDepth:         w.Store.Depth(),
		MessageMaxInputs:  w.maxInputs,
		MessageMaxOutputs: w.maxOutputs,
		MessageMaxQueued:  w.maxQueued,
	}
}

// Ticks reports the current tick counter.
func (w *World) Ticks() uint64 { return w.ticks }
