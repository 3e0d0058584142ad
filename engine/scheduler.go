package engine

import (
	"fmt"

	"github.com/sarchlab/redpile/loc"
	"github.com/sarchlab/redpile/message"
	"github.com/sarchlab/redpile/queue"
	"github.com/sarchlab/redpile/registry"
	"github.com/sarchlab/redpile/store"
)

// RunTick advances the world by n ticks. It stops early, returning the
// count actually advanced and the error, if a behavior host call fails
// mid-pass — already-applied structural mutations from earlier ticks
// persist, but the failed tick's pending queues are dropped and its
// tick counter does not advance.
func (w *World) RunTick(n int) (int, error) {
	advanced := 0
	for i := 0; i < n; i++ {
		if err := w.runOneTick(); err != nil {
			return advanced, err
		}
		advanced++
	}
	return advanced, nil
}

// findInput concatenates a node's already-stored messages for tick with
// any new queue entries targeting it at tick.
func (w *World) findInput(n *store.Node, tick uint64, messages *queue.Queue) []message.Message {
	n.Messages.DiscardOld(tick)
	stored := n.Messages.Messages(tick)
	queued := messages.ItemsForTarget(n.Location)

	input := make([]message.Message, 0, len(stored)+len(queued))
	input = append(input, stored...)
	for _, item := range queued {
		if item.Tick != tick {
			continue
		}
		input = append(input, message.Message{Source: item.Source, Kind: item.Kind, Value: item.Value})
	}
	return input
}

func (w *World) runOneTick() error {
	tick := w.ticks
	messages := queue.New(true, true)
	sets := queue.New(false, true)

	active := w.Store.Live()
	pass := 0

	for len(active) > 0 {
		pass++
		if pass > maxPasses {
			w.log.Warn("logic loop", "tick", tick, "passes", pass)
			break
		}

		rerun := map[loc.Location]bool{}
		firstPass := pass == 1

		for _, n := range active {
			input := w.findInput(n, tick, messages)

			if !firstPass {
				messages.RemoveBySource(n.Location)
				sets.RemoveBySource(n.Location)
			}

			output := queue.New(false, false)
			for _, b := range n.Type.Behaviors {
				filtered := message.Filter(input, b.Mask)
				ctx := newNodeContext(w, n, tick, filtered, output, sets)
				if err := w.Host.Run(b.Host, ctx); err != nil {
					return fmt.Errorf("engine: tick %d node %s behavior %s: %w", tick, n.Location, b.Name, err)
				}
			}

			changed := n.LastInput == nil || n.LastInputTick != tick || !message.Equal(input, n.LastInput)

			for _, item := range output.Items() {
				if changed && item.Tick == tick && item.Target != n.Location && !messages.Contains(*item) {
					rerun[item.Target] = true
				}
			}

			if changed {
				n.LastInput = input
				n.LastInputTick = tick
			}

			if len(input) > w.maxInputs {
				w.maxInputs = len(input)
			}
			if outLen := output.Len(); outLen > w.maxOutputs {
				w.maxOutputs = outLen
			}

			messages.Merge(output)
		}

		if qlen := messages.Len(); qlen > w.maxQueued {
			w.maxQueued = qlen
		}

		next := make([]*store.Node, 0, len(rerun))
		for _, n := range w.Store.Live() {
			if rerun[n.Location] {
				next = append(next, n)
			}
		}
		active = next
	}

	w.deliver(messages)
	w.applySets(sets)

	w.ticks++
	return nil
}

// deliver walks messages once per distinct target, appending every
// message for that target into its MessageStore grouped by tick so
// each bucket grows at most once per delivery step.
func (w *World) deliver(messages *queue.Queue) {
	delivered := map[loc.Location]bool{}
	for _, item := range messages.Items() {
		if delivered[item.Target] {
			continue
		}
		delivered[item.Target] = true

		n, ok := w.Store.Get(item.Target, false)
		if !ok {
			n = w.Store.Set(item.Target, w.Registry.DefaultType())
		}

		byTick := map[uint64][]message.Message{}
		var ticks []uint64
		for _, it := range messages.ItemsForTarget(item.Target) {
			if _, seen := byTick[it.Tick]; !seen {
				ticks = append(ticks, it.Tick)
			}
			byTick[it.Tick] = append(byTick[it.Tick], message.Message{Source: it.Source, Kind: it.Kind, Value: it.Value})
		}
		for _, t := range ticks {
			n.Messages.Append(t, byTick[t]...)
		}
	}
}

// applySets walks sets in insertion order, dispatching structural
// mutations by kind.
func (w *World) applySets(sets *queue.Queue) {
	for _, item := range sets.Items() {
		switch item.Kind {
		case registry.SystemFieldBit:
			n, ok := w.Store.Get(item.Target, false)
			if !ok {
				continue
			}
			if item.Index < 0 || item.Index >= len(n.Fields) {
				continue
			}
			if n.Fields[item.Index].Equal(item.Value) {
				continue // no-op: value unchanged
			}
			n.Fields[item.Index] = item.Value

		case registry.SystemMoveBit:
			n, ok := w.Store.Get(item.Target, false)
			if !ok {
				continue
			}
			newLoc := n.Location.Adjacent(item.Value.Direction)
			typ := n.Type
			w.Store.Remove(n.Location)
			w.Store.Set(newLoc, typ)

		case registry.SystemRemoveBit:
			w.Store.Remove(item.Target)

		case registry.SystemDataBit:
			// Observable side-channel only; ignored by the state machine.
		}
	}
}
