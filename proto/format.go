package proto

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sarchlab/redpile/engine"
	"github.com/sarchlab/redpile/message"
	"github.com/sarchlab/redpile/registry"
	"github.com/sarchlab/redpile/store"
)

// FormatNode renders a NODE GET result: "x,y,z TYPE" followed by one
// space-prefixed "name:value" per declared field, matching node_print /
// node_print_field.
func FormatNode(n *store.Node) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", n.Location, n.Type.Name)
	for i, f := range n.Type.Fields {
		fmt.Fprintf(&b, " %s:%s", f.Name, n.Fields[i].String())
	}
	b.WriteByte('\n')
	return b.String()
}

// FormatFieldValue renders a FIELD GET result: the bare value with no
// field name, matching node_print_field_value. "nil" stands in for a
// vacant node or an out-of-range field.
func FormatFieldValue(loc fmt.Stringer, v registry.Value, ok bool) string {
	if !ok {
		return fmt.Sprintf("%s nil\n", loc)
	}
	return fmt.Sprintf("%s %s\n", loc, v.String())
}

// FormatStats renders the STATS reply as six separate "name: value" lines,
// matching the STAT_PRINT macro's one-stat-per-line shape rather than a
// single combined line.
func FormatStats(s engine.Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ticks: %d\n", s.Ticks)
	fmt.Fprintf(&b, "nodes: %d\n", s.Nodes)
	fmt.Fprintf(&b, "tree_depth: %d\n", s.TreeDepth)
	fmt.Fprintf(&b, "message_max_inputs: %d\n", s.MessageMaxInputs)
	fmt.Fprintf(&b, "message_max_outputs: %d\n", s.MessageMaxOutputs)
	fmt.Fprintf(&b, "message_max_queued: %d\n", s.MessageMaxQueued)
	return b.String()
}

// FormatMessage renders one queued/stored message as a Δtick line:
// "Δtick src => dst KIND value\n", matching queue_data_print_message.
// deltaTick is the message's target tick minus the current tick.
func FormatMessage(deltaTick int64, m message.Message, target fmt.Stringer, reg *registry.Registry) string {
	name := "UNKNOWN"
	if mk, ok := reg.FindMessageKindByBit(m.Kind); ok {
		name = mk.Name
	}
	return fmt.Sprintf("%d %s => %s %s %s\n", deltaTick, m.Source.Location, target, name, m.Value.String())
}

// FormatTypes renders a table listing every registered type's name, an
// enrichment beyond the plain-text reference (TYPES's exact text is not
// pinned).
func FormatTypes(w io.Writer, types []*registry.Type) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Types")
	t.AppendHeader(table.Row{"Name", "Fields", "Behaviors"})
	for _, typ := range types {
		t.AppendRow(table.Row{typ.Name, len(typ.Fields), len(typ.Behaviors)})
	}
	t.Render()
}

// FormatType renders one type's fields and behaviors as two tables.
func FormatType(w io.Writer, typ *registry.Type) {
	fields := table.NewWriter()
	fields.SetOutputMirror(w)
	fields.SetTitle(fmt.Sprintf("%s fields", typ.Name))
	fields.AppendHeader(table.Row{"#", "Name", "Type"})
	for i, f := range typ.Fields {
		fields.AppendRow(table.Row{i, f.Name, f.Type})
	}
	fields.Render()

	behaviors := table.NewWriter()
	behaviors.SetOutputMirror(w)
	behaviors.SetTitle(fmt.Sprintf("%s behaviors", typ.Name))
	behaviors.AppendHeader(table.Row{"#", "Name", "Mask"})
	for i, b := range typ.Behaviors {
		behaviors.AppendRow(table.Row{i, b.Name, fmt.Sprintf("%#x", b.Mask)})
	}
	behaviors.Render()
}
