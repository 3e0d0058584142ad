package proto

import (
	"fmt"
	"io"

	"github.com/sarchlab/redpile/engine"
	"github.com/sarchlab/redpile/loc"
	"github.com/sarchlab/redpile/registry"
)

// Executor runs a parsed Command against a world, writing replies to Out
// and one-line diagnostics to Err. It never returns an error for a
// malformed or semantically bad command — per-command isolation means
// those are reported to Err and execution continues with the next
// command; Execute only returns an error for a tick aborted by a
// behavior-host failure, so a caller can decide whether to keep serving
// the connection.
type Executor struct {
	World *engine.World
	Reg   *registry.Registry
	Out   io.Writer
	Err   io.Writer
}

// NewExecutor builds an Executor wired to a world and its registry.
func NewExecutor(w *engine.World, reg *registry.Registry, out, err io.Writer) *Executor {
	return &Executor{World: w, Reg: reg, Out: out, Err: err}
}

func (e *Executor) errf(format string, args ...any) {
	fmt.Fprintf(e.Err, format+"\n", args...)
}

// Execute dispatches cmd. Returns an error only when a TICK aborted
// because a behavior errored; every other failure mode is reported to
// Err and swallowed so the caller's input loop can continue.
func (e *Executor) Execute(cmd Command) error {
	switch cmd.Verb {
	case Ping:
		fmt.Fprint(e.Out, "PONG\n")

	case Status:
		fmt.Fprint(e.Out, FormatStats(e.World.Stats()))

	case NodeGet:
		e.nodeGet(cmd.Region)

	case NodeSet:
		e.nodeSet(cmd.Region, cmd.TypeName, cmd.Fields)

	case FieldGet:
		e.fieldGet(cmd.Region, cmd.FieldName)

	case FieldSet:
		e.fieldSet(cmd.Region, cmd.FieldName, cmd.FieldValue)

	case Delete:
		for _, l := range cmd.Region.Locations() {
			e.World.RemoveNode(l)
		}

	case Tick:
		return e.tick(cmd.TickCount, cmd.LogLevel)

	case Messages:
		e.messages()

	case Types:
		FormatTypes(e.Out, e.Reg.Types())

	case TypeShow:
		typ, ok := e.Reg.FindType(cmd.TypeQuery)
		if !ok {
			e.errf("Unknown type %q", cmd.TypeQuery)
			return nil
		}
		FormatType(e.Out, typ)

	default:
		e.errf("proto: unhandled verb")
	}
	return nil
}

func (e *Executor) nodeGet(region Region) {
	for _, l := range region.Locations() {
		n, ok := e.World.GetNode(l)
		if !ok {
			fmt.Fprintf(e.Out, "%s %s\n", l, e.Reg.DefaultType().Name)
			continue
		}
		fmt.Fprint(e.Out, FormatNode(n))
	}
}

// nodeSet materializes every cell in region as typeName, then applies
// each field assignment. A bad field name or an out-of-range value is
// reported and skipped; the remaining assignments and remaining cells
// still apply, per the partial-application error policy.
func (e *Executor) nodeSet(region Region, typeName string, assignments []FieldAssignment) {
	typ, ok := e.Reg.FindType(typeName)
	if !ok {
		e.errf("Unknown type %q", typeName)
		return
	}

	for _, l := range region.Locations() {
		n, err := e.World.SetNode(l, typ.Name)
		if err != nil {
			e.errf("%s", err)
			continue
		}
		for _, a := range assignments {
			e.applyField(n.Fields, n.Type, a.Name, a.Value)
		}
	}
}

func (e *Executor) applyField(fields []registry.Value, typ *registry.Type, name, raw string) {
	idx, ok := typ.FieldIndex(name)
	if !ok {
		e.errf("The type %q doesn't have the field %q", typ.Name, name)
		return
	}

	v, err := parseFieldValue(typ.Fields[idx].Type, raw)
	if err != nil {
		e.errf("%s", err)
		return
	}
	fields[idx] = v
}

func parseFieldValue(t registry.FieldType, raw string) (registry.Value, error) {
	switch t {
	case registry.FieldInteger:
		var v int64
		if _, err := fmt.Sscanf(raw, "%d", &v); err != nil {
			return registry.Value{}, fmt.Errorf("%q is not an integer", raw)
		}
		return registry.IntValue(v), nil

	case registry.FieldDirection:
		d, ok := loc.ParseDirection(raw)
		if !ok {
			return registry.Value{}, fmt.Errorf("%q is not a direction", raw)
		}
		return registry.DirectionValue(d), nil

	case registry.FieldString:
		return registry.StringValue(raw), nil

	default:
		return registry.Value{}, fmt.Errorf("proto: unknown field type")
	}
}

func (e *Executor) fieldGet(region Region, name string) {
	for _, l := range region.Locations() {
		n, ok := e.World.GetNode(l)
		if !ok {
			fmt.Fprint(e.Out, FormatFieldValue(l, registry.Value{}, false))
			continue
		}
		idx, ok := n.Type.FieldIndex(name)
		if !ok {
			fmt.Fprint(e.Out, FormatFieldValue(l, registry.Value{}, false))
			continue
		}
		fmt.Fprint(e.Out, FormatFieldValue(l, n.Fields[idx], true))
	}
}

// fieldSet never materializes a vacant cell — the reference reports a
// missing-field error against the default type instead of creating one.
func (e *Executor) fieldSet(region Region, name, raw string) {
	for _, l := range region.Locations() {
		n, ok := e.World.GetNode(l)
		if !ok {
			e.errf("The type %q doesn't have the field %q", e.Reg.DefaultType().Name, name)
			continue
		}
		e.applyField(n.Fields, n.Type, name, raw)
	}
}

func (e *Executor) tick(count int, level LogLevel) error {
	if count <= 0 {
		return nil
	}
	advanced, err := e.World.RunTick(count)
	if level == Verbose || level == Normal {
		// the summary line is printed only for --verbose; the
		// scheduler's own logged diagnostics (logic-loop cap) do not
		// depend on the level.
		if level == Verbose {
			fmt.Fprintf(e.Out, "ticked %d/%d\n", advanced, count)
		}
	}
	if err != nil {
		e.errf("%s", err)
		return err
	}
	return nil
}

func (e *Executor) messages() {
	current := e.World.Ticks()
	for _, n := range e.World.Store.Live() {
		for _, t := range n.Messages.Ticks() {
			if t < current {
				continue
			}
			for _, m := range n.Messages.Messages(t) {
				delta := int64(t) - int64(current)
				fmt.Fprint(e.Out, FormatMessage(delta, m, n.Location, e.Reg))
			}
		}
	}
}
