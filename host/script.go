package host

import (
	"fmt"

	"github.com/dop251/goja"

	"github.com/sarchlab/redpile/loc"
	"github.com/sarchlab/redpile/message"
	"github.com/sarchlab/redpile/registry"
)

// ScriptHost is the concrete Behavior Host: a JavaScript runtime (goja)
// that a behavior script builds the Type Registry against once at
// startup, then evaluates per-node per-tick. The HostRef values it
// hands to registry.DefineBehavior are goja.Callable closures; nothing
// outside this file ever inspects one.
type ScriptHost struct {
	vm  *goja.Runtime
	reg *registry.Registry
}

// NewScriptHost builds a host wired to reg. Call Load to run the
// behavior script that populates reg's message kinds, behaviors and
// types before the engine starts ticking.
func NewScriptHost(reg *registry.Registry) *ScriptHost {
	h := &ScriptHost{vm: goja.New(), reg: reg}
	h.bindGlobals()
	return h
}

// Load compiles and runs a behavior script. The script calls
// defineMessageKind/defineBehavior/defineType to populate the registry
// this host was built with.
func (h *ScriptHost) Load(name, src string) error {
	prog, err := goja.Compile(name, src, false)
	if err != nil {
		return fmt.Errorf("host: compiling %s: %w", name, err)
	}
	if _, err := h.vm.RunProgram(prog); err != nil {
		return fmt.Errorf("host: running %s: %w", name, err)
	}
	return nil
}

func (h *ScriptHost) bindGlobals() {
	must := func(err error) {
		if err != nil {
			panic(h.vm.ToValue(err.Error()))
		}
	}

	h.vm.Set("defineMessageKind", func(name string) goja.Value {
		mk, err := h.reg.DefineMessageKind(name)
		must(err)
		return h.vm.ToValue(map[string]interface{}{"name": mk.Name, "bit": mk.Bit})
	})

	h.vm.Set("defineBehavior", func(name string, kindNames []string, fn goja.Callable) goja.Value {
		var mask uint32
		for _, kn := range kindNames {
			mk, ok := h.reg.FindMessageKind(kn)
			if !ok {
				panic(h.vm.ToValue(fmt.Sprintf("host: behavior %q listens for undefined message kind %q", name, kn)))
			}
			mask |= mk.Bit
		}
		b := h.reg.DefineBehavior(name, mask, fn)
		return h.vm.ToValue(map[string]interface{}{"name": b.Name, "mask": b.Mask})
	})

	h.vm.Set("defineType", func(name string, fields []map[string]string, behaviorNames []string) goja.Value {
		parsed := make([]registry.Field, 0, len(fields))
		for _, f := range fields {
			ft, err := parseFieldType(f["type"])
			must(err)
			parsed = append(parsed, registry.Field{Name: f["name"], Type: ft})
		}
		t, err := h.reg.DefineType(name, parsed, behaviorNames)
		must(err)
		return h.vm.ToValue(map[string]interface{}{"name": t.Name, "mask": t.BehaviorMask})
	})
}

func parseFieldType(s string) (registry.FieldType, error) {
	switch s {
	case "INTEGER":
		return registry.FieldInteger, nil
	case "DIRECTION":
		return registry.FieldDirection, nil
	case "STRING":
		return registry.FieldString, nil
	default:
		return 0, fmt.Errorf("host: unknown field type %q", s)
	}
}

// Run evaluates the behavior identified by ref against ctx. ref must be
// a goja.Callable produced by this same host's defineBehavior binding.
func (h *ScriptHost) Run(ref registry.HostRef, ctx Context) (err error) {
	fn, ok := ref.(goja.Callable)
	if !ok {
		return fmt.Errorf("host: behavior ref %T is not runnable by this host", ref)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("host: behavior panicked: %v", r)
		}
	}()

	jsCtx := h.buildContext(ctx)
	_, runErr := fn(goja.Undefined(), jsCtx)
	if runErr != nil {
		return fmt.Errorf("host: behavior error: %w", runErr)
	}
	return nil
}

func locToJS(l loc.Location) map[string]interface{} {
	return map[string]interface{}{"x": int64(l.X), "y": int64(l.Y), "z": int64(l.Z)}
}

func jsToLoc(v goja.Value) loc.Location {
	m, _ := v.Export().(map[string]interface{})
	coord := func(name string) loc.Coord {
		switch n := m[name].(type) {
		case int64:
			return loc.Coord(n)
		case float64:
			return loc.Coord(n)
		default:
			return 0
		}
	}
	return loc.New(coord("x"), coord("y"), coord("z"))
}

func valueToJS(v registry.Value) interface{} {
	switch v.Type {
	case registry.FieldDirection:
		return v.Direction.Name()
	case registry.FieldString:
		return v.Str
	default:
		return v.Int
	}
}

func jsToValue(ft registry.FieldType, v goja.Value) registry.Value {
	switch ft {
	case registry.FieldDirection:
		d, _ := loc.ParseDirection(v.String())
		return registry.DirectionValue(d)
	case registry.FieldString:
		return registry.StringValue(v.String())
	default:
		return registry.IntValue(v.ToInteger())
	}
}

// jsToValueAuto converts a message payload without a declared field
// type to tag along with: numbers become integers, strings that parse
// as a direction name become directions, everything else is a string.
func jsToValueAuto(v goja.Value) registry.Value {
	switch exported := v.Export().(type) {
	case int64:
		return registry.IntValue(exported)
	case float64:
		return registry.IntValue(int64(exported))
	case string:
		if d, ok := loc.ParseDirection(exported); ok {
			return registry.DirectionValue(d)
		}
		return registry.StringValue(exported)
	default:
		return registry.StringValue(v.String())
	}
}

func messageToJS(m message.Message) map[string]interface{} {
	return map[string]interface{}{
		"source": locToJS(m.Source.Location),
		"kind":   m.Kind,
		"value":  valueToJS(m.Value),
	}
}

func nodeViewToJS(n NodeView) map[string]interface{} {
	fields := make([]interface{}, len(n.Fields))
	for i, f := range n.Fields {
		fields[i] = valueToJS(f)
	}
	return map[string]interface{}{
		"location": locToJS(n.Location),
		"type":     n.TypeName,
		"fields":   fields,
	}
}

// buildContext translates a Context into the object shape a behavior
// script sees, per the host surface table: adjacent/send/move/remove
// and the inbox query helpers first/max/source.
func (h *ScriptHost) buildContext(ctx Context) *goja.Object {
	obj := h.vm.NewObject()

	node := ctx.Node()
	obj.Set("node", nodeViewToJS(node))

	inbox := ctx.Inbox()
	jsInbox := make([]interface{}, len(inbox))
	for i, m := range inbox {
		jsInbox[i] = messageToJS(m)
	}
	inboxObj := h.vm.NewObject()
	inboxObj.Set("messages", jsInbox)
	inboxObj.Set("first", func() goja.Value {
		if len(inbox) == 0 {
			return goja.Undefined()
		}
		return h.vm.ToValue(messageToJS(inbox[0]))
	})
	inboxObj.Set("max", func() goja.Value {
		if len(inbox) == 0 {
			return goja.Undefined()
		}
		best := inbox[0]
		for _, m := range inbox[1:] {
			if m.Value.Int > best.Value.Int {
				best = m
			}
		}
		return h.vm.ToValue(messageToJS(best))
	})
	inboxObj.Set("source", func(srcLoc goja.Value) goja.Value {
		want := jsToLoc(srcLoc)
		out := make([]interface{}, 0)
		for _, m := range inbox {
			if m.Source.Location == want {
				out = append(out, messageToJS(m))
			}
		}
		return h.vm.ToValue(out)
	})
	obj.Set("inbox", inboxObj)

	obj.Set("send", func(target goja.Value, kindName string, delay int64, value goja.Value) {
		mk, ok := h.reg.FindMessageKind(kindName)
		if !ok {
			panic(h.vm.ToValue(fmt.Sprintf("host: send to undefined message kind %q", kindName)))
		}
		ctx.Send(jsToLoc(target), mk.Bit, uint64(delay), jsToValueAuto(value))
	})

	obj.Set("move", func(dirName string) {
		d, ok := loc.ParseDirection(dirName)
		if !ok {
			panic(h.vm.ToValue(fmt.Sprintf("host: move: unknown direction %q", dirName)))
		}
		ctx.Move(d)
	})

	obj.Set("remove", func() { ctx.Remove() })

	obj.Set("setField", func(index int64, value goja.Value) {
		ft := registry.FieldInteger
		if int(index) < len(node.FieldTypes) {
			ft = node.FieldTypes[index]
		}
		ctx.SetField(int(index), jsToValue(ft, value))
	})

	obj.Set("adjacent", func(dirName string) goja.Value {
		d, ok := loc.ParseDirection(dirName)
		if !ok {
			panic(h.vm.ToValue(fmt.Sprintf("host: adjacent: unknown direction %q", dirName)))
		}
		return h.vm.ToValue(nodeViewToJS(ctx.Adjacent(d)))
	})

	obj.Set("adjacentMovement", func(movementName string) goja.Value {
		m, ok := parseMovement(movementName)
		if !ok {
			panic(h.vm.ToValue(fmt.Sprintf("host: adjacentMovement: unknown movement %q", movementName)))
		}
		return h.vm.ToValue(nodeViewToJS(ctx.AdjacentMovement(m)))
	})

	return obj
}

func parseMovement(name string) (loc.Movement, bool) {
	switch name {
	case "FORWARDS":
		return loc.Forwards, true
	case "BEHIND":
		return loc.Behind, true
	case "LEFT_OF":
		return loc.LeftOf, true
	case "RIGHT_OF":
		return loc.RightOf, true
	default:
		return 0, false
	}
}
