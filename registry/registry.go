// Package registry holds the append-only collections a behavior script
// builds at startup: message kinds, behaviors and node types. Lookups are
// case-insensitive linear scans, exactly as the reference does it — these
// registries are small (tens of entries), so there is nothing to index.
package registry

import (
	"fmt"

	"golang.org/x/text/cases"
)

var foldCaser = cases.Fold()

func fold(s string) string { return foldCaser.String(s) }

// MessageKind is a named bit in the 32-bit message-kind word.
type MessageKind struct {
	Name string
	Bit  uint32 // 1 << ordinal
}

// System message kinds, pre-registered with distinct bits before any user
// kind is defined.
const (
	SystemMoveBit uint32 = 1 << iota
	SystemFieldBit
	SystemRemoveBit
	SystemDataBit
)

// HostRef is an opaque handle into the behavior host identifying a
// callable behavior body. The engine never interprets it.
type HostRef any

// Behavior is a named callable: the message kinds it listens for and an
// opaque reference into the behavior host that actually runs it.
type Behavior struct {
	Name string
	Mask uint32
	Host HostRef
}

// Type is a node class: its fields, its behaviors in declared order, and
// the precomputed OR of every behavior's mask.
type Type struct {
	Name         string
	Fields       []Field
	Behaviors    []*Behavior
	BehaviorMask uint32
	Default      bool
}

// FieldIndex returns the ordinal of a field by name, case-insensitively.
func (t *Type) FieldIndex(name string) (int, bool) {
	folded := fold(name)
	for i, f := range t.Fields {
		if fold(f.Name) == folded {
			return i, true
		}
	}
	return 0, false
}

// Registry is the append-only collection of message kinds, behaviors and
// types a behavior script builds. Construct with New, which pre-registers
// the four system message kinds.
type Registry struct {
	messageKinds []*MessageKind
	behaviors    []*Behavior
	types        []*Type
	defaultType  *Type
}

const maxMessageKindBits = 32

// New creates a Registry with the four system message kinds already
// registered, occupying the low four bits.
func New() *Registry {
	r := &Registry{}
	r.messageKinds = []*MessageKind{
		{Name: "SYSTEM_MOVE", Bit: SystemMoveBit},
		{Name: "SYSTEM_FIELD", Bit: SystemFieldBit},
		{Name: "SYSTEM_REMOVE", Bit: SystemRemoveBit},
		{Name: "SYSTEM_DATA", Bit: SystemDataBit},
	}
	return r
}

// DefineMessageKind appends a new user message kind and returns it. The
// bit assigned is 1 << (number of kinds already registered); it fails once
// every bit in the 32-bit mask word is spoken for.
func (r *Registry) DefineMessageKind(name string) (*MessageKind, error) {
	if len(r.messageKinds) >= maxMessageKindBits {
		return nil, fmt.Errorf("registry: cannot define message kind %q: all %d bits are in use", name, maxMessageKindBits)
	}
	mk := &MessageKind{Name: name, Bit: 1 << uint(len(r.messageKinds))}
	r.messageKinds = append(r.messageKinds, mk)
	return mk, nil
}

// FindMessageKind looks up a message kind by name, case-insensitively.
func (r *Registry) FindMessageKind(name string) (*MessageKind, bool) {
	folded := fold(name)
	for _, mk := range r.messageKinds {
		if fold(mk.Name) == folded {
			return mk, true
		}
	}
	return nil, false
}

// MessageKinds returns every registered message kind, system and user.
func (r *Registry) MessageKinds() []*MessageKind {
	return append([]*MessageKind(nil), r.messageKinds...)
}

// FindMessageKindByBit looks up a message kind by its bit value, needed to
// print a kind's name given only the bit a queued message carries.
func (r *Registry) FindMessageKindByBit(bit uint32) (*MessageKind, bool) {
	for _, mk := range r.messageKinds {
		if mk.Bit == bit {
			return mk, true
		}
	}
	return nil, false
}

// DefineBehavior appends a new behavior, prepended to the head of the
// internal list as the reference does (most-recently-defined matches
// first on a name collision).
func (r *Registry) DefineBehavior(name string, mask uint32, host HostRef) *Behavior {
	b := &Behavior{Name: name, Mask: mask, Host: host}
	r.behaviors = append([]*Behavior{b}, r.behaviors...)
	return b
}

// FindBehavior looks up a behavior by name, case-insensitively.
func (r *Registry) FindBehavior(name string) (*Behavior, bool) {
	folded := fold(name)
	for _, b := range r.behaviors {
		if fold(b.Name) == folded {
			return b, true
		}
	}
	return nil, false
}

// DefineType resolves behaviorNames against already-defined behaviors,
// computes the behavior mask, and appends the type. The very first type
// ever defined becomes the default and must declare no fields and no
// behaviors.
func (r *Registry) DefineType(name string, fields []Field, behaviorNames []string) (*Type, error) {
	isFirst := len(r.types) == 0
	if isFirst && (len(fields) != 0 || len(behaviorNames) != 0) {
		return nil, fmt.Errorf("registry: default type %q must declare no fields and no behaviors", name)
	}

	behaviors := make([]*Behavior, 0, len(behaviorNames))
	var mask uint32
	for _, bn := range behaviorNames {
		b, ok := r.FindBehavior(bn)
		if !ok {
			return nil, fmt.Errorf("registry: type %q references unknown behavior %q", name, bn)
		}
		behaviors = append(behaviors, b)
		mask |= b.Mask
	}

	t := &Type{
		Name:         name,
		Fields:       append([]Field(nil), fields...),
		Behaviors:    behaviors,
		BehaviorMask: mask,
		Default:      isFirst,
	}
	r.types = append(r.types, t)
	if isFirst {
		r.defaultType = t
	}
	return t, nil
}

// FindType looks up a type by name, case-insensitively.
func (r *Registry) FindType(name string) (*Type, bool) {
	folded := fold(name)
	for _, t := range r.types {
		if fold(t.Name) == folded {
			return t, true
		}
	}
	return nil, false
}

// DefaultType returns the implicit "air" type every vacant cell reports
// as. Panics if no type has been registered yet — callers must load a
// behavior script before touching the world.
func (r *Registry) DefaultType() *Type {
	if r.defaultType == nil {
		panic("registry: no default type registered — load a behavior script first")
	}
	return r.defaultType
}

// Types returns every registered type in declaration order.
func (r *Registry) Types() []*Type {
	return append([]*Type(nil), r.types...)
}
