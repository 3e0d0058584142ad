package registry

import (
	"fmt"

	"github.com/sarchlab/redpile/loc"
)

// FieldType is the tag of the {integer, direction, string} sum type a
// field's value carries.
type FieldType int

const (
	FieldInteger FieldType = iota
	FieldDirection
	FieldString
)

func (t FieldType) String() string {
	switch t {
	case FieldInteger:
		return "INTEGER"
	case FieldDirection:
		return "DIRECTION"
	case FieldString:
		return "STRING"
	default:
		return "UNKNOWN"
	}
}

// Field is a single named, typed slot declared by a Type.
type Field struct {
	Name string
	Type FieldType
}

// Value is a tagged field value. Only the member matching Type is
// meaningful; the others are left at their zero value.
type Value struct {
	Type      FieldType
	Int       int64
	Direction loc.Direction
	Str       string
}

// IntValue builds an integer field value.
func IntValue(v int64) Value { return Value{Type: FieldInteger, Int: v} }

// DirectionValue builds a direction field value.
func DirectionValue(d loc.Direction) Value { return Value{Type: FieldDirection, Direction: d} }

// StringValue builds a string field value.
func StringValue(s string) Value { return Value{Type: FieldString, Str: s} }

// Equal compares two values for exact equality within their shared type.
func (v Value) Equal(o Value) bool {
	if v.Type != o.Type {
		return false
	}
	switch v.Type {
	case FieldInteger:
		return v.Int == o.Int
	case FieldDirection:
		return v.Direction == o.Direction
	case FieldString:
		return v.Str == o.Str
	default:
		return false
	}
}

// String renders a value the way node/field output does: bare integers,
// uppercase direction names, double-quoted strings.
func (v Value) String() string {
	switch v.Type {
	case FieldInteger:
		return fmt.Sprintf("%d", v.Int)
	case FieldDirection:
		return v.Direction.Name()
	case FieldString:
		return fmt.Sprintf("%q", v.Str)
	default:
		return "nil"
	}
}
