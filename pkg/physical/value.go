package physical

import "fmt"

// ValueTag identifies the scalar kind a Value carries.
type ValueTag uint8

const (
	TagInt ValueTag = iota
	TagFloat
	TagString
)

func (t ValueTag) String() string {
	switch t {
	case TagInt:
		return "int"
	case TagFloat:
		return "float"
	case TagString:
		return "string"
	default:
		return fmt.Sprintf("tag(%d)", uint8(t))
	}
}

// Value is a tagged scalar: an integer, a single-precision float, or a
// string. It replaces the source's untyped data-object container (design
// note §9): the tag is fixed at construction, and an attempt to compare two
// Values of differing tags is caught at the comparison boundary rather than
// surfacing as a runtime type-test deep inside an operator.
type Value struct {
	Tag ValueTag
	i   int64
	f   float32
	s   string
}

func IntValue(v int64) Value     { return Value{Tag: TagInt, i: v} }
func FloatValue(v float32) Value { return Value{Tag: TagFloat, f: v} }
func StringValue(v string) Value { return Value{Tag: TagString, s: v} }

func (v Value) Int() int64     { return v.i }
func (v Value) Float() float32 { return v.f }
func (v Value) Str() string    { return v.s }

// Compare returns -1, 0, or 1 as v orders before, equal to, or after other.
// Comparing Values of differing tags is a programming error (§7, third
// bullet): it's returned as a typed *error.DBError rather than aborting the
// process, per design note §9's discouragement of abort semantics.
func (v Value) Compare(other Value) (int, error) {
	if v.Tag != other.Tag {
		return 0, newDataError("Value.Compare", fmt.Sprintf("cannot compare %s with %s", v.Tag, other.Tag))
	}
	switch v.Tag {
	case TagInt:
		return compareOrdered(v.i, other.i), nil
	case TagFloat:
		return compareOrdered(v.f, other.f), nil
	case TagString:
		return compareOrdered(v.s, other.s), nil
	default:
		return 0, newDataError("Value.Compare", fmt.Sprintf("unsupported value tag %s", v.Tag))
	}
}

func compareOrdered[T int64 | float32 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Equal reports whether v and other compare equal. A tag mismatch is
// reported as not-equal rather than propagating the comparison error,
// matching how callers that only need equality (e.g. a schema sanity check)
// typically use it; code on the join hot path should call Compare directly
// so a genuine tag mismatch isn't silently swallowed.
func (v Value) Equal(other Value) bool {
	c, err := v.Compare(other)
	return err == nil && c == 0
}

func (v Value) String() string {
	switch v.Tag {
	case TagInt:
		return fmt.Sprintf("%d", v.i)
	case TagFloat:
		return fmt.Sprintf("%g", v.f)
	case TagString:
		return v.s
	default:
		return "?"
	}
}
