package physical

import "fmt"

// Field names and tags one attribute of a Schema.
type Field struct {
	Name string
	Tag  ValueTag
}

// Schema plays the role §6 assigns to getSchema(): it's the source of
// getTupleSize() and indexOf(attribute) for a stream of Tuples. It follows
// the shape of a TupleDescription-style type (TypeAtIndex, GetSize,
// FindFieldIndex) but is built over ValueTag; pkg/physical does not depend
// on any per-width Field type hierarchy (see design note §9's replacement
// of dynamic value typing).
type Schema struct {
	fields []Field
}

func NewSchema(fields ...Field) *Schema {
	return &Schema{fields: append([]Field(nil), fields...)}
}

func (s *Schema) NumFields() int { return len(s.fields) }

func (s *Schema) TagAtIndex(i int) (ValueTag, error) {
	if i < 0 || i >= len(s.fields) {
		return 0, newDataError("Schema.TagAtIndex", fmt.Sprintf("index %d out of range [0,%d)", i, len(s.fields)))
	}
	return s.fields[i].Tag, nil
}

// IndexOf resolves an attribute name to its zero-based position, the
// planner-facing half of the getSchema()/indexOf() contract in §6.
func (s *Schema) IndexOf(name string) (int, error) {
	for i, f := range s.fields {
		if f.Name == name {
			return i, nil
		}
	}
	return -1, newUserError(CodeKeyArityMismatch, "Schema.IndexOf", fmt.Sprintf("no such attribute %q", name))
}

// TupleSize returns the fixed, schema-known serialized byte size of one
// tuple (§3): 8 bytes for an Int, 4 for a Float, and a 2-byte length prefix
// plus StringFieldWidth bytes of payload for a String. Strings are padded
// to a fixed width on disk (codec.go) so tupleSize — and therefore
// pageCapacity — stays constant regardless of the actual string content.
func (s *Schema) TupleSize() int {
	size := 0
	for _, f := range s.fields {
		switch f.Tag {
		case TagInt:
			size += 8
		case TagFloat:
			size += 4
		case TagString:
			size += 2 + StringFieldWidth
		}
	}
	return size
}

// Combine concatenates two schemas, used to derive a join operator's output
// schema from its children's (l ++ r, per §4.4/§4.5's output contract).
func (s *Schema) Combine(other *Schema) *Schema {
	combined := make([]Field, 0, len(s.fields)+len(other.fields))
	combined = append(combined, s.fields...)
	combined = append(combined, other.fields...)
	return &Schema{fields: combined}
}
