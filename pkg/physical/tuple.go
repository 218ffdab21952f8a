package physical

// Tuple is an immutable, ordered vector of Values. Attribute positions are
// resolved during planning against a Schema; a Tuple on its own only knows
// its values (§3).
type Tuple struct {
	Values []Value
}

func NewTuple(values []Value) *Tuple {
	return &Tuple{Values: values}
}

// Combine concatenates the fields of t and other into a new tuple: l ++ r,
// the output contract both join operators build their result rows with.
func (t *Tuple) Combine(other *Tuple) *Tuple {
	combined := make([]Value, 0, len(t.Values)+len(other.Values))
	combined = append(combined, t.Values...)
	combined = append(combined, other.Values...)
	return &Tuple{Values: combined}
}
