package physical

import "testing"

func TestValueCompareOrdering(t *testing.T) {
	cases := []struct {
		name string
		a, b Value
		want int
	}{
		{"int less", IntValue(1), IntValue(2), -1},
		{"int equal", IntValue(5), IntValue(5), 0},
		{"int greater", IntValue(9), IntValue(2), 1},
		{"float less", FloatValue(1.5), FloatValue(2.5), -1},
		{"string less", StringValue("abc"), StringValue("abd"), -1},
		{"string equal", StringValue("same"), StringValue("same"), 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := c.a.Compare(c.b)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != c.want {
				t.Fatalf("Compare(%v,%v) = %d, want %d", c.a, c.b, got, c.want)
			}
		})
	}
}

func TestValueCompareTagMismatch(t *testing.T) {
	_, err := IntValue(1).Compare(StringValue("x"))
	if err == nil {
		t.Fatal("expected an error comparing mismatched tags, got nil")
	}
}

func TestValueEqual(t *testing.T) {
	if !IntValue(3).Equal(IntValue(3)) {
		t.Fatal("expected IntValue(3).Equal(IntValue(3)) to be true")
	}
	if IntValue(3).Equal(StringValue("3")) {
		t.Fatal("expected a tag mismatch to report not-equal, not panic or error out")
	}
}
