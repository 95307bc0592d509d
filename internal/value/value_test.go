package value

import "testing"

func TestFormatNumberDropsTrailingZero(t *testing.T) {
	if got := Number(7).String(); got != "7" {
		t.Fatalf("expected whole number to print without a decimal point, got %q", got)
	}
	if got := Number(3.5).String(); got != "3.5" {
		t.Fatalf("expected 3.5, got %q", got)
	}
}

func TestFalseyness(t *testing.T) {
	cases := []struct {
		v      Value
		falsey bool
	}{
		{Nil(), true},
		{Bool(false), true},
		{Bool(true), false},
		{Number(0), false},
		{FromObj(&ObjString{Chars: ""}), false},
	}
	for _, c := range cases {
		if got := c.v.Falsey(); got != c.falsey {
			t.Fatalf("%v: expected Falsey()=%v, got %v", c.v, c.falsey, got)
		}
	}
}

func TestEqualStringsByIdentityNotBytes(t *testing.T) {
	a := &ObjString{Chars: "hi"}
	b := &ObjString{Chars: "hi"}
	if Equal(FromObj(a), FromObj(b)) {
		t.Fatalf("expected two distinct (non-interned) *ObjString with equal bytes to compare unequal")
	}
	if !Equal(FromObj(a), FromObj(a)) {
		t.Fatalf("expected a string to equal itself")
	}
}

func TestEqualAcrossKindsIsFalse(t *testing.T) {
	if Equal(Number(0), Bool(false)) {
		t.Fatalf("expected 0 and false to compare unequal across kinds")
	}
	if Equal(Nil(), Bool(false)) {
		t.Fatalf("expected nil and false to compare unequal across kinds")
	}
}

func TestTypeNameForEachKind(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{Nil(), "nil"},
		{Bool(true), "bool"},
		{Number(1), "number"},
		{FromObj(&ObjString{Chars: "s"}), "string"},
		{FromObj(&ObjList{}), "list"},
	}
	for _, c := range cases {
		if got := TypeName(c.v); got != c.want {
			t.Fatalf("expected %q, got %q", c.want, got)
		}
	}
}

func TestEmptyAndOmittedSentinelsAreDistinct(t *testing.T) {
	if !Empty.IsEmpty() {
		t.Fatalf("expected Empty.IsEmpty() to be true")
	}
	if Empty.IsOmitted() {
		t.Fatalf("expected Empty not to be the omitted sentinel")
	}
	if !Omitted.IsOmitted() {
		t.Fatalf("expected Omitted.IsOmitted() to be true")
	}
	if Omitted.IsEmpty() {
		t.Fatalf("expected Omitted not to be the empty sentinel")
	}
}
