package value

import "testing"

func TestValueTableAcceptsMixedKeyKinds(t *testing.T) {
	tbl := NewValueTable()
	s := &ObjString{Chars: "key"}

	tbl.Set(Nil(), Number(1))
	tbl.Set(Bool(true), Number(2))
	tbl.Set(Number(3.5), Number(3))
	tbl.Set(FromObj(s), Number(4))

	cases := []struct {
		key  Value
		want float64
	}{
		{Nil(), 1},
		{Bool(true), 2},
		{Number(3.5), 3},
		{FromObj(s), 4},
	}
	for _, c := range cases {
		got, ok := tbl.Get(c.key)
		if !ok || got.Num != c.want {
			t.Fatalf("key %v: expected %v, got %v ok=%v", c.key, c.want, got, ok)
		}
	}
	if tbl.Count() != 4 {
		t.Fatalf("expected 4 live entries, got %d", tbl.Count())
	}
}

func TestValueTableOverwriteDoesNotGrowCount(t *testing.T) {
	tbl := NewValueTable()
	tbl.Set(Number(1), Number(10))
	tbl.Set(Number(1), Number(20))

	if tbl.Count() != 1 {
		t.Fatalf("expected overwrite to keep count at 1, got %d", tbl.Count())
	}
	got, _ := tbl.Get(Number(1))
	if got.Num != 20 {
		t.Fatalf("expected overwritten value 20, got %v", got.Num)
	}
}

func TestValueTableDeleteThenReinsert(t *testing.T) {
	tbl := NewValueTable()
	tbl.Set(Number(1), Number(100))
	if !tbl.Delete(Number(1)) {
		t.Fatalf("expected Delete to report success")
	}
	if _, ok := tbl.Get(Number(1)); ok {
		t.Fatalf("expected deleted key to be absent")
	}
	tbl.Set(Number(1), Number(200))
	got, ok := tbl.Get(Number(1))
	if !ok || got.Num != 200 {
		t.Fatalf("expected reinserted key to be found with new value, got %v ok=%v", got, ok)
	}
}

func TestValueTableDistinctStringObjectsWithEqualBytesAreDistinctKeys(t *testing.T) {
	tbl := NewValueTable()
	a := &ObjString{Chars: "dup", Hash: 42}
	b := &ObjString{Chars: "dup", Hash: 42}

	tbl.Set(FromObj(a), Number(1))
	tbl.Set(FromObj(b), Number(2))

	if tbl.Count() != 2 {
		t.Fatalf("expected non-interned strings with equal bytes to occupy distinct slots, got count %d", tbl.Count())
	}
}

func TestValueTableGrowAcrossManyEntries(t *testing.T) {
	tbl := NewValueTable()
	const n = 40
	for i := 0; i < n; i++ {
		tbl.Set(Number(float64(i)), Number(float64(i*i)))
	}
	for i := 0; i < n; i++ {
		got, ok := tbl.Get(Number(float64(i)))
		if !ok || got.Num != float64(i*i) {
			t.Fatalf("entry %d lost after growth: got %v ok=%v", i, got, ok)
		}
	}
}
