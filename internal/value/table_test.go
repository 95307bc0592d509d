package value

import "testing"

// testStrings builds distinct *ObjString keys for table tests. Table.find
// compares by pointer identity, so these don't need to go through an actual
// intern pool -- each call just needs fresh, distinctly-hashed objects.
func testStrings(strs ...string) []*ObjString {
	out := make([]*ObjString, len(strs))
	for i, s := range strs {
		out[i] = &ObjString{Chars: s, Hash: fnvHash(s)}
	}
	return out
}

func fnvHash(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

func TestTableSetGetDelete(t *testing.T) {
	tbl := NewTable()
	keys := testStrings("a", "b")

	if isNew := tbl.Set(keys[0], Number(1)); !isNew {
		t.Fatalf("expected first Set to report a new entry")
	}
	if isNew := tbl.Set(keys[0], Number(2)); isNew {
		t.Fatalf("expected overwriting Set to report not-new")
	}

	got, ok := tbl.Get(keys[0])
	if !ok || got.Num != 2 {
		t.Fatalf("expected Get to return the overwritten value, got %v ok=%v", got, ok)
	}

	if _, ok := tbl.Get(keys[1]); ok {
		t.Fatalf("expected absent key to report not-found")
	}

	if !tbl.Delete(keys[0]) {
		t.Fatalf("expected Delete to report success for a present key")
	}
	if _, ok := tbl.Get(keys[0]); ok {
		t.Fatalf("expected deleted key to no longer be found")
	}
}

func TestTableTombstoneDoesNotBreakProbeChain(t *testing.T) {
	tbl := NewTable()
	keys := testStrings("x", "y", "z")
	for i, k := range keys {
		tbl.Set(k, Number(float64(i)))
	}
	tbl.Delete(keys[0])

	got, ok := tbl.Get(keys[2])
	if !ok || got.Num != 2 {
		t.Fatalf("expected key past a tombstone to remain reachable, got %v ok=%v", got, ok)
	}
}

func TestTableGrowPreservesEntries(t *testing.T) {
	tbl := NewTable()
	const n = 50
	keys := make([]*ObjString, n)
	for i := 0; i < n; i++ {
		keys[i] = testStrings(string(rune('a'+i%26)) + string(rune(i)))[0]
		tbl.Set(keys[i], Number(float64(i)))
	}
	for i, k := range keys {
		got, ok := tbl.Get(k)
		if !ok || got.Num != float64(i) {
			t.Fatalf("entry %d lost after growth: got %v ok=%v", i, got, ok)
		}
	}
}

func TestTableAddAllCopiesLiveEntriesOnly(t *testing.T) {
	src := NewTable()
	keys := testStrings("m1", "m2")
	src.Set(keys[0], Number(1))
	src.Set(keys[1], Number(2))
	src.Delete(keys[1])

	dst := NewTable()
	dst.AddAll(src)

	if got, ok := dst.Get(keys[0]); !ok || got.Num != 1 {
		t.Fatalf("expected live entry to be copied, got %v ok=%v", got, ok)
	}
	if _, ok := dst.Get(keys[1]); ok {
		t.Fatalf("expected tombstoned entry not to be copied")
	}
}

func TestTableRemoveUnmarkedStringsDropsWeakEntries(t *testing.T) {
	tbl := NewTable()
	keys := testStrings("kept", "collected")
	tbl.Set(keys[0], Nil())
	tbl.Set(keys[1], Nil())
	keys[0].Marked = true

	tbl.RemoveUnmarkedStrings()

	if _, ok := tbl.Get(keys[0]); !ok {
		t.Fatalf("expected marked string to survive")
	}
	if _, ok := tbl.Get(keys[1]); ok {
		t.Fatalf("expected unmarked string to be dropped")
	}
}
