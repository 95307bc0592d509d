package value

const tableMaxLoad = 0.75

type entry struct {
	Key   *ObjString
	Value Value
}

// Table is the open-addressed, string-keyed hash map backing interned
// strings, globals, fields and method tables (spec.md §4.2). Lookup
// compares key pointers (interned strings are unique), not bytes.
type Table struct {
	entries  []entry
	count    int // live entries + tombstones
	capacity int
}

// NewTable constructs an empty table.
func NewTable() *Table {
	return &Table{}
}

// Count returns the number of live (non-tombstone) entries.
func (t *Table) Count() int {
	live := 0
	for _, e := range t.entries {
		if e.Key != nil {
			live++
		}
	}
	return live
}

// Get looks up key, returning its value and whether it was present.
func (t *Table) Get(key *ObjString) (Value, bool) {
	if t.capacity == 0 {
		return Value{}, false
	}
	e := t.find(key)
	if e == nil || e.Key == nil {
		return Value{}, false
	}
	return e.Value, true
}

// Set inserts or overwrites key -> val. Returns true if this created a new
// entry (as opposed to overwriting one).
func (t *Table) Set(key *ObjString, val Value) bool {
	if float64(t.count+1) > float64(t.capacity)*tableMaxLoad {
		t.grow()
	}
	e := t.find(key)
	isNew := e.Key == nil
	if isNew && e.Value.IsNil() {
		t.count++
	}
	e.Key = key
	e.Value = val
	return isNew
}

// Delete removes key, leaving a tombstone so probe chains stay intact.
func (t *Table) Delete(key *ObjString) bool {
	if t.capacity == 0 {
		return false
	}
	e := t.find(key)
	if e == nil || e.Key == nil {
		return false
	}
	e.Key = nil
	e.Value = Bool(true) // tombstone marker
	return true
}

// Each calls fn for every live entry; iteration stops early if fn returns
// false.
func (t *Table) Each(fn func(key *ObjString, val Value) bool) {
	for _, e := range t.entries {
		if e.Key == nil {
			continue
		}
		if !fn(e.Key, e.Value) {
			return
		}
	}
}

// AddAll copies every live entry of src into t (used by OP_SUBCLASS to
// inherit a superclass's method table and OP_USE to compose a trait's).
func (t *Table) AddAll(src *Table) {
	if src == nil {
		return
	}
	src.Each(func(k *ObjString, v Value) bool {
		t.Set(k, v)
		return true
	})
}

// find returns the slot key should occupy: either its live entry, the
// first tombstone/empty slot seen along the probe chain (for an absent
// key, so Set can reuse it), or nil if the table is empty.
func (t *Table) find(key *ObjString) *entry {
	if t.capacity == 0 {
		return nil
	}
	idx := int(key.Hash) % t.capacity
	var tombstone *entry
	for {
		e := &t.entries[idx]
		if e.Key == nil {
			if e.Value.IsNil() {
				// truly empty slot
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			// tombstone
			if tombstone == nil {
				tombstone = e
			}
		} else if e.Key == key {
			return e
		}
		idx = (idx + 1) % t.capacity
	}
}

// FindString walks the probe chain by (length, hash, bytes) rather than by
// pointer identity -- this is the routine the intern pool uses to find a
// canonical *ObjString for a freshly scanned string.
func (t *Table) FindString(chars string, hash uint32) *ObjString {
	if t.capacity == 0 {
		return nil
	}
	idx := int(hash) % t.capacity
	for {
		e := &t.entries[idx]
		if e.Key == nil {
			if e.Value.IsNil() {
				return nil
			}
		} else if e.Key.Hash == hash && e.Key.Chars == chars {
			return e.Key
		}
		idx = (idx + 1) % t.capacity
	}
}

func (t *Table) grow() {
	newCap := t.capacity * 2
	if newCap < 8 {
		newCap = 8
	}
	old := t.entries
	t.entries = make([]entry, newCap)
	t.capacity = newCap
	t.count = 0
	for _, e := range old {
		if e.Key == nil {
			continue
		}
		dst := t.find(e.Key)
		dst.Key = e.Key
		dst.Value = e.Value
		t.count++
	}
}

// RemoveUnmarkedStrings is the GC's weak-interning pass (spec.md §4.3):
// after marking, any interned string whose object is unmarked is dropped
// from the table so sweep can reclaim it.
func (t *Table) RemoveUnmarkedStrings() {
	for i := range t.entries {
		e := &t.entries[i]
		if e.Key != nil && !e.Key.Marked {
			e.Key = nil
			e.Value = Bool(true) // tombstone
		}
	}
}
