// Package gc implements Dictu's mark-and-sweep collector (spec.md §4.3).
// It owns the intern pool and the global allocation ("sweep") list, and
// cooperates with both a running VM and any compiler currently lowering
// source to bytecode, since compilation must itself be GC-safe.
package gc

import (
	"hash/fnv"

	"github.com/dictu-lang/dictu-go/internal/bytecode"
	"github.com/dictu-lang/dictu-go/internal/value"
)

// VMRoot is implemented by the VM so the collector can walk its roots
// (stack, frames, open upvalues, globals, initString) without internal/gc
// importing internal/vm.
type VMRoot interface {
	GCMarkRoots(mark func(value.Obj))
}

// CompilerRoot is implemented by an in-progress compiler: its
// partially-built function object (and through it the chunk's constant
// pool) must survive collection triggered mid-compile (spec.md §4.3/§4.4).
type CompilerRoot interface {
	GCMarkRoots(mark func(value.Obj))
}

// Collector is a precise, stop-the-world mark-sweep collector.
type Collector struct {
	strings *value.Table // weak intern pool
	head    value.Obj    // sweep list head, threaded via Header.Next

	bytesAllocated int64
	nextGC         int64

	// Stress, when true, forces a collection on every allocation
	// (spec.md §4.3's DEBUG_STRESS_GC).
	Stress bool

	vmRoot    VMRoot
	compilers []CompilerRoot

	gray []value.Obj

	Cycles int
}

const initialNextGC = 1024 * 1024

// New constructs a collector with an empty heap.
func New() *Collector {
	return &Collector{
		strings: value.NewTable(),
		nextGC:  initialNextGC,
	}
}

// SetVMRoot registers the VM whose stack/frames/globals are scanned as
// roots. Called once when the VM is constructed.
func (c *Collector) SetVMRoot(r VMRoot) { c.vmRoot = r }

// EnterCompiler pushes a new compiler frame onto the root-marking chain;
// ExitCompiler pops it. The compiler calls these around Compile and around
// each nested function_ so nested function compilation (and any compilation
// triggered by OP_IMPORT while the VM is live) keeps its in-progress
// function and that function's constants reachable.
func (c *Collector) EnterCompiler(r CompilerRoot) { c.compilers = append(c.compilers, r) }
func (c *Collector) ExitCompiler() {
	if len(c.compilers) > 0 {
		c.compilers = c.compilers[:len(c.compilers)-1]
	}
}

// BytesAllocated reports the collector's live-heap estimate.
func (c *Collector) BytesAllocated() int64 { return c.bytesAllocated }

// Track links a freshly allocated object into the sweep list and charges
// its size against the allocation threshold, triggering a collection if
// the threshold (or Stress mode) demands it. size is the implementer's
// estimate of the object's heap footprint; exactness is not required.
func (c *Collector) Track(o value.Obj, size int) {
	h := value.HeaderOf(o)
	h.Next = c.head
	h.Size = size
	c.head = o
	c.bytesAllocated += int64(size)
	if c.Stress || c.bytesAllocated >= c.nextGC {
		c.Collect()
	}
}

// Intern returns the canonical *ObjString for chars, allocating one if this
// is the first time these bytes have been seen (spec.md §4.2's
// findString, used by the intern pool).
func (c *Collector) Intern(chars string) *value.ObjString {
	h := hashString(chars)
	if existing := c.strings.FindString(chars, h); existing != nil {
		return existing
	}
	s := &value.ObjString{Chars: chars, Hash: h}
	c.Track(s, len(chars)+16)
	c.strings.Set(s, value.Nil())
	return s
}

func hashString(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

// Collect runs one full mark-sweep cycle. It is semantically invisible:
// spec.md §8 invariant 1 requires that no observable program result depend
// on when, or whether, a given cycle runs.
func (c *Collector) Collect() {
	c.Cycles++
	c.gray = c.gray[:0]

	mark := c.mark
	if c.vmRoot != nil {
		c.vmRoot.GCMarkRoots(mark)
	}
	for _, cr := range c.compilers {
		cr.GCMarkRoots(mark)
	}

	for len(c.gray) > 0 {
		o := c.gray[len(c.gray)-1]
		c.gray = c.gray[:len(c.gray)-1]
		c.blacken(o)
	}

	// Interned strings are weak: drop any that marking didn't reach.
	c.strings.RemoveUnmarkedStrings()

	c.sweep()
	c.nextGC = c.bytesAllocated * 2
	if c.nextGC < initialNextGC {
		c.nextGC = initialNextGC
	}
}

// mark is handed to root providers as the callback that grays an object.
func (c *Collector) mark(o value.Obj) {
	if o == nil {
		return
	}
	h := value.HeaderOf(o)
	if h == nil || h.Marked {
		return
	}
	h.Marked = true
	c.gray = append(c.gray, o)
}

// blacken marks every object a gray object directly references, per
// spec.md §4.3 ("Classes, closures, functions, lists, dicts, instances,
// bound methods recursively mark their referents; strings, natives, files
// are leaves").
func (c *Collector) blacken(o value.Obj) {
	switch v := o.(type) {
	case *value.ObjFunction:
		if v.Name != nil {
			c.mark(v.Name)
		}
		if ch, ok := v.Chunk.(*bytecode.Chunk); ok {
			for _, k := range ch.Constants {
				c.markValue(k)
			}
		}
	case *value.ObjClosure:
		c.mark(v.Function)
		for _, uv := range v.Upvalues {
			c.mark(uv)
		}
	case *value.ObjUpvalue:
		c.markValue(v.Get())
	case *value.ObjClass:
		c.mark(v.Name)
		c.markTable(v.Methods)
		if v.Superclass != nil {
			c.mark(v.Superclass)
		}
	case *value.ObjTrait:
		c.mark(v.Name)
		c.markTable(v.Methods)
	case *value.ObjInstance:
		c.mark(v.Class)
		c.markTable(v.Fields)
	case *value.ObjBoundMethod:
		c.markValue(v.Receiver)
		c.mark(v.Method)
	case *value.ObjList:
		for _, item := range v.Items {
			c.markValue(item)
		}
	case *value.ObjDict:
		v.Entries.Each(func(k, val value.Value) bool {
			c.markValue(k)
			c.markValue(val)
			return true
		})
	case *value.ObjModule:
		c.markTable(v.Globals)
	}
}

func (c *Collector) markTable(t *value.Table) {
	if t == nil {
		return
	}
	t.Each(func(k *value.ObjString, v value.Value) bool {
		c.mark(k)
		c.markValue(v)
		return true
	})
}

func (c *Collector) markValue(v value.Value) {
	if v.Kind == value.KindObj && v.Obj != nil {
		c.mark(v.Obj)
	}
}

// sweep reclaims every unmarked object on the allocation list and clears
// marks on survivors, ready for the next cycle. Finalization order is
// unspecified (spec.md §5) -- Dictu objects have no destructors.
func (c *Collector) sweep() {
	var prev value.Obj
	cur := c.head
	for cur != nil {
		h := value.HeaderOf(cur)
		next := h.Next
		if h.Marked {
			h.Marked = false
			prev = cur
		} else {
			if prev == nil {
				c.head = next
			} else {
				value.HeaderOf(prev).Next = next
			}
			c.bytesAllocated -= int64(h.Size)
		}
		cur = next
	}
}
