package value

import (
	"fmt"
	"strings"
)

// ObjType tags the heap object variants of spec.md §3.
type ObjType uint8

const (
	TypeEmpty ObjType = iota
	TypeString
	TypeFunction
	TypeClosure
	TypeUpvalue
	TypeClass
	TypeTrait
	TypeInstance
	TypeBoundMethod
	TypeList
	TypeDict
	TypeFile
	TypeNative
	TypeModule
)

func (t ObjType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeFunction, TypeClosure, TypeNative:
		return "function"
	case TypeUpvalue:
		return "upvalue"
	case TypeClass:
		return "class"
	case TypeTrait:
		return "trait"
	case TypeInstance:
		return "instance"
	case TypeBoundMethod:
		return "method"
	case TypeList:
		return "list"
	case TypeDict:
		return "dict"
	case TypeFile:
		return "file"
	case TypeModule:
		return "module"
	default:
		return "empty"
	}
}

// Header is the GC bookkeeping every heap object carries: a mark bit and
// the next-pointer threading it into the collector's global sweep list.
type Header struct {
	Marked bool
	Next   Obj
	Size   int
}

// Obj is implemented by every heap-allocated Dictu value.
type Obj interface {
	objType() ObjType
	header() *Header
	String() string
}

// Type exposes an object's tag to the GC and to native code.
func Type(o Obj) ObjType { return o.objType() }

// HeaderOf exposes an object's GC header to the collector.
func HeaderOf(o Obj) *Header { return o.header() }

// ---- String -------------------------------------------------------------

// ObjString is an immutable, interned byte sequence. Two equal strings are
// always the same object (spec.md §3/§8 invariant 2).
type ObjString struct {
	Header
	Chars string
	Hash  uint32
}

func (s *ObjString) objType() ObjType { return TypeString }
func (s *ObjString) header() *Header  { return &s.Header }
func (s *ObjString) String() string   { return s.Chars }

// ---- Function / Closure / Upvalue ---------------------------------------

// ObjFunction is a compiled function prototype: name, arity, and chunk.
// Chunk is declared as an opaque interface{} here to avoid an import cycle
// with internal/bytecode; the compiler and VM downcast it.
type ObjFunction struct {
	Header
	Name          *ObjString
	Arity         int
	ArityOptional int
	UpvalueCount  int
	Chunk         interface{}
	IsInitializer bool
}

func (f *ObjFunction) objType() ObjType { return TypeFunction }
func (f *ObjFunction) header() *Header  { return &f.Header }
func (f *ObjFunction) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<def %s>", f.Name.Chars)
}

// ObjUpvalue is a captured variable: open (Location points into a live VM
// stack slot) or closed (owns Closed after the frame returns).
type ObjUpvalue struct {
	Header
	Location *Value
	Closed   Value
	// Slot records the stack index the upvalue was opened at, so the VM
	// can keep the open-upvalue list sorted by descending slot.
	Slot int
	Next *ObjUpvalue
}

func (u *ObjUpvalue) objType() ObjType { return TypeUpvalue }
func (u *ObjUpvalue) header() *Header  { return &u.Header }
func (u *ObjUpvalue) String() string   { return "<upvalue>" }

func (u *ObjUpvalue) Get() Value {
	if u.Location != nil {
		return *u.Location
	}
	return u.Closed
}

func (u *ObjUpvalue) Set(v Value) {
	if u.Location != nil {
		*u.Location = v
		return
	}
	u.Closed = v
}

func (u *ObjUpvalue) Close() {
	if u.Location != nil {
		u.Closed = *u.Location
		u.Location = nil
	}
}

// ObjClosure pairs a function with its captured upvalues.
type ObjClosure struct {
	Header
	Function *ObjFunction
	Upvalues []*ObjUpvalue
}

func (c *ObjClosure) objType() ObjType { return TypeClosure }
func (c *ObjClosure) header() *Header  { return &c.Header }
func (c *ObjClosure) String() string   { return c.Function.String() }

// ---- Native --------------------------------------------------------------

// NativeFn is a host-provided callable: (vm, argc, argv) -> Value. The vm
// parameter is typed as interface{} to avoid internal/value importing
// internal/vm; callers downcast via the concrete signature in package vm.
type NativeFn func(vm interface{}, argc int, argv []Value) Value

// ObjNativeFunc wraps a Go function registered as a Dictu builtin.
type ObjNativeFunc struct {
	Header
	Name string
	Fn   NativeFn
}

func (n *ObjNativeFunc) objType() ObjType { return TypeNative }
func (n *ObjNativeFunc) header() *Header  { return &n.Header }
func (n *ObjNativeFunc) String() string   { return fmt.Sprintf("<native %s>", n.Name) }

// ---- Class / Trait / Instance / BoundMethod -------------------------------

// ObjClass is a class: name, its own + inherited method table, and an
// optional superclass reference (spec.md §3/§4.5).
type ObjClass struct {
	Header
	Name       *ObjString
	Methods    *Table
	Superclass *ObjClass
	Abstract   bool
}

func (c *ObjClass) objType() ObjType { return TypeClass }
func (c *ObjClass) header() *Header  { return &c.Header }
func (c *ObjClass) String() string   { return fmt.Sprintf("<class %s>", c.Name.Chars) }

// ObjTrait is a named bag of methods with no state and no is-a relation.
type ObjTrait struct {
	Header
	Name    *ObjString
	Methods *Table
}

func (t *ObjTrait) objType() ObjType { return TypeTrait }
func (t *ObjTrait) header() *Header  { return &t.Header }
func (t *ObjTrait) String() string   { return fmt.Sprintf("<trait %s>", t.Name.Chars) }

// ObjInstance is a class instance: a class reference plus an own-fields
// table.
type ObjInstance struct {
	Header
	Class  *ObjClass
	Fields *Table
}

func (i *ObjInstance) objType() ObjType { return TypeInstance }
func (i *ObjInstance) header() *Header  { return &i.Header }
func (i *ObjInstance) String() string   { return fmt.Sprintf("<%s instance>", i.Class.Name.Chars) }

// ObjBoundMethod pairs a receiver with the closure resolved for it.
type ObjBoundMethod struct {
	Header
	Receiver Value
	Method   *ObjClosure
}

func (b *ObjBoundMethod) objType() ObjType { return TypeBoundMethod }
func (b *ObjBoundMethod) header() *Header  { return &b.Header }
func (b *ObjBoundMethod) String() string   { return b.Method.String() }

// ---- List / Dict -----------------------------------------------------------

// ObjList is a growable array of Values.
type ObjList struct {
	Header
	Items []Value
}

func (l *ObjList) objType() ObjType { return TypeList }
func (l *ObjList) header() *Header  { return &l.Header }
func (l *ObjList) String() string {
	parts := make([]string, len(l.Items))
	for i, v := range l.Items {
		if s, ok := v.Obj.(*ObjString); ok {
			parts[i] = "'" + s.Chars + "'"
		} else {
			parts[i] = v.String()
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ObjDict is a Value-keyed open-addressed table. Keys accepted: strings,
// numbers, booleans, nil; equality follows Value equality.
type ObjDict struct {
	Header
	Entries *ValueTable
}

func (d *ObjDict) objType() ObjType { return TypeDict }
func (d *ObjDict) header() *Header  { return &d.Header }
func (d *ObjDict) String() string {
	parts := make([]string, 0, d.Entries.Count())
	d.Entries.Each(func(k, v Value) bool {
		parts = append(parts, fmt.Sprintf("%s: %s", dictKeyString(k), v.String()))
		return true
	})
	return "{" + strings.Join(parts, ", ") + "}"
}

func dictKeyString(k Value) string {
	if s, ok := k.Obj.(*ObjString); ok {
		return "'" + s.Chars + "'"
	}
	return k.String()
}

// ---- File ------------------------------------------------------------------

// ObjFile wraps an OS file handle plus the mode it was opened with.
type ObjFile struct {
	Header
	Path   string
	Mode   string
	Handle interface{} // *os.File, net.Conn, or *sql.DB; kept opaque to avoid importing os/net/sql here
	Reader interface{} // lazily-created *bufio.Reader for line-buffered reads; owned by the native that set it
	Closed bool
}

func (f *ObjFile) objType() ObjType { return TypeFile }
func (f *ObjFile) header() *Header  { return &f.Header }
func (f *ObjFile) String() string   { return fmt.Sprintf("<file %s>", f.Path) }

// ---- Module -----------------------------------------------------------------

// ObjModule is the single-execution cache sentinel OP_IMPORT installs.
type ObjModule struct {
	Header
	Name    string
	Globals *Table
}

func (m *ObjModule) objType() ObjType { return TypeModule }
func (m *ObjModule) header() *Header  { return &m.Header }
func (m *ObjModule) String() string   { return fmt.Sprintf("<module %s>", m.Name) }
