// Package vm implements Dictu's stack-based bytecode interpreter: call
// frames, the closure/upvalue model, method/trait/inheritance dispatch,
// import handling, and REPL-aware expression-statement printing
// (spec.md §4.5).
package vm

import (
	"fmt"
	"io"
	"math"

	"github.com/dictu-lang/dictu-go/internal/bytecode"
	"github.com/dictu-lang/dictu-go/internal/gc"
	"github.com/dictu-lang/dictu-go/internal/value"
)

// maxFrames and maxStack follow spec.md §4.5's "fixed upper bound
// sufficient for 64 frames × 256 slots" — the stack slice is preallocated
// to this capacity up front so open upvalues (which alias stack slots by
// pointer) are never invalidated by a reallocating append.
const (
	maxFrames = 64
	maxStack  = maxFrames * 256
)

// VM is one interpreter instance: value stack, call frames, globals,
// open-upvalue list, loaded modules, and the builtin-type method tables
// natives register into.
type VM struct {
	Collector *gc.Collector
	Globals   *value.Table
	Modules   map[string]*value.ObjModule
	Repl      bool

	Out    io.Writer
	ErrOut io.Writer

	stack        []value.Value
	frames       []Frame
	openUpvalues *value.ObjUpvalue

	initString *value.ObjString

	stringMethods *value.Table
	listMethods   *value.Table
	dictMethods   *value.Table
	fileMethods   *value.Table
	numberMethods *value.Table

	// shadowedGlobals holds globals tables displaced by a nested
	// importFile call while it runs; vm.Globals only ever points at the
	// innermost one, so these must be rooted separately (see
	// GCMarkRoots/importFile).
	shadowedGlobals []*value.Table

	pendingErr string
}

// New constructs a VM sharing collector with whatever compiled the code it
// will run, and registers itself as the collector's VM root.
func New(collector *gc.Collector, out, errOut io.Writer) *VM {
	vm := &VM{
		Collector:     collector,
		Globals:       value.NewTable(),
		Modules:       make(map[string]*value.ObjModule),
		Out:           out,
		ErrOut:        errOut,
		stack:         make([]value.Value, 0, maxStack),
		stringMethods: value.NewTable(),
		listMethods:   value.NewTable(),
		dictMethods:   value.NewTable(),
		fileMethods:   value.NewTable(),
		numberMethods: value.NewTable(),
	}
	vm.initString = collector.Intern("init")
	collector.SetVMRoot(vm)
	vm.installBuiltinMethods()
	return vm
}

// GCMarkRoots satisfies gc.VMRoot: spec.md §4.3's root set is the value
// stack, every frame's closure, the open-upvalue list, the globals table
// (plus any globals table currently shadowed by a nested import),
// initString, loaded modules, and the builtin-type method tables.
func (vm *VM) GCMarkRoots(mark func(value.Obj)) {
	for _, v := range vm.stack {
		if v.Kind == value.KindObj && v.Obj != nil {
			mark(v.Obj)
		}
	}
	for _, fr := range vm.frames {
		mark(fr.closure)
	}
	for uv := vm.openUpvalues; uv != nil; uv = uv.Next {
		mark(uv)
	}
	vm.markTable(mark, vm.Globals)
	for _, g := range vm.shadowedGlobals {
		vm.markTable(mark, g)
	}
	mark(vm.initString)
	for _, mod := range vm.Modules {
		mark(mod)
	}
	vm.markTable(mark, vm.stringMethods)
	vm.markTable(mark, vm.listMethods)
	vm.markTable(mark, vm.dictMethods)
	vm.markTable(mark, vm.fileMethods)
	vm.markTable(mark, vm.numberMethods)
}

// markTable marks a *value.Table's interned name keys and object values.
// Used for vm.Globals/shadowedGlobals and the five builtin-type method
// tables -- VM fields that aren't reachable from any other root. Without
// this, a collection un-interns every method/global name out from under
// the (pointer-identity-keyed) table -- the table keeps its now-orphaned
// key pointer, and the next lookup with a freshly-interned name misses.
func (vm *VM) markTable(mark func(value.Obj), t *value.Table) {
	t.Each(func(k *value.ObjString, v value.Value) bool {
		mark(k)
		if v.Kind == value.KindObj && v.Obj != nil {
			mark(v.Obj)
		}
		return true
	})
}

// Interpret wraps fn (the top-level <script> function) in a closure and
// runs it to completion.
func (vm *VM) Interpret(fn *value.ObjFunction) error {
	closure := &value.ObjClosure{Function: fn}
	vm.Collector.Track(closure, 32)
	vm.push(value.FromObj(closure))
	if err := vm.call(closure, 0); err != nil {
		return err
	}
	return vm.run(len(vm.frames) - 1)
}

func (vm *VM) push(v value.Value) {
	if len(vm.stack) >= maxStack {
		panic(vm.throw("stack overflow"))
	}
	vm.stack = append(vm.stack, v)
}

func (vm *VM) pop() value.Value {
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[len(vm.stack)-1-distance]
}

func (vm *VM) setAt(distance int, v value.Value) {
	vm.stack[len(vm.stack)-1-distance] = v
}

func (vm *VM) frame() *Frame { return &vm.frames[len(vm.frames)-1] }

// run is the fetch-decode-execute loop. It executes until the frame stack
// depth drops to stopDepth (OP_RETURN on the frame at that depth), letting
// importFile drive a nested script to completion without disturbing the
// importing VM's own in-flight frames. A nil return means the stopDepth
// frame returned normally; any other error has already been reported to
// ErrOut via throw.
func (vm *VM) run(stopDepth int) (runErr error) {
	defer func() {
		if r := recover(); r != nil {
			if err, ok := r.(error); ok {
				runErr = err
				return
			}
			panic(r)
		}
	}()

	for {
		fr := vm.frame()
		op := fr.readByte()

		switch op {
		case bytecode.OP_CONSTANT:
			idx := fr.readByte()
			vm.push(fr.chunk.Constants[idx])
		case bytecode.OP_NIL:
			vm.push(value.Nil())
		case bytecode.OP_TRUE:
			vm.push(value.Bool(true))
		case bytecode.OP_FALSE:
			vm.push(value.Bool(false))
		case bytecode.OP_POP:
			vm.pop()
		case bytecode.OP_POP_REPL:
			result := vm.pop()
			if vm.Repl {
				fmt.Fprintln(vm.Out, result.String())
			}
		case bytecode.OP_DUP:
			vm.push(vm.peek(0))

		case bytecode.OP_ADD:
			if err := vm.add(); err != nil {
				return err
			}
		case bytecode.OP_SUBTRACT:
			if err := vm.numericBinary(func(a, b float64) float64 { return a - b }); err != nil {
				return err
			}
		case bytecode.OP_MULTIPLY:
			if err := vm.numericBinary(func(a, b float64) float64 { return a * b }); err != nil {
				return err
			}
		case bytecode.OP_DIVIDE:
			if err := vm.numericBinary(func(a, b float64) float64 { return a / b }); err != nil {
				return err
			}
		case bytecode.OP_MOD:
			if err := vm.numericBinary(math.Mod); err != nil {
				return err
			}
		case bytecode.OP_POW:
			if err := vm.numericBinary(math.Pow); err != nil {
				return err
			}
		case bytecode.OP_BITAND:
			if err := vm.intBinary(func(a, b int64) int64 { return a & b }); err != nil {
				return err
			}
		case bytecode.OP_BITOR:
			if err := vm.intBinary(func(a, b int64) int64 { return a | b }); err != nil {
				return err
			}
		case bytecode.OP_BITXOR:
			if err := vm.intBinary(func(a, b int64) int64 { return a ^ b }); err != nil {
				return err
			}
		case bytecode.OP_BITNOT:
			v := vm.pop()
			if v.Kind != value.KindNumber {
				return vm.throw("operand to '~' must be a number")
			}
			vm.push(value.Number(float64(^int64(v.Num))))
		case bytecode.OP_NEGATE:
			v := vm.pop()
			if v.Kind != value.KindNumber {
				return vm.throw("operand to unary '-' must be a number")
			}
			vm.push(value.Number(-v.Num))
		case bytecode.OP_NOT:
			vm.push(value.Bool(vm.pop().Falsey()))

		case bytecode.OP_EQUAL:
			b, a := vm.pop(), vm.pop()
			vm.push(value.Bool(value.Equal(a, b)))
		case bytecode.OP_GREATER:
			if err := vm.compare(func(a, b float64) bool { return a > b }); err != nil {
				return err
			}
		case bytecode.OP_LESS:
			if err := vm.compare(func(a, b float64) bool { return a < b }); err != nil {
				return err
			}

		case bytecode.OP_GET_LOCAL:
			slot := fr.readByte()
			vm.push(vm.stack[fr.base+int(slot)])
		case bytecode.OP_SET_LOCAL:
			slot := fr.readByte()
			vm.stack[fr.base+int(slot)] = vm.peek(0)
		case bytecode.OP_GET_GLOBAL:
			name := fr.chunk.Constants[fr.readByte()].Obj.(*value.ObjString)
			v, ok := vm.Globals.Get(name)
			if !ok {
				return vm.throw("undefined variable '%s'", name.Chars)
			}
			vm.push(v)
		case bytecode.OP_SET_GLOBAL:
			name := fr.chunk.Constants[fr.readByte()].Obj.(*value.ObjString)
			if _, ok := vm.Globals.Get(name); !ok {
				return vm.throw("undefined variable '%s'", name.Chars)
			}
			vm.Globals.Set(name, vm.peek(0))
		case bytecode.OP_DEFINE_GLOBAL:
			name := fr.chunk.Constants[fr.readByte()].Obj.(*value.ObjString)
			vm.Globals.Set(name, vm.pop())
		case bytecode.OP_GET_UPVALUE:
			slot := fr.readByte()
			vm.push(fr.closure.Upvalues[slot].Get())
		case bytecode.OP_SET_UPVALUE:
			slot := fr.readByte()
			fr.closure.Upvalues[slot].Set(vm.peek(0))

		case bytecode.OP_GET_PROPERTY:
			name := fr.chunk.Constants[fr.readByte()].Obj.(*value.ObjString)
			recv := vm.pop()
			v, err := vm.getProperty(recv, name.Chars)
			if err != nil {
				return err
			}
			vm.push(v)
		case bytecode.OP_SET_PROPERTY:
			name := fr.chunk.Constants[fr.readByte()].Obj.(*value.ObjString)
			val := vm.pop()
			recv := vm.pop()
			if err := vm.setProperty(recv, name.Chars, val); err != nil {
				return err
			}
			vm.push(val)
		case bytecode.OP_GET_SUPER:
			name := fr.chunk.Constants[fr.readByte()].Obj.(*value.ObjString)
			super := vm.pop().Obj.(*value.ObjClass)
			receiver := vm.pop()
			bound, err := vm.bindMethod(super, receiver, name.Chars)
			if err != nil {
				return err
			}
			vm.push(bound)

		case bytecode.OP_INCREMENT:
			v := vm.pop()
			if v.Kind != value.KindNumber {
				return vm.throw("operand to '++' must be a number")
			}
			vm.push(value.Number(v.Num + 1))
		case bytecode.OP_DECREMENT:
			v := vm.pop()
			if v.Kind != value.KindNumber {
				return vm.throw("operand to '--' must be a number")
			}
			vm.push(value.Number(v.Num - 1))

		case bytecode.OP_LIST:
			count := fr.readU16()
			items := make([]value.Value, count)
			copy(items, vm.stack[len(vm.stack)-count:])
			vm.stack = vm.stack[:len(vm.stack)-count]
			list := &value.ObjList{Items: items}
			vm.Collector.Track(list, 32+16*count)
			vm.push(value.FromObj(list))
		case bytecode.OP_DICT:
			count := fr.readU16()
			entries := value.NewValueTable()
			base := len(vm.stack) - count*2
			for i := 0; i < count; i++ {
				k, v := vm.stack[base+i*2], vm.stack[base+i*2+1]
				entries.Set(k, v)
			}
			vm.stack = vm.stack[:base]
			dict := &value.ObjDict{Entries: entries}
			vm.Collector.Track(dict, 32+32*count)
			vm.push(value.FromObj(dict))
		case bytecode.OP_INDEX_GET:
			idx := vm.pop()
			target := vm.pop()
			v, err := vm.indexGet(target, idx)
			if err != nil {
				return err
			}
			vm.push(v)
		case bytecode.OP_INDEX_SET:
			val := vm.pop()
			idx := vm.pop()
			target := vm.pop()
			if err := vm.indexSet(target, idx, val); err != nil {
				return err
			}
			vm.push(val)
		case bytecode.OP_SLICE:
			hi := vm.pop()
			lo := vm.pop()
			target := vm.pop()
			v, err := vm.slice(target, lo, hi)
			if err != nil {
				return err
			}
			vm.push(v)
		case bytecode.OP_EMPTY:
			vm.push(value.Omitted)

		case bytecode.OP_JUMP:
			fr.ip = fr.readU16()
		case bytecode.OP_JUMP_IF_FALSE:
			target := fr.readU16()
			if vm.peek(0).Falsey() {
				fr.ip = target
			}
		case bytecode.OP_BREAK:
			return vm.throw("internal error: unpatched OP_BREAK")
		case bytecode.OP_CLOSE_UPVALUE:
			vm.closeUpvalues(len(vm.stack) - 1)
			vm.pop()

		case bytecode.OP_CALL:
			argc := int(fr.readByte())
			if err := vm.callValue(vm.peek(argc), argc); err != nil {
				return err
			}
		case bytecode.OP_INVOKE:
			name := fr.chunk.Constants[fr.readByte()].Obj.(*value.ObjString)
			argc := int(fr.readByte())
			if err := vm.invokeMethod(name.Chars, argc); err != nil {
				return err
			}
		case bytecode.OP_SUPER_INVOKE:
			name := fr.chunk.Constants[fr.readByte()].Obj.(*value.ObjString)
			argc := int(fr.readByte())
			super := vm.pop().Obj.(*value.ObjClass)
			if err := vm.invokeFromClass(super, name.Chars, argc); err != nil {
				return err
			}
		case bytecode.OP_RETURN:
			result := vm.pop()
			fr := vm.frame()
			vm.closeUpvalues(fr.base)
			vm.stack = vm.stack[:fr.base]
			vm.frames = vm.frames[:len(vm.frames)-1]
			if len(vm.frames) == stopDepth {
				return nil
			}
			vm.push(result)
		case bytecode.OP_CLOSURE:
			fnIdx := fr.readByte()
			proto := fr.chunk.Constants[fnIdx].Obj.(*value.ObjFunction)
			closure := &value.ObjClosure{Function: proto, Upvalues: make([]*value.ObjUpvalue, proto.UpvalueCount)}
			for i := 0; i < proto.UpvalueCount; i++ {
				isLocal := fr.readByte()
				idx := fr.readByte()
				if isLocal == 1 {
					closure.Upvalues[i] = vm.captureUpvalue(fr.base + int(idx))
				} else {
					closure.Upvalues[i] = fr.closure.Upvalues[idx]
				}
			}
			vm.Collector.Track(closure, 32+8*proto.UpvalueCount)
			vm.push(value.FromObj(closure))
		case bytecode.OP_DEFINE_OPTIONAL:
			optIndex := int(fr.readByte())
			target := fr.readU16()
			if optIndex < fr.suppliedOptionals {
				fr.ip = target
			}

		case bytecode.OP_CLASS:
			name := fr.chunk.Constants[fr.readByte()].Obj.(*value.ObjString)
			class := &value.ObjClass{Name: name, Methods: value.NewTable()}
			vm.Collector.Track(class, 64)
			vm.push(value.FromObj(class))
		case bytecode.OP_SUBCLASS:
			class := vm.pop().Obj.(*value.ObjClass)
			super, ok := vm.peek(0).Obj.(*value.ObjClass)
			if !ok {
				return vm.throw("superclass must be a class")
			}
			class.Methods.AddAll(super.Methods)
			class.Superclass = super
		case bytecode.OP_TRAIT:
			name := fr.chunk.Constants[fr.readByte()].Obj.(*value.ObjString)
			trait := &value.ObjTrait{Name: name, Methods: value.NewTable()}
			vm.Collector.Track(trait, 64)
			vm.push(value.FromObj(trait))
		case bytecode.OP_METHOD:
			name := fr.chunk.Constants[fr.readByte()].Obj.(*value.ObjString)
			vm.defineMethod(name.Chars)
		case bytecode.OP_TRAIT_METHOD:
			name := fr.chunk.Constants[fr.readByte()].Obj.(*value.ObjString)
			closure := vm.pop()
			trait := vm.peek(0).Obj.(*value.ObjTrait)
			trait.Methods.Set(vm.Collector.Intern(name.Chars), closure)
		case bytecode.OP_USE:
			trait := vm.pop().Obj.(*value.ObjTrait)
			class := vm.peek(0).Obj.(*value.ObjClass)
			class.Methods.AddAll(trait.Methods)
		case bytecode.OP_ABSTRACT_METHOD:
			name := fr.chunk.Constants[fr.readByte()].Obj.(*value.ObjString)
			class := vm.peek(0).Obj.(*value.ObjClass)
			class.Abstract = true
			class.Methods.Set(vm.Collector.Intern(name.Chars), value.Nil())

		case bytecode.OP_IMPORT:
			path := fr.chunk.Constants[fr.readByte()].Obj.(*value.ObjString)
			if err := vm.importModule(path.Chars, path.Chars); err != nil {
				return err
			}
		case bytecode.OP_IMPORT_AS:
			path := fr.chunk.Constants[fr.readByte()].Obj.(*value.ObjString)
			alias := fr.chunk.Constants[fr.readByte()].Obj.(*value.ObjString)
			if err := vm.importModule(path.Chars, alias.Chars); err != nil {
				return err
			}
		case bytecode.OP_OPEN_FILE:
			mode := vm.pop()
			path := vm.pop()
			f, err := vm.openFile(path, mode)
			if err != nil {
				return err
			}
			vm.push(f)
		case bytecode.OP_CLOSE_FILE:
			slot := fr.readByte()
			vm.closeFile(vm.stack[fr.base+int(slot)])

		case bytecode.OP_NOP:
			// no-op

		default:
			return vm.throw("unknown opcode %d", op)
		}
	}
}
