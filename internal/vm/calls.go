package vm

import (
	"github.com/dictu-lang/dictu-go/internal/bytecode"
	"github.com/dictu-lang/dictu-go/internal/value"
)

// callValue dispatches OP_CALL by the callee's object kind, sitting at
// stack slot stackTop-argCount-1 (spec.md §4.5): closure, native, class
// (construct + invoke init), or bound method (rebind receiver, call as
// closure).
func (vm *VM) callValue(callee value.Value, argCount int) error {
	if callee.Kind != value.KindObj {
		return vm.throw("can only call functions and classes, got %s", value.TypeName(callee))
	}
	switch obj := callee.Obj.(type) {
	case *value.ObjClosure:
		return vm.call(obj, argCount)
	case *value.ObjNativeFunc:
		argv := vm.stack[len(vm.stack)-argCount:]
		result := obj.Fn(vm, argCount, argv)
		vm.stack = vm.stack[:len(vm.stack)-argCount-1]
		if result.IsEmpty() {
			return vm.throw("%s", vm.takePendingErr())
		}
		vm.push(result)
		return nil
	case *value.ObjClass:
		return vm.instantiate(obj, argCount)
	case *value.ObjBoundMethod:
		vm.setAt(argCount, obj.Receiver)
		return vm.call(obj.Method, argCount)
	default:
		return vm.throw("can only call functions and classes, got %s", value.TypeName(callee))
	}
}

// call pushes a new frame for closure. argCount already on the stack is
// reconciled against the function's required and optional arity: extra
// optional slots are padded with nil so OP_DEFINE_OPTIONAL's jump table
// lines up, and suppliedOptionals is captured before padding (spec.md
// §4.5's calling convention).
func (vm *VM) call(closure *value.ObjClosure, argCount int) error {
	fn := closure.Function
	maxArity := fn.Arity + fn.ArityOptional
	if argCount < fn.Arity || argCount > maxArity {
		if fn.ArityOptional > 0 {
			return vm.throw("expected between %d and %d arguments but got %d", fn.Arity, maxArity, argCount)
		}
		return vm.throw("expected %d arguments but got %d", fn.Arity, argCount)
	}
	suppliedOptionals := argCount - fn.Arity
	for argCount < maxArity {
		vm.push(value.Nil())
		argCount++
	}
	if len(vm.frames) >= maxFrames {
		return vm.throw("stack overflow")
	}
	chunk, ok := fn.Chunk.(*bytecode.Chunk)
	if !ok {
		return vm.throw("internal error: function has no compiled chunk")
	}
	vm.frames = append(vm.frames, Frame{
		closure:           closure,
		chunk:             chunk,
		base:              len(vm.stack) - argCount - 1,
		suppliedOptionals: suppliedOptionals,
	})
	return nil
}

// instantiate constructs a new instance of class, tracks it with the
// collector, and invokes init (if the class defines one) with the
// supplied arguments; a class with no init rejects any arguments.
func (vm *VM) instantiate(class *value.ObjClass, argCount int) error {
	inst := &value.ObjInstance{Class: class, Fields: value.NewTable()}
	vm.Collector.Track(inst, 48)
	vm.setAt(argCount, value.FromObj(inst))

	if initMethod, ok := class.Methods.Get(vm.initString); ok {
		closure, ok := initMethod.Obj.(*value.ObjClosure)
		if !ok {
			return vm.throw("'init' on %s is not callable", class.Name.Chars)
		}
		return vm.call(closure, argCount)
	}
	if argCount != 0 {
		return vm.throw("expected 0 arguments but got %d", argCount)
	}
	return nil
}

// bindMethod resolves name on class's method table and binds receiver to
// it, producing the *ObjBoundMethod OP_GET_PROPERTY/OP_GET_SUPER push.
func (vm *VM) bindMethod(class *value.ObjClass, receiver value.Value, name string) (value.Value, error) {
	key := vm.Collector.Intern(name)
	method, ok := class.Methods.Get(key)
	if !ok {
		return value.Value{}, vm.throw("undefined property '%s'", name)
	}
	closure, ok := method.Obj.(*value.ObjClosure)
	if !ok {
		return value.Value{}, vm.throw("'%s' is not a callable method", name)
	}
	bound := &value.ObjBoundMethod{Receiver: receiver, Method: closure}
	vm.Collector.Track(bound, 32)
	return value.FromObj(bound), nil
}

// invokeMethod implements OP_INVOKE's call-site fast path over
// GET_PROPERTY+CALL (spec.md §4.5): for an instance, a field holding a
// closure is called directly as a value; otherwise the class's resolved
// method is called with the receiver's stack slot left untouched, since
// that slot is exactly where the callee's slot-0 ("this") binding expects
// it. Builtin-type receivers fall back through getProperty+callValue.
func (vm *VM) invokeMethod(name string, argc int) error {
	receiver := vm.peek(argc)
	inst, ok := receiver.Obj.(*value.ObjInstance)
	if !ok {
		return vm.invokeOnBuiltin(receiver, name, argc)
	}
	key := vm.Collector.Intern(name)
	if field, ok := inst.Fields.Get(key); ok {
		vm.setAt(argc, field)
		return vm.callValue(field, argc)
	}
	return vm.invokeFromClass(inst.Class, name, argc)
}

// invokeFromClass calls class.Methods[name] directly, leaving the
// receiver already at its stack slot (used by OP_INVOKE on an instance
// and by OP_SUPER_INVOKE, which resolves against the superclass rather
// than the receiver's own class).
func (vm *VM) invokeFromClass(class *value.ObjClass, name string, argc int) error {
	key := vm.Collector.Intern(name)
	method, ok := class.Methods.Get(key)
	if !ok {
		return vm.throw("undefined method '%s' on %s", name, class.Name.Chars)
	}
	closure, ok := method.Obj.(*value.ObjClosure)
	if !ok {
		return vm.throw("'%s' is not a callable method", name)
	}
	return vm.call(closure, argc)
}

// invokeOnBuiltin handles OP_INVOKE for a non-instance receiver: resolve
// the property generically (binds a receiver-capturing native) and then
// dispatch it like any other call.
func (vm *VM) invokeOnBuiltin(receiver value.Value, name string, argc int) error {
	method, err := vm.getProperty(receiver, name)
	if err != nil {
		return err
	}
	vm.setAt(argc, method)
	return vm.callValue(method, argc)
}

// defineMethod attaches the closure on top of the stack to the
// class-or-trait beneath it under name, per OP_METHOD: the compiler emits
// this same opcode for both class and trait bodies (method() is shared).
func (vm *VM) defineMethod(name string) {
	closure := vm.pop()
	key := vm.Collector.Intern(name)
	switch owner := vm.peek(0).Obj.(type) {
	case *value.ObjClass:
		owner.Methods.Set(key, closure)
		if name == "init" {
			if fn, ok := closure.Obj.(*value.ObjClosure); ok {
				fn.Function.IsInitializer = true
			}
		}
	case *value.ObjTrait:
		owner.Methods.Set(key, closure)
	}
}

func (vm *VM) takePendingErr() string {
	msg := vm.pendingErr
	if msg == "" {
		msg = "native call failed"
	}
	vm.pendingErr = ""
	return msg
}
