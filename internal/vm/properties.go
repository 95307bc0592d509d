package vm

import "github.com/dictu-lang/dictu-go/internal/value"

// getProperty implements OP_GET_PROPERTY and the builtin-type fallback for
// OP_INVOKE: an instance checks its own fields before its class's methods;
// a builtin-type receiver (string/list/dict/number/file) resolves against
// the matching method table and binds a receiver-capturing native
// (SPEC_FULL.md §9).
func (vm *VM) getProperty(receiver value.Value, name string) (value.Value, error) {
	if inst, ok := receiver.Obj.(*value.ObjInstance); ok {
		key := vm.Collector.Intern(name)
		if v, ok := inst.Fields.Get(key); ok {
			return v, nil
		}
		return vm.bindMethod(inst.Class, receiver, name)
	}

	if mod, ok := receiver.Obj.(*value.ObjModule); ok {
		// Module members are returned unwrapped: a module function takes no
		// implicit receiver, so OP_INVOKE's setAt+callValue fast path must
		// see the plain native, not a receiver-prepending bindNative wrapper.
		v, ok := mod.Globals.Get(vm.Collector.Intern(name))
		if !ok {
			return value.Value{}, vm.throw("module '%s' has no member '%s'", mod.Name, name)
		}
		return v, nil
	}

	table, ok := vm.methodTableFor(receiver)
	if !ok {
		return value.Value{}, vm.throw("%s has no property '%s'", value.TypeName(receiver), name)
	}
	key := vm.Collector.Intern(name)
	method, ok := table.Get(key)
	if !ok {
		return value.Value{}, vm.throw("%s has no method '%s'", value.TypeName(receiver), name)
	}
	native := method.Obj.(*value.ObjNativeFunc)
	bound := vm.bindNative(receiver, native)
	return bound, nil
}

// setProperty implements OP_SET_PROPERTY: only instances carry mutable
// fields.
func (vm *VM) setProperty(receiver value.Value, name string, val value.Value) error {
	inst, ok := receiver.Obj.(*value.ObjInstance)
	if !ok {
		return vm.throw("%s does not support field assignment", value.TypeName(receiver))
	}
	inst.Fields.Set(vm.Collector.Intern(name), val)
	return nil
}

func (vm *VM) methodTableFor(v value.Value) (*value.Table, bool) {
	switch v.Obj.(type) {
	case *value.ObjString:
		return vm.stringMethods, true
	case *value.ObjList:
		return vm.listMethods, true
	case *value.ObjDict:
		return vm.dictMethods, true
	case *value.ObjFile:
		return vm.fileMethods, true
	default:
		if v.Kind == value.KindNumber {
			return vm.numberMethods, true
		}
		return nil, false
	}
}

// bindNative wraps native so that calling the returned value prepends
// receiver to the argument list it's invoked with -- the builtin-method
// equivalent of ObjBoundMethod.
func (vm *VM) bindNative(receiver value.Value, native *value.ObjNativeFunc) value.Value {
	fn := native.Fn
	bound := &value.ObjNativeFunc{
		Name: native.Name,
		Fn: func(rawVM interface{}, argc int, argv []value.Value) value.Value {
			args := make([]value.Value, 0, argc+1)
			args = append(args, receiver)
			args = append(args, argv...)
			return fn(rawVM, argc+1, args)
		},
	}
	vm.Collector.Track(bound, 32)
	return value.FromObj(bound)
}
