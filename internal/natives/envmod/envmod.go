// Package envmod implements the built-in Env module over os (Env.get/set),
// SPEC_FULL.md §6.3: os is the only reasonable environment-variable
// primitive, matching every pack repo that touches this concern.
package envmod

import (
	"os"

	"github.com/dictu-lang/dictu-go/internal/value"
	"github.com/dictu-lang/dictu-go/internal/vm"
)

func init() {
	vm.RegisterModule("Env", build)
}

func build(v *vm.VM) *value.Table {
	t := value.NewTable()
	set := func(name string, fn value.NativeFn) {
		native := &value.ObjNativeFunc{Name: name, Fn: fn}
		v.Collector.Track(native, 32)
		t.Set(v.Collector.Intern(name), value.FromObj(native))
	}

	set("get", func(rawVM interface{}, argc int, argv []value.Value) value.Value {
		vv := rawVM.(*vm.VM)
		if argc != 1 {
			return vv.RuntimeError("get() takes 1 argument")
		}
		name, ok := argv[0].Obj.(*value.ObjString)
		if !ok {
			return vv.RuntimeError("get() argument must be a string")
		}
		val, ok := os.LookupEnv(name.Chars)
		if !ok {
			return value.Nil()
		}
		return value.FromObj(vv.Collector.Intern(val))
	})
	set("set", func(rawVM interface{}, argc int, argv []value.Value) value.Value {
		vv := rawVM.(*vm.VM)
		if argc != 2 {
			return vv.RuntimeError("set() takes 2 arguments")
		}
		name, ok := argv[0].Obj.(*value.ObjString)
		if !ok {
			return vv.RuntimeError("set() first argument must be a string")
		}
		val, ok := argv[1].Obj.(*value.ObjString)
		if !ok {
			return vv.RuntimeError("set() second argument must be a string")
		}
		if err := os.Setenv(name.Chars, val.Chars); err != nil {
			return vv.RuntimeError("could not set environment variable: %s", err)
		}
		return value.Nil()
	})
	return t
}
