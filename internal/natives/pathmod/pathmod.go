// Package pathmod implements the built-in Path module over path/filepath
// (SPEC_FULL.md §6.3).
package pathmod

import (
	"os"
	"path/filepath"

	"github.com/dictu-lang/dictu-go/internal/value"
	"github.com/dictu-lang/dictu-go/internal/vm"
)

func init() {
	vm.RegisterModule("Path", build)
}

func build(v *vm.VM) *value.Table {
	t := value.NewTable()
	set := func(name string, fn value.NativeFn) {
		native := &value.ObjNativeFunc{Name: name, Fn: fn}
		v.Collector.Track(native, 32)
		t.Set(v.Collector.Intern(name), value.FromObj(native))
	}

	str := func(vv *vm.VM, v value.Value) (string, bool) {
		s, ok := v.Obj.(*value.ObjString)
		if !ok {
			return "", false
		}
		return s.Chars, true
	}

	set("join", func(rawVM interface{}, argc int, argv []value.Value) value.Value {
		vv := rawVM.(*vm.VM)
		parts := make([]string, argc)
		for i, a := range argv[:argc] {
			s, ok := str(vv, a)
			if !ok {
				return vv.RuntimeError("join() arguments must be strings")
			}
			parts[i] = s
		}
		return value.FromObj(vv.Collector.Intern(filepath.Join(parts...)))
	})
	set("basename", func(rawVM interface{}, argc int, argv []value.Value) value.Value {
		vv := rawVM.(*vm.VM)
		if argc != 1 {
			return vv.RuntimeError("basename() takes 1 argument")
		}
		s, ok := str(vv, argv[0])
		if !ok {
			return vv.RuntimeError("basename() argument must be a string")
		}
		return value.FromObj(vv.Collector.Intern(filepath.Base(s)))
	})
	set("dirname", func(rawVM interface{}, argc int, argv []value.Value) value.Value {
		vv := rawVM.(*vm.VM)
		if argc != 1 {
			return vv.RuntimeError("dirname() takes 1 argument")
		}
		s, ok := str(vv, argv[0])
		if !ok {
			return vv.RuntimeError("dirname() argument must be a string")
		}
		return value.FromObj(vv.Collector.Intern(filepath.Dir(s)))
	})
	set("exists", func(rawVM interface{}, argc int, argv []value.Value) value.Value {
		vv := rawVM.(*vm.VM)
		if argc != 1 {
			return vv.RuntimeError("exists() takes 1 argument")
		}
		s, ok := str(vv, argv[0])
		if !ok {
			return vv.RuntimeError("exists() argument must be a string")
		}
		_, err := os.Stat(s)
		return value.Bool(err == nil)
	})
	set("ext", func(rawVM interface{}, argc int, argv []value.Value) value.Value {
		vv := rawVM.(*vm.VM)
		if argc != 1 {
			return vv.RuntimeError("ext() takes 1 argument")
		}
		s, ok := str(vv, argv[0])
		if !ok {
			return vv.RuntimeError("ext() argument must be a string")
		}
		return value.FromObj(vv.Collector.Intern(filepath.Ext(s)))
	})
	return t
}
