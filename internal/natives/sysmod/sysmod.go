// Package sysmod implements the built-in System module over os/runtime
// (System.args, System.exit, System.platform, System.time),
// SPEC_FULL.md §6.3.
package sysmod

import (
	"os"
	"runtime"
	"time"

	"github.com/dictu-lang/dictu-go/internal/value"
	"github.com/dictu-lang/dictu-go/internal/vm"
)

func init() {
	vm.RegisterModule("System", build)
}

func build(v *vm.VM) *value.Table {
	t := value.NewTable()
	set := func(name string, fn value.NativeFn) {
		native := &value.ObjNativeFunc{Name: name, Fn: fn}
		v.Collector.Track(native, 32)
		t.Set(v.Collector.Intern(name), value.FromObj(native))
	}

	argItems := make([]value.Value, len(os.Args))
	for i, a := range os.Args {
		argItems[i] = value.FromObj(v.Collector.Intern(a))
	}
	argList := &value.ObjList{Items: argItems}
	v.Collector.Track(argList, 32+16*len(argItems))
	t.Set(v.Collector.Intern("args"), value.FromObj(argList))
	t.Set(v.Collector.Intern("platform"), value.FromObj(v.Collector.Intern(runtime.GOOS)))

	set("exit", func(rawVM interface{}, argc int, argv []value.Value) value.Value {
		code := 0
		if argc == 1 && argv[0].Kind == value.KindNumber {
			code = int(argv[0].Num)
		}
		os.Exit(code)
		return value.Nil()
	})
	set("time", func(rawVM interface{}, argc int, argv []value.Value) value.Value {
		return value.Number(float64(time.Now().Unix()))
	})
	return t
}
