// Package mathmod implements the built-in Math module over the standard
// math package (SPEC_FULL.md §6.3): no third-party competitor is
// exercised anywhere in the reference corpus for this concern.
package mathmod

import (
	"math"

	"github.com/dictu-lang/dictu-go/internal/value"
	"github.com/dictu-lang/dictu-go/internal/vm"
)

func init() {
	vm.RegisterModule("Math", build)
}

func build(v *vm.VM) *value.Table {
	t := value.NewTable()
	set := func(name string, fn value.NativeFn) {
		native := &value.ObjNativeFunc{Name: name, Fn: fn}
		v.Collector.Track(native, 32)
		t.Set(v.Collector.Intern(name), value.FromObj(native))
	}
	t.Set(v.Collector.Intern("pi"), value.Number(math.Pi))
	t.Set(v.Collector.Intern("e"), value.Number(math.E))

	set("sqrt", unary(math.Sqrt, "sqrt"))
	set("floor", unary(math.Floor, "floor"))
	set("ceil", unary(math.Ceil, "ceil"))
	set("round", unary(math.Round, "round"))
	set("abs", unary(math.Abs, "abs"))
	set("pow", func(rawVM interface{}, argc int, argv []value.Value) value.Value {
		vv := rawVM.(*vm.VM)
		if argc != 2 || argv[0].Kind != value.KindNumber || argv[1].Kind != value.KindNumber {
			return vv.RuntimeError("pow() takes 2 number arguments")
		}
		return value.Number(math.Pow(argv[0].Num, argv[1].Num))
	})
	set("min", func(rawVM interface{}, argc int, argv []value.Value) value.Value {
		vv := rawVM.(*vm.VM)
		if argc != 2 || argv[0].Kind != value.KindNumber || argv[1].Kind != value.KindNumber {
			return vv.RuntimeError("min() takes 2 number arguments")
		}
		return value.Number(math.Min(argv[0].Num, argv[1].Num))
	})
	set("max", func(rawVM interface{}, argc int, argv []value.Value) value.Value {
		vv := rawVM.(*vm.VM)
		if argc != 2 || argv[0].Kind != value.KindNumber || argv[1].Kind != value.KindNumber {
			return vv.RuntimeError("max() takes 2 number arguments")
		}
		return value.Number(math.Max(argv[0].Num, argv[1].Num))
	})
	return t
}

func unary(fn func(float64) float64, name string) value.NativeFn {
	return func(rawVM interface{}, argc int, argv []value.Value) value.Value {
		vv := rawVM.(*vm.VM)
		if argc != 1 || argv[0].Kind != value.KindNumber {
			return vv.RuntimeError("%s() takes 1 number argument", name)
		}
		return value.Number(fn(argv[0].Num))
	}
}
