// Package randmod implements the built-in Random module over math/rand
// (SPEC_FULL.md §6.3): a seeded PRNG with range/choice/shuffle natives.
package randmod

import (
	"math/rand"

	"github.com/dictu-lang/dictu-go/internal/value"
	"github.com/dictu-lang/dictu-go/internal/vm"
)

func init() {
	vm.RegisterModule("Random", build)
}

func build(v *vm.VM) *value.Table {
	t := value.NewTable()
	rng := rand.New(rand.NewSource(1))
	set := func(name string, fn value.NativeFn) {
		native := &value.ObjNativeFunc{Name: name, Fn: fn}
		v.Collector.Track(native, 32)
		t.Set(v.Collector.Intern(name), value.FromObj(native))
	}

	set("seed", func(rawVM interface{}, argc int, argv []value.Value) value.Value {
		vv := rawVM.(*vm.VM)
		if argc != 1 || argv[0].Kind != value.KindNumber {
			return vv.RuntimeError("seed() takes 1 number argument")
		}
		rng = rand.New(rand.NewSource(int64(argv[0].Num)))
		return value.Nil()
	})
	set("range", func(rawVM interface{}, argc int, argv []value.Value) value.Value {
		vv := rawVM.(*vm.VM)
		if argc != 2 || argv[0].Kind != value.KindNumber || argv[1].Kind != value.KindNumber {
			return vv.RuntimeError("range() takes 2 number arguments")
		}
		lo, hi := int(argv[0].Num), int(argv[1].Num)
		if hi < lo {
			return vv.RuntimeError("range() upper bound must be >= lower bound")
		}
		return value.Number(float64(lo + rng.Intn(hi-lo+1)))
	})
	set("choice", func(rawVM interface{}, argc int, argv []value.Value) value.Value {
		vv := rawVM.(*vm.VM)
		if argc != 1 {
			return vv.RuntimeError("choice() takes 1 argument")
		}
		list, ok := argv[0].Obj.(*value.ObjList)
		if !ok || len(list.Items) == 0 {
			return vv.RuntimeError("choice() requires a non-empty list")
		}
		return list.Items[rng.Intn(len(list.Items))]
	})
	set("shuffle", func(rawVM interface{}, argc int, argv []value.Value) value.Value {
		vv := rawVM.(*vm.VM)
		if argc != 1 {
			return vv.RuntimeError("shuffle() takes 1 argument")
		}
		list, ok := argv[0].Obj.(*value.ObjList)
		if !ok {
			return vv.RuntimeError("shuffle() requires a list")
		}
		rng.Shuffle(len(list.Items), func(i, j int) {
			list.Items[i], list.Items[j] = list.Items[j], list.Items[i]
		})
		return argv[0]
	})
	return t
}
