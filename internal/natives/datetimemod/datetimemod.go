// Package datetimemod implements the built-in Datetime module over the
// standard time package (SPEC_FULL.md §6.3).
package datetimemod

import (
	"strings"
	"time"

	"github.com/dictu-lang/dictu-go/internal/value"
	"github.com/dictu-lang/dictu-go/internal/vm"
)

func init() {
	vm.RegisterModule("Datetime", build)
}

func build(v *vm.VM) *value.Table {
	t := value.NewTable()
	set := func(name string, fn value.NativeFn) {
		native := &value.ObjNativeFunc{Name: name, Fn: fn}
		v.Collector.Track(native, 32)
		t.Set(v.Collector.Intern(name), value.FromObj(native))
	}

	set("now", func(rawVM interface{}, argc int, argv []value.Value) value.Value {
		return value.Number(float64(time.Now().Unix()))
	})
	set("format", func(rawVM interface{}, argc int, argv []value.Value) value.Value {
		vv := rawVM.(*vm.VM)
		if argc != 2 || argv[0].Kind != value.KindNumber {
			return vv.RuntimeError("format() takes a timestamp and a format string")
		}
		layout, ok := argv[1].Obj.(*value.ObjString)
		if !ok {
			return vv.RuntimeError("format() layout must be a string")
		}
		t := time.Unix(int64(argv[0].Num), 0).UTC()
		return value.FromObj(vv.Collector.Intern(t.Format(goLayout(layout.Chars))))
	})
	return t
}

// goLayout translates a handful of strftime-style directives to Go's
// reference-time layout, since Dictu's original implementation exposes
// strftime semantics (spec.md's original_source grounding).
func goLayout(strftime string) string {
	replacements := map[string]string{
		"%Y": "2006", "%m": "01", "%d": "02",
		"%H": "15", "%M": "04", "%S": "05",
	}
	out := strftime
	for k, v := range replacements {
		out = strings.ReplaceAll(out, k, v)
	}
	return out
}
