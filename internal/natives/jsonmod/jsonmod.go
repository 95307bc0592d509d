// Package jsonmod implements the built-in JSON module (JSON.parse,
// JSON.stringify) over github.com/goccy/go-json (SPEC_FULL.md §6.3),
// converting between Dictu values and Go's generic interface{} JSON tree.
package jsonmod

import (
	"github.com/goccy/go-json"

	"github.com/dictu-lang/dictu-go/internal/value"
	"github.com/dictu-lang/dictu-go/internal/vm"
)

func init() {
	vm.RegisterModule("JSON", build)
}

func build(v *vm.VM) *value.Table {
	t := value.NewTable()
	set := func(name string, fn value.NativeFn) {
		native := &value.ObjNativeFunc{Name: name, Fn: fn}
		v.Collector.Track(native, 32)
		t.Set(v.Collector.Intern(name), value.FromObj(native))
	}

	set("parse", func(rawVM interface{}, argc int, argv []value.Value) value.Value {
		vv := rawVM.(*vm.VM)
		if argc != 1 {
			return vv.RuntimeError("parse() takes 1 argument")
		}
		s, ok := argv[0].Obj.(*value.ObjString)
		if !ok {
			return vv.RuntimeError("parse() argument must be a string")
		}
		var tree interface{}
		if err := json.Unmarshal([]byte(s.Chars), &tree); err != nil {
			return vv.RuntimeError("invalid JSON: %s", err)
		}
		return fromGo(vv, tree)
	})
	set("stringify", func(rawVM interface{}, argc int, argv []value.Value) value.Value {
		vv := rawVM.(*vm.VM)
		if argc != 1 {
			return vv.RuntimeError("stringify() takes 1 argument")
		}
		tree, err := toGo(argv[0])
		if err != nil {
			return vv.RuntimeError("%s", err)
		}
		out, err := json.Marshal(tree)
		if err != nil {
			return vv.RuntimeError("could not encode JSON: %s", err)
		}
		return value.FromObj(vv.Collector.Intern(string(out)))
	})
	return t
}

// fromGo converts a tree produced by json.Unmarshal (map[string]interface{},
// []interface{}, float64, string, bool, nil) into Dictu values.
func fromGo(v *vm.VM, node interface{}) value.Value {
	switch n := node.(type) {
	case nil:
		return value.Nil()
	case bool:
		return value.Bool(n)
	case float64:
		return value.Number(n)
	case string:
		return value.FromObj(v.Collector.Intern(n))
	case []interface{}:
		items := make([]value.Value, len(n))
		for i, e := range n {
			items[i] = fromGo(v, e)
		}
		list := &value.ObjList{Items: items}
		v.Collector.Track(list, 32+16*len(items))
		return value.FromObj(list)
	case map[string]interface{}:
		entries := value.NewValueTable()
		for k, e := range n {
			entries.Set(value.FromObj(v.Collector.Intern(k)), fromGo(v, e))
		}
		dict := &value.ObjDict{Entries: entries}
		v.Collector.Track(dict, 64)
		return value.FromObj(dict)
	default:
		return value.Nil()
	}
}

// toGo converts a Dictu value back into a tree json.Marshal understands.
func toGo(v value.Value) (interface{}, error) {
	switch v.Kind {
	case value.KindNil:
		return nil, nil
	case value.KindBool:
		return v.Bool, nil
	case value.KindNumber:
		return v.Num, nil
	case value.KindObj:
		switch o := v.Obj.(type) {
		case *value.ObjString:
			return o.Chars, nil
		case *value.ObjList:
			out := make([]interface{}, len(o.Items))
			for i, e := range o.Items {
				conv, err := toGo(e)
				if err != nil {
					return nil, err
				}
				out[i] = conv
			}
			return out, nil
		case *value.ObjDict:
			out := map[string]interface{}{}
			var convErr error
			o.Entries.Each(func(k, val value.Value) bool {
				ks, ok := k.Obj.(*value.ObjString)
				if !ok {
					return true
				}
				conv, err := toGo(val)
				if err != nil {
					convErr = err
					return false
				}
				out[ks.Chars] = conv
				return true
			})
			if convErr != nil {
				return nil, convErr
			}
			return out, nil
		}
	}
	return nil, errUnsupported{v}
}

type errUnsupported struct{ v value.Value }

func (e errUnsupported) Error() string {
	return "value of type " + value.TypeName(e.v) + " is not JSON-serializable"
}
