package vm

import "github.com/dictu-lang/dictu-go/internal/value"

// add overloads OP_ADD: numeric addition, or string/list concatenation
// when both operands share that kind (spec.md §4.4).
func (vm *VM) add() error {
	b, a := vm.pop(), vm.pop()
	switch {
	case a.Kind == value.KindNumber && b.Kind == value.KindNumber:
		vm.push(value.Number(a.Num + b.Num))
	case isString(a) && isString(b):
		sa, sb := a.Obj.(*value.ObjString), b.Obj.(*value.ObjString)
		vm.push(value.FromObj(vm.Collector.Intern(sa.Chars + sb.Chars)))
	case isList(a) && isList(b):
		la, lb := a.Obj.(*value.ObjList), b.Obj.(*value.ObjList)
		items := make([]value.Value, 0, len(la.Items)+len(lb.Items))
		items = append(items, la.Items...)
		items = append(items, lb.Items...)
		list := &value.ObjList{Items: items}
		vm.Collector.Track(list, 32+16*len(items))
		vm.push(value.FromObj(list))
	default:
		return vm.throw("cannot add %s and %s", value.TypeName(a), value.TypeName(b))
	}
	return nil
}

func isString(v value.Value) bool { _, ok := v.Obj.(*value.ObjString); return ok }
func isList(v value.Value) bool   { _, ok := v.Obj.(*value.ObjList); return ok }

func (vm *VM) numericBinary(op func(a, b float64) float64) error {
	b, a := vm.pop(), vm.pop()
	if a.Kind != value.KindNumber || b.Kind != value.KindNumber {
		return vm.throw("operands must be numbers, got %s and %s", value.TypeName(a), value.TypeName(b))
	}
	vm.push(value.Number(op(a.Num, b.Num)))
	return nil
}

func (vm *VM) intBinary(op func(a, b int64) int64) error {
	b, a := vm.pop(), vm.pop()
	if a.Kind != value.KindNumber || b.Kind != value.KindNumber {
		return vm.throw("operands must be numbers, got %s and %s", value.TypeName(a), value.TypeName(b))
	}
	vm.push(value.Number(float64(op(int64(a.Num), int64(b.Num)))))
	return nil
}

func (vm *VM) compare(op func(a, b float64) bool) error {
	b, a := vm.pop(), vm.pop()
	if a.Kind != value.KindNumber || b.Kind != value.KindNumber {
		return vm.throw("operands must be numbers, got %s and %s", value.TypeName(a), value.TypeName(b))
	}
	vm.push(value.Bool(op(a.Num, b.Num)))
	return nil
}

// indexGet implements a[i] for strings, lists and dicts, with negative
// indices counting from the end (spec.md §4.4).
func (vm *VM) indexGet(target, idx value.Value) (value.Value, error) {
	switch t := target.Obj.(type) {
	case *value.ObjList:
		i, err := vm.resolveIndex(idx, len(t.Items))
		if err != nil {
			return value.Value{}, err
		}
		if i < 0 || i >= len(t.Items) {
			return value.Value{}, vm.throw("list index out of range")
		}
		return t.Items[i], nil
	case *value.ObjString:
		i, err := vm.resolveIndex(idx, len(t.Chars))
		if err != nil {
			return value.Value{}, err
		}
		if i < 0 || i >= len(t.Chars) {
			return value.Value{}, vm.throw("string index out of range")
		}
		return value.FromObj(vm.Collector.Intern(string(t.Chars[i]))), nil
	case *value.ObjDict:
		v, ok := t.Entries.Get(idx)
		if !ok {
			return value.Value{}, vm.throw("key not found in dict")
		}
		return v, nil
	default:
		return value.Value{}, vm.throw("%s is not subscriptable", value.TypeName(target))
	}
}

func (vm *VM) indexSet(target, idx, val value.Value) error {
	switch t := target.Obj.(type) {
	case *value.ObjList:
		i, err := vm.resolveIndex(idx, len(t.Items))
		if err != nil {
			return err
		}
		if i < 0 || i >= len(t.Items) {
			return vm.throw("list index out of range")
		}
		t.Items[i] = val
		return nil
	case *value.ObjDict:
		t.Entries.Set(idx, val)
		return nil
	default:
		return vm.throw("%s does not support item assignment", value.TypeName(target))
	}
}

func (vm *VM) resolveIndex(idx value.Value, length int) (int, error) {
	if idx.Kind != value.KindNumber {
		return 0, vm.throw("index must be a number, got %s", value.TypeName(idx))
	}
	i := int(idx.Num)
	if i < 0 {
		i += length
	}
	return i, nil
}

// slice implements a[lo:hi] for strings and lists; lo/hi may each be the
// Omitted sentinel meaning "from start" / "to end" (spec.md §4.5).
func (vm *VM) slice(target, lo, hi value.Value) (value.Value, error) {
	switch t := target.Obj.(type) {
	case *value.ObjList:
		start, end, err := vm.sliceBounds(lo, hi, len(t.Items))
		if err != nil {
			return value.Value{}, err
		}
		items := make([]value.Value, end-start)
		copy(items, t.Items[start:end])
		list := &value.ObjList{Items: items}
		vm.Collector.Track(list, 32+16*len(items))
		return value.FromObj(list), nil
	case *value.ObjString:
		start, end, err := vm.sliceBounds(lo, hi, len(t.Chars))
		if err != nil {
			return value.Value{}, err
		}
		return value.FromObj(vm.Collector.Intern(t.Chars[start:end])), nil
	default:
		return value.Value{}, vm.throw("%s is not sliceable", value.TypeName(target))
	}
}

func (vm *VM) sliceBounds(lo, hi value.Value, length int) (int, int, error) {
	start, end := 0, length
	if !lo.IsOmitted() {
		i, err := vm.resolveIndex(lo, length)
		if err != nil {
			return 0, 0, err
		}
		start = clamp(i, 0, length)
	}
	if !hi.IsOmitted() {
		i, err := vm.resolveIndex(hi, length)
		if err != nil {
			return 0, 0, err
		}
		end = clamp(i, 0, length)
	}
	if end < start {
		end = start
	}
	return start, end, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
