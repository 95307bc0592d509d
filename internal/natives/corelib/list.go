package corelib

import (
	"sort"
	"strings"

	"github.com/dictu-lang/dictu-go/internal/value"
	"github.com/dictu-lang/dictu-go/internal/vm"
)

func init() {
	vm.RegisterListMethod("len", listLen)
	vm.RegisterListMethod("push", listPush)
	vm.RegisterListMethod("pop", listPop)
	vm.RegisterListMethod("insert", listInsert)
	vm.RegisterListMethod("remove", listRemove)
	vm.RegisterListMethod("contains", listContains)
	vm.RegisterListMethod("sort", listSort)
	vm.RegisterListMethod("join", listJoin)
	vm.RegisterListMethod("copy", listCopy)
}

func receiverList(v *vm.VM, argv []value.Value) (*value.ObjList, bool) {
	l, ok := argv[0].Obj.(*value.ObjList)
	if !ok {
		v.RuntimeError("receiver is not a list")
		return nil, false
	}
	return l, true
}

func listLen(rawVM interface{}, argc int, argv []value.Value) value.Value {
	v := rawVM.(*vm.VM)
	l, ok := receiverList(v, argv)
	if !ok {
		return value.Empty
	}
	return value.Number(float64(len(l.Items)))
}

func listPush(rawVM interface{}, argc int, argv []value.Value) value.Value {
	v := rawVM.(*vm.VM)
	l, ok := receiverList(v, argv)
	if !ok {
		return value.Empty
	}
	if argc != 2 {
		return v.RuntimeError("push() takes 1 argument (%d given)", argc-1)
	}
	l.Items = append(l.Items, argv[1])
	return argv[0]
}

func listPop(rawVM interface{}, argc int, argv []value.Value) value.Value {
	v := rawVM.(*vm.VM)
	l, ok := receiverList(v, argv)
	if !ok {
		return value.Empty
	}
	if len(l.Items) == 0 {
		return v.RuntimeError("pop() called on an empty list")
	}
	last := l.Items[len(l.Items)-1]
	l.Items = l.Items[:len(l.Items)-1]
	return last
}

func listInsert(rawVM interface{}, argc int, argv []value.Value) value.Value {
	v := rawVM.(*vm.VM)
	l, ok := receiverList(v, argv)
	if !ok {
		return value.Empty
	}
	if argc != 3 {
		return v.RuntimeError("insert() takes 2 arguments (%d given)", argc-1)
	}
	if argv[2].Kind != value.KindNumber {
		return v.RuntimeError("insert() index must be a number")
	}
	idx := int(argv[2].Num)
	if idx < 0 || idx > len(l.Items) {
		return v.RuntimeError("list index out of range")
	}
	l.Items = append(l.Items, value.Nil())
	copy(l.Items[idx+1:], l.Items[idx:])
	l.Items[idx] = argv[1]
	return argv[0]
}

func listRemove(rawVM interface{}, argc int, argv []value.Value) value.Value {
	v := rawVM.(*vm.VM)
	l, ok := receiverList(v, argv)
	if !ok {
		return value.Empty
	}
	if argc != 2 {
		return v.RuntimeError("remove() takes 1 argument (%d given)", argc-1)
	}
	if argv[1].Kind != value.KindNumber {
		return v.RuntimeError("remove() index must be a number")
	}
	idx := int(argv[1].Num)
	if idx < 0 || idx >= len(l.Items) {
		return v.RuntimeError("list index out of range")
	}
	removed := l.Items[idx]
	l.Items = append(l.Items[:idx], l.Items[idx+1:]...)
	return removed
}

func listContains(rawVM interface{}, argc int, argv []value.Value) value.Value {
	v := rawVM.(*vm.VM)
	l, ok := receiverList(v, argv)
	if !ok {
		return value.Empty
	}
	if argc != 2 {
		return v.RuntimeError("contains() takes 1 argument (%d given)", argc-1)
	}
	for _, item := range l.Items {
		if value.Equal(item, argv[1]) {
			return value.Bool(true)
		}
	}
	return value.Bool(false)
}

func listSort(rawVM interface{}, argc int, argv []value.Value) value.Value {
	v := rawVM.(*vm.VM)
	l, ok := receiverList(v, argv)
	if !ok {
		return value.Empty
	}
	sort.SliceStable(l.Items, func(i, j int) bool {
		a, b := l.Items[i], l.Items[j]
		if a.Kind == value.KindNumber && b.Kind == value.KindNumber {
			return a.Num < b.Num
		}
		return a.String() < b.String()
	})
	return argv[0]
}

func listJoin(rawVM interface{}, argc int, argv []value.Value) value.Value {
	v := rawVM.(*vm.VM)
	l, ok := receiverList(v, argv)
	if !ok {
		return value.Empty
	}
	sep := ""
	if argc == 2 {
		s, ok := argv[1].Obj.(*value.ObjString)
		if !ok {
			return v.RuntimeError("join() separator must be a string")
		}
		sep = s.Chars
	}
	parts := make([]string, len(l.Items))
	for i, item := range l.Items {
		parts[i] = item.String()
	}
	return value.FromObj(v.Collector.Intern(strings.Join(parts, sep)))
}

func listCopy(rawVM interface{}, argc int, argv []value.Value) value.Value {
	v := rawVM.(*vm.VM)
	l, ok := receiverList(v, argv)
	if !ok {
		return value.Empty
	}
	items := make([]value.Value, len(l.Items))
	copy(items, l.Items)
	copied := &value.ObjList{Items: items}
	v.Collector.Track(copied, 32+16*len(items))
	return value.FromObj(copied)
}
