package corelib

import (
	"github.com/dictu-lang/dictu-go/internal/value"
	"github.com/dictu-lang/dictu-go/internal/vm"
)

func init() {
	vm.RegisterDictMethod("len", dictLen)
	vm.RegisterDictMethod("keys", dictKeys)
	vm.RegisterDictMethod("values", dictValues)
	vm.RegisterDictMethod("exists", dictExists)
	vm.RegisterDictMethod("remove", dictRemove)
	vm.RegisterDictMethod("copy", dictCopy)
}

func receiverDict(v *vm.VM, argv []value.Value) (*value.ObjDict, bool) {
	d, ok := argv[0].Obj.(*value.ObjDict)
	if !ok {
		v.RuntimeError("receiver is not a dict")
		return nil, false
	}
	return d, true
}

func dictLen(rawVM interface{}, argc int, argv []value.Value) value.Value {
	v := rawVM.(*vm.VM)
	d, ok := receiverDict(v, argv)
	if !ok {
		return value.Empty
	}
	return value.Number(float64(d.Entries.Count()))
}

func dictKeys(rawVM interface{}, argc int, argv []value.Value) value.Value {
	v := rawVM.(*vm.VM)
	d, ok := receiverDict(v, argv)
	if !ok {
		return value.Empty
	}
	items := make([]value.Value, 0, d.Entries.Count())
	d.Entries.Each(func(k, _ value.Value) bool {
		items = append(items, k)
		return true
	})
	list := &value.ObjList{Items: items}
	v.Collector.Track(list, 32+16*len(items))
	return value.FromObj(list)
}

func dictValues(rawVM interface{}, argc int, argv []value.Value) value.Value {
	v := rawVM.(*vm.VM)
	d, ok := receiverDict(v, argv)
	if !ok {
		return value.Empty
	}
	items := make([]value.Value, 0, d.Entries.Count())
	d.Entries.Each(func(_, val value.Value) bool {
		items = append(items, val)
		return true
	})
	list := &value.ObjList{Items: items}
	v.Collector.Track(list, 32+16*len(items))
	return value.FromObj(list)
}

func dictExists(rawVM interface{}, argc int, argv []value.Value) value.Value {
	v := rawVM.(*vm.VM)
	d, ok := receiverDict(v, argv)
	if !ok {
		return value.Empty
	}
	if argc != 2 {
		return v.RuntimeError("exists() takes 1 argument (%d given)", argc-1)
	}
	_, found := d.Entries.Get(argv[1])
	return value.Bool(found)
}

func dictRemove(rawVM interface{}, argc int, argv []value.Value) value.Value {
	v := rawVM.(*vm.VM)
	d, ok := receiverDict(v, argv)
	if !ok {
		return value.Empty
	}
	if argc != 2 {
		return v.RuntimeError("remove() takes 1 argument (%d given)", argc-1)
	}
	d.Entries.Delete(argv[1])
	return argv[0]
}

func dictCopy(rawVM interface{}, argc int, argv []value.Value) value.Value {
	v := rawVM.(*vm.VM)
	d, ok := receiverDict(v, argv)
	if !ok {
		return value.Empty
	}
	copied := value.NewValueTable()
	d.Entries.Each(func(k, val value.Value) bool {
		copied.Set(k, val)
		return true
	})
	dict := &value.ObjDict{Entries: copied}
	v.Collector.Track(dict, 32+32*d.Entries.Count())
	return value.FromObj(dict)
}
