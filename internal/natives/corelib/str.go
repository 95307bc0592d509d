package corelib

import (
	"strconv"
	"strings"

	"github.com/dictu-lang/dictu-go/internal/value"
	"github.com/dictu-lang/dictu-go/internal/vm"
)

func init() {
	vm.RegisterStringMethod("len", strLen)
	vm.RegisterStringMethod("upper", strUpper)
	vm.RegisterStringMethod("lower", strLower)
	vm.RegisterStringMethod("contains", strContains)
	vm.RegisterStringMethod("startsWith", strStartsWith)
	vm.RegisterStringMethod("endsWith", strEndsWith)
	vm.RegisterStringMethod("split", strSplit)
	vm.RegisterStringMethod("format", strFormat)
	vm.RegisterStringMethod("toNumber", strToNumber)
}

func receiverString(v *vm.VM, argv []value.Value) (*value.ObjString, bool) {
	s, ok := argv[0].Obj.(*value.ObjString)
	if !ok {
		v.RuntimeError("receiver is not a string")
		return nil, false
	}
	return s, true
}

func strLen(rawVM interface{}, argc int, argv []value.Value) value.Value {
	v := rawVM.(*vm.VM)
	s, ok := receiverString(v, argv)
	if !ok {
		return value.Empty
	}
	if argc != 1 {
		return v.RuntimeError("len() takes no arguments (%d given)", argc-1)
	}
	return value.Number(float64(len(s.Chars)))
}

func strUpper(rawVM interface{}, argc int, argv []value.Value) value.Value {
	v := rawVM.(*vm.VM)
	s, ok := receiverString(v, argv)
	if !ok {
		return value.Empty
	}
	return value.FromObj(v.Collector.Intern(strings.ToUpper(s.Chars)))
}

func strLower(rawVM interface{}, argc int, argv []value.Value) value.Value {
	v := rawVM.(*vm.VM)
	s, ok := receiverString(v, argv)
	if !ok {
		return value.Empty
	}
	return value.FromObj(v.Collector.Intern(strings.ToLower(s.Chars)))
}

func strContains(rawVM interface{}, argc int, argv []value.Value) value.Value {
	v := rawVM.(*vm.VM)
	s, ok := receiverString(v, argv)
	if !ok {
		return value.Empty
	}
	if argc != 2 {
		return v.RuntimeError("contains() takes 1 argument (%d given)", argc-1)
	}
	needle, ok := argv[1].Obj.(*value.ObjString)
	if !ok {
		return v.RuntimeError("contains() argument must be a string")
	}
	return value.Bool(strings.Contains(s.Chars, needle.Chars))
}

func strStartsWith(rawVM interface{}, argc int, argv []value.Value) value.Value {
	v := rawVM.(*vm.VM)
	s, ok := receiverString(v, argv)
	if !ok {
		return value.Empty
	}
	if argc != 2 {
		return v.RuntimeError("startsWith() takes 1 argument (%d given)", argc-1)
	}
	prefix, ok := argv[1].Obj.(*value.ObjString)
	if !ok {
		return v.RuntimeError("startsWith() argument must be a string")
	}
	return value.Bool(strings.HasPrefix(s.Chars, prefix.Chars))
}

func strEndsWith(rawVM interface{}, argc int, argv []value.Value) value.Value {
	v := rawVM.(*vm.VM)
	s, ok := receiverString(v, argv)
	if !ok {
		return value.Empty
	}
	if argc != 2 {
		return v.RuntimeError("endsWith() takes 1 argument (%d given)", argc-1)
	}
	suffix, ok := argv[1].Obj.(*value.ObjString)
	if !ok {
		return v.RuntimeError("endsWith() argument must be a string")
	}
	return value.Bool(strings.HasSuffix(s.Chars, suffix.Chars))
}

func strSplit(rawVM interface{}, argc int, argv []value.Value) value.Value {
	v := rawVM.(*vm.VM)
	s, ok := receiverString(v, argv)
	if !ok {
		return value.Empty
	}
	if argc != 2 {
		return v.RuntimeError("split() takes 1 argument (%d given)", argc-1)
	}
	sep, ok := argv[1].Obj.(*value.ObjString)
	if !ok {
		return v.RuntimeError("split() argument must be a string")
	}
	var parts []string
	if sep.Chars == "" {
		parts = strings.Split(s.Chars, "")
	} else {
		parts = strings.Split(s.Chars, sep.Chars)
	}
	items := make([]value.Value, len(parts))
	for i, p := range parts {
		items[i] = value.FromObj(v.Collector.Intern(p))
	}
	list := &value.ObjList{Items: items}
	v.Collector.Track(list, 32+16*len(items))
	return value.FromObj(list)
}

func strFormat(rawVM interface{}, argc int, argv []value.Value) value.Value {
	v := rawVM.(*vm.VM)
	s, ok := receiverString(v, argv)
	if !ok {
		return value.Empty
	}
	args := argv[1:argc]
	var b strings.Builder
	argIdx := 0
	for i := 0; i < len(s.Chars); i++ {
		if s.Chars[i] == '{' && i+1 < len(s.Chars) && s.Chars[i+1] == '}' {
			if argIdx < len(args) {
				b.WriteString(args[argIdx].String())
				argIdx++
			}
			i++
			continue
		}
		b.WriteByte(s.Chars[i])
	}
	return value.FromObj(v.Collector.Intern(b.String()))
}

func strToNumber(rawVM interface{}, argc int, argv []value.Value) value.Value {
	v := rawVM.(*vm.VM)
	s, ok := receiverString(v, argv)
	if !ok {
		return value.Empty
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s.Chars), 64)
	if err != nil {
		return v.RuntimeError("could not convert '%s' to a number", s.Chars)
	}
	return value.Number(n)
}
