package vm

import (
	"fmt"

	"github.com/dictu-lang/dictu-go/internal/value"
)

// RuntimeError is the hook natives call to raise a runtime error: it
// records the message and returns value.Empty, the sentinel callValue
// checks for after invoking a native (spec.md §7's native-error tier).
func (vm *VM) RuntimeError(format string, args ...interface{}) value.Value {
	vm.pendingErr = fmt.Sprintf(format, args...)
	return value.Empty
}

// RegisterStringMethod, RegisterListMethod, RegisterDictMethod,
// RegisterFileMethod and RegisterNumberMethod let an internal/natives/*
// package install a builtin-type method without internal/vm importing
// that package (SPEC_FULL.md §9); natives packages call these from
// their own init().
func RegisterStringMethod(name string, fn value.NativeFn) { registerOn(&pendingStringMethods, name, fn) }
func RegisterListMethod(name string, fn value.NativeFn)   { registerOn(&pendingListMethods, name, fn) }
func RegisterDictMethod(name string, fn value.NativeFn)   { registerOn(&pendingDictMethods, name, fn) }
func RegisterFileMethod(name string, fn value.NativeFn)   { registerOn(&pendingFileMethods, name, fn) }
func RegisterNumberMethod(name string, fn value.NativeFn) { registerOn(&pendingNumberMethods, name, fn) }

type pendingMethod struct {
	name string
	fn   value.NativeFn
}

var (
	pendingStringMethods []pendingMethod
	pendingListMethods   []pendingMethod
	pendingDictMethods   []pendingMethod
	pendingFileMethods   []pendingMethod
	pendingNumberMethods []pendingMethod
)

func registerOn(bucket *[]pendingMethod, name string, fn value.NativeFn) {
	*bucket = append(*bucket, pendingMethod{name: name, fn: fn})
}

// installBuiltinMethods copies every method registered via Register*Method
// (by natives packages' init() functions, triggered by cmd/dictu's blank
// imports) into this VM's owned method tables. Called once from New.
func (vm *VM) installBuiltinMethods() {
	install(vm, vm.stringMethods, pendingStringMethods)
	install(vm, vm.listMethods, pendingListMethods)
	install(vm, vm.dictMethods, pendingDictMethods)
	install(vm, vm.fileMethods, pendingFileMethods)
	install(vm, vm.numberMethods, pendingNumberMethods)
}

func install(vm *VM, table *value.Table, methods []pendingMethod) {
	for _, m := range methods {
		native := &value.ObjNativeFunc{Name: m.name, Fn: m.fn}
		vm.Collector.Track(native, 32)
		table.Set(vm.Collector.Intern(m.name), value.FromObj(native))
	}
}
