// Package corelib fills in Dictu's builtin-type method tables
// (numberMethods, stringMethods, listMethods, dictMethods) via
// internal/vm's Register*Method hooks, grounded on
// original_source/c/datatypes/number.c's defineNative pattern: each
// method receives the receiver as argv[0] and signals failure via
// vm.RuntimeError returning the empty sentinel (SPEC_FULL.md §9).
package corelib

import (
	"strconv"

	"github.com/dictu-lang/dictu-go/internal/value"
	"github.com/dictu-lang/dictu-go/internal/vm"
)

func init() {
	vm.RegisterNumberMethod("toString", toStringNumber)
}

// toStringNumber mirrors number.c's toStringNumber: %.15g-equivalent
// formatting via strconv.FormatFloat's 'g' verb.
func toStringNumber(rawVM interface{}, argc int, argv []value.Value) value.Value {
	v := rawVM.(*vm.VM)
	if argc != 1 {
		return v.RuntimeError("toString() takes no arguments (%d given)", argc-1)
	}
	n := argv[0].Num
	s := strconv.FormatFloat(n, 'g', 15, 64)
	return value.FromObj(v.Collector.Intern(s))
}
