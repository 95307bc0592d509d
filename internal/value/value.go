// Package value implements Dictu's tagged Value type, its heap object
// variants, and the open-addressed hash tables (the string intern pool
// built on Table lives in internal/gc).
package value

import (
	"fmt"
	"strconv"
)

// Kind discriminates the Value union.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindObj
)

// Value is Dictu's runtime value: nil, bool, number, or a reference to a
// heap object. Equality rules are in Equal.
type Value struct {
	Kind Kind
	Bool bool
	Num  float64
	Obj  Obj
}

// Empty is the VM-internal sentinel a native returns to signal that a
// runtime error has already been raised via vm.RuntimeError.
var Empty = Value{Kind: KindObj, Obj: emptySentinel{}}

type emptySentinel struct{}

func (emptySentinel) objType() ObjType { return TypeEmpty }
func (emptySentinel) header() *Header  { return nil }
func (emptySentinel) String() string   { return "" }

// IsEmpty reports whether v is the empty sentinel.
func (v Value) IsEmpty() bool {
	_, ok := v.Obj.(emptySentinel)
	return v.Kind == KindObj && ok
}

// Omitted is the sentinel OP_EMPTY pushes for an elided slice bound
// (spec.md §4.5: "a[lo:hi] ... either may be the sentinel OP_EMPTY meaning
// 'from start' / 'to end'").
var Omitted = Value{Kind: KindObj, Obj: omittedSentinel{}}

type omittedSentinel struct{}

func (omittedSentinel) objType() ObjType { return TypeEmpty }
func (omittedSentinel) header() *Header  { return nil }
func (omittedSentinel) String() string   { return "" }

// IsOmitted reports whether v is the elided-slice-bound sentinel.
func (v Value) IsOmitted() bool {
	_, ok := v.Obj.(omittedSentinel)
	return v.Kind == KindObj && ok
}

func Nil() Value               { return Value{Kind: KindNil} }
func Bool(b bool) Value        { return Value{Kind: KindBool, Bool: b} }
func Number(n float64) Value   { return Value{Kind: KindNumber, Num: n} }
func FromObj(o Obj) Value      { return Value{Kind: KindObj, Obj: o} }

// IsNil and Falsey follow Dictu's truthiness: nil and false are falsey,
// everything else (including 0 and "") is truthy.
func (v Value) IsNil() bool { return v.Kind == KindNil }

func (v Value) Falsey() bool {
	switch v.Kind {
	case KindNil:
		return true
	case KindBool:
		return !v.Bool
	default:
		return false
	}
}

// Equal implements spec.md §3's Value equality: numbers by numeric
// equality, strings by identity (always true for interned strings with
// equal content), other objects by identity, across tags unequal.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNil:
		return true
	case KindBool:
		return a.Bool == b.Bool
	case KindNumber:
		return a.Num == b.Num
	case KindObj:
		if as, ok := a.Obj.(*ObjString); ok {
			bs, ok := b.Obj.(*ObjString)
			return ok && as == bs
		}
		return a.Obj == b.Obj
	default:
		return false
	}
}

// TypeName returns the Dictu-visible type name, used by error messages.
func TypeName(v Value) string {
	switch v.Kind {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindObj:
		if v.Obj == nil {
			return "nil"
		}
		return v.Obj.objType().String()
	default:
		return "unknown"
	}
}

// String renders v the way the REPL and string-concatenation do.
func (v Value) String() string {
	switch v.Kind {
	case KindNil:
		return "nil"
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindNumber:
		return formatNumber(v.Num)
	case KindObj:
		if v.Obj == nil {
			return "nil"
		}
		return v.Obj.String()
	default:
		return ""
	}
}

// formatNumber matches numberMethods' toString (corelib's toStringNumber,
// grounded on number.c's toStringNumber): %.15g-equivalent via
// strconv.FormatFloat's 'g' verb, so the REPL and string concatenation
// never disagree with an explicit toString() call on the same value.
func formatNumber(n float64) string {
	if n == float64(int64(n)) && n < 1e15 && n > -1e15 {
		return fmt.Sprintf("%d", int64(n))
	}
	return strconv.FormatFloat(n, 'g', 15, 64)
}
