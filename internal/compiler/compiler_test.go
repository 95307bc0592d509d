package compiler

import (
	"testing"

	"github.com/dictu-lang/dictu-go/internal/bytecode"
	"github.com/dictu-lang/dictu-go/internal/gc"
	"github.com/dictu-lang/dictu-go/internal/value"
)

func compileSource(t *testing.T, src string) *value.ObjFunction {
	t.Helper()
	fn, err := Compile(src, gc.New())
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	return fn
}

// functionChunk finds the first OP_CLOSURE in script's top-level chunk and
// returns the constant it points at, asserted to be a compiled function --
// Compile only ever returns the top-level script, so a nested `def` body's
// bytecode is reached this way rather than through a named-function map.
func functionChunk(t *testing.T, script *value.ObjFunction) *bytecode.Chunk {
	t.Helper()
	chunk, ok := script.Chunk.(*bytecode.Chunk)
	if !ok {
		t.Fatalf("script has no compiled chunk")
	}
	for i := 0; i < len(chunk.Code); i++ {
		if chunk.Code[i] == bytecode.OP_CLOSURE {
			idx := chunk.Code[i+1]
			fn, ok := chunk.Constants[idx].Obj.(*value.ObjFunction)
			if !ok {
				t.Fatalf("OP_CLOSURE constant is not a function")
			}
			inner, ok := fn.Chunk.(*bytecode.Chunk)
			if !ok {
				t.Fatalf("nested function has no compiled chunk")
			}
			return inner
		}
	}
	t.Fatalf("no OP_CLOSURE found in script bytecode")
	return nil
}

func TestCompileSimpleFunctionArity(t *testing.T) {
	fn := compileSource(t, `def add(a, b) { return a + b; }`)
	inner := functionChunk(t, fn)

	// Slot 0 is reserved for the running closure itself in a plain
	// function (it only holds "this" for methods/initializers), so the
	// first declared parameter lands in slot 1. Every function body ends
	// with the compiler's implicit `return nil` (NIL, RETURN).
	expectedOps := []byte{
		bytecode.OP_GET_LOCAL, 0x01,
		bytecode.OP_GET_LOCAL, 0x02,
		bytecode.OP_ADD,
		bytecode.OP_RETURN,
		bytecode.OP_NIL,
		bytecode.OP_RETURN,
	}
	if len(inner.Code) != len(expectedOps) {
		t.Fatalf("expected code length %d, got %d (%v)", len(expectedOps), len(inner.Code), inner.Code)
	}
	for i, b := range expectedOps {
		if inner.Code[i] != b {
			t.Fatalf("byte %d: expected %#x, got %#x", i, b, inner.Code[i])
		}
	}
}

func TestCompileOptionalParameterEmitsGuard(t *testing.T) {
	fn := compileSource(t, `def greet(name, greeting = "hi") { return greeting; }`)
	inner := functionChunk(t, fn)

	found := false
	for i := 0; i < len(inner.Code); i++ {
		if inner.Code[i] == bytecode.OP_DEFINE_OPTIONAL {
			found = true
			if inner.Code[i+1] != 0 {
				t.Fatalf("expected optional index 0 for the first optional parameter, got %d", inner.Code[i+1])
			}
			break
		}
	}
	if !found {
		t.Fatalf("expected OP_DEFINE_OPTIONAL to be emitted for a defaulted parameter")
	}
}

func TestCompileTopLevelExpressionEmitsPopRepl(t *testing.T) {
	fn := compileSource(t, `1 + 1;`)
	chunk, ok := fn.Chunk.(*bytecode.Chunk)
	if !ok {
		t.Fatalf("script has no compiled chunk")
	}
	// The script ends with the implicit NIL, RETURN; the statement's own
	// last byte sits just before them.
	last := chunk.Code[len(chunk.Code)-3]
	if last != bytecode.OP_POP_REPL {
		t.Fatalf("expected top-level expression statement to end in OP_POP_REPL, got %#x", last)
	}
}

func TestCompileClassBodyEmitsOpClass(t *testing.T) {
	fn := compileSource(t, `class Foo { bar() { return 1; } }`)
	chunk, ok := fn.Chunk.(*bytecode.Chunk)
	if !ok {
		t.Fatalf("script has no compiled chunk")
	}
	if chunk.Code[0] != bytecode.OP_CLASS {
		t.Fatalf("expected OP_CLASS as the first emitted opcode, got %#x", chunk.Code[0])
	}
}

func TestCompileInheritanceEmitsSubclass(t *testing.T) {
	fn := compileSource(t, `
class Animal { speak() { return 1; } }
class Dog < Animal { }
`)
	chunk, ok := fn.Chunk.(*bytecode.Chunk)
	if !ok {
		t.Fatalf("script has no compiled chunk")
	}
	found := false
	for _, b := range chunk.Code {
		if b == bytecode.OP_SUBCLASS {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("expected OP_SUBCLASS to be emitted for `class Dog < Animal`")
	}
}

func TestCompileSelfInheritanceIsAnError(t *testing.T) {
	_, err := Compile(`class Foo < Foo { }`, gc.New())
	if err == nil {
		t.Fatalf("expected a compile error for a class inheriting from itself")
	}
}

func TestCompileUnterminatedStringIsAnError(t *testing.T) {
	_, err := Compile(`var x = "unterminated;`, gc.New())
	if err == nil {
		t.Fatalf("expected a compile error for an unterminated string literal")
	}
}
