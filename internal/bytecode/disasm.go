package bytecode

import (
	"fmt"
	"io"
)

// Disassemble writes a human-readable dump of chunk to w, labeled name.
// A debugging aid; nothing in the CLI or the tests calls it.
func Disassemble(w io.Writer, chunk *Chunk, name string) {
	fmt.Fprintf(w, "== %s ==\n", name)
	for offset := 0; offset < len(chunk.Code); {
		offset = disassembleInstruction(w, chunk, offset)
	}
}

func disassembleInstruction(w io.Writer, c *Chunk, offset int) int {
	line := 0
	if offset < len(c.Lines) {
		line = c.Lines[offset]
	}
	fmt.Fprintf(w, "%04d %4d ", offset, line)

	op := c.Code[offset]
	switch op {
	case OP_CONSTANT, OP_GET_GLOBAL, OP_SET_GLOBAL, OP_DEFINE_GLOBAL,
		OP_GET_LOCAL, OP_SET_LOCAL, OP_GET_UPVALUE, OP_SET_UPVALUE,
		OP_GET_PROPERTY, OP_SET_PROPERTY, OP_GET_SUPER, OP_CLASS,
		OP_TRAIT, OP_METHOD, OP_TRAIT_METHOD, OP_ABSTRACT_METHOD, OP_CALL,
		OP_IMPORT:
		return byteInstruction(w, opName(op), c, offset)
	case OP_INVOKE, OP_SUPER_INVOKE, OP_IMPORT_AS:
		return twoByteInstruction(w, opName(op), c, offset)
	case OP_CLOSE_FILE:
		return byteInstruction(w, opName(op), c, offset)
	case OP_JUMP, OP_JUMP_IF_FALSE, OP_BREAK:
		return jumpInstruction(w, opName(op), c, offset)
	case OP_LIST, OP_DICT:
		return shortInstruction(w, opName(op), c, offset)
	case OP_CLOSURE:
		return closureInstruction(w, c, offset)
	case OP_DEFINE_OPTIONAL:
		return defineOptionalInstruction(w, c, offset)
	default:
		fmt.Fprintf(w, "%s\n", opName(op))
		return offset + 1
	}
}

func byteInstruction(w io.Writer, name string, c *Chunk, offset int) int {
	slot := c.Code[offset+1]
	fmt.Fprintf(w, "%-18s %4d\n", name, slot)
	return offset + 2
}

func twoByteInstruction(w io.Writer, name string, c *Chunk, offset int) int {
	a, b := c.Code[offset+1], c.Code[offset+2]
	fmt.Fprintf(w, "%-18s %4d %4d\n", name, a, b)
	return offset + 3
}

func shortInstruction(w io.Writer, name string, c *Chunk, offset int) int {
	n := int(c.Code[offset+1])<<8 | int(c.Code[offset+2])
	fmt.Fprintf(w, "%-18s %4d\n", name, n)
	return offset + 3
}

func jumpInstruction(w io.Writer, name string, c *Chunk, offset int) int {
	target := int(c.Code[offset+1])<<8 | int(c.Code[offset+2])
	fmt.Fprintf(w, "%-18s -> %d\n", name, target)
	return offset + 3
}

func closureInstruction(w io.Writer, c *Chunk, offset int) int {
	idx := c.Code[offset+1]
	fmt.Fprintf(w, "%-18s %4d\n", "OP_CLOSURE", idx)
	return offset + 2
}

func defineOptionalInstruction(w io.Writer, c *Chunk, offset int) int {
	idx := c.Code[offset+1]
	target := int(c.Code[offset+2])<<8 | int(c.Code[offset+3])
	fmt.Fprintf(w, "%-18s %4d -> %d\n", "OP_DEFINE_OPTIONAL", idx, target)
	return offset + 4
}

var opNames = map[byte]string{
	OP_CONSTANT: "OP_CONSTANT", OP_NIL: "OP_NIL", OP_TRUE: "OP_TRUE", OP_FALSE: "OP_FALSE",
	OP_POP: "OP_POP", OP_POP_REPL: "OP_POP_REPL", OP_DUP: "OP_DUP",
	OP_ADD: "OP_ADD", OP_SUBTRACT: "OP_SUBTRACT", OP_MULTIPLY: "OP_MULTIPLY", OP_DIVIDE: "OP_DIVIDE",
	OP_MOD: "OP_MOD", OP_POW: "OP_POW", OP_NEGATE: "OP_NEGATE", OP_NOT: "OP_NOT",
	OP_BITAND: "OP_BITAND", OP_BITOR: "OP_BITOR", OP_BITXOR: "OP_BITXOR", OP_BITNOT: "OP_BITNOT",
	OP_EQUAL: "OP_EQUAL", OP_GREATER: "OP_GREATER", OP_LESS: "OP_LESS",
	OP_GET_LOCAL: "OP_GET_LOCAL", OP_SET_LOCAL: "OP_SET_LOCAL",
	OP_GET_GLOBAL: "OP_GET_GLOBAL", OP_SET_GLOBAL: "OP_SET_GLOBAL", OP_DEFINE_GLOBAL: "OP_DEFINE_GLOBAL",
	OP_GET_UPVALUE: "OP_GET_UPVALUE", OP_SET_UPVALUE: "OP_SET_UPVALUE",
	OP_GET_PROPERTY: "OP_GET_PROPERTY", OP_SET_PROPERTY: "OP_SET_PROPERTY", OP_GET_SUPER: "OP_GET_SUPER",
	OP_INCREMENT: "OP_INCREMENT", OP_DECREMENT: "OP_DECREMENT",
	OP_LIST: "OP_LIST", OP_DICT: "OP_DICT", OP_INDEX_GET: "OP_INDEX_GET", OP_INDEX_SET: "OP_INDEX_SET",
	OP_SLICE: "OP_SLICE", OP_EMPTY: "OP_EMPTY",
	OP_JUMP: "OP_JUMP", OP_JUMP_IF_FALSE: "OP_JUMP_IF_FALSE", OP_BREAK: "OP_BREAK",
	OP_CLOSE_UPVALUE: "OP_CLOSE_UPVALUE",
	OP_CALL: "OP_CALL", OP_INVOKE: "OP_INVOKE", OP_SUPER_INVOKE: "OP_SUPER_INVOKE",
	OP_RETURN: "OP_RETURN", OP_CLOSURE: "OP_CLOSURE", OP_DEFINE_OPTIONAL: "OP_DEFINE_OPTIONAL",
	OP_CLASS: "OP_CLASS", OP_SUBCLASS: "OP_SUBCLASS", OP_TRAIT: "OP_TRAIT",
	OP_METHOD: "OP_METHOD", OP_TRAIT_METHOD: "OP_TRAIT_METHOD", OP_USE: "OP_USE",
	OP_ABSTRACT_METHOD: "OP_ABSTRACT_METHOD",
	OP_IMPORT: "OP_IMPORT", OP_IMPORT_AS: "OP_IMPORT_AS", OP_OPEN_FILE: "OP_OPEN_FILE",
	OP_CLOSE_FILE: "OP_CLOSE_FILE", OP_NOP: "OP_NOP",
}

func opName(op byte) string {
	if n, ok := opNames[op]; ok {
		return n
	}
	return fmt.Sprintf("OP_UNKNOWN(%d)", op)
}
