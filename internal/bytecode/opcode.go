// Package bytecode defines Dictu's Chunk (packed opcodes + line table +
// constant pool) and the opcode set the compiler emits and the VM
// executes (spec.md §4.1 and §4.5).
package bytecode

// OpCode enumerates bytecode operations. Most carry fixed-width operands
// that are read inline by the VM; widths are documented per group.
type OpCode = byte

const (
	OP_CONSTANT OpCode = iota // u8 const-index
	OP_NIL
	OP_TRUE
	OP_FALSE
	OP_POP
	OP_POP_REPL // REPL mode: print top-of-stack, then pop (spec.md §4.5)
	OP_DUP

	// arithmetic / bitwise
	OP_ADD
	OP_SUBTRACT
	OP_MULTIPLY
	OP_DIVIDE
	OP_MOD
	OP_POW // INDICES precedence, right-associative exponent
	OP_NEGATE
	OP_NOT
	OP_BITAND
	OP_BITOR
	OP_BITXOR
	OP_BITNOT

	// comparison
	OP_EQUAL
	OP_GREATER
	OP_LESS

	// locals / globals / upvalues / properties     -- all u8 operands
	// unless noted
	OP_GET_LOCAL
	OP_SET_LOCAL
	OP_GET_GLOBAL // u8 name-const index
	OP_SET_GLOBAL
	OP_DEFINE_GLOBAL
	OP_GET_UPVALUE
	OP_SET_UPVALUE
	OP_GET_PROPERTY // u8 name-const index
	OP_SET_PROPERTY
	OP_GET_SUPER

	// increment/decrement (spec.md §4.4: prefix ++/-- on identifier or
	// obj.field)
	OP_INCREMENT
	OP_DECREMENT

	// collections
	OP_LIST    // u16 element count
	OP_DICT    // u16 pair count
	OP_INDEX_GET
	OP_INDEX_SET
	OP_SLICE
	OP_EMPTY // pushes the elided-slice-bound sentinel

	// control flow -- jump targets are absolute u16 instruction offsets
	OP_JUMP
	OP_JUMP_IF_FALSE
	OP_BREAK // never emitted: break compiles to an OP_JUMP patched at loop end; the VM rejects it
	OP_CLOSE_UPVALUE

	// calls
	OP_CALL          // u8 argc
	OP_INVOKE        // u8 name-const index, u8 argc
	OP_SUPER_INVOKE  // u8 name-const index, u8 argc
	OP_RETURN
	OP_CLOSURE // u8 func-const index, then u8 upvalue-count pairs of (isLocal u8, index u8)
	OP_DEFINE_OPTIONAL // u8 optional-index, u16 post-default jump target

	// classes / traits
	OP_CLASS    // u8 name-const index; pushes a fresh empty class
	OP_SUBCLASS // no operand; pops a class reference (TOS) and merges the superclass found at TOS-1 (left in place) into it
	OP_TRAIT    // u8 name-const index
	OP_METHOD   // u8 name-const index; pops closure, attaches to class/trait on top
	OP_TRAIT_METHOD
	OP_USE // no operand; pops a trait, copies its methods into the class now on top
	OP_ABSTRACT_METHOD // u8 name-const index; reads (does not pop) the class on top

	// modules / files
	OP_IMPORT    // u8 path-const index
	OP_IMPORT_AS // u8 path-const index, u8 alias-const index
	OP_OPEN_FILE // no operand; pops mode then path, pushes an opened file object
	OP_CLOSE_FILE // u8 local slot holding the file to close

	// debug
	OP_NOP
)
