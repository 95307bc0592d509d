package compiler

import (
	"github.com/dictu-lang/dictu-go/internal/bytecode"
	"github.com/dictu-lang/dictu-go/internal/value"
)

func (c *Compiler) emitByte(b byte) {
	c.chunk.Write(b, c.prev.Line)
}

func (c *Compiler) emitBytes(bs ...byte) {
	for _, b := range bs {
		c.emitByte(b)
	}
}

// makeConstant adds v to the current chunk's constant pool, erroring if
// that would exceed the single-byte operand's addressable range.
func (c *Compiler) makeConstant(v value.Value) int {
	idx, err := c.chunk.AddConstant(v)
	if err != nil {
		c.error(err.Error())
		return 0
	}
	return idx
}

func (c *Compiler) emitConstant(v value.Value) {
	idx := c.makeConstant(v)
	c.emitBytes(bytecode.OP_CONSTANT, byte(idx))
}

// emitJump writes a jump opcode followed by a placeholder u16 absolute
// target, returning the offset of that placeholder for patchJump.
func (c *Compiler) emitJump(op byte) int {
	c.emitByte(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.chunk.Code) - 2
}

// patchJump backpatches the jump at pos to target the current offset
// (absolute instruction address, matching the VM's jump semantics).
func (c *Compiler) patchJump(pos int) {
	c.patchJumpTo(pos, len(c.chunk.Code))
}

func (c *Compiler) patchJumpTo(pos, target int) {
	c.chunk.Code[pos] = byte(target >> 8)
	c.chunk.Code[pos+1] = byte(target)
}

// emitLoop writes an unconditional jump back to start.
func (c *Compiler) emitLoop(start int) {
	c.emitByte(bytecode.OP_JUMP)
	c.emitByte(byte(start >> 8))
	c.emitByte(byte(start))
}
