package bytecode

import (
	"fmt"

	"github.com/dictu-lang/dictu-go/internal/value"
)

// MaxConstants is the constant pool cap spec.md §3/§4.1 requires: a single
// byte operand addresses OP_CONSTANT's operand.
const MaxConstants = 256

// Chunk is compiled bytecode for one function: a packed opcode/operand
// byte sequence, a parallel line table (one entry per byte -- spec.md
// §4.1 explicitly allows this simpler shape over run-length encoding),
// and a constant pool.
type Chunk struct {
	Code      []byte
	Lines     []int
	Constants []value.Value
}

// Write appends one byte, recording its source line.
func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// AddConstant appends v to the constant pool and returns its index.
// The caller (the compiler) is responsible for refusing to emit
// OP_CONSTANT when this would exceed MaxConstants.
func (c *Chunk) AddConstant(v value.Value) (int, error) {
	if len(c.Constants) >= MaxConstants {
		return 0, fmt.Errorf("too many constants in one chunk")
	}
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1, nil
}
