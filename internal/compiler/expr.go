package compiler

import (
	"github.com/dictu-lang/dictu-go/internal/bytecode"
	"github.com/dictu-lang/dictu-go/internal/token"
	"github.com/dictu-lang/dictu-go/internal/value"
)

func (c *Compiler) parsePrecedence(prec Precedence) {
	c.advance()
	rule := c.getRule(c.prev.Type)
	if rule.prefix == nil {
		c.error("expected expression")
		return
	}
	canAssign := prec <= PrecAssignment
	rule.prefix(c, canAssign)

	for {
		infixRule := c.getRule(c.cur.Type)
		if infixRule.infix == nil || infixRule.precedence < prec {
			break
		}
		c.advance()
		infixRule.infix(c, canAssign)
	}
}

func (c *Compiler) grouping(canAssign bool) {
	c.expression()
	c.consume(token.RightParen, "expected ')' after expression")
}

func (c *Compiler) unary(canAssign bool) {
	op := c.prev.Type
	c.parsePrecedence(PrecUnary)
	switch op {
	case token.Minus:
		c.emitByte(bytecode.OP_NEGATE)
	case token.Bang:
		c.emitByte(bytecode.OP_NOT)
	case token.Tilde:
		c.emitByte(bytecode.OP_BITNOT)
	}
}

func (c *Compiler) binary(canAssign bool) {
	op := c.prev.Type
	rule := c.getRule(op)
	if op == token.StarStar {
		c.parsePrecedence(PrecIndices) // right-associative
	} else {
		c.parsePrecedence(rule.precedence + 1)
	}

	switch op {
	case token.Plus:
		c.emitByte(bytecode.OP_ADD)
	case token.Minus:
		c.emitByte(bytecode.OP_SUBTRACT)
	case token.Star:
		c.emitByte(bytecode.OP_MULTIPLY)
	case token.Slash:
		c.emitByte(bytecode.OP_DIVIDE)
	case token.Percent:
		c.emitByte(bytecode.OP_MOD)
	case token.StarStar:
		c.emitByte(bytecode.OP_POW)
	case token.Ampersand:
		c.emitByte(bytecode.OP_BITAND)
	case token.Pipe:
		c.emitByte(bytecode.OP_BITOR)
	case token.Caret:
		c.emitByte(bytecode.OP_BITXOR)
	case token.EqualEqual:
		c.emitByte(bytecode.OP_EQUAL)
	case token.BangEqual:
		c.emitBytes(bytecode.OP_EQUAL, bytecode.OP_NOT)
	case token.Greater:
		c.emitByte(bytecode.OP_GREATER)
	case token.GreaterEqual:
		c.emitBytes(bytecode.OP_LESS, bytecode.OP_NOT)
	case token.Less:
		c.emitByte(bytecode.OP_LESS)
	case token.LessEqual:
		c.emitBytes(bytecode.OP_GREATER, bytecode.OP_NOT)
	}
}

func (c *Compiler) and(canAssign bool) {
	endJump := c.emitJump(bytecode.OP_JUMP_IF_FALSE)
	c.emitByte(bytecode.OP_POP)
	c.parsePrecedence(PrecAnd)
	c.patchJump(endJump)
}

func (c *Compiler) or(canAssign bool) {
	elseJump := c.emitJump(bytecode.OP_JUMP_IF_FALSE)
	endJump := c.emitJump(bytecode.OP_JUMP)
	c.patchJump(elseJump)
	c.emitByte(bytecode.OP_POP)
	c.parsePrecedence(PrecOr)
	c.patchJump(endJump)
}

func (c *Compiler) call(canAssign bool) {
	argCount := c.argumentList()
	c.emitBytes(bytecode.OP_CALL, byte(argCount))
}

func (c *Compiler) argumentList() int {
	count := 0
	if !c.check(token.RightParen) {
		for {
			c.expression()
			count++
			if count > 255 {
				c.error("too many arguments")
			}
			if !c.match(token.Comma) {
				break
			}
		}
	}
	c.consume(token.RightParen, "expected ')' after arguments")
	return count
}

func (c *Compiler) dot(canAssign bool) {
	c.consume(token.Identifier, "expected property name after '.'")
	name := c.prev.Literal
	idx := c.makeConstant(value.FromObj(c.gc.Intern(name)))

	switch {
	case canAssign && c.match(token.Equal):
		c.expression()
		c.emitBytes(bytecode.OP_SET_PROPERTY, byte(idx))
	case canAssign && c.matchCompoundOp():
		op := c.prev.Type
		c.emitByte(bytecode.OP_DUP)
		c.emitBytes(bytecode.OP_GET_PROPERTY, byte(idx))
		c.expression()
		c.emitCompoundOp(op)
		c.emitBytes(bytecode.OP_SET_PROPERTY, byte(idx))
	case c.match(token.LeftParen):
		argCount := c.argumentList()
		c.emitBytes(bytecode.OP_INVOKE, byte(idx), byte(argCount))
	default:
		c.emitBytes(bytecode.OP_GET_PROPERTY, byte(idx))
	}
}

// subscript compiles `expr[...]`, covering both plain indexing and the
// `[lo:hi]` slice form with either bound elidable.
func (c *Compiler) subscript(canAssign bool) {
	if c.check(token.Colon) {
		c.emitByte(bytecode.OP_EMPTY)
	} else {
		c.expression()
	}

	if c.match(token.Colon) {
		if c.check(token.RightBracket) {
			c.emitByte(bytecode.OP_EMPTY)
		} else {
			c.expression()
		}
		c.consume(token.RightBracket, "expected ']' after slice")
		c.emitByte(bytecode.OP_SLICE)
		return
	}

	c.consume(token.RightBracket, "expected ']' after index")
	if canAssign && c.match(token.Equal) {
		c.expression()
		c.emitByte(bytecode.OP_INDEX_SET)
		return
	}
	c.emitByte(bytecode.OP_INDEX_GET)
}

func (c *Compiler) listLiteral(canAssign bool) {
	count := 0
	if !c.check(token.RightBracket) {
		for {
			c.expression()
			count++
			if !c.match(token.Comma) {
				break
			}
		}
	}
	c.consume(token.RightBracket, "expected ']' after list elements")
	c.emitBytes(bytecode.OP_LIST, byte(count>>8), byte(count))
}

func (c *Compiler) dictLiteral(canAssign bool) {
	count := 0
	if !c.check(token.RightBrace) {
		for {
			c.expression()
			c.consume(token.Colon, "expected ':' after dict key")
			c.expression()
			count++
			if !c.match(token.Comma) {
				break
			}
		}
	}
	c.consume(token.RightBrace, "expected '}' after dict entries")
	c.emitBytes(bytecode.OP_DICT, byte(count>>8), byte(count))
}

func (c *Compiler) this(canAssign bool) {
	if c.class == nil {
		c.error("'this' outside a class method")
		return
	}
	c.namedVariable("this", false)
}

func (c *Compiler) super(canAssign bool) {
	if c.class == nil {
		c.error("'super' outside a class")
	} else if !c.class.hasSuperclass {
		c.error("'super' used in a class with no superclass")
	}
	c.consume(token.Dot, "expected '.' after 'super'")
	c.consume(token.Identifier, "expected superclass method name")
	name := c.prev.Literal
	idx := c.makeConstant(value.FromObj(c.gc.Intern(name)))

	c.namedVariable("this", false)
	if c.match(token.LeftParen) {
		argCount := c.argumentList()
		c.namedVariable("super", false)
		c.emitBytes(bytecode.OP_SUPER_INVOKE, byte(idx), byte(argCount))
	} else {
		c.namedVariable("super", false)
		c.emitBytes(bytecode.OP_GET_SUPER, byte(idx))
	}
}

func (c *Compiler) variable(canAssign bool) {
	c.namedVariable(c.prev.Literal, canAssign)
}

// resolveNamedOps picks the get/set opcode pair and operand for a bare
// name, searching locals, then upvalues, then falling back to a global.
func (c *Compiler) resolveNamedOps(name string) (getOp, setOp byte, arg int) {
	if slot, ok := c.resolveLocal(name); ok {
		return bytecode.OP_GET_LOCAL, bytecode.OP_SET_LOCAL, slot
	}
	if idx, ok := c.resolveUpvalue(name); ok {
		return bytecode.OP_GET_UPVALUE, bytecode.OP_SET_UPVALUE, idx
	}
	idx := c.makeConstant(value.FromObj(c.gc.Intern(name)))
	return bytecode.OP_GET_GLOBAL, bytecode.OP_SET_GLOBAL, idx
}

func (c *Compiler) namedVariable(name string, canAssign bool) {
	getOp, setOp, arg := c.resolveNamedOps(name)

	if canAssign {
		switch {
		case c.match(token.Equal):
			c.expression()
			c.emitBytes(setOp, byte(arg))
			return
		case c.matchCompoundOp():
			op := c.prev.Type
			c.emitBytes(getOp, byte(arg))
			c.expression()
			c.emitCompoundOp(op)
			c.emitBytes(setOp, byte(arg))
			return
		}
	}
	c.emitBytes(getOp, byte(arg))
}

func (c *Compiler) matchCompoundOp() bool {
	switch c.cur.Type {
	case token.PlusEqual, token.MinusEqual, token.StarEqual, token.SlashEqual,
		token.AmpersandEqual, token.CaretEqual, token.PipeEqual:
		c.advance()
		return true
	}
	return false
}

func (c *Compiler) emitCompoundOp(op token.Type) {
	switch op {
	case token.PlusEqual:
		c.emitByte(bytecode.OP_ADD)
	case token.MinusEqual:
		c.emitByte(bytecode.OP_SUBTRACT)
	case token.StarEqual:
		c.emitByte(bytecode.OP_MULTIPLY)
	case token.SlashEqual:
		c.emitByte(bytecode.OP_DIVIDE)
	case token.AmpersandEqual:
		c.emitByte(bytecode.OP_BITAND)
	case token.CaretEqual:
		c.emitByte(bytecode.OP_BITXOR)
	case token.PipeEqual:
		c.emitByte(bytecode.OP_BITOR)
	}
}

// prefixIncDec compiles `++x`/`--x` and `++obj.field`/`--obj.field`
// (spec.md restricts prefix increment/decrement to those two target
// shapes).
func (c *Compiler) prefixIncDec(canAssign bool) {
	op := c.prev.Type
	c.consume(token.Identifier, "expected identifier after '++'/'--'")
	name := c.prev.Literal

	if c.match(token.Dot) {
		c.namedVariable(name, false)
		c.emitByte(bytecode.OP_DUP)
		c.consume(token.Identifier, "expected property name")
		idx := c.makeConstant(value.FromObj(c.gc.Intern(c.prev.Literal)))
		c.emitBytes(bytecode.OP_GET_PROPERTY, byte(idx))
		c.emitIncDec(op)
		c.emitBytes(bytecode.OP_SET_PROPERTY, byte(idx))
		return
	}

	getOp, setOp, arg := c.resolveNamedOps(name)
	c.emitBytes(getOp, byte(arg))
	c.emitIncDec(op)
	c.emitBytes(setOp, byte(arg))
}

func (c *Compiler) emitIncDec(op token.Type) {
	if op == token.PlusPlus {
		c.emitByte(bytecode.OP_INCREMENT)
	} else {
		c.emitByte(bytecode.OP_DECREMENT)
	}
}
