package compiler

import (
	"github.com/dictu-lang/dictu-go/internal/bytecode"
	"github.com/dictu-lang/dictu-go/internal/token"
	"github.com/dictu-lang/dictu-go/internal/value"
)

func (c *Compiler) funDeclaration() {
	globalIdx := c.parseVariable("expected function name")
	isLocal := c.scopeDepth > 0
	var localSlot int
	if isLocal {
		localSlot = len(c.locals) - 1
	}
	c.function_(c.prevFunctionName(), FuncFunction)
	if isLocal {
		c.markInitialized(localSlot)
	} else {
		c.emitBytes(bytecode.OP_DEFINE_GLOBAL, byte(globalIdx))
	}
}

// prevFunctionName returns the name just consumed by parseVariable, which
// records it in lastParsedName; funDeclaration reads it from there rather
// than from the token stream.
func (c *Compiler) prevFunctionName() string { return c.lastParsedName }

// function_ compiles a function's parameter list and body into a new
// child Compiler, then emits OP_CLOSURE (with its upvalue capture
// descriptors) into the enclosing chunk.
func (c *Compiler) function_(name string, ft FuncType) {
	child := newCompiler(c, c.lex, c.gc, ft, name)
	c.gc.EnterCompiler(child)

	child.beginScope()
	child.consume(token.LeftParen, "expected '(' after function name")
	child.compileParams()
	child.consume(token.LeftBrace, "expected '{' before function body")
	child.block()

	fn := child.endCompiler()
	c.gc.ExitCompiler()

	// Resume this compiler's token stream where the child left off.
	c.cur, c.prev = child.cur, child.prev
	c.errs = append(c.errs, child.errs...)
	if child.hadError {
		c.hadError = true
	}

	idx := c.makeConstant(value.FromObj(fn))
	c.emitBytes(bytecode.OP_CLOSURE, byte(idx))
	for _, uv := range child.upvalues {
		isLocal := byte(0)
		if uv.IsLocal {
			isLocal = 1
		}
		c.emitBytes(isLocal, uv.Index)
	}
}

// compileParams parses a parameter list, binding each as a local in the
// just-opened function scope. Parameters with a default value
// (spec.md's optional parameters) compile to an OP_DEFINE_OPTIONAL guard
// around their default expression, indexed by position among the
// optional parameters only.
func (c *Compiler) compileParams() {
	optionalIndex := 0
	for !c.check(token.RightParen) {
		c.consume(token.Identifier, "expected parameter name")
		name := c.prev.Literal
		slot := c.addLocal(name)
		c.markInitialized(slot)

		if c.match(token.Equal) {
			c.emitByte(bytecode.OP_DEFINE_OPTIONAL)
			c.emitByte(byte(optionalIndex))
			c.emitByte(0xff)
			c.emitByte(0xff)
			placeholder := len(c.chunk.Code) - 2

			c.expression()
			c.emitBytes(bytecode.OP_SET_LOCAL, byte(slot))
			c.emitByte(bytecode.OP_POP)
			c.patchJump(placeholder)

			c.function.ArityOptional++
			optionalIndex++
		} else {
			if c.function.ArityOptional > 0 {
				c.error("required parameters must precede optional ones")
			}
			c.function.Arity++
		}
		if c.function.Arity+c.function.ArityOptional > 255 {
			c.error("too many parameters")
		}
		if !c.match(token.Comma) {
			break
		}
	}
	c.consume(token.RightParen, "expected ')' after parameters")
}

// lambda compiles an anonymous `def(...) { ... }` function expression.
func (c *Compiler) lambda(canAssign bool) {
	c.function_("", FuncFunction)
}
