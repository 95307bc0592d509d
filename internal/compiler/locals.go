package compiler

import (
	"github.com/dictu-lang/dictu-go/internal/bytecode"
	"github.com/dictu-lang/dictu-go/internal/token"
	"github.com/dictu-lang/dictu-go/internal/value"
)

func (c *Compiler) beginScope() { c.scopeDepth++ }

func (c *Compiler) endScope() {
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].Depth > c.scopeDepth {
		last := c.locals[len(c.locals)-1]
		if last.IsCaptured {
			c.emitByte(bytecode.OP_CLOSE_UPVALUE)
		} else {
			c.emitByte(bytecode.OP_POP)
		}
		c.locals = c.locals[:len(c.locals)-1]
	}
}

// parseVariable consumes a name and, for a local scope, declares it;
// returns the constant-pool index of the name (meaningful only for
// globals, where defineVariable needs it).
func (c *Compiler) parseVariable(msg string) int {
	c.consume(token.Identifier, msg)
	name := c.prev.Literal
	c.lastParsedName = name
	if c.scopeDepth > 0 {
		c.declareLocal(name)
		return -1
	}
	return c.makeConstant(value.FromObj(c.gc.Intern(name)))
}

func (c *Compiler) declareLocal(name string) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		l := c.locals[i]
		if l.Depth != -1 && l.Depth < c.scopeDepth {
			break
		}
		if l.Name == name {
			c.error("variable with this name already declared in this scope")
		}
	}
	c.addLocal(name)
}

// addLocal appends an uninitialized local and returns its slot.
func (c *Compiler) addLocal(name string) int {
	if len(c.locals) >= 256 {
		c.error("too many local variables in one function")
		return 0
	}
	c.locals = append(c.locals, Local{Name: name, Depth: -1})
	return len(c.locals) - 1
}

func (c *Compiler) markInitialized(slot int) {
	if c.scopeDepth == 0 {
		return
	}
	c.locals[slot].Depth = c.scopeDepth
}

func (c *Compiler) defineVariable(globalConstIdx int) {
	if c.scopeDepth > 0 {
		c.markInitialized(len(c.locals) - 1)
		return
	}
	c.emitBytes(bytecode.OP_DEFINE_GLOBAL, byte(globalConstIdx))
}

// resolveLocal searches this function's own locals for name.
func (c *Compiler) resolveLocal(name string) (int, bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].Name == name {
			if c.locals[i].Depth == -1 {
				c.error("cannot read local variable in its own initializer")
			}
			return i, true
		}
	}
	return -1, false
}

// resolveUpvalue walks the enclosing-compiler chain, flattening captures
// through every intermediate function the way clox's resolveUpvalue does:
// each function between the definition site and the use site gets its own
// upvalue entry pointing at the previous link.
func (c *Compiler) resolveUpvalue(name string) (int, bool) {
	if c.enclosing == nil {
		return -1, false
	}
	if slot, ok := c.enclosing.resolveLocal(name); ok {
		c.enclosing.locals[slot].IsCaptured = true
		return c.addUpvalue(byte(slot), true), true
	}
	if idx, ok := c.enclosing.resolveUpvalue(name); ok {
		return c.addUpvalue(byte(idx), false), true
	}
	return -1, false
}

func (c *Compiler) addUpvalue(index byte, isLocal bool) int {
	for i, uv := range c.upvalues {
		if uv.Index == index && uv.IsLocal == isLocal {
			return i
		}
	}
	c.upvalues = append(c.upvalues, Upvalue{Index: index, IsLocal: isLocal})
	c.function.UpvalueCount = len(c.upvalues)
	return len(c.upvalues) - 1
}
