package compiler

import (
	"github.com/dictu-lang/dictu-go/internal/bytecode"
	"github.com/dictu-lang/dictu-go/internal/token"
	"github.com/dictu-lang/dictu-go/internal/value"
)

// classDeclaration compiles `class Name [< Super] { ...members... }`.
// The sequencing mirrors the classic pattern: OP_CLASS allocates an empty
// class and binds its name immediately, so the body (and a recursive
// reference to the class itself) can look it up by name; superclass
// inheritance and `use Trait` composition then mutate that same class
// object in place via freshly re-fetched references.
func (c *Compiler) classDeclaration() {
	c.consume(token.Identifier, "expected class name")
	className := c.prev.Literal
	nameConst := c.makeConstant(value.FromObj(c.gc.Intern(className)))

	isLocal := c.scopeDepth > 0
	if isLocal {
		c.declareLocal(className)
	}

	c.emitBytes(bytecode.OP_CLASS, byte(nameConst))

	if isLocal {
		c.markInitialized(len(c.locals) - 1)
	} else {
		c.emitBytes(bytecode.OP_DEFINE_GLOBAL, byte(nameConst))
	}

	enclosingClass := c.class
	c.class = &classCtx{enclosing: enclosingClass, name: className}

	if c.match(token.Less) {
		c.consume(token.Identifier, "expected superclass name")
		superName := c.prev.Literal
		if superName == className {
			c.error("a class cannot inherit from itself")
		}
		// Push the superclass once and bind it as the "super" local for
		// the rest of the class body; it is never popped until the body's
		// endScope. OP_SUBCLASS then merges it into a second, disposable
		// reference to the class itself.
		c.namedVariable(superName, false)
		c.beginScope()
		slot := c.addLocal("super")
		c.markInitialized(slot)

		c.namedVariable(className, false)
		c.emitByte(bytecode.OP_SUBCLASS)
		c.class.hasSuperclass = true
	}

	c.namedVariable(className, false)
	c.consume(token.LeftBrace, "expected '{' before class body")
	for !c.check(token.RightBrace) && !c.check(token.EOF) {
		if c.match(token.Use) {
			c.useTrait()
			continue
		}
		c.method()
	}
	c.consume(token.RightBrace, "expected '}' after class body")
	c.emitByte(bytecode.OP_POP)

	if c.class.hasSuperclass {
		c.endScope()
	}
	c.class = enclosingClass
}

// useTrait compiles `use TraitName, TraitName2;` inside a class body.
func (c *Compiler) useTrait() {
	for {
		c.consume(token.Identifier, "expected trait name after 'use'")
		c.namedVariable(c.prev.Literal, false)
		c.emitByte(bytecode.OP_USE)
		if !c.match(token.Comma) {
			break
		}
	}
	c.consume(token.Semicolon, "expected ';' after 'use' statement")
}

// traitDeclaration compiles `trait Name { ...methods... }`: structurally
// identical to a class with no state and no inheritance.
func (c *Compiler) traitDeclaration() {
	c.consume(token.Identifier, "expected trait name")
	traitName := c.prev.Literal
	nameConst := c.makeConstant(value.FromObj(c.gc.Intern(traitName)))

	isLocal := c.scopeDepth > 0
	if isLocal {
		c.declareLocal(traitName)
	}
	c.emitBytes(bytecode.OP_TRAIT, byte(nameConst))
	if isLocal {
		c.markInitialized(len(c.locals) - 1)
	} else {
		c.emitBytes(bytecode.OP_DEFINE_GLOBAL, byte(nameConst))
	}

	enclosingClass := c.class
	c.class = &classCtx{enclosing: enclosingClass, name: traitName}

	c.namedVariable(traitName, false)
	c.consume(token.LeftBrace, "expected '{' before trait body")
	for !c.check(token.RightBrace) && !c.check(token.EOF) {
		c.method()
	}
	c.consume(token.RightBrace, "expected '}' after trait body")
	c.emitByte(bytecode.OP_POP)

	c.class = enclosingClass
}

// method compiles one class/trait member: `static`? `def`? `init`/name
// `(` params `)` `{` body `}`, or an abstract method declaration with no
// body (`def name();`). The `def` keyword is optional in both forms.
func (c *Compiler) method() {
	static := c.match(token.Static)
	c.match(token.Def)
	c.consume(token.Identifier, "expected method name")
	name := c.prev.Literal
	nameConst := c.makeConstant(value.FromObj(c.gc.Intern(name)))

	if c.isAbstractSignature() {
		c.consume(token.LeftParen, "expected '(' after method name")
		c.consume(token.RightParen, "expected ')' in abstract method declaration")
		c.consume(token.Semicolon, "expected ';' after abstract method declaration")
		c.emitBytes(bytecode.OP_ABSTRACT_METHOD, byte(nameConst))
		return
	}

	ft := FuncMethod
	switch {
	case static:
		ft = FuncStatic
	case name == "init":
		ft = FuncInitializer
	}
	c.function_(name, ft)
	c.emitBytes(bytecode.OP_METHOD, byte(nameConst))
}

// isAbstractSignature reports, without consuming anything, whether the
// upcoming tokens are exactly '(' ')' ';' -- an abstract method
// declaration with no body (spec.md's supplemented abstract-method
// feature, grounded in Dictu's defineNative-style registration split
// between declared and implemented members).
func (c *Compiler) isAbstractSignature() bool {
	if !c.check(token.LeftParen) {
		return false
	}
	save := c.lex.Save()
	savedCur, savedPrev := c.cur, c.prev
	c.advance() // '('
	result := c.check(token.RightParen)
	if result {
		c.advance() // ')'
		result = c.check(token.Semicolon)
	}
	c.lex.Restore(save)
	c.cur, c.prev = savedCur, savedPrev
	return result
}
