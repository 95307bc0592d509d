// Package compiler implements Dictu's single-pass compiler: a Pratt
// expression parser fused with recursive-descent statement parsing that
// emits bytecode directly, with no intermediate AST (spec.md §1/§4.4).
package compiler

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/dictu-lang/dictu-go/internal/bytecode"
	"github.com/dictu-lang/dictu-go/internal/gc"
	"github.com/dictu-lang/dictu-go/internal/lexer"
	"github.com/dictu-lang/dictu-go/internal/token"
	"github.com/dictu-lang/dictu-go/internal/value"
)

// FuncType distinguishes the kind of function body currently compiling,
// since that changes what `this`/`super`/implicit-return mean.
type FuncType int

const (
	FuncScript FuncType = iota
	FuncFunction
	FuncMethod
	FuncInitializer
	FuncStatic
)

// Local is a stack slot bound to a name, tracked only at compile time.
type Local struct {
	Name       string
	Depth      int // -1 while the initializer is still being compiled
	IsCaptured bool
}

// Upvalue records where an enclosing compiler's captured variable lives.
type Upvalue struct {
	Index   byte
	IsLocal bool
}

type loopCtx struct {
	start       int
	scopeDepth  int
	breaks      []int
	continues   []int
	enclosing   *loopCtx
}

type classCtx struct {
	enclosing      *classCtx
	hasSuperclass  bool
	name           string
}

// Compiler compiles one function body (the outermost one compiles the
// whole script). Nested functions get their own Compiler chained via
// enclosing, mirroring clox's funCompiler chain.
type Compiler struct {
	lex  *lexer.Lexer
	gc   *gc.Collector
	cur  token.Token
	prev token.Token

	hadError  bool
	panicMode bool
	errs      []error

	enclosing *Compiler
	function  *value.ObjFunction
	chunk     *bytecode.Chunk
	funcType  FuncType

	locals     []Local
	scopeDepth int
	upvalues   []Upvalue

	loop  *loopCtx
	class *classCtx

	// withFiles tracks the local slot of every `with` block currently
	// enclosing the statement being compiled, innermost last, so a
	// `return` nested inside one or more of them can close each file on
	// its way out (spec.md's file-lifecycle guarantee covers early
	// returns, not just falling off the end of the block).
	withFiles []int

	lastParsedName string
}

// Compile parses source into a top-level function ("<script>"), ready to
// be wrapped in a closure and run by the VM.
func Compile(source string, collector *gc.Collector) (*value.ObjFunction, error) {
	c := newCompiler(nil, lexer.New(source), collector, FuncScript, "")
	collector.EnterCompiler(c)
	defer collector.ExitCompiler()

	c.advance()
	for !c.match(token.EOF) {
		c.declaration()
	}
	fn := c.endCompiler()

	if c.hadError {
		return nil, errors.Join(c.errs...)
	}
	return fn, nil
}

func newCompiler(enclosing *Compiler, lex *lexer.Lexer, collector *gc.Collector, ft FuncType, name string) *Compiler {
	fn := &value.ObjFunction{}
	if name != "" {
		fn.Name = collector.Intern(name)
	}
	chunk := &bytecode.Chunk{}
	fn.Chunk = chunk

	c := &Compiler{
		lex:      lex,
		gc:       collector,
		function: fn,
		chunk:    chunk,
		funcType: ft,
		enclosing: enclosing,
	}
	if enclosing != nil {
		c.cur, c.prev = enclosing.cur, enclosing.prev
		c.class = enclosing.class
	}

	// Slot 0 is reserved for the receiver in methods/initializers, and is
	// otherwise an unnamed local holding the running closure itself.
	slotName := ""
	if ft == FuncMethod || ft == FuncInitializer {
		slotName = "this"
	}
	c.locals = append(c.locals, Local{Name: slotName, Depth: 0})
	return c
}

// GCMarkRoots satisfies gc.CompilerRoot: while this Compiler is on the
// collector's root chain, its partially built function (and transitively,
// via the bridge in package gc, its chunk's constant pool) must survive
// a collection triggered mid-compile.
func (c *Compiler) GCMarkRoots(mark func(value.Obj)) {
	mark(c.function)
}

func (c *Compiler) endCompiler() *value.ObjFunction {
	c.emitReturn()
	return c.function
}

func (c *Compiler) emitReturn() {
	if c.funcType == FuncInitializer {
		c.emitBytes(bytecode.OP_GET_LOCAL, 0)
	} else {
		c.emitByte(bytecode.OP_NIL)
	}
	c.emitByte(bytecode.OP_RETURN)
}

// ---- token stream plumbing -------------------------------------------------

func (c *Compiler) advance() {
	c.prev = c.cur
	for {
		c.cur = c.lex.NextToken()
		if c.cur.Type != token.Illegal {
			break
		}
		c.errorAtCurrent(c.cur.Literal)
	}
}

func (c *Compiler) check(t token.Type) bool { return c.cur.Type == t }

func (c *Compiler) match(t token.Type) bool {
	if !c.check(t) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(t token.Type, msg string) {
	if c.cur.Type == t {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

func (c *Compiler) errorAtCurrent(msg string) { c.errorAt(c.cur, msg) }
func (c *Compiler) error(msg string)          { c.errorAt(c.prev, msg) }

func (c *Compiler) errorAt(tok token.Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true
	c.errs = append(c.errs, fmt.Errorf("line %d: %s (near %q)", tok.Line, msg, tok.Literal))
}

// synchronize discards tokens until a likely statement boundary, so one
// syntax error doesn't cascade into a wall of spurious ones.
func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.cur.Type != token.EOF {
		if c.prev.Type == token.Semicolon || c.prev.Type == token.RightBrace {
			return
		}
		switch c.cur.Type {
		case token.Class, token.Trait, token.Def, token.Var, token.For,
			token.While, token.If, token.Return, token.Import:
			return
		}
		c.advance()
	}
}

// ---- declarations -----------------------------------------------------------

func (c *Compiler) declaration() {
	switch {
	case c.match(token.Class):
		c.classDeclaration()
	case c.match(token.Trait):
		c.traitDeclaration()
	case c.match(token.Def):
		c.funDeclaration()
	case c.match(token.Var):
		c.varDeclaration()
	case c.match(token.Import):
		c.importStatement()
	default:
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) varDeclaration() {
	for {
		global := c.parseVariable("expected variable name")
		if c.match(token.Equal) {
			c.expression()
		} else {
			c.emitByte(bytecode.OP_NIL)
		}
		c.defineVariable(global)
		if !c.match(token.Comma) {
			break
		}
	}
	c.consume(token.Semicolon, "expected ';' after variable declaration")
}

// importStatement parses `import name;` or `import name as alias;`. "as"
// is not a reserved word (spec.md's confirmed keyword set has no ELIF/AS
// token); it is recognized contextually as an identifier spelled "as"
// immediately following the module name.
func (c *Compiler) importStatement() {
	c.consume(token.Identifier, "expected module name after 'import'")
	name := c.prev.Literal
	idx := c.makeConstant(value.FromObj(c.gc.Intern(name)))

	if c.check(token.Identifier) && c.cur.Literal == "as" {
		c.advance()
		c.consume(token.Identifier, "expected alias after 'as'")
		alias := c.prev.Literal
		aliasIdx := c.makeConstant(value.FromObj(c.gc.Intern(alias)))
		c.emitBytes(bytecode.OP_IMPORT_AS, byte(idx), byte(aliasIdx))
	} else {
		c.emitBytes(bytecode.OP_IMPORT, byte(idx))
	}
	c.consume(token.Semicolon, "expected ';' after import")
}

// ---- statements --------------------------------------------------------------

func (c *Compiler) statement() {
	switch {
	case c.match(token.If):
		c.ifStatement()
	case c.match(token.While):
		c.whileStatement()
	case c.match(token.For):
		c.forStatement()
	case c.match(token.Return):
		c.returnStatement()
	case c.match(token.Break):
		c.breakStatement()
	case c.match(token.Continue):
		c.continueStatement()
	case c.match(token.With):
		c.withStatement()
	case c.check(token.LeftBrace) && !c.looksLikeDict():
		c.advance()
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.Semicolon, "expected ';' after expression")
	if c.funcType == FuncScript {
		c.emitByte(bytecode.OP_POP_REPL)
	} else {
		c.emitByte(bytecode.OP_POP)
	}
}

func (c *Compiler) block() {
	for !c.check(token.RightBrace) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RightBrace, "expected '}' after block")
}

// looksLikeDict disambiguates a leading '{' at statement position:
// spec.md §4.4/§8's scanner-backtracking requirement. It scans ahead past
// '{' (then restores the lexer): an empty brace, or a ':' at nesting
// depth 0 before any ';' or closing bracket, reads as a dict literal and
// is parsed as an expression statement instead of a block.
func (c *Compiler) looksLikeDict() bool {
	save := c.lex.Save()
	savedCur, savedPrev := c.cur, c.prev
	c.advance() // look past '{'

	result := c.check(token.RightBrace)
	if !result {
		depth := 0
	loop:
		for c.cur.Type != token.EOF {
			switch c.cur.Type {
			case token.LeftBrace, token.LeftParen, token.LeftBracket:
				depth++
			case token.RightBrace, token.RightParen, token.RightBracket:
				if depth == 0 {
					break loop
				}
				depth--
			case token.Colon:
				if depth == 0 {
					result = true
					break loop
				}
			case token.Semicolon:
				if depth == 0 {
					break loop
				}
			}
			c.advance()
		}
	}

	c.lex.Restore(save)
	c.cur, c.prev = savedCur, savedPrev
	return result
}

func (c *Compiler) ifStatement() {
	c.consume(token.LeftParen, "expected '(' after 'if'")
	c.expression()
	c.consume(token.RightParen, "expected ')' after condition")

	thenJump := c.emitJump(bytecode.OP_JUMP_IF_FALSE)
	c.emitByte(bytecode.OP_POP)
	c.statement()

	elseJump := c.emitJump(bytecode.OP_JUMP)
	c.patchJump(thenJump)
	c.emitByte(bytecode.OP_POP)

	if c.match(token.Else) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loop := &loopCtx{start: len(c.chunk.Code), scopeDepth: c.scopeDepth, enclosing: c.loop}
	c.loop = loop

	c.consume(token.LeftParen, "expected '(' after 'while'")
	c.expression()
	c.consume(token.RightParen, "expected ')' after condition")

	exitJump := c.emitJump(bytecode.OP_JUMP_IF_FALSE)
	c.emitByte(bytecode.OP_POP)
	c.statement()
	c.patchLoopContinues(loop, len(c.chunk.Code))
	c.emitLoop(loop.start)
	c.patchJump(exitJump)
	c.emitByte(bytecode.OP_POP)

	c.patchLoopBreaks(loop)
	c.loop = loop.enclosing
}

// forStatement implements the C-style for(init; cond; post) body form.
func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(token.LeftParen, "expected '(' after 'for'")

	if c.match(token.Semicolon) {
		// no initializer
	} else if c.match(token.Var) {
		c.varDeclaration()
	} else {
		c.expressionStatement()
	}

	loop := &loopCtx{scopeDepth: c.scopeDepth, enclosing: c.loop}
	c.loop = loop
	loop.start = len(c.chunk.Code)

	exitJump := -1
	if !c.match(token.Semicolon) {
		c.expression()
		c.consume(token.Semicolon, "expected ';' after loop condition")
		exitJump = c.emitJump(bytecode.OP_JUMP_IF_FALSE)
		c.emitByte(bytecode.OP_POP)
	}

	if !c.check(token.RightParen) {
		bodyJump := c.emitJump(bytecode.OP_JUMP)
		incrStart := len(c.chunk.Code)
		c.expression()
		c.emitByte(bytecode.OP_POP)
		c.consume(token.RightParen, "expected ')' after for clauses")

		c.emitLoop(loop.start)
		loop.start = incrStart
		c.patchJump(bodyJump)
	} else {
		c.advance()
	}

	c.statement()
	c.patchLoopContinues(loop, loop.start)
	c.emitLoop(loop.start)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitByte(bytecode.OP_POP)
	}
	c.patchLoopBreaks(loop)
	c.loop = loop.enclosing
	c.endScope()
}

func (c *Compiler) breakStatement() {
	c.consume(token.Semicolon, "expected ';' after 'break'")
	if c.loop == nil {
		c.error("'break' outside a loop")
		return
	}
	c.closeLoopLocals(c.loop)
	c.loop.breaks = append(c.loop.breaks, c.emitJump(bytecode.OP_JUMP))
}

func (c *Compiler) continueStatement() {
	c.consume(token.Semicolon, "expected ';' after 'continue'")
	if c.loop == nil {
		c.error("'continue' outside a loop")
		return
	}
	c.closeLoopLocals(c.loop)
	c.loop.continues = append(c.loop.continues, c.emitJump(bytecode.OP_JUMP))
}

// closeLoopLocals pops every local declared inside the loop body, closing
// the upvalue-captured ones, before a break/continue jumps past their scope.
func (c *Compiler) closeLoopLocals(loop *loopCtx) {
	for i := len(c.locals) - 1; i >= 0 && c.locals[i].Depth > loop.scopeDepth; i-- {
		if c.locals[i].IsCaptured {
			c.emitByte(bytecode.OP_CLOSE_UPVALUE)
		} else {
			c.emitByte(bytecode.OP_POP)
		}
	}
}

func (c *Compiler) patchLoopBreaks(loop *loopCtx) {
	for _, pos := range loop.breaks {
		c.patchJump(pos)
	}
}

func (c *Compiler) patchLoopContinues(loop *loopCtx, target int) {
	for _, pos := range loop.continues {
		c.patchJumpTo(pos, target)
	}
}

func (c *Compiler) returnStatement() {
	if c.funcType == FuncScript {
		c.error("'return' outside a function")
	}
	if c.match(token.Semicolon) {
		c.closeEnclosingWithFiles()
		c.emitReturn()
		return
	}
	if c.funcType == FuncInitializer {
		c.error("cannot return a value from an 'init' method")
	}
	c.expression()
	c.consume(token.Semicolon, "expected ';' after return value")
	c.closeEnclosingWithFiles()
	c.emitByte(bytecode.OP_RETURN)
}

func (c *Compiler) closeEnclosingWithFiles() {
	for i := len(c.withFiles) - 1; i >= 0; i-- {
		c.emitBytes(bytecode.OP_CLOSE_FILE, byte(c.withFiles[i]))
	}
}

// withStatement implements `with (path, mode) { ... }`: the bound local
// `file` is opened before the block and closed on every exit path,
// including an early return out of the block (spec.md's file-lifecycle
// guarantee).
func (c *Compiler) withStatement() {
	c.consume(token.LeftParen, "expected '(' after 'with'")
	c.expression()
	c.consume(token.Comma, "expected ',' after with path")
	c.expression()
	c.consume(token.RightParen, "expected ')' after with arguments")

	c.beginScope()
	slot := c.addLocal("file")
	c.markInitialized(slot)
	c.emitByte(bytecode.OP_OPEN_FILE)

	c.withFiles = append(c.withFiles, slot)
	c.consume(token.LeftBrace, "expected '{' after 'with' header")
	c.block()
	c.withFiles = c.withFiles[:len(c.withFiles)-1]

	c.emitBytes(bytecode.OP_CLOSE_FILE, byte(slot))
	c.endScope()
}

// ---- class / trait entry points (see classes.go) ----------------------------

// ---- function entry points (see functions.go) -------------------------------

// ---- expression entry point (see expr.go) ------------------------------------

func (c *Compiler) expression() {
	c.parsePrecedence(PrecAssignment)
}

// number/string/literal live here since they need no helper state beyond
// the emit routines in emit.go.

func (c *Compiler) number(canAssign bool) {
	n, err := strconv.ParseFloat(c.prev.Literal, 64)
	if err != nil {
		c.error("invalid number literal")
		return
	}
	c.emitConstant(value.Number(n))
}

func (c *Compiler) string(canAssign bool) {
	s := c.gc.Intern(c.prev.Literal)
	c.emitConstant(value.FromObj(s))
}

func (c *Compiler) literal(canAssign bool) {
	switch c.prev.Type {
	case token.False:
		c.emitByte(bytecode.OP_FALSE)
	case token.True:
		c.emitByte(bytecode.OP_TRUE)
	case token.Nil:
		c.emitByte(bytecode.OP_NIL)
	}
}
