package compiler

import "github.com/dictu-lang/dictu-go/internal/token"

// Precedence orders binding strength from loosest to tightest, matching
// spec.md §4.4's table: ASSIGNMENT OR AND EQUALITY COMPARISON BITWISE_OR
// BITWISE_XOR BITWISE_AND TERM FACTOR INDICES UNARY CALL PRIMARY.
type Precedence int

const (
	PrecNone       Precedence = iota
	PrecAssignment            // =
	PrecOr                    // or
	PrecAnd                   // and
	PrecEquality              // == !=
	PrecComparison            // < > <= >=
	PrecBitwiseOr             // |
	PrecBitwiseXor            // ^
	PrecBitwiseAnd            // &
	PrecTerm                  // + -
	PrecFactor                // * / %
	PrecIndices               // **
	PrecUnary                 // ! - ~ ++ --
	PrecCall                  // . () []
	PrecPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

var rules map[token.Type]parseRule

func init() {
	rules = map[token.Type]parseRule{
		token.LeftParen:    {prefix: (*Compiler).grouping, infix: (*Compiler).call, precedence: PrecCall},
		token.LeftBracket:  {prefix: (*Compiler).listLiteral, infix: (*Compiler).subscript, precedence: PrecCall},
		token.LeftBrace:    {prefix: (*Compiler).dictLiteral},
		token.Dot:          {infix: (*Compiler).dot, precedence: PrecCall},
		token.Minus:        {prefix: (*Compiler).unary, infix: (*Compiler).binary, precedence: PrecTerm},
		token.Plus:         {infix: (*Compiler).binary, precedence: PrecTerm},
		token.Slash:        {infix: (*Compiler).binary, precedence: PrecFactor},
		token.Star:         {infix: (*Compiler).binary, precedence: PrecFactor},
		token.Percent:      {infix: (*Compiler).binary, precedence: PrecFactor},
		token.StarStar:     {infix: (*Compiler).binary, precedence: PrecIndices},
		token.Ampersand:    {infix: (*Compiler).binary, precedence: PrecBitwiseAnd},
		token.Pipe:         {infix: (*Compiler).binary, precedence: PrecBitwiseOr},
		token.Caret:        {infix: (*Compiler).binary, precedence: PrecBitwiseXor},
		token.Tilde:        {prefix: (*Compiler).unary},
		token.Bang:         {prefix: (*Compiler).unary},
		token.BangEqual:    {infix: (*Compiler).binary, precedence: PrecEquality},
		token.EqualEqual:   {infix: (*Compiler).binary, precedence: PrecEquality},
		token.Greater:      {infix: (*Compiler).binary, precedence: PrecComparison},
		token.GreaterEqual: {infix: (*Compiler).binary, precedence: PrecComparison},
		token.Less:         {infix: (*Compiler).binary, precedence: PrecComparison},
		token.LessEqual:    {infix: (*Compiler).binary, precedence: PrecComparison},
		token.PlusPlus:     {prefix: (*Compiler).prefixIncDec},
		token.MinusMinus:   {prefix: (*Compiler).prefixIncDec},
		token.Identifier:   {prefix: (*Compiler).variable},
		token.String:       {prefix: (*Compiler).string},
		token.Number:       {prefix: (*Compiler).number},
		token.And:          {infix: (*Compiler).and, precedence: PrecAnd},
		token.Or:           {infix: (*Compiler).or, precedence: PrecOr},
		token.True:         {prefix: (*Compiler).literal},
		token.False:        {prefix: (*Compiler).literal},
		token.Nil:          {prefix: (*Compiler).literal},
		token.This:         {prefix: (*Compiler).this},
		token.Super:        {prefix: (*Compiler).super},
		token.Def:          {prefix: (*Compiler).lambda},
	}
}

func (c *Compiler) getRule(t token.Type) parseRule {
	return rules[t]
}
