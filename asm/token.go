// Package asm contains the tokenizer and the two-pass assembler that turn
// assembly source text into a bytecode program.
package asm

import (
	"fmt"

	"github.com/chazu/tinyvm/bytecode"
)

// TokenKind identifies the lexical class of a token.
type TokenKind int

const (
	// None marks the end of input.
	None TokenKind = iota

	Identifier        // ADD, PRINT (operation mnemonics and symbolic arguments)
	Label             // !loop
	Address           // @12
	IntLiteral        // 42, -7
	BoolLiteral       // true, false
	FloatLiteral      // 3.14, -0.5
	StringLiteral     // "hello world"
	ArgumentSeparator // ,
	NewLine           // \r, \n or \r\n
)

// String returns a human-readable name for TokenKind.
func (k TokenKind) String() string {
	switch k {
	case None:
		return "end of input"
	case Identifier:
		return "identifier"
	case Label:
		return "label"
	case Address:
		return "address"
	case IntLiteral:
		return "int literal"
	case BoolLiteral:
		return "bool literal"
	case FloatLiteral:
		return "float literal"
	case StringLiteral:
		return "string literal"
	case ArgumentSeparator:
		return "argument separator"
	case NewLine:
		return "new line"
	default:
		return fmt.Sprintf("TokenKind(%d)", int(k))
	}
}

// Token is one lexical unit: its kind, the 1-based source line it started
// on, and an optional typed payload. Tokens are consumed immediately by the
// assembler; none outlives one parse step.
type Token struct {
	Kind  TokenKind
	Line  int64
	Value bytecode.Value
}

// String renders the token the way it appeared in source, for diagnostics.
func (t Token) String() string {
	switch t.Kind {
	case Identifier:
		return t.Value.AsString()
	case Label:
		return "!" + t.Value.AsString()
	case Address:
		return fmt.Sprintf("@%d", t.Value.AsInt())
	case StringLiteral:
		return "\"" + t.Value.AsString() + "\""
	case IntLiteral, FloatLiteral, BoolLiteral:
		return t.Value.String()
	case ArgumentSeparator:
		return ","
	case NewLine:
		return "new line"
	default:
		return t.Kind.String()
	}
}
