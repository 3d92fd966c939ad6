package asm

import (
	"strconv"

	"github.com/chazu/tinyvm/bytecode"
)

// Tokenizer converts raw source bytes into a lazy sequence of tokens. It is
// restartable: Reset rewinds to offset 0, line 1, which the assembler uses
// between its two passes.
type Tokenizer struct {
	src  []byte
	pos  int
	line int64
}

// NewTokenizer creates a tokenizer over the given source bytes.
func NewTokenizer(src []byte) *Tokenizer {
	t := &Tokenizer{src: src}
	t.Reset()
	return t
}

// Reset rewinds the tokenizer to the start of the source.
func (t *Tokenizer) Reset() {
	t.pos = 0
	t.line = 1
}

// Next returns the next token. A token of kind None marks the end of input.
func (t *Tokenizer) Next() Token {
	tok := Token{Kind: None, Line: t.line}

	word := t.nextWord()
	if word == "" {
		return tok
	}

	switch {
	case word[0] == '"':
		tok.Kind = StringLiteral
		tok.Value = bytecode.StringValue(word[1:])
	case word[0] == '@':
		tok.Kind = Address
		tok.Value = bytecode.IntValue(parseInt(word[1:]))
	case word[0] == '!':
		tok.Kind = Label
		tok.Value = bytecode.StringValue(word[1:])
	case word[0] == '\r' || word[0] == '\n':
		tok.Kind = NewLine
		t.line++
	case word == ",":
		tok.Kind = ArgumentSeparator
	case word == "true" || word == "false":
		tok.Kind = BoolLiteral
		tok.Value = bytecode.BoolValue(word == "true")
	case isInt(word):
		tok.Kind = IntLiteral
		tok.Value = bytecode.IntValue(parseInt(word))
	case isFloat(word):
		tok.Kind = FloatLiteral
		tok.Value = bytecode.FloatValue(parseFloat(word))
	default:
		tok.Kind = Identifier
		tok.Value = bytecode.StringValue(word)
	}

	return tok
}

// nextWord scans the next raw word. Boundaries are a space (consumed), a
// comma (the word itself when nothing accumulated yet, otherwise pushed
// back), or a line ending (one word covering \r, \n or \r\n; pushed back
// when a word has accumulated). Inside a double-quoted region only the
// closing quote ends the word. A backslash copies the following byte
// literally anywhere. An empty result means end of input.
func (t *Tokenizer) nextWord() string {
	if t.pos >= len(t.src) {
		return ""
	}

	// Skip leading control characters and spaces, except line endings.
	c := t.src[t.pos]
	t.pos++
	for c <= ' ' && t.pos < len(t.src) {
		if c == '\r' || c == '\n' {
			break
		}
		c = t.src[t.pos]
		t.pos++
	}
	t.pos--

	inString := false
	var word []byte

	for t.pos < len(t.src) {
		c = t.src[t.pos]
		t.pos++

		if c == '"' {
			if inString {
				break
			}
			// The opening quote stays on the word so classification can
			// recognize it as a string literal.
			word = append(word, c)
			inString = true
			continue
		}

		// An escape copies the next byte no matter where we are.
		if c == '\\' && t.pos < len(t.src) {
			word = append(word, t.src[t.pos])
			t.pos++
			continue
		}

		if !inString {
			if c == ' ' {
				break
			}

			if c == ',' {
				// A comma is the word itself when nothing has accumulated.
				// Otherwise it is pushed back for the next call.
				if len(word) == 0 {
					word = append(word, c)
				} else {
					t.pos--
				}
				break
			}

			if c == '\r' || c == '\n' {
				// A line ending terminating a word is pushed back; a bare
				// line ending is the word, folding \r\n into one.
				if len(word) != 0 {
					t.pos--
					break
				}
				word = append(word, c)
				if c == '\r' && t.pos < len(t.src) && t.src[t.pos] == '\n' {
					word = append(word, '\n')
					t.pos++
				}
				break
			}
		}

		word = append(word, c)
	}

	return string(word)
}

// isInt reports whether the word is all digits with an optional leading '-'.
func isInt(word string) bool {
	for i := 0; i < len(word); i++ {
		if i == 0 && word[i] == '-' {
			continue
		}
		if word[i] < '0' || word[i] > '9' {
			return false
		}
	}
	return true
}

// isFloat reports whether the word is all digits with an optional leading
// '-' and at most one '.'.
func isFloat(word string) bool {
	dotFound := false
	for i := 0; i < len(word); i++ {
		if i == 0 && word[i] == '-' {
			continue
		}
		if word[i] == '.' {
			if dotFound {
				return false
			}
			dotFound = true
			continue
		}
		if word[i] < '0' || word[i] > '9' {
			return false
		}
	}
	return true
}

// parseInt parses an integer, yielding 0 for unparsable input the way C's
// atol does for degenerate words like "-" or an empty address payload.
func parseInt(word string) int64 {
	v, err := strconv.ParseInt(word, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseFloat parses a float, yielding 0 for unparsable input.
func parseFloat(word string) float64 {
	v, err := strconv.ParseFloat(word, 64)
	if err != nil {
		return 0
	}
	return v
}
