// Package query compiles type patterns such as "int(char*,*)" into signatures.
package query

import (
	"fmt"
	"unicode/utf8"

	"github.com/xonecas/cffind/internal/signature"
)

// CompileError reports a character the pattern grammar does not allow.
type CompileError struct {
	Char   rune
	Offset int // byte offset into the pattern
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("unexpected '%c' at offset %d", e.Char, e.Offset)
}

// Compile turns a pattern into a query signature. The first token is the
// return type and every later token a parameter, in order. A token is a run
// of ASCII letters, optionally followed directly by '*' pointer suffixes, or
// a lone '*' wildcard. Whitespace, commas and a single pair of parentheses
// separate tokens; anything else is a *CompileError.
func Compile(pattern string) (signature.Signature, error) {
	buf := signature.NewBuffer("query", []byte(pattern))
	src := buf.Bytes()

	var (
		sig         signature.Signature
		haveReturn  bool
		parenOpened bool
		parenClosed bool
	)
	emit := func(off, n int) {
		sp, _ := buf.Span(off, n) // bounds come from the scan below
		if !haveReturn {
			sig.Return = sp
			haveReturn = true
			return
		}
		sig.Params = append(sig.Params, sp)
	}

	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case isSpace(c), c == ',':
			i++
		case c == '(':
			if parenOpened {
				return signature.Signature{}, &CompileError{Char: '(', Offset: i}
			}
			parenOpened = true
			i++
		case c == ')':
			if parenClosed {
				return signature.Signature{}, &CompileError{Char: ')', Offset: i}
			}
			parenClosed = true
			i++
		case c == signature.Wildcard:
			emit(i, 1)
			i++
		case isAlpha(c):
			j := i
			for j < len(src) && isAlpha(src[j]) {
				j++
			}
			for j < len(src) && src[j] == '*' {
				j++
			}
			emit(i, j-i)
			i = j
		default:
			r, _ := utf8.DecodeRune(src[i:])
			return signature.Signature{}, &CompileError{Char: r, Offset: i}
		}
	}

	return sig, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(pattern string) signature.Signature {
	sig, err := Compile(pattern)
	if err != nil {
		panic("query: " + err.Error())
	}
	return sig
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
