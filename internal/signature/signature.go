// Package signature holds the data model shared by the query compiler, the
// extractor and the scorer: spans into source buffers, function signatures,
// candidates found in a corpus and their scores.
package signature

import (
	"strings"
)

// Wildcard matches any type at zero cost when it occupies a query slot.
const Wildcard = '*'

// Signature is a return type plus ordered parameter types.
type Signature struct {
	Return Span
	Params []Span
}

// String renders the signature as a query pattern, e.g. "int(char*,*)".
func (s Signature) String() string {
	var b strings.Builder
	b.Write(s.Return.Bytes())
	b.WriteByte('(')
	for i, p := range s.Params {
		if i > 0 {
			b.WriteByte(',')
		}
		b.Write(p.Bytes())
	}
	b.WriteByte(')')
	return b.String()
}

// Equal reports whether two signatures have the same token text in every slot.
func (s Signature) Equal(o Signature) bool {
	if s.Return.String() != o.Return.String() || len(s.Params) != len(o.Params) {
		return false
	}
	for i := range s.Params {
		if s.Params[i].String() != o.Params[i].String() {
			return false
		}
	}
	return true
}

// New builds a signature from literal strings.
func New(ret string, params ...string) Signature {
	buf := NewBuffer("", nil)
	sig := Signature{Return: buf.Append(ret)}
	for _, p := range params {
		sig.Params = append(sig.Params, buf.Append(p))
	}
	return sig
}

// Candidate is a signature found in a scanned file.
type Candidate struct {
	Signature
	File       string
	Line       int // 0-based row of the first line of the definition
	Definition Span
}

// Scored pairs a candidate with its distance to the query.
type Scored struct {
	Candidate *Candidate
	Distance  int
}
