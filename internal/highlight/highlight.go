// Package highlight colours C snippets for terminal output via Chroma.
package highlight

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// DefaultTheme is used when no theme is configured.
const DefaultTheme = "vulcan"

// Highlighter renders text with one lexer and theme.
type Highlighter struct {
	lexer     chroma.Lexer
	style     *chroma.Style
	formatter chroma.Formatter
	accent    string // ANSI sequence for file locations
}

// New returns a highlighter for the Chroma language and theme. Unknown
// themes fall back to Chroma's default style; unknown languages to plain text.
func New(language, theme string) *Highlighter {
	lex := lexers.Get(language)
	if lex == nil {
		lex = lexers.Fallback
	}
	if theme == "" {
		theme = DefaultTheme
	}
	sty := styles.Get(theme)
	fmtr := formatters.Get("terminal16m")
	if fmtr == nil {
		fmtr = formatters.Fallback
	}
	return &Highlighter{
		lexer:     chroma.Coalesce(lex),
		style:     sty,
		formatter: fmtr,
		accent:    hexToFgSeq(pickAccent(sty, "")),
	}
}

// Code returns text with ANSI colours. On any Chroma error the text is
// returned unchanged.
func (h *Highlighter) Code(text string) string {
	it, err := h.lexer.Tokenise(nil, text)
	if err != nil {
		return text
	}
	var buf strings.Builder
	if err := h.formatter.Format(&buf, h.style, it); err != nil {
		return text
	}
	out := buf.String()
	if !strings.HasSuffix(text, "\n") {
		// Lexers terminate their input with a newline; the caller owns line
		// endings.
		out = dropTrailingNewline(out)
	}
	return out
}

// dropTrailingNewline removes the last newline when only SGR sequences follow it.
func dropTrailingNewline(s string) string {
	i := len(s)
	for i > 0 && s[i-1] == 'm' {
		j := strings.LastIndex(s[:i], "\x1b[")
		if j < 0 || strings.Trim(s[j+2:i-1], "0123456789;") != "" {
			break
		}
		i = j
	}
	if i > 0 && s[i-1] == '\n' {
		return s[:i-1] + s[i:]
	}
	return s
}

// Location colours a "file:line" label with the theme's accent colour.
func (h *Highlighter) Location(text string) string {
	if h.accent == "" {
		return text
	}
	return h.accent + text + "\x1b[0m"
}

// hexToFgSeq converts "#rrggbb" to an ANSI 24-bit foreground escape sequence.
func hexToFgSeq(hex string) string {
	if len(hex) != 7 || hex[0] != '#' {
		return ""
	}
	r := hexByte(hex[1], hex[2])
	g := hexByte(hex[3], hex[4])
	b := hexByte(hex[5], hex[6])
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm", r, g, b)
}

func hexByte(hi, lo byte) int {
	return hexNibble(hi)<<4 | hexNibble(lo)
}

func hexNibble(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return 0
}

// pickAccent returns the most saturated foreground colour across all tokens.
func pickAccent(sty *chroma.Style, fallback string) string {
	best := fallback
	bestSat := 0.0
	for tt := chroma.TokenType(0); tt < 2000; tt++ {
		e := sty.Get(tt)
		if !e.Colour.IsSet() {
			continue
		}
		hex := e.Colour.String()
		r, g, b := float64(hexByte(hex[1], hex[2])), float64(hexByte(hex[3], hex[4])), float64(hexByte(hex[5], hex[6]))
		mx := max(r, g, b)
		mn := min(r, g, b)
		if mx == 0 {
			continue
		}
		if sat := (mx - mn) / mx; sat > bestSat {
			bestSat = sat
			best = hex
		}
	}
	return best
}
