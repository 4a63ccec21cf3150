// Package report prints ranked matches.
package report

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/xonecas/cffind/internal/highlight"
	"github.com/xonecas/cffind/internal/signature"
)

// Options controls how results are printed.
type Options struct {
	Color        bool
	Theme        string // chroma style; "" uses highlight.DefaultTheme
	ShowDistance bool
}

// Printer writes one "Found:" line per result.
type Printer struct {
	w            io.Writer
	showDistance bool
	hl           map[string]*highlight.Highlighter // by language; nil without colour
	theme        string
}

// New returns a printer writing to w.
func New(w io.Writer, opts Options) *Printer {
	p := &Printer{w: w, showDistance: opts.ShowDistance, theme: opts.Theme}
	if opts.Color {
		p.hl = make(map[string]*highlight.Highlighter)
	}
	return p
}

// Print writes results in order, best first. The definition text is printed
// verbatim, including any newlines it spans.
func (p *Printer) Print(results []signature.Scored) error {
	bw := bufio.NewWriter(p.w)
	for _, r := range results {
		c := r.Candidate
		loc := c.File + ":" + strconv.Itoa(c.Line)
		def := c.Definition.String()
		if hl := p.highlighter(c.File); hl != nil {
			loc = hl.Location(loc)
			def = hl.Code(def)
		}
		fmt.Fprintf(bw, "Found: %s: '%s'", loc, def)
		if p.showDistance {
			fmt.Fprintf(bw, " (distance %d)", r.Distance)
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func (p *Printer) highlighter(path string) *highlight.Highlighter {
	if p.hl == nil {
		return nil
	}
	lang := highlight.DetectLanguage(path)
	h, ok := p.hl[lang]
	if !ok {
		h = highlight.New(lang, p.theme)
		p.hl[lang] = h
	}
	return h
}
