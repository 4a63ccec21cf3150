package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/exp/golden"

	"github.com/xonecas/cffind/internal/signature"
)

func results() []signature.Scored {
	cand := func(file string, line int, def string) *signature.Candidate {
		buf := signature.NewBuffer(file, []byte(def))
		span, _ := buf.Span(0, buf.Len())
		return &signature.Candidate{File: file, Line: line, Definition: span}
	}
	return []signature.Scored{
		{Candidate: cand("src/io.c", 12, "int open(const char *path, int flags);"), Distance: 0},
		{Candidate: cand("src/io.c", 40, "static int add(int a, int b)"), Distance: 5},
		{Candidate: cand("include/str.h", 3, "char *\nstrdup(const char *s);"), Distance: 9},
	}
}

func TestPrint(t *testing.T) {
	var out bytes.Buffer
	if err := New(&out, Options{}).Print(results()); err != nil {
		t.Fatal(err)
	}
	golden.RequireEqual(t, out.Bytes())
}

func TestPrintDistance(t *testing.T) {
	var out bytes.Buffer
	if err := New(&out, Options{ShowDistance: true}).Print(results()); err != nil {
		t.Fatal(err)
	}
	golden.RequireEqual(t, out.Bytes())
}

func TestPrintColor(t *testing.T) {
	var plain, colored bytes.Buffer
	if err := New(&plain, Options{}).Print(results()); err != nil {
		t.Fatal(err)
	}
	if err := New(&colored, Options{Color: true, Theme: "monokai"}).Print(results()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(colored.String(), "\x1b[") {
		t.Fatal("expected ANSI sequences in coloured output")
	}
	if got := ansi.Strip(colored.String()); got != plain.String() {
		t.Errorf("stripped coloured output differs:\n%q\n%q", got, plain.String())
	}
}

func TestPrintEmpty(t *testing.T) {
	var out bytes.Buffer
	if err := New(&out, Options{ShowDistance: true}).Print(nil); err != nil {
		t.Fatal(err)
	}
	if out.Len() != 0 {
		t.Errorf("expected no output, got %q", out.String())
	}
}
