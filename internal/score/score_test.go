package score

import (
	"math/rand/v2"
	"testing"

	"github.com/hbollon/go-edlib"

	"github.com/xonecas/cffind/internal/query"
	"github.com/xonecas/cffind/internal/signature"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"int", "int", 0},
		{"int", "char", 4},
		{"int", "char*", 5},
		{"char", "char*", 1},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"long", "ulong", 1},
		{"size", "ssize", 1},
	}
	for _, tt := range tests {
		if got := Levenshtein([]byte(tt.a), []byte(tt.b)); got != tt.want {
			t.Errorf("Levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
		if got := Levenshtein([]byte(tt.b), []byte(tt.a)); got != tt.want {
			t.Errorf("Levenshtein(%q, %q) = %d, want %d (swapped)", tt.b, tt.a, got, tt.want)
		}
	}
}

func TestLevenshteinMatchesEdlib(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 500; i++ {
		a, b := randomToken(r), randomToken(r)
		want := edlib.LevenshteinDistance(a, b)
		if got := Levenshtein([]byte(a), []byte(b)); got != want {
			t.Fatalf("Levenshtein(%q, %q) = %d, edlib says %d", a, b, got, want)
		}
	}
}

func TestLevenshteinBounds(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 500; i++ {
		a, b := randomToken(r), randomToken(r)
		if a == "" || b == "" {
			continue
		}
		d := Levenshtein([]byte(a), []byte(b))
		lo := abs(len(a) - len(b))
		hi := max(len(a), len(b))
		if d < lo || d > hi {
			t.Fatalf("Levenshtein(%q, %q) = %d, outside [%d, %d]", a, b, d, lo, hi)
		}
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name      string
		candidate signature.Signature
		pattern   string
		want      int
	}{
		{"exact with wildcard", signature.New("int", "char*", "int"), "int(char*,*)", 0},
		{"missing wildcard param", signature.New("int", "int"), "int(char*,*)", 5},
		{"wildcard return", signature.New("unsigned", "char*"), "*(char*)", 0},
		{"return mismatch", signature.New("char", "int"), "int(int)", 4},
		{"candidate tail", signature.New("int", "char*", "size", "FILE*"), "int(char*)", 4 + 5},
		{"query tail concrete", signature.New("int"), "int(char, long)", 4 + 4},
		{"query tail wildcards", signature.New("int"), "int(*,*,*)", 0},
		{"empty query", signature.New("int", "char*"), "", 3 + 5},
		{"empty both", signature.New(""), "", 0},
		{"all wildcards", signature.New("void", "int"), "*(*)", 0},
		{"no params either side", signature.New("void"), "void()", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.candidate, query.MustCompile(tt.pattern))
			if got != tt.want {
				t.Errorf("Score(%s, %q) = %d, want %d", tt.candidate, tt.pattern, got, tt.want)
			}
		})
	}
}

func TestScoreIdentity(t *testing.T) {
	for _, c := range []signature.Signature{
		signature.New("int", "char*", "int"),
		signature.New("void"),
		signature.New("FILE*", "char*", "char*"),
	} {
		q := query.MustCompile(c.String())
		if got := Score(c, q); got != 0 {
			t.Errorf("Score(%s, itself) = %d, want 0", c, got)
		}
	}
}

func TestScoreWildcardAbsorbsReturn(t *testing.T) {
	q := query.MustCompile("*(int)")
	for _, ret := range []string{"", "int", "unsigned long long", "struct node*"} {
		if got := Score(signature.New(ret, "int"), q); got != 0 {
			t.Errorf("return %q: got %d, want 0", ret, got)
		}
	}
}

func TestScoreTailPenaltyIsMonotonic(t *testing.T) {
	q := query.MustCompile("int(char*)")
	params := []string{"char*"}
	base := Score(signature.New("int", params...), q)
	for _, extra := range []string{"int", "size", "const", "FILE*", "x"} {
		params = append(params, extra)
		got := Score(signature.New("int", params...), q)
		if got != base+len(extra) {
			t.Errorf("appending %q: got %d, want %d", extra, got, base+len(extra))
		}
		base = got
	}
}

func TestScorerMetrics(t *testing.T) {
	for _, name := range MetricNames() {
		m, err := LookupMetric(name)
		if err != nil {
			t.Fatalf("LookupMetric(%q): %v", name, err)
		}
		if d := m([]byte("char"), []byte("char")); d != 0 {
			t.Errorf("%s: equal tokens distance %d", name, d)
		}
		if d := m(nil, []byte("long")); d != 4 {
			t.Errorf("%s: empty vs long = %d, want 4", name, d)
		}
	}

	damerau, _ := LookupMetric("damerau")
	lev, _ := LookupMetric("")
	c := signature.New("nit")
	q := query.MustCompile("int")
	if got := (Scorer{Metric: damerau}).Distance(c, q); got != 1 {
		t.Errorf("damerau transposition = %d, want 1", got)
	}
	if got := (Scorer{Metric: lev}).Distance(c, q); got != 2 {
		t.Errorf("levenshtein transposition = %d, want 2", got)
	}

	if _, err := LookupMetric("soundex"); err == nil {
		t.Error("expected error for unknown metric")
	}
	if _, err := LookupMetric("OSA"); err != nil {
		t.Errorf("names should be case-insensitive: %v", err)
	}
}

const alphabet = "abcint*"

func randomToken(r *rand.Rand) string {
	n := r.IntN(9)
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[r.IntN(len(alphabet))]
	}
	return string(b)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
