package rank

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/xonecas/cffind/internal/signature"
)

func scoredList(dists ...int) []signature.Scored {
	out := make([]signature.Scored, len(dists))
	for i, d := range dists {
		out[i] = signature.Scored{
			Candidate: &signature.Candidate{Line: i},
			Distance:  d,
		}
	}
	return out
}

func distances(ss []signature.Scored) []int {
	out := make([]int, len(ss))
	for i, s := range ss {
		out[i] = s.Distance
	}
	return out
}

func TestRank(t *testing.T) {
	tests := []struct {
		name  string
		in    []int
		limit int
		want  []int
	}{
		{"all", []int{5, 0, 3, 1}, All, []int{0, 1, 3, 5}},
		{"limit", []int{5, 0, 3, 1}, 2, []int{0, 1}},
		{"limit above length", []int{2, 1}, 15, []int{1, 2}},
		{"limit equals length", []int{2, 1}, 2, []int{1, 2}},
		{"zero limit", []int{2, 1}, 0, []int{}},
		{"empty", nil, 15, []int{}},
		{"empty all", nil, All, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := distances(Rank(scoredList(tt.in...), tt.limit))
			if !slices.Equal(got, tt.want) {
				t.Errorf("Rank(%v, %d) = %v, want %v", tt.in, tt.limit, got, tt.want)
			}
		})
	}
}

func TestRankKeepsInputAndTieOrder(t *testing.T) {
	in := scoredList(3, 1, 3, 1)
	out := Rank(in, All)

	if got := distances(in); !slices.Equal(got, []int{3, 1, 3, 1}) {
		t.Errorf("input was reordered: %v", got)
	}
	var lines []int
	for _, s := range out {
		lines = append(lines, s.Candidate.Line)
	}
	if !slices.Equal(lines, []int{1, 3, 0, 2}) {
		t.Errorf("ties not kept in input order: %v", lines)
	}
}

func TestRankProperties(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 200; i++ {
		n := r.IntN(40)
		dists := make([]int, n)
		for j := range dists {
			dists[j] = r.IntN(20)
		}
		k := r.IntN(30)

		out := Rank(scoredList(dists...), k)
		if len(out) != min(k, n) {
			t.Fatalf("len = %d, want min(%d, %d)", len(out), k, n)
		}
		if !slices.IsSorted(distances(out)) {
			t.Fatalf("not sorted: %v", distances(out))
		}
	}
}
