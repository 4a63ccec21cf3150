// Package rank orders scored candidates best first.
package rank

import (
	"cmp"
	"slices"

	"github.com/xonecas/cffind/internal/signature"
)

// All disables truncation.
const All = -1

// DefaultLimit is how many results are kept when the caller does not ask for
// all of them.
const DefaultLimit = 15

// Rank returns a new slice of scored candidates sorted by ascending distance,
// truncated to limit entries unless limit is All. Equal distances keep their
// input order.
func Rank(scored []signature.Scored, limit int) []signature.Scored {
	out := slices.Clone(scored)
	slices.SortStableFunc(out, func(a, b signature.Scored) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
	if limit != All && limit >= 0 && limit < len(out) {
		out = out[:limit]
	}
	if out == nil {
		out = []signature.Scored{}
	}
	return out
}
