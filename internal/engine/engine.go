// Package engine runs one compiled query over a set of candidates.
package engine

import (
	"github.com/xonecas/cffind/internal/rank"
	"github.com/xonecas/cffind/internal/score"
	"github.com/xonecas/cffind/internal/signature"
)

// Run scores every candidate against q and returns the best limit results
// (or all of them when limit is rank.All).
func Run(q signature.Signature, candidates []signature.Candidate, s score.Scorer, limit int) []signature.Scored {
	scored := make([]signature.Scored, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		scored[i] = signature.Scored{Candidate: c, Distance: s.Distance(c.Signature, q)}
	}
	return rank.Rank(scored, limit)
}
