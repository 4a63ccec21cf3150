// Package score measures how far a candidate signature is from a query.
package score

import (
	"github.com/xonecas/cffind/internal/signature"
)

// Scorer computes distances with a fixed metric. The zero value uses
// Levenshtein.
type Scorer struct {
	Metric Metric
}

// Score is the distance between candidate and query using Levenshtein.
func Score(candidate, query signature.Signature) int {
	return Scorer{}.Distance(candidate, query)
}

// Distance sums one term per slot:
//   - return type: 0 for a wildcard, else the metric;
//   - paired parameters: 0 for a wildcard, else the metric;
//   - parameters only the candidate has: their length;
//   - parameters only the query has: 0 for a wildcard, else their length.
func (s Scorer) Distance(candidate, query signature.Signature) int {
	metric := s.Metric
	if metric == nil {
		metric = Levenshtein
	}

	dist := 0
	if !query.Return.IsWildcard() {
		dist += metric(candidate.Return.Bytes(), query.Return.Bytes())
	}

	cp, qp := candidate.Params, query.Params
	paired := min(len(cp), len(qp))
	for i := 0; i < paired; i++ {
		if qp[i].IsWildcard() {
			continue
		}
		dist += metric(cp[i].Bytes(), qp[i].Bytes())
	}
	for _, p := range cp[paired:] {
		dist += p.Len()
	}
	for _, p := range qp[paired:] {
		if p.IsWildcard() {
			continue
		}
		dist += p.Len()
	}
	return dist
}
