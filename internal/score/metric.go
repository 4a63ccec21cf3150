package score

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
)

// Metric is an edit distance between two token texts. It must return 0 for
// equal inputs and the other input's length when one side is empty.
type Metric func(a, b []byte) int

// DefaultMetric is the name of the built-in Levenshtein metric.
const DefaultMetric = "levenshtein"

var metrics = map[string]Metric{
	DefaultMetric: Levenshtein,
	"damerau": func(a, b []byte) int {
		return edlib.DamerauLevenshteinDistance(string(a), string(b))
	},
	"osa": func(a, b []byte) int {
		return edlib.OSADamerauLevenshteinDistance(string(a), string(b))
	},
	"lcs": func(a, b []byte) int {
		return edlib.LCSEditDistance(string(a), string(b))
	},
}

// LookupMetric returns the metric registered under name. The empty name
// selects DefaultMetric.
func LookupMetric(name string) (Metric, error) {
	if name == "" {
		name = DefaultMetric
	}
	m, ok := metrics[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown metric %q (available: %s)", name, strings.Join(MetricNames(), ", "))
	}
	return m, nil
}

// MetricNames lists the registered metric names in sorted order.
func MetricNames() []string {
	names := make([]string, 0, len(metrics))
	for n := range metrics {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
