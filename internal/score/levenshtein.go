package score

// Levenshtein returns the minimum number of single-byte insertions, deletions
// and substitutions that turn a into b.
//
// It fills the usual table D[0..m][0..n] with D[i][0]=i and D[0][j]=j, keeping
// only two rows alive.
func Levenshtein(a, b []byte) int {
	m, n := len(a), len(b)
	if m == 0 {
		return n
	}
	if n == 0 {
		return m
	}

	prev := make([]int, n+1)
	curr := make([]int, n+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[n]
}
