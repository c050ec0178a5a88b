package alerr

import "fmt"

// editDistance computes the Levenshtein distance between two strings
// using a single rolling row.
func editDistance(a, b string) int {
	if a == b {
		return 0
	}
	if a == "" {
		return len(b)
	}
	if b == "" {
		return len(a)
	}

	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}

	for i := 1; i <= len(a); i++ {
		diag := row[0]
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			next := min(row[j]+1, row[j-1]+1, diag+cost)
			diag = row[j]
			row[j] = next
		}
	}

	return row[len(b)]
}

// ClosestMatch returns the option nearest to input within an edit distance of 3.
func ClosestMatch(input string, options []string) (string, bool) {
	const maxDistance = 3

	best, bestDist := "", maxDistance+1
	for _, opt := range options {
		if d := editDistance(input, opt); d < bestDist {
			best, bestDist = opt, d
		}
	}
	return best, bestDist <= maxDistance
}

// SuggestSimilar returns a "did you mean 'X'?" hint, or "" when nothing is close.
func SuggestSimilar(input string, options []string) string {
	if match, ok := ClosestMatch(input, options); ok {
		return fmt.Sprintf("did you mean '%s'?", match)
	}
	return ""
}
