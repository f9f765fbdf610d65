// Package suggest ranks candidate flag/subcommand names against an
// unrecognized token for "did you mean" error text, grounded on the
// teacher's closest-match algorithm (reeflective-flags' closest.go):
// Levenshtein edit distance, with a substring-match short-circuit for
// truncated/abbreviated input.
package suggest

// Closest returns the best-matching name from candidates for input, or ""
// if none is within a reasonable edit distance. Candidates containing
// input as a substring are preferred outright (an abbreviation is a
// stronger signal than a small edit distance over the whole token).
func Closest(input string, candidates []string) string {
	best := ""
	bestDist := -1

	for _, c := range candidates {
		if c == "" {
			continue
		}

		if contains(c, input) || contains(input, c) {
			return c
		}

		d := levenshtein(input, c)
		if bestDist == -1 || d < bestDist {
			bestDist = d
			best = c
		}
	}

	if bestDist >= 0 && bestDist <= maxDistance(input) {
		return best
	}

	return ""
}

func maxDistance(input string) int {
	switch {
	case len(input) <= 3:
		return 1
	case len(input) <= 6:
		return 2
	default:
		return 3
	}
}

func contains(haystack, needle string) bool {
	if needle == "" || len(needle) > len(haystack) {
		return false
	}

	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}

	return false
}

// levenshtein computes the classic edit distance between a and b using a
// single rolling row, iteratively (no recursion).
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}

	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		cur := make([]int, len(rb)+1)
		cur[0] = i

		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}

			del := prev[j] + 1
			ins := cur[j-1] + 1
			sub := prev[j-1] + cost

			cur[j] = min3(del, ins, sub)
		}

		prev = cur
	}

	return prev[len(rb)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}

	if c < m {
		m = c
	}

	return m
}
