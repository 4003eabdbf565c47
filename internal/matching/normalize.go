// Package matching implements the capability index and eligibility scorer:
// normalization of supplier capability vocabulary and the weighted fit score
// that gates RFQ visibility and bid submission.
package matching

import "strings"

// NormalizeTerm lowercases and trims a declared process, material or
// certification string so vocabulary from different suppliers compares.
func NormalizeTerm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeSet normalizes every term and deduplicates, dropping empties.
// Order of first appearance is preserved.
func NormalizeSet(terms []string) []string {
	out := make([]string, 0, len(terms))
	seen := make(map[string]bool, len(terms))
	for _, t := range terms {
		n := NormalizeTerm(t)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// FuzzyContains reports whether two normalized terms refer to the same thing:
// equal, or one a substring of the other. Guards against minor vocabulary
// drift such as "cnc" vs "cnc machining".
func FuzzyContains(a, b string) bool {
	a = NormalizeTerm(a)
	b = NormalizeTerm(b)
	if a == "" || b == "" {
		return false
	}
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}

// MatchFraction returns the fraction of required terms satisfied by at least
// one offered term under fuzzy containment. An empty requirement set is fully
// satisfied.
func MatchFraction(required, offered []string) float64 {
	req := NormalizeSet(required)
	if len(req) == 0 {
		return 1
	}
	off := NormalizeSet(offered)
	matched := 0
	for _, r := range req {
		for _, o := range off {
			if FuzzyContains(r, o) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(req))
}
