package usecase

import (
	"regexp"
	"strings"
)

var tokenSeparatorRegex = regexp.MustCompile(`[^\p{L}\p{N}.]+`)

// nameMismatchThreshold is the coverage below which a candidate is logged as
// possibly describing a different product than the one requested
const nameMismatchThreshold = 0.5

// nameCoverage returns the fraction of tokens in requested that also appear in
// candidate, exactly or within one edit for longer alphabetic tokens.
func nameCoverage(requested, candidate string) float64 {
	want := nameTokens(requested)
	have := nameTokens(candidate)
	if len(want) == 0 || len(have) == 0 {
		return 0
	}

	matched := 0
	for _, w := range want {
		for _, h := range have {
			if w == h || fuzzyTokenMatch(w, h, 1) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(want))
}

// nameTokens lowercases s and splits it into unique tokens
func nameTokens(s string) []string {
	fields := tokenSeparatorRegex.Split(strings.ToLower(s), -1)

	seen := make(map[string]bool, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".")
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		tokens = append(tokens, f)
	}
	return tokens
}

// fuzzyTokenMatch reports whether two tokens are within threshold edits.
// Short tokens and tokens with digits only match exactly: "RS2205" and "RS2206"
// are different motors.
func fuzzyTokenMatch(a, b string, threshold int) bool {
	if a == b {
		return true
	}
	if len(a) < 5 || len(b) < 5 || hasDigit(a) || hasDigit(b) {
		return false
	}

	diff := len(a) - len(b)
	if diff < 0 {
		diff = -diff
	}
	if diff > threshold {
		return false
	}
	return levenshteinDistance(a, b) <= threshold
}

func hasDigit(s string) bool {
	return strings.ContainsAny(s, "0123456789")
}

// levenshteinDistance computes edit distance with two rolling rows
func levenshteinDistance(s1, s2 string) int {
	r1, r2 := []rune(s1), []rune(s2)
	if len(r1) == 0 {
		return len(r2)
	}
	if len(r2) == 0 {
		return len(r1)
	}

	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(r2)]
}
