package compatibility

import "strings"

// GoalsAlignedThreshold is the text similarity at which two goal statements
// count as aligned.
const GoalsAlignedThreshold = 50.0

// TextSimilarity returns how similar two free-text strings are as a 0-100
// percentage, ignoring case. It counts characters matched by repeatedly taking
// the longest common substring and recursing on what lies left and right of it,
// then divides twice that count by the combined length.
func TextSimilarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == "" || b == "" {
		return 0
	}
	sim := similarChars([]byte(a), []byte(b))
	return round2(clampPercent(float64(sim*2) / float64(len(a)+len(b)) * 100))
}

// GoalsAligned reports whether two goal statements are similar enough to be
// shown as shared goals.
func GoalsAligned(a, b string) bool {
	return TextSimilarity(a, b) >= GoalsAlignedThreshold
}

func similarChars(a, b []byte) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	posA, posB, longest := longestCommonSubstring(a, b)
	if longest == 0 {
		return 0
	}

	sum := longest
	if posA > 0 && posB > 0 {
		sum += similarChars(a[:posA], b[:posB])
	}
	if posA+longest < len(a) && posB+longest < len(b) {
		sum += similarChars(a[posA+longest:], b[posB+longest:])
	}
	return sum
}

// longestCommonSubstring returns the first longest run shared by a and b.
func longestCommonSubstring(a, b []byte) (posA, posB, length int) {
	for i := range a {
		for j := range b {
			k := 0
			for i+k < len(a) && j+k < len(b) && a[i+k] == b[j+k] {
				k++
			}
			if k > length {
				posA, posB, length = i, j, k
			}
		}
	}
	return posA, posB, length
}
