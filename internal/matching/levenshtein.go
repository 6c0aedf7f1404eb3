package matching

import "github.com/agnivade/levenshtein"

// Distance returns the Levenshtein edit distance between a and b counted in
// runes.
func Distance(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}

// Similarity scores a against b in [0,1] after normalization.
func Similarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	longest := max(len([]rune(na)), len([]rune(nb)))
	if longest == 0 {
		return 1
	}
	return 1 - float64(Distance(na, nb))/float64(longest)
}
