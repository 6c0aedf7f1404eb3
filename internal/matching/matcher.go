package matching

import "sort"

const (
	// DefaultInclusionThreshold is the similarity a candidate must exceed to
	// be returned.
	DefaultInclusionThreshold = 0.6
	// DefaultSuggestThreshold is the similarity above which a candidate is
	// accepted without review.
	DefaultSuggestThreshold = 0.8
)

// Candidate is a menu that a receipt line may refer to.
type Candidate struct {
	ID   int64
	Name string
}

// MatchCandidate is a scored candidate for one detected name.
type MatchCandidate struct {
	DetectedName   string  `json:"detected_name"`
	MenuID         int64   `json:"menu_id"`
	MenuName       string  `json:"menu_name"`
	Similarity     float64 `json:"similarity"`
	SuggestedMatch bool    `json:"suggested_match"`
}

// Matcher scores detected names against candidates.
type Matcher struct {
	Include float64
	Suggest float64
}

// DefaultMatcher uses the 0.6 inclusion and 0.8 suggestion thresholds.
var DefaultMatcher = Matcher{Include: DefaultInclusionThreshold, Suggest: DefaultSuggestThreshold}

// Match returns candidates scoring above the inclusion threshold, best first.
// Ties keep the candidate order.
func (m Matcher) Match(detected string, candidates []Candidate) []MatchCandidate {
	out := []MatchCandidate{}
	for _, c := range candidates {
		score := Similarity(detected, c.Name)
		if score <= m.Include {
			continue
		}
		out = append(out, MatchCandidate{
			DetectedName:   detected,
			MenuID:         c.ID,
			MenuName:       c.Name,
			Similarity:     score,
			SuggestedMatch: score > m.Suggest,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	return out
}

// Best returns the top of matches, as ordered by Match, when it is a
// suggested match.
func Best(matches []MatchCandidate) (MatchCandidate, bool) {
	if len(matches) == 0 || !matches[0].SuggestedMatch {
		return MatchCandidate{}, false
	}
	return matches[0], true
}
