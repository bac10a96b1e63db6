// internal/compatibility/profile.go
// Attribute types the scorers operate on

package compatibility

import (
	"encoding/json"
	"math"
	"sort"
)

const (
	minRating = 1
	maxRating = 5

	// ratingScale is the divisor used when turning a rating difference into a similarity.
	ratingScale = 5.0
)

// Profile is the read-only view of a user that every scorer works from.
// A nil Profile, an empty set, an empty map or an empty string all mean "no data"
// for that category.
type Profile struct {
	Skills       StringSet `json:"skills"`
	Interests    StringSet `json:"interests"`
	ProjectTypes StringSet `json:"project_types"`
	WorkStyle    Ratings   `json:"work_style"`
	QuizResults  Ratings   `json:"quiz_results"`
	LookingFor   string    `json:"looking_for"`
}

// orEmpty lets callers pass nil profiles around without special casing.
func (p *Profile) orEmpty() *Profile {
	if p == nil {
		return &Profile{}
	}
	return p
}

// StringSet is an unordered, de-duplicated set of labels.
type StringSet map[string]struct{}

// NewStringSet builds a set from items, skipping blanks and duplicates.
func NewStringSet(items ...string) StringSet {
	set := make(StringSet, len(items))
	for _, item := range items {
		if item == "" {
			continue
		}
		set[item] = struct{}{}
	}
	return set
}

func (s StringSet) Len() int { return len(s) }

func (s StringSet) Has(item string) bool {
	_, ok := s[item]
	return ok
}

// Intersect returns the items present in both sets.
func (s StringSet) Intersect(other StringSet) StringSet {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	out := make(StringSet)
	for item := range small {
		if large.Has(item) {
			out[item] = struct{}{}
		}
	}
	return out
}

// Union returns the items present in either set.
func (s StringSet) Union(other StringSet) StringSet {
	out := make(StringSet, len(s)+len(other))
	for item := range s {
		out[item] = struct{}{}
	}
	for item := range other {
		out[item] = struct{}{}
	}
	return out
}

// Difference returns the items of s that are not in other.
func (s StringSet) Difference(other StringSet) StringSet {
	out := make(StringSet)
	for item := range s {
		if !other.Has(item) {
			out[item] = struct{}{}
		}
	}
	return out
}

// Sorted returns the members in lexical order. Never nil.
func (s StringSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for item := range s {
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}

func (s StringSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *StringSet) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*s = NewStringSet(items...)
	return nil
}

// Ratings maps a dimension name (work style) or question id (quiz) to a 1-5 rating.
type Ratings map[string]int

// Clamped returns a copy with every value forced into the 1-5 range.
func (r Ratings) Clamped() Ratings {
	out := make(Ratings, len(r))
	for k, v := range r {
		out[k] = clampRating(v)
	}
	return out
}

func clampRating(v int) int {
	if v < minRating {
		return minRating
	}
	if v > maxRating {
		return maxRating
	}
	return v
}

// round2 rounds half away from zero to two decimals.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clampPercent(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
