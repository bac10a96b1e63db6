package compatibility

import (
	"math"
	"strings"
)

// Quiz key substrings and the names the analysis reports them under.
const (
	quizCommunication = "communication"
	quizRhythm        = "rhythm"
	quizConflict      = "conflict"
	quizLeadership    = "leadership"
)

// VectorSimilarity compares two rating vectors key by key. For every key both
// vectors carry, similarity is max(0, 1 - |a-b|/5); the result is the mean of
// those similarities scaled to 0-100. Keys held by only one side are ignored.
// Out-of-range ratings are clamped to 1-5 first.
func VectorSimilarity(a, b Ratings) float64 {
	return vectorSimilarity(a, b, func(string) bool { return true })
}

// VectorSimilarityByCategory is VectorSimilarity restricted to keys that
// contain category (case-sensitive).
func VectorSimilarityByCategory(a, b Ratings, category string) float64 {
	return vectorSimilarity(a, b, func(key string) bool {
		return strings.Contains(key, category)
	})
}

func vectorSimilarity(a, b Ratings, include func(string) bool) float64 {
	var total float64
	var shared int

	for key, va := range a {
		vb, ok := b[key]
		if !ok || !include(key) {
			continue
		}
		diff := math.Abs(float64(clampRating(va) - clampRating(vb)))
		total += math.Max(0, 1-diff/ratingScale)
		shared++
	}

	if shared == 0 {
		return 0
	}
	return round2(total / float64(shared) * 100)
}

// WorkStyleAnalysis breaks quiz results down by the category embedded in each
// question id. Every figure is 0-100.
type WorkStyleAnalysis struct {
	CommunicationStyle float64 `json:"communication_style"`
	WorkRhythm         float64 `json:"work_rhythm"`
	ConflictResolution float64 `json:"conflict_resolution"`
	LeadershipStyle    float64 `json:"leadership_style"`
	OverallScore       float64 `json:"overall_score"`
}

// AnalyzeWorkStyle scores two quiz result vectors per category. The overall
// figure averages all four categories, including the ones with no shared answers.
func AnalyzeWorkStyle(quizA, quizB Ratings) *WorkStyleAnalysis {
	analysis := &WorkStyleAnalysis{
		CommunicationStyle: VectorSimilarityByCategory(quizA, quizB, quizCommunication),
		WorkRhythm:         VectorSimilarityByCategory(quizA, quizB, quizRhythm),
		ConflictResolution: VectorSimilarityByCategory(quizA, quizB, quizConflict),
		LeadershipStyle:    VectorSimilarityByCategory(quizA, quizB, quizLeadership),
	}
	sum := analysis.CommunicationStyle + analysis.WorkRhythm +
		analysis.ConflictResolution + analysis.LeadershipStyle
	analysis.OverallScore = round2(sum / 4)
	return analysis
}
