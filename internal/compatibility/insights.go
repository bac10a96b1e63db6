package compatibility

import (
	"fmt"
	"strings"
)

const (
	// MaxInsights caps GenerateInsights.
	MaxInsights = 5

	strengthThreshold    = 70.0
	improvementThreshold = 40.0
)

// GenerateInsights turns a breakdown into at most five short statements, in
// category order. Categories without anything notable contribute nothing.
func GenerateInsights(b *Breakdown) []string {
	insights := make([]string, 0, MaxInsights)
	if b == nil {
		return insights
	}

	switch {
	case b.Skills.Score > 70:
		insights = append(insights, fmt.Sprintf("Strong skills match! You share %d skills.", len(b.Skills.CommonSkills)))
	case b.Skills.Score < 30:
		insights = append(insights, "Skills are complementary rather than overlapping - great for diverse project capabilities!")
	}

	if len(b.Interests.CommonInterests) > 0 {
		insights = append(insights, "You share interests in: "+strings.Join(firstN(b.Interests.CommonInterests, 3), ", "))
	}

	if b.WorkStyle.Score > 75 {
		insights = append(insights, "Excellent work style alignment! You'll likely work well together.")
	}

	if len(b.Goals.CommonGoals) > 0 {
		insights = append(insights, "You have aligned goals: "+strings.Join(firstN(b.Goals.CommonGoals, 2), ", "))
	}

	return firstN(insights, MaxInsights)
}

// Strength is a category scoring above 70.
type Strength struct {
	Category    Category `json:"category"`
	Score       float64  `json:"score"`
	Description string   `json:"description"`
}

// Improvement is a category scoring below 40.
type Improvement struct {
	Category   Category `json:"category"`
	Score      float64  `json:"score"`
	Suggestion string   `json:"suggestion"`
}

var strengthDescriptions = map[Category]string{
	CategorySkills:    "Strong overlapping skillset for effective collaboration",
	CategoryInterests: "Shared interests create great project synergy",
	CategoryWorkStyle: "Compatible working styles for smooth cooperation",
	CategoryGoals:     "Aligned objectives and project interests",
}

var improvementSuggestions = map[Category]string{
	CategorySkills:    "Consider discussing how your different skills can complement each other",
	CategoryInterests: "Explore potential shared interests through conversation",
	CategoryWorkStyle: "Discuss your work preferences to find common ground",
	CategoryGoals:     "Align on project objectives and expectations",
}

// Strengths lists the categories scoring above 70. Never nil.
func Strengths(b *Breakdown) []Strength {
	out := []Strength{}
	if b == nil {
		return out
	}
	for _, c := range Categories {
		if score := b.Score(c); score > strengthThreshold {
			out = append(out, Strength{Category: c, Score: score, Description: strengthDescriptions[c]})
		}
	}
	return out
}

// Improvements lists the categories scoring below 40. Never nil.
func Improvements(b *Breakdown) []Improvement {
	out := []Improvement{}
	if b == nil {
		return out
	}
	for _, c := range Categories {
		if score := b.Score(c); score < improvementThreshold {
			out = append(out, Improvement{Category: c, Score: score, Suggestion: improvementSuggestions[c]})
		}
	}
	return out
}

// Insight is a typed statement shown on match cards.
type Insight struct {
	Type     Category `json:"type"`
	Message  string   `json:"message"`
	Strength string   `json:"strength"`
}

// MatchInsights gives the short card-level insights for a pair: shared skills,
// shared interests and, when both users took the quiz, communication and rhythm
// alignment.
func MatchInsights(a, b *Profile) []Insight {
	a, b = a.orEmpty(), b.orEmpty()
	insights := []Insight{}

	if common := a.Skills.Intersect(b.Skills).Sorted(); len(common) > 0 {
		insights = append(insights, Insight{
			Type:     CategorySkills,
			Message:  "You both share skills in: " + strings.Join(firstN(common, 3), ", "),
			Strength: "high",
		})
	}

	if common := a.Interests.Intersect(b.Interests).Sorted(); len(common) > 0 {
		insights = append(insights, Insight{
			Type:     CategoryInterests,
			Message:  "You share interests in: " + strings.Join(firstN(common, 3), ", "),
			Strength: "medium",
		})
	}

	if len(a.QuizResults) > 0 && len(b.QuizResults) > 0 {
		analysis := AnalyzeWorkStyle(a.QuizResults, b.QuizResults)
		if analysis.CommunicationStyle > strengthThreshold {
			insights = append(insights, Insight{
				Type:     CategoryWorkStyle,
				Message:  "Great communication style match!",
				Strength: "high",
			})
		}
		if analysis.WorkRhythm > strengthThreshold {
			insights = append(insights, Insight{
				Type:     CategoryWorkStyle,
				Message:  "Similar work rhythms and productivity patterns",
				Strength: "medium",
			})
		}
	}

	return insights
}

func firstN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
