// internal/compatibility/engine.go
// Quick ranking score and the detailed per-category breakdown

package compatibility

// Category names a slice of the breakdown.
type Category string

const (
	CategorySkills    Category = "skills"
	CategoryInterests Category = "interests"
	CategoryWorkStyle Category = "work_style"
	CategoryGoals     Category = "goals"
)

// Categories lists the breakdown categories in display order.
var Categories = []Category{CategorySkills, CategoryInterests, CategoryWorkStyle, CategoryGoals}

// Weights used by the quick ranking score.
type Weights struct {
	Skills    float64
	Interests float64
	WorkStyle float64
}

// DefaultWeights gives skills 40% and interests and work style 30% each.
var DefaultWeights = Weights{Skills: 0.4, Interests: 0.3, WorkStyle: 0.3}

// CompatibilityScore is the full result of a detailed comparison.
type CompatibilityScore struct {
	Overall   float64   `json:"overall_score"`
	Breakdown Breakdown `json:"breakdown"`
}

type Breakdown struct {
	Skills    SkillsBreakdown    `json:"skills"`
	Interests InterestsBreakdown `json:"interests"`
	WorkStyle WorkStyleBreakdown `json:"work_style"`
	Goals     GoalsBreakdown     `json:"goals"`
}

type SkillsBreakdown struct {
	Score               float64  `json:"score"`
	CommonSkills        []string `json:"common_skills"`
	ComplementarySkills []string `json:"complementary_skills"`
	// Coverage is the shared count over the larger skill set.
	Coverage float64 `json:"coverage"`
}

type InterestsBreakdown struct {
	Score           float64  `json:"score"`
	CommonInterests []string `json:"common_interests"`
}

type WorkStyleBreakdown struct {
	Score       float64            `json:"score"`
	Components  map[string]float64 `json:"components"`
	Description string             `json:"description"`
}

type GoalsBreakdown struct {
	Score              float64  `json:"score"`
	CommonGoals        []string `json:"common_goals"`
	Aligned            bool     `json:"aligned"`
	LookingForScore    *float64 `json:"looking_for_score,omitempty"`
	ProjectTypeOverlap *float64 `json:"project_type_overlap,omitempty"`
}

// Score returns the score of one category, or 0 for an unknown category.
func (b *Breakdown) Score(c Category) float64 {
	switch c {
	case CategorySkills:
		return b.Skills.Score
	case CategoryInterests:
		return b.Interests.Score
	case CategoryWorkStyle:
		return b.WorkStyle.Score
	case CategoryGoals:
		return b.Goals.Score
	}
	return 0
}

// Work style component names.
const (
	ComponentWorkStyle = "work_style"
	ComponentQuiz      = "quiz"
)

// Engine turns two profiles into compatibility scores. Implementations are pure
// and safe for concurrent use.
type Engine interface {
	// CalculateCompatibility is the weighted 0-100 score used to rank candidates
	// and snapshot onto matches.
	CalculateCompatibility(a, b *Profile) float64
	// GetDetailedCompatibility explains the pair category by category. Its Overall
	// is the mean of the four category scores and is not the ranking score.
	GetDetailedCompatibility(a, b *Profile) *CompatibilityScore
}

type engine struct {
	weights Weights
}

func NewEngine() Engine {
	return &engine{weights: DefaultWeights}
}

func NewEngineWithWeights(weights Weights) Engine {
	return &engine{weights: weights}
}

// weightedScores collects (score, weight) pairs for the categories both users
// have data for, so sparse profiles are scored only on what they share.
type weightedScores []weightedScore

type weightedScore struct {
	score  float64
	weight float64
}

func (w *weightedScores) add(score, weight float64) {
	*w = append(*w, weightedScore{score: score, weight: weight})
}

func (w weightedScores) normalize() float64 {
	var raw, totalWeight float64
	for _, s := range w {
		raw += s.score / 100 * s.weight
		totalWeight += s.weight
	}
	if totalWeight <= 0 {
		return 0
	}
	return clampPercent(round2(raw / totalWeight * 100))
}

func (e *engine) CalculateCompatibility(a, b *Profile) float64 {
	a, b = a.orEmpty(), b.orEmpty()

	var scores weightedScores
	if a.Skills.Len() > 0 && b.Skills.Len() > 0 {
		scores.add(Overlap(a.Skills, b.Skills), e.weights.Skills)
	}
	if a.Interests.Len() > 0 && b.Interests.Len() > 0 {
		scores.add(Overlap(a.Interests, b.Interests), e.weights.Interests)
	}
	if len(a.WorkStyle) > 0 && len(b.WorkStyle) > 0 {
		scores.add(VectorSimilarity(a.WorkStyle, b.WorkStyle), e.weights.WorkStyle)
	}

	return scores.normalize()
}

func (e *engine) GetDetailedCompatibility(a, b *Profile) *CompatibilityScore {
	a, b = a.orEmpty(), b.orEmpty()

	result := &CompatibilityScore{
		Breakdown: Breakdown{
			Skills:    skillsBreakdown(a, b),
			Interests: interestsBreakdown(a, b),
			WorkStyle: workStyleBreakdown(a, b),
			Goals:     goalsBreakdown(a, b),
		},
	}

	var sum float64
	for _, c := range Categories {
		sum += result.Breakdown.Score(c)
	}
	result.Overall = round2(sum / float64(len(Categories)))

	return result
}

func skillsBreakdown(a, b *Profile) SkillsBreakdown {
	return SkillsBreakdown{
		Score:               Overlap(a.Skills, b.Skills),
		CommonSkills:        a.Skills.Intersect(b.Skills).Sorted(),
		ComplementarySkills: Complementary(a.Skills, b.Skills).Sorted(),
		Coverage:            OverlapByLargerSet(a.Skills, b.Skills),
	}
}

func interestsBreakdown(a, b *Profile) InterestsBreakdown {
	return InterestsBreakdown{
		Score:           Overlap(a.Interests, b.Interests),
		CommonInterests: a.Interests.Intersect(b.Interests).Sorted(),
	}
}

func workStyleBreakdown(a, b *Profile) WorkStyleBreakdown {
	components := make(map[string]float64, 2)
	if len(a.WorkStyle) > 0 && len(b.WorkStyle) > 0 {
		components[ComponentWorkStyle] = VectorSimilarity(a.WorkStyle, b.WorkStyle)
	}
	if len(a.QuizResults) > 0 && len(b.QuizResults) > 0 {
		components[ComponentQuiz] = VectorSimilarity(a.QuizResults, b.QuizResults)
	}

	var score float64
	if len(components) > 0 {
		var sum float64
		for _, v := range components {
			sum += v
		}
		score = round2(sum / float64(len(components)))
	}

	return WorkStyleBreakdown{
		Score:       score,
		Components:  components,
		Description: WorkStyleDescription(score),
	}
}

func goalsBreakdown(a, b *Profile) GoalsBreakdown {
	goals := GoalsBreakdown{CommonGoals: []string{}}

	var signals []float64
	if a.LookingFor != "" && b.LookingFor != "" {
		text := TextSimilarity(a.LookingFor, b.LookingFor)
		goals.LookingForScore = &text
		goals.Aligned = text >= GoalsAlignedThreshold
		goals.CommonGoals = append(goals.CommonGoals, "Both looking for: "+a.LookingFor)
		signals = append(signals, text)
	}
	if a.ProjectTypes.Len() > 0 && b.ProjectTypes.Len() > 0 {
		overlap := OverlapByLargerSet(a.ProjectTypes, b.ProjectTypes)
		goals.ProjectTypeOverlap = &overlap
		goals.CommonGoals = append(goals.CommonGoals, a.ProjectTypes.Intersect(b.ProjectTypes).Sorted()...)
		signals = append(signals, overlap)
	}

	if len(signals) > 0 {
		var sum float64
		for _, s := range signals {
			sum += s
		}
		goals.Score = round2(sum / float64(len(signals)))
	}
	return goals
}

// WorkStyleDescription labels a work style score for display.
func WorkStyleDescription(score float64) string {
	switch {
	case score >= 80:
		return "Excellent work style match"
	case score >= 60:
		return "Good work style compatibility"
	case score >= 40:
		return "Moderate work style alignment"
	default:
		return "Different work styles - may require adaptation"
	}
}
