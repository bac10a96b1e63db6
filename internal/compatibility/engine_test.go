package compatibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func researchPair() (*Profile, *Profile) {
	a := &Profile{
		Skills:       NewStringSet("go", "sql", "docker"),
		Interests:    NewStringSet("ai", "web"),
		ProjectTypes: NewStringSet("research", "startup"),
		WorkStyle:    Ratings{"structure": 4, "pace": 3},
		QuizResults:  Ratings{"communication_q1": 5, "rhythm_q1": 3},
		LookingFor:   "research partner",
	}
	b := &Profile{
		Skills:       NewStringSet("go", "python"),
		Interests:    NewStringSet("ai"),
		ProjectTypes: NewStringSet("research"),
		WorkStyle:    Ratings{"structure": 4, "pace": 5},
		QuizResults:  Ratings{"communication_q1": 5, "rhythm_q1": 1},
		LookingFor:   "Research partner",
	}
	return a, b
}

func TestCalculateCompatibility_WeightedExample(t *testing.T) {
	engine := NewEngine()
	a := &Profile{Skills: NewStringSet("a", "b"), Interests: NewStringSet("c")}
	b := &Profile{Skills: NewStringSet("a", "c"), Interests: NewStringSet("c")}

	assert.Equal(t, 61.90, engine.CalculateCompatibility(a, b))
}

func TestCalculateCompatibility_AllCategories(t *testing.T) {
	a, b := researchPair()
	assert.Equal(t, 49.0, NewEngine().CalculateCompatibility(a, b))
}

func TestCalculateCompatibility_Symmetric(t *testing.T) {
	engine := NewEngine()
	a, b := researchPair()
	assert.Equal(t, engine.CalculateCompatibility(a, b), engine.CalculateCompatibility(b, a))
}

func TestCalculateCompatibility_EmptyProfiles(t *testing.T) {
	engine := NewEngine()
	a, _ := researchPair()

	assert.Equal(t, 0.0, engine.CalculateCompatibility(&Profile{}, &Profile{}))
	assert.Equal(t, 0.0, engine.CalculateCompatibility(nil, a))
	assert.Equal(t, 0.0, engine.CalculateCompatibility(a, &Profile{LookingFor: "anything"}))
}

func TestCalculateCompatibility_SparseProfileNotPenalised(t *testing.T) {
	engine := NewEngine()
	a := &Profile{Skills: NewStringSet("go", "sql")}
	b := &Profile{Skills: NewStringSet("go", "sql"), Interests: NewStringSet("ai")}

	assert.Equal(t, 100.0, engine.CalculateCompatibility(a, b))
}

func TestCalculateCompatibility_Bounds(t *testing.T) {
	engine := NewEngine()
	a := &Profile{WorkStyle: Ratings{"x": 100, "y": -100}}
	b := &Profile{WorkStyle: Ratings{"x": -100, "y": 100}}

	score := engine.CalculateCompatibility(a, b)
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 100.0)
}

func TestGetDetailedCompatibility(t *testing.T) {
	a, b := researchPair()
	got := NewEngine().GetDetailedCompatibility(a, b)
	require.NotNil(t, got)

	bd := got.Breakdown
	assert.Equal(t, 25.0, bd.Skills.Score)
	assert.Equal(t, []string{"go"}, bd.Skills.CommonSkills)
	assert.Equal(t, []string{"docker", "python", "sql"}, bd.Skills.ComplementarySkills)
	assert.Equal(t, 33.33, bd.Skills.Coverage)

	assert.Equal(t, 50.0, bd.Interests.Score)
	assert.Equal(t, []string{"ai"}, bd.Interests.CommonInterests)

	assert.Equal(t, 80.0, bd.WorkStyle.Score)
	assert.Equal(t, map[string]float64{ComponentWorkStyle: 80, ComponentQuiz: 80}, bd.WorkStyle.Components)
	assert.Equal(t, "Excellent work style match", bd.WorkStyle.Description)

	assert.Equal(t, 75.0, bd.Goals.Score)
	assert.True(t, bd.Goals.Aligned)
	assert.Equal(t, []string{"Both looking for: research partner", "research"}, bd.Goals.CommonGoals)

	assert.Equal(t, 57.5, got.Overall)
}

func TestGetDetailedCompatibility_GoalsSingleSignal(t *testing.T) {
	engine := NewEngine()

	onlyTypes := engine.GetDetailedCompatibility(
		&Profile{ProjectTypes: NewStringSet("app", "web")},
		&Profile{ProjectTypes: NewStringSet("app")},
	)
	assert.Equal(t, 50.0, onlyTypes.Breakdown.Goals.Score)
	assert.Nil(t, onlyTypes.Breakdown.Goals.LookingForScore)
	assert.Equal(t, []string{"app"}, onlyTypes.Breakdown.Goals.CommonGoals)

	onlyText := engine.GetDetailedCompatibility(
		&Profile{LookingFor: "abc"},
		&Profile{LookingFor: "xyz"},
	)
	assert.Equal(t, 0.0, onlyText.Breakdown.Goals.Score)
	assert.False(t, onlyText.Breakdown.Goals.Aligned)
	assert.Equal(t, []string{"Both looking for: abc"}, onlyText.Breakdown.Goals.CommonGoals)
}

func TestGetDetailedCompatibility_Empty(t *testing.T) {
	got := NewEngine().GetDetailedCompatibility(nil, nil)

	assert.Equal(t, 0.0, got.Overall)
	for _, c := range Categories {
		assert.Equal(t, 0.0, got.Breakdown.Score(c), c)
	}
	assert.Empty(t, got.Breakdown.WorkStyle.Components)
	assert.Equal(t, "Different work styles - may require adaptation", got.Breakdown.WorkStyle.Description)
}

func TestWorkStyleDescription(t *testing.T) {
	assert.Equal(t, "Excellent work style match", WorkStyleDescription(80))
	assert.Equal(t, "Good work style compatibility", WorkStyleDescription(79.99))
	assert.Equal(t, "Moderate work style alignment", WorkStyleDescription(40))
	assert.Equal(t, "Different work styles - may require adaptation", WorkStyleDescription(39.99))
}

func TestNewEngineWithWeights(t *testing.T) {
	engine := NewEngineWithWeights(Weights{Skills: 1})
	a := &Profile{Skills: NewStringSet("a", "b"), Interests: NewStringSet("x")}
	b := &Profile{Skills: NewStringSet("a", "c"), Interests: NewStringSet("x")}

	// interests carry no weight, so only the skills overlap counts
	assert.Equal(t, 33.33, engine.CalculateCompatibility(a, b))
}
