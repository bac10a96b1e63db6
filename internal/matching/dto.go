// internal/matching/dto.go
package matching

// DTOs for API requests/responses

type SwipeDTO struct {
	SwipedID int64  `json:"swiped_id" validate:"required,gt=0"`
	Action   Action `json:"action" validate:"required,oneof=like pass superlike"`
}

type UpdateProfileDTO struct {
	Skills       []string       `json:"skills" validate:"omitempty,max=50,dive,required,max=100"`
	Interests    []string       `json:"interests" validate:"omitempty,max=50,dive,required,max=100"`
	ProjectTypes []string       `json:"project_types" validate:"omitempty,max=20,dive,required,max=100"`
	WorkStyle    map[string]int `json:"work_style" validate:"omitempty,dive,keys,required,max=50,endkeys,gte=1,lte=5"`
	LookingFor   *string        `json:"looking_for" validate:"omitempty,max=255"`
	Availability *string        `json:"availability" validate:"omitempty,max=100"`
	Department   *string        `json:"department" validate:"omitempty,max=100"`
	Bio          *string        `json:"bio" validate:"omitempty,max=1000"`
}

type SubmitQuizDTO struct {
	Answers map[string]int `json:"answers" validate:"required,min=1,dive,keys,required,max=50,endkeys,gte=1,lte=5"`
}

type BlockUserDTO struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// DiscoverParams narrows the discovery feed. Filtered requests bypass the feed cache.
type DiscoverParams struct {
	Limit        int      `json:"limit"`
	Department   string   `json:"department,omitempty"`
	Skills       []string `json:"skills,omitempty"`
	Availability string   `json:"availability,omitempty"`
}

// HasFilters reports whether any narrowing filter is set
func (p *DiscoverParams) HasFilters() bool {
	return p.Department != "" || len(p.Skills) > 0 || p.Availability != ""
}

type SwipeHistoryParams struct {
	Type   string `json:"type" validate:"oneof=given received"`
	Action string `json:"action,omitempty" validate:"omitempty,oneof=like pass superlike"`
	Limit  int    `json:"limit" validate:"min=1,max=100"`
	Offset int    `json:"offset" validate:"min=0"`
}

type SwipeHistory struct {
	Swipes []*Swipe `json:"swipes"`
	Total  int      `json:"total"`
	Type   string   `json:"type"`
	Action string   `json:"action,omitempty"`
}

// CandidateFilters is what the repository needs to build a candidate pool
type CandidateFilters struct {
	Department   string
	Skills       []string
	Availability string
	Limit        int
}
