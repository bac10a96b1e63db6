package matching

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/imadgeboyega/projectmatch-backend/internal/compatibility"
)

// Action is what a user did with a discovery card
type Action string

const (
	ActionLike      Action = "like"
	ActionPass      Action = "pass"
	ActionSuperlike Action = "superlike"
)

// IsPositive reports whether the action counts towards a match.
// Like and superlike are interchangeable here.
func (a Action) IsPositive() bool {
	return a == ActionLike || a == ActionSuperlike
}

type Swipe struct {
	ID        int64     `json:"id" db:"id"`
	SwiperID  int64     `json:"swiper_id" db:"swiper_id"`
	SwipedID  int64     `json:"swiped_id" db:"swiped_id"`
	Action    Action    `json:"action" db:"action"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// Joined for history listings
	User *UserInfo `json:"user,omitempty" db:"-"`
}

// Match is stored once per unordered pair with User1ID < User2ID.
// CompatibilityScore is the snapshot taken when the match was created.
type Match struct {
	ID                 int64     `json:"id" db:"id"`
	User1ID            int64     `json:"user1_id" db:"user1_id"`
	User2ID            int64     `json:"user2_id" db:"user2_id"`
	CompatibilityScore float64   `json:"compatibility_score" db:"compatibility_score"`
	MatchedAt          time.Time `json:"matched_at" db:"matched_at"`

	MatchedUser *UserInfo `json:"matched_user,omitempty" db:"-"`
}

// OtherUserID returns the participant that is not userID
func (m *Match) OtherUserID(userID int64) int64 {
	if m.User1ID == userID {
		return m.User2ID
	}
	return m.User1ID
}

// Involves reports whether userID is one of the two participants
func (m *Match) Involves(userID int64) bool {
	return m.User1ID == userID || m.User2ID == userID
}

type UserInfo struct {
	ID              int64   `json:"id" db:"id"`
	FullName        string  `json:"full_name" db:"full_name"`
	Department      *string `json:"department,omitempty" db:"department"`
	ProfilePhotoURL *string `json:"profile_photo_url,omitempty" db:"profile_photo_url"`
	Bio             *string `json:"bio,omitempty" db:"bio"`
}

// UserProfile is the stored profile row used for scoring and discovery cards
type UserProfile struct {
	UserID       int64      `json:"user_id" db:"user_id"`
	FullName     string     `json:"full_name" db:"full_name"`
	Department   *string    `json:"department,omitempty" db:"department"`
	Bio          *string    `json:"bio,omitempty" db:"bio"`
	Skills       StringList `json:"skills" db:"skills"`
	Interests    StringList `json:"interests" db:"interests"`
	ProjectTypes StringList `json:"project_types" db:"project_types"`
	WorkStyle    RatingMap  `json:"work_style" db:"work_style"`
	QuizResults  RatingMap  `json:"quiz_results" db:"quiz_results"`
	LookingFor   string     `json:"looking_for" db:"looking_for"`
	Availability *string    `json:"availability,omitempty" db:"availability"`
	QuizComplete bool       `json:"quiz_completed" db:"quiz_completed"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// Attributes converts the stored row into the scoring view. A nil profile
// scores as an empty one.
func (p *UserProfile) Attributes() *compatibility.Profile {
	if p == nil {
		return &compatibility.Profile{}
	}
	return &compatibility.Profile{
		Skills:       compatibility.NewStringSet(p.Skills...),
		Interests:    compatibility.NewStringSet(p.Interests...),
		ProjectTypes: compatibility.NewStringSet(p.ProjectTypes...),
		WorkStyle:    compatibility.Ratings(p.WorkStyle),
		QuizResults:  compatibility.Ratings(p.QuizResults),
		LookingFor:   p.LookingFor,
	}
}

type BlockedUser struct {
	ID        int64     `json:"id" db:"id"`
	BlockerID int64     `json:"blocker_id" db:"blocker_id"`
	BlockedID int64     `json:"blocked_id" db:"blocked_id"`
	Reason    *string   `json:"reason,omitempty" db:"reason"`
	BlockedAt time.Time `json:"blocked_at" db:"blocked_at"`

	BlockedUser *UserInfo `json:"blocked_user,omitempty" db:"-"`
}

// FeedEntry is one ranked card in a discovery feed
type FeedEntry struct {
	UserID             int64      `json:"user_id"`
	FullName           string     `json:"full_name"`
	Department         *string    `json:"department,omitempty"`
	Bio                *string    `json:"bio,omitempty"`
	Skills             StringList `json:"skills"`
	Interests          StringList `json:"interests"`
	LookingFor         string     `json:"looking_for,omitempty"`
	Availability       *string    `json:"availability,omitempty"`
	CompatibilityScore float64    `json:"compatibility_score"`
}

type SwipeResult struct {
	Swipe      *Swipe    `json:"swipe"`
	SwipedUser *UserInfo `json:"swiped_user"`
	Matched    bool      `json:"match"`
	Match      *Match    `json:"match_details,omitempty"`
}

type SwipeStats struct {
	LikesGiven      int     `json:"total_likes_given" db:"likes_given"`
	SuperlikesGiven int     `json:"total_superlikes_given" db:"superlikes_given"`
	PassesGiven     int     `json:"total_passes_given" db:"passes_given"`
	LikesReceived   int     `json:"total_likes_received" db:"likes_received"`
	TotalMatches    int     `json:"total_matches" db:"total_matches"`
	MatchRate       float64 `json:"match_rate" db:"-"`
}

type MatchStats struct {
	TotalMatches         int      `json:"total_matches"`
	AverageCompatibility float64  `json:"average_compatibility"`
	TopMatches           []*Match `json:"top_matches"`
}

// CompatibilityReport is the detailed view shown for a candidate or a match
type CompatibilityReport struct {
	UserID      int64 `json:"user_id"`
	OtherUserID int64 `json:"other_user_id"`

	// MatchID and MatchedAt are set when the pair is matched; CompatibilityScore
	// is then the stored snapshot rather than a fresh computation.
	MatchID   *int64     `json:"match_id,omitempty"`
	MatchedAt *time.Time `json:"matched_at,omitempty"`

	CompatibilityScore float64                          `json:"compatibility_score"`
	OverallScore       float64                          `json:"overall_score"`
	Breakdown          compatibility.Breakdown          `json:"breakdown"`
	Insights           []string                         `json:"insights"`
	Strengths          []compatibility.Strength         `json:"strengths"`
	Improvements       []compatibility.Improvement      `json:"improvements"`
	MatchInsights      []compatibility.Insight          `json:"match_insights"`
	WorkStyleAnalysis  *compatibility.WorkStyleAnalysis `json:"work_style_analysis"`
}

// StringList is a JSONB array column. NULL scans as an empty list.
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(s))
}

func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = StringList{}
		return nil
	}

	data, err := jsonBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, (*[]string)(s))
}

// RatingMap is a JSONB object of 1-5 ratings. NULL scans as an empty map.
type RatingMap map[string]int

func (m RatingMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]int(m))
}

func (m *RatingMap) Scan(value interface{}) error {
	if value == nil {
		*m = RatingMap{}
		return nil
	}

	data, err := jsonBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, (*map[string]int)(m))
}

func jsonBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, errors.New("type assertion to []byte failed")
	}
}
