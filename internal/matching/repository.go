package matching

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Repository interface {
	// Users & profiles
	GetUserInfo(ctx context.Context, userID int64) (*UserInfo, error)
	GetProfile(ctx context.Context, userID int64) (*UserProfile, error)
	SaveProfile(ctx context.Context, profile *UserProfile, completed bool) error
	SaveQuizResults(ctx context.Context, userID int64, answers RatingMap) error
	FindCandidates(ctx context.Context, userID int64, filters *CandidateFilters) ([]*UserProfile, error)

	// Swipes
	CreateSwipe(ctx context.Context, swipe *Swipe) error
	GetSwipe(ctx context.Context, id int64) (*Swipe, error)
	FindSwipe(ctx context.Context, swiperID, swipedID int64) (*Swipe, error)
	HasPositiveSwipe(ctx context.Context, swiperID, swipedID int64) (bool, error)
	DeleteSwipe(ctx context.Context, id int64) error
	GetSwipeHistory(ctx context.Context, userID int64, params *SwipeHistoryParams) ([]*Swipe, int, error)
	GetSwipeStats(ctx context.Context, userID int64) (*SwipeStats, error)

	// Matches
	CreateMatch(ctx context.Context, match *Match) (bool, error)
	GetMatch(ctx context.Context, id int64) (*Match, error)
	GetMatchBetween(ctx context.Context, user1ID, user2ID int64) (*Match, error)
	GetUserMatches(ctx context.Context, userID int64) ([]*Match, error)
	DeleteMatch(ctx context.Context, id int64) error

	// Blocking
	IsBlocked(ctx context.Context, user1ID, user2ID int64) (bool, error)
	BlockUser(ctx context.Context, block *BlockedUser) error
	UnblockUser(ctx context.Context, blockerID, blockedID int64) (bool, error)
	GetBlockedUsers(ctx context.Context, blockerID int64) ([]*BlockedUser, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// orderedPair returns the pair in canonical storage order
func orderedPair(a, b int64) (int64, int64) {
	if a < b {
		return a, b
	}
	return b, a
}

// User & Profile Methods

func (r *postgresRepository) GetUserInfo(ctx context.Context, userID int64) (*UserInfo, error) {
	var user UserInfo
	query := `
        SELECT id, full_name, department, profile_photo_url, bio
        FROM users
        WHERE id = $1 AND is_active = true
    `

	err := r.db.GetContext(ctx, &user, query, userID)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

const profileColumns = `
        u.id AS user_id, u.full_name, u.department, u.bio,
        COALESCE(p.skills, '[]'::jsonb) AS skills,
        COALESCE(p.interests, '[]'::jsonb) AS interests,
        COALESCE(p.project_types, '[]'::jsonb) AS project_types,
        COALESCE(p.work_style, '{}'::jsonb) AS work_style,
        COALESCE(p.quiz_results, '{}'::jsonb) AS quiz_results,
        COALESCE(p.looking_for, '') AS looking_for,
        p.availability,
        COALESCE(p.quiz_completed, false) AS quiz_completed,
        COALESCE(p.updated_at, u.created_at) AS updated_at
`

// GetProfile loads a user's profile. A user without a profile row gets an
// empty one, which scores zero in every category.
func (r *postgresRepository) GetProfile(ctx context.Context, userID int64) (*UserProfile, error) {
	var profile UserProfile
	query := `SELECT ` + profileColumns + `
        FROM users u
        LEFT JOIN user_profiles p ON p.user_id = u.id
        WHERE u.id = $1
    `

	err := r.db.GetContext(ctx, &profile, query, userID)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}

func (r *postgresRepository) SaveProfile(ctx context.Context, profile *UserProfile, completed bool) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
        UPDATE users
        SET department = $2, bio = $3, profile_completed = $4, updated_at = CURRENT_TIMESTAMP
        WHERE id = $1
    `, profile.UserID, profile.Department, profile.Bio, completed)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	err = tx.QueryRowxContext(ctx, `
        INSERT INTO user_profiles (
            user_id, skills, interests, project_types, work_style, looking_for, availability
        ) VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (user_id) DO UPDATE SET
            skills = EXCLUDED.skills,
            interests = EXCLUDED.interests,
            project_types = EXCLUDED.project_types,
            work_style = EXCLUDED.work_style,
            looking_for = EXCLUDED.looking_for,
            availability = EXCLUDED.availability,
            updated_at = CURRENT_TIMESTAMP
        RETURNING updated_at
    `,
		profile.UserID, profile.Skills, profile.Interests, profile.ProjectTypes,
		profile.WorkStyle, profile.LookingFor, profile.Availability,
	).Scan(&profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	return tx.Commit()
}

func (r *postgresRepository) SaveQuizResults(ctx context.Context, userID int64, answers RatingMap) error {
	query := `
        INSERT INTO user_profiles (user_id, quiz_results, quiz_completed)
        VALUES ($1, $2, true)
        ON CONFLICT (user_id) DO UPDATE SET
            quiz_results = EXCLUDED.quiz_results,
            quiz_completed = true,
            updated_at = CURRENT_TIMESTAMP
    `

	_, err := r.db.ExecContext(ctx, query, userID, answers)
	return err
}

// FindCandidates returns active, completed profiles the user has not swiped,
// blocked, been blocked by or matched with, in random order.
func (r *postgresRepository) FindCandidates(ctx context.Context, userID int64, filters *CandidateFilters) ([]*UserProfile, error) {
	var conditions []string
	args := []interface{}{userID}

	conditions = append(conditions,
		"u.id <> $1",
		"u.is_active = true",
		"u.profile_completed = true",
		"NOT EXISTS (SELECT 1 FROM swipes s WHERE s.swiper_id = $1 AND s.swiped_id = u.id)",
		`NOT EXISTS (SELECT 1 FROM blocked_users b
            WHERE (b.blocker_id = $1 AND b.blocked_id = u.id)
               OR (b.blocker_id = u.id AND b.blocked_id = $1))`,
		`NOT EXISTS (SELECT 1 FROM matches m
            WHERE (m.user1_id = $1 AND m.user2_id = u.id)
               OR (m.user1_id = u.id AND m.user2_id = $1))`,
	)

	if filters.Department != "" {
		args = append(args, filters.Department)
		conditions = append(conditions, fmt.Sprintf("u.department = $%d", len(args)))
	}
	if len(filters.Skills) > 0 {
		args = append(args, StringList(filters.Skills))
		conditions = append(conditions, fmt.Sprintf("p.skills @> $%d::jsonb", len(args)))
	}
	if filters.Availability != "" {
		args = append(args, filters.Availability)
		conditions = append(conditions, fmt.Sprintf("p.availability = $%d", len(args)))
	}

	args = append(args, filters.Limit)
	query := `SELECT ` + profileColumns + `
        FROM users u
        JOIN user_profiles p ON p.user_id = u.id
        WHERE ` + strings.Join(conditions, " AND ") + fmt.Sprintf(`
        ORDER BY random()
        LIMIT $%d`, len(args))

	var candidates []*UserProfile
	if err := r.db.SelectContext(ctx, &candidates, query, args...); err != nil {
		return nil, fmt.Errorf("failed to find candidates: %w", err)
	}
	return candidates, nil
}

// Swipe Methods

func (r *postgresRepository) CreateSwipe(ctx context.Context, swipe *Swipe) error {
	query := `
        INSERT INTO swipes (swiper_id, swiped_id, action)
        VALUES ($1, $2, $3)
        RETURNING id, created_at
    `

	err := r.db.QueryRowxContext(ctx, query, swipe.SwiperID, swipe.SwipedID, swipe.Action).
		Scan(&swipe.ID, &swipe.CreatedAt)
	if isUniqueViolation(err) {
		return ErrAlreadySwiped
	}
	return err
}

func (r *postgresRepository) GetSwipe(ctx context.Context, id int64) (*Swipe, error) {
	var swipe Swipe
	query := `SELECT id, swiper_id, swiped_id, action, created_at FROM swipes WHERE id = $1`

	err := r.db.GetContext(ctx, &swipe, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrSwipeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &swipe, nil
}

func (r *postgresRepository) FindSwipe(ctx context.Context, swiperID, swipedID int64) (*Swipe, error) {
	var swipe Swipe
	query := `SELECT id, swiper_id, swiped_id, action, created_at FROM swipes WHERE swiper_id = $1 AND swiped_id = $2`

	err := r.db.GetContext(ctx, &swipe, query, swiperID, swipedID)
	if err == sql.ErrNoRows {
		return nil, ErrSwipeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &swipe, nil
}

func (r *postgresRepository) HasPositiveSwipe(ctx context.Context, swiperID, swipedID int64) (bool, error) {
	var exists bool
	query := `
        SELECT EXISTS(
            SELECT 1 FROM swipes
            WHERE swiper_id = $1 AND swiped_id = $2 AND action IN ('like', 'superlike')
        )
    `

	err := r.db.QueryRowContext(ctx, query, swiperID, swipedID).Scan(&exists)
	return exists, err
}

func (r *postgresRepository) DeleteSwipe(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM swipes WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrSwipeNotFound
	}
	return nil
}

func (r *postgresRepository) GetSwipeHistory(ctx context.Context, userID int64, params *SwipeHistoryParams) ([]*Swipe, int, error) {
	ownColumn, otherColumn := "swiper_id", "swiped_id"
	if params.Type == "received" {
		ownColumn, otherColumn = "swiped_id", "swiper_id"
	}

	where := fmt.Sprintf("s.%s = $1", ownColumn)
	args := []interface{}{userID}
	if params.Action != "" {
		args = append(args, params.Action)
		where += fmt.Sprintf(" AND s.action = $%d", len(args))
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM swipes s WHERE ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count swipes: %w", err)
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`
        SELECT s.id, s.swiper_id, s.swiped_id, s.action, s.created_at,
               u.id, u.full_name, u.department, u.profile_photo_url, u.bio
        FROM swipes s
        JOIN users u ON u.id = s.%s
        WHERE %s
        ORDER BY s.created_at DESC, s.id DESC
        LIMIT $%d OFFSET $%d
    `, otherColumn, where, len(args)-1, len(args))

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get swipe history: %w", err)
	}
	defer rows.Close()

	swipes := []*Swipe{}
	for rows.Next() {
		var swipe Swipe
		var user UserInfo
		err := rows.Scan(
			&swipe.ID, &swipe.SwiperID, &swipe.SwipedID, &swipe.Action, &swipe.CreatedAt,
			&user.ID, &user.FullName, &user.Department, &user.ProfilePhotoURL, &user.Bio,
		)
		if err != nil {
			return nil, 0, err
		}
		swipe.User = &user
		swipes = append(swipes, &swipe)
	}

	return swipes, total, rows.Err()
}

func (r *postgresRepository) GetSwipeStats(ctx context.Context, userID int64) (*SwipeStats, error) {
	var stats SwipeStats
	query := `
        SELECT
            (SELECT COUNT(*) FROM swipes WHERE swiper_id = $1 AND action IN ('like', 'superlike')) AS likes_given,
            (SELECT COUNT(*) FROM swipes WHERE swiper_id = $1 AND action = 'superlike') AS superlikes_given,
            (SELECT COUNT(*) FROM swipes WHERE swiper_id = $1 AND action = 'pass') AS passes_given,
            (SELECT COUNT(*) FROM swipes WHERE swiped_id = $1 AND action IN ('like', 'superlike')) AS likes_received,
            (SELECT COUNT(*) FROM matches WHERE user1_id = $1 OR user2_id = $1) AS total_matches
    `

	if err := r.db.GetContext(ctx, &stats, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get swipe stats: %w", err)
	}
	return &stats, nil
}

// Match Methods

// CreateMatch inserts the match if the pair has none yet. When the pair is
// already matched, match is overwritten with the stored row and false is returned.
func (r *postgresRepository) CreateMatch(ctx context.Context, match *Match) (bool, error) {
	match.User1ID, match.User2ID = orderedPair(match.User1ID, match.User2ID)

	query := `
        INSERT INTO matches (user1_id, user2_id, compatibility_score)
        VALUES ($1, $2, $3)
        ON CONFLICT (user1_id, user2_id) DO NOTHING
        RETURNING id, matched_at
    `

	err := r.db.QueryRowxContext(ctx, query, match.User1ID, match.User2ID, match.CompatibilityScore).
		Scan(&match.ID, &match.MatchedAt)
	if err == nil {
		return true, nil
	}
	if err != sql.ErrNoRows {
		return false, fmt.Errorf("failed to create match: %w", err)
	}

	existing, err := r.GetMatchBetween(ctx, match.User1ID, match.User2ID)
	if err != nil {
		return false, err
	}
	*match = *existing
	return false, nil
}

func (r *postgresRepository) GetMatch(ctx context.Context, id int64) (*Match, error) {
	var match Match
	query := `SELECT id, user1_id, user2_id, compatibility_score, matched_at FROM matches WHERE id = $1`

	err := r.db.GetContext(ctx, &match, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, err
	}
	return &match, nil
}

func (r *postgresRepository) GetMatchBetween(ctx context.Context, user1ID, user2ID int64) (*Match, error) {
	user1ID, user2ID = orderedPair(user1ID, user2ID)

	var match Match
	query := `
        SELECT id, user1_id, user2_id, compatibility_score, matched_at
        FROM matches
        WHERE user1_id = $1 AND user2_id = $2
    `

	err := r.db.GetContext(ctx, &match, query, user1ID, user2ID)
	if err == sql.ErrNoRows {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, err
	}
	return &match, nil
}

func (r *postgresRepository) GetUserMatches(ctx context.Context, userID int64) ([]*Match, error) {
	query := `
        SELECT m.id, m.user1_id, m.user2_id, m.compatibility_score, m.matched_at,
               u.id, u.full_name, u.department, u.profile_photo_url, u.bio
        FROM matches m
        JOIN users u ON u.id = CASE WHEN m.user1_id = $1 THEN m.user2_id ELSE m.user1_id END
        WHERE m.user1_id = $1 OR m.user2_id = $1
        ORDER BY m.matched_at DESC, m.id DESC
    `

	rows, err := r.db.QueryxContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get matches: %w", err)
	}
	defer rows.Close()

	matches := []*Match{}
	for rows.Next() {
		var match Match
		var user UserInfo
		err := rows.Scan(
			&match.ID, &match.User1ID, &match.User2ID, &match.CompatibilityScore, &match.MatchedAt,
			&user.ID, &user.FullName, &user.Department, &user.ProfilePhotoURL, &user.Bio,
		)
		if err != nil {
			return nil, err
		}
		match.MatchedUser = &user
		matches = append(matches, &match)
	}

	return matches, rows.Err()
}

func (r *postgresRepository) DeleteMatch(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrMatchNotFound
	}
	return nil
}

// Blocking Methods

// IsBlocked reports whether either user has blocked the other
func (r *postgresRepository) IsBlocked(ctx context.Context, user1ID, user2ID int64) (bool, error) {
	var blocked bool
	query := `
        SELECT EXISTS(
            SELECT 1 FROM blocked_users
            WHERE (blocker_id = $1 AND blocked_id = $2)
               OR (blocker_id = $2 AND blocked_id = $1)
        )
    `

	err := r.db.QueryRowContext(ctx, query, user1ID, user2ID).Scan(&blocked)
	return blocked, err
}

func (r *postgresRepository) BlockUser(ctx context.Context, block *BlockedUser) error {
	query := `
        INSERT INTO blocked_users (blocker_id, blocked_id, reason)
        VALUES ($1, $2, $3)
        RETURNING id, blocked_at
    `

	err := r.db.QueryRowxContext(ctx, query, block.BlockerID, block.BlockedID, block.Reason).
		Scan(&block.ID, &block.BlockedAt)
	if isUniqueViolation(err) {
		return ErrAlreadyBlocked
	}
	return err
}

func (r *postgresRepository) UnblockUser(ctx context.Context, blockerID, blockedID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM blocked_users WHERE blocker_id = $1 AND blocked_id = $2`,
		blockerID, blockedID,
	)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	return rows > 0, err
}

func (r *postgresRepository) GetBlockedUsers(ctx context.Context, blockerID int64) ([]*BlockedUser, error) {
	query := `
        SELECT b.id, b.blocker_id, b.blocked_id, b.reason, b.blocked_at,
               u.id, u.full_name, u.department, u.profile_photo_url, u.bio
        FROM blocked_users b
        JOIN users u ON u.id = b.blocked_id
        WHERE b.blocker_id = $1
        ORDER BY b.blocked_at DESC
    `

	rows, err := r.db.QueryxContext(ctx, query, blockerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get blocked users: %w", err)
	}
	defer rows.Close()

	blocks := []*BlockedUser{}
	for rows.Next() {
		var block BlockedUser
		var user UserInfo
		err := rows.Scan(
			&block.ID, &block.BlockerID, &block.BlockedID, &block.Reason, &block.BlockedAt,
			&user.ID, &user.FullName, &user.Department, &user.ProfilePhotoURL, &user.Bio,
		)
		if err != nil {
			return nil, err
		}
		block.BlockedUser = &user
		blocks = append(blocks, &block)
	}

	return blocks, rows.Err()
}
