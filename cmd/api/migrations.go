package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// migrations are idempotent and run in order on every start
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		email VARCHAR(255) UNIQUE NOT NULL,
		full_name VARCHAR(255) NOT NULL,
		department VARCHAR(255),
		bio TEXT,
		profile_photo_url TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		profile_completed BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS user_profiles (
		user_id BIGINT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		skills JSONB NOT NULL DEFAULT '[]'::jsonb,
		interests JSONB NOT NULL DEFAULT '[]'::jsonb,
		project_types JSONB NOT NULL DEFAULT '[]'::jsonb,
		work_style JSONB NOT NULL DEFAULT '{}'::jsonb,
		quiz_results JSONB NOT NULL DEFAULT '{}'::jsonb,
		looking_for TEXT NOT NULL DEFAULT '',
		availability VARCHAR(50),
		quiz_completed BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS swipes (
		id BIGSERIAL PRIMARY KEY,
		swiper_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		swiped_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		action VARCHAR(20) NOT NULL CHECK (action IN ('like', 'pass', 'superlike')),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT unique_swipe UNIQUE (swiper_id, swiped_id),
		CONSTRAINT no_self_swipe CHECK (swiper_id <> swiped_id)
	)`,

	`CREATE TABLE IF NOT EXISTS matches (
		id BIGSERIAL PRIMARY KEY,
		user1_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		user2_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		compatibility_score NUMERIC(5,2) NOT NULL DEFAULT 0,
		matched_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT unique_match UNIQUE (user1_id, user2_id),
		CONSTRAINT ordered_pair CHECK (user1_id < user2_id)
	)`,

	`CREATE TABLE IF NOT EXISTS blocked_users (
		id BIGSERIAL PRIMARY KEY,
		blocker_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		blocked_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		reason TEXT,
		blocked_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT unique_block UNIQUE (blocker_id, blocked_id)
	)`,

	`CREATE TABLE IF NOT EXISTS notifications (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		type VARCHAR(50) NOT NULL,
		title VARCHAR(255) NOT NULL,
		message TEXT NOT NULL,
		data JSONB NOT NULL DEFAULT '{}'::jsonb,
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		read_at TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS push_tokens (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token TEXT NOT NULL,
		platform VARCHAR(20) NOT NULL,
		device_id VARCHAR(255) NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT unique_user_device UNIQUE (user_id, device_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_users_department ON users(department) WHERE is_active`,
	`CREATE INDEX IF NOT EXISTS idx_user_profiles_skills ON user_profiles USING GIN (skills)`,
	`CREATE INDEX IF NOT EXISTS idx_swipes_swiped ON swipes(swiped_id, action)`,
	`CREATE INDEX IF NOT EXISTS idx_matches_user2 ON matches(user2_id)`,
	`CREATE INDEX IF NOT EXISTS idx_blocked_users_blocked ON blocked_users(blocked_id)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_created ON notifications(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_push_tokens_token ON push_tokens(token)`,
}

// runMigrations executes database migrations
func runMigrations(ctx context.Context, db *sqlx.DB, log logrus.FieldLogger) error {
	for i, migration := range migrations {
		if _, err := db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	log.WithField("count", len(migrations)).Info("database migrations applied")
	return nil
}
