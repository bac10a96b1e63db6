package notification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Repository interface {
	// Notifications
	CreateNotification(ctx context.Context, notification *Notification) error
	GetUserNotifications(ctx context.Context, userID int64, limit, offset int, unreadOnly bool) ([]*Notification, error)
	GetUserNotificationCount(ctx context.Context, userID int64, unreadOnly bool) (int, error)
	MarkAsRead(ctx context.Context, userID int64, notificationIDs []int64) (int64, error)
	DeleteOldNotifications(ctx context.Context, before time.Time) (int64, error)

	// Push tokens
	SavePushToken(ctx context.Context, token *PushToken) error
	GetUserPushTokens(ctx context.Context, userID int64) ([]*PushToken, error)
	DeletePushToken(ctx context.Context, userID int64, deviceID string) error
	DeactivatePushTokens(ctx context.Context, tokens []string) error

	// Users
	GetUserName(ctx context.Context, userID int64) (string, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateNotification(ctx context.Context, notification *Notification) error {
	query := `
		INSERT INTO notifications (user_id, type, title, message, data, is_read)
		VALUES ($1, $2, $3, $4, $5, false)
		RETURNING id, created_at`

	err := r.db.QueryRowxContext(ctx, query,
		notification.UserID,
		notification.Type,
		notification.Title,
		notification.Message,
		notification.Data,
	).Scan(&notification.ID, &notification.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetUserNotifications(ctx context.Context, userID int64, limit, offset int, unreadOnly bool) ([]*Notification, error) {
	query := `
		SELECT id, user_id, type, title, message, data, is_read, read_at, created_at
		FROM notifications
		WHERE user_id = $1`

	if unreadOnly {
		query += " AND is_read = false"
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3"

	notifications := []*Notification{}
	if err := r.db.SelectContext(ctx, &notifications, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}
	return notifications, nil
}

func (r *postgresRepository) GetUserNotificationCount(ctx context.Context, userID int64, unreadOnly bool) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1`
	if unreadOnly {
		query += " AND is_read = false"
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

// MarkAsRead marks the given notifications read, or every unread one when ids is empty
func (r *postgresRepository) MarkAsRead(ctx context.Context, userID int64, notificationIDs []int64) (int64, error) {
	query := `
		UPDATE notifications
		SET is_read = true, read_at = NOW()
		WHERE user_id = $1 AND is_read = false`
	args := []interface{}{userID}

	if len(notificationIDs) > 0 {
		query += " AND id = ANY($2)"
		args = append(args, pq.Array(notificationIDs))
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return result.RowsAffected()
}

func (r *postgresRepository) DeleteOldNotifications(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old notifications: %w", err)
	}
	return result.RowsAffected()
}

func (r *postgresRepository) SavePushToken(ctx context.Context, token *PushToken) error {
	query := `
		INSERT INTO push_tokens (user_id, platform, token, device_id, is_active)
		VALUES ($1, $2, $3, $4, true)
		ON CONFLICT (user_id, device_id)
		DO UPDATE SET token = EXCLUDED.token, platform = EXCLUDED.platform, is_active = true, updated_at = NOW()
		RETURNING id, is_active, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		token.UserID, token.Platform, token.Token, token.DeviceID,
	).Scan(&token.ID, &token.IsActive, &token.CreatedAt, &token.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save push token: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetUserPushTokens(ctx context.Context, userID int64) ([]*PushToken, error) {
	query := `
		SELECT id, user_id, platform, token, device_id, is_active, created_at, updated_at
		FROM push_tokens
		WHERE user_id = $1 AND is_active = true`

	tokens := []*PushToken{}
	if err := r.db.SelectContext(ctx, &tokens, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get push tokens: %w", err)
	}
	return tokens, nil
}

func (r *postgresRepository) DeletePushToken(ctx context.Context, userID int64, deviceID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM push_tokens WHERE user_id = $1 AND device_id = $2`, userID, deviceID)
	if err != nil {
		return fmt.Errorf("failed to delete push token: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrPushTokenNotFound
	}
	return nil
}

func (r *postgresRepository) DeactivatePushTokens(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE push_tokens SET is_active = false, updated_at = NOW() WHERE token = ANY($1)`,
		pq.Array(tokens))
	if err != nil {
		return fmt.Errorf("failed to deactivate push tokens: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetUserName(ctx context.Context, userID int64) (string, error) {
	var name string
	err := r.db.GetContext(ctx, &name, `SELECT full_name FROM users WHERE id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("user %d not found", userID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get user name: %w", err)
	}
	return name, nil
}
