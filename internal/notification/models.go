package notification

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// NotificationType represents the kinds of notifications the matching flow produces
type NotificationType string

const (
	TypeLike      NotificationType = "new_like"
	TypeSuperlike NotificationType = "new_superlike"
	TypeMatch     NotificationType = "new_match"
)

// Platform represents device platforms
type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
	PlatformWeb     Platform = "web"
)

// Priority represents notification priority levels
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrPushTokenNotFound    = errors.New("push token not found")
	ErrNoPushTokens         = errors.New("no push tokens provided")
)

// Notification is an in-app notification row
type Notification struct {
	ID        int64            `json:"id" db:"id"`
	UserID    int64            `json:"user_id" db:"user_id"`
	Type      NotificationType `json:"type" db:"type"`
	Title     string           `json:"title" db:"title"`
	Message   string           `json:"message" db:"message"`
	Data      NotificationData `json:"data" db:"data"`
	IsRead    bool             `json:"is_read" db:"is_read"`
	ReadAt    *time.Time       `json:"read_at,omitempty" db:"read_at"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}

// NotificationData holds the type-specific payload stored as JSONB
type NotificationData map[string]interface{}

func (nd *NotificationData) Scan(value interface{}) error {
	if value == nil {
		*nd = make(NotificationData)
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("notification data: unsupported scan type")
	}
	return json.Unmarshal(raw, nd)
}

func (nd NotificationData) Value() (driver.Value, error) {
	if nd == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(nd)
}

// PushToken represents a registered device token
type PushToken struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Platform  Platform  `json:"platform" db:"platform"`
	Token     string    `json:"token" db:"token"`
	DeviceID  string    `json:"device_id" db:"device_id"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// PushNotification is a single push request fanned out to every token of a user
type PushNotification struct {
	Tokens      []string          `json:"tokens"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Data        map[string]string `json:"data,omitempty"`
	Badge       int               `json:"badge,omitempty"`
	Sound       string            `json:"sound,omitempty"`
	Priority    Priority          `json:"priority,omitempty"`
	CollapseKey string            `json:"collapse_key,omitempty"`
}

// PushResult reports delivery counts and the tokens FCM rejected as unregistered
type PushResult struct {
	SuccessCount  int      `json:"success_count"`
	FailureCount  int      `json:"failure_count"`
	InvalidTokens []string `json:"invalid_tokens,omitempty"`
}

// WSMessage is the envelope written to websocket clients
type WSMessage struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// Request DTOs

type RegisterPushTokenRequest struct {
	Token    string   `json:"token" validate:"required"`
	Platform Platform `json:"platform" validate:"required,oneof=ios android web"`
	DeviceID string   `json:"device_id" validate:"required,max=255"`
}

type UnregisterPushTokenRequest struct {
	DeviceID string `json:"device_id" validate:"required"`
}

type MarkReadRequest struct {
	NotificationIDs []int64 `json:"notification_ids" validate:"omitempty,dive,gt=0"`
}

// Response DTOs

type NotificationsResponse struct {
	Notifications []*Notification `json:"notifications"`
	TotalCount    int             `json:"total_count"`
	UnreadCount   int             `json:"unread_count"`
	HasMore       bool            `json:"has_more"`
}
