package notification

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Realtime pushes events to connected clients. *Hub implements it.
type Realtime interface {
	SendToUser(userID int64, eventType string, payload interface{}) (int, error)
}

type Service interface {
	// Matching events
	SendLikeNotification(ctx context.Context, likerID, likedID int64, superlike bool) error
	SendMatchNotification(ctx context.Context, matchID, user1ID, user2ID int64, score float64) error

	// Inbox
	GetNotifications(ctx context.Context, userID int64, limit, offset int, unreadOnly bool) (*NotificationsResponse, error)
	MarkAsRead(ctx context.Context, userID int64, notificationIDs []int64) (int64, error)

	// Devices
	RegisterPushToken(ctx context.Context, userID int64, req *RegisterPushTokenRequest) (*PushToken, error)
	UnregisterPushToken(ctx context.Context, userID int64, deviceID string) error

	// Maintenance
	CleanupOldNotifications(ctx context.Context, olderThan time.Duration) (int64, error)
}

type service struct {
	repo     Repository
	realtime Realtime
	push     PushService
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewService wires the in-app store with optional realtime and push channels; either may be nil
func NewService(repo Repository, realtime Realtime, push PushService, log logrus.FieldLogger) Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &service{
		repo:     repo,
		realtime: realtime,
		push:     push,
		log:      log.WithField("component", "notification_service"),
		now:      time.Now,
	}
}

func (s *service) SendLikeNotification(ctx context.Context, likerID, likedID int64, superlike bool) error {
	name := s.displayName(ctx, likerID)

	n := &Notification{
		UserID:  likedID,
		Type:    TypeLike,
		Title:   "New Like!",
		Message: fmt.Sprintf("%s liked your profile!", name),
		Data: NotificationData{
			"swiper_id":   likerID,
			"swiper_name": name,
		},
	}
	if superlike {
		n.Type = TypeSuperlike
		n.Title = "New Superlike!"
		n.Message = fmt.Sprintf("%s superliked your profile!", name)
	}

	return s.deliver(ctx, n, PriorityMedium)
}

// SendMatchNotification notifies both participants; each side is attempted even if the other fails
func (s *service) SendMatchNotification(ctx context.Context, matchID, user1ID, user2ID int64, score float64) error {
	var errs []error
	for _, pair := range [][2]int64{{user1ID, user2ID}, {user2ID, user1ID}} {
		recipient, other := pair[0], pair[1]
		name := s.displayName(ctx, other)

		n := &Notification{
			UserID:  recipient,
			Type:    TypeMatch,
			Title:   "New Match!",
			Message: fmt.Sprintf("You matched with %s! Compatibility: %s%%", name, formatScore(score)),
			Data: NotificationData{
				"match_id":            matchID,
				"matched_user_id":     other,
				"matched_user_name":   name,
				"compatibility_score": score,
			},
		}
		if err := s.deliver(ctx, n, PriorityHigh); err != nil {
			errs = append(errs, fmt.Errorf("user %d: %w", recipient, err))
		}
	}
	return errors.Join(errs...)
}

// deliver stores the notification, then fans it out over websocket and push.
// Only a failed insert is returned; realtime and push failures are logged and counted.
func (s *service) deliver(ctx context.Context, n *Notification, priority Priority) error {
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		recordFailure(channelInApp)
		return err
	}
	recordSent(n.Type, channelInApp)

	logger := s.log.WithFields(logrus.Fields{
		"notification_id": n.ID,
		"user_id":         n.UserID,
		"type":            n.Type,
	})

	if s.realtime != nil {
		delivered, err := s.realtime.SendToUser(n.UserID, string(n.Type), n)
		switch {
		case err != nil:
			recordFailure(channelRealtime)
			logger.WithError(err).Warn("realtime delivery failed")
		case delivered > 0:
			recordSent(n.Type, channelRealtime)
		}
	}

	if s.push != nil {
		s.sendPush(ctx, n, priority, logger)
	}
	return nil
}

func (s *service) sendPush(ctx context.Context, n *Notification, priority Priority, logger logrus.FieldLogger) {
	tokens, err := s.repo.GetUserPushTokens(ctx, n.UserID)
	if err != nil {
		recordFailure(channelPush)
		logger.WithError(err).Warn("failed to load push tokens")
		return
	}
	if len(tokens) == 0 {
		return
	}

	values := make([]string, len(tokens))
	for i, t := range tokens {
		values[i] = t.Token
	}

	result, err := s.push.SendPush(ctx, &PushNotification{
		Tokens:      values,
		Title:       n.Title,
		Body:        n.Message,
		Sound:       "default",
		Priority:    priority,
		CollapseKey: string(n.Type),
		Data: map[string]string{
			"notification_id": strconv.FormatInt(n.ID, 10),
			"type":            string(n.Type),
		},
	})
	if err != nil {
		recordFailure(channelPush)
		logger.WithError(err).Warn("push delivery failed")
		return
	}

	if result.SuccessCount > 0 {
		recordSent(n.Type, channelPush)
	}
	if len(result.InvalidTokens) > 0 {
		if err := s.repo.DeactivatePushTokens(ctx, result.InvalidTokens); err != nil {
			logger.WithError(err).Warn("failed to deactivate invalid push tokens")
		}
	}
}

func (s *service) displayName(ctx context.Context, userID int64) string {
	name, err := s.repo.GetUserName(ctx, userID)
	if err != nil || name == "" {
		if err != nil {
			s.log.WithError(err).WithField("user_id", userID).Debug("falling back to generic name")
		}
		return "Someone"
	}
	return name
}

func (s *service) GetNotifications(ctx context.Context, userID int64, limit, offset int, unreadOnly bool) (*NotificationsResponse, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	notifications, err := s.repo.GetUserNotifications(ctx, userID, limit, offset, unreadOnly)
	if err != nil {
		return nil, err
	}

	total, err := s.repo.GetUserNotificationCount(ctx, userID, unreadOnly)
	if err != nil {
		return nil, err
	}

	unread := total
	if !unreadOnly {
		unread, err = s.repo.GetUserNotificationCount(ctx, userID, true)
		if err != nil {
			return nil, err
		}
	}

	return &NotificationsResponse{
		Notifications: notifications,
		TotalCount:    total,
		UnreadCount:   unread,
		HasMore:       offset+len(notifications) < total,
	}, nil
}

func (s *service) MarkAsRead(ctx context.Context, userID int64, notificationIDs []int64) (int64, error) {
	updated, err := s.repo.MarkAsRead(ctx, userID, notificationIDs)
	if err != nil {
		return 0, err
	}
	if len(notificationIDs) == 1 && updated == 0 {
		return 0, ErrNotificationNotFound
	}
	return updated, nil
}

func (s *service) RegisterPushToken(ctx context.Context, userID int64, req *RegisterPushTokenRequest) (*PushToken, error) {
	token := &PushToken{
		UserID:   userID,
		Platform: req.Platform,
		Token:    req.Token,
		DeviceID: req.DeviceID,
	}
	if err := s.repo.SavePushToken(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

func (s *service) UnregisterPushToken(ctx context.Context, userID int64, deviceID string) error {
	return s.repo.DeletePushToken(ctx, userID, deviceID)
}

func (s *service) CleanupOldNotifications(ctx context.Context, olderThan time.Duration) (int64, error) {
	removed, err := s.repo.DeleteOldNotifications(ctx, s.now().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	notificationsCleaned.Add(float64(removed))
	return removed, nil
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}
