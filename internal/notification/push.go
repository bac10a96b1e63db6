package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// PushService delivers device push notifications
type PushService interface {
	SendPush(ctx context.Context, push *PushNotification) (*PushResult, error)
}

// FCMPushService implements push notifications using Firebase Cloud Messaging
type FCMPushService struct {
	client *messaging.Client
	log    logrus.FieldLogger
}

// NewFCMPushService initialises Firebase from a credentials file, or from inline JSON when no path is set
func NewFCMPushService(ctx context.Context, credentialsPath, credentialsJSON string, log logrus.FieldLogger) (*FCMPushService, error) {
	var opt option.ClientOption
	switch {
	case credentialsPath != "":
		opt = option.WithCredentialsFile(credentialsPath)
	case credentialsJSON != "":
		opt = option.WithCredentialsJSON([]byte(credentialsJSON))
	default:
		return nil, errors.New("firebase credentials path or JSON must be set")
	}

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	if log == nil {
		log = logrus.StandardLogger()
	}
	return &FCMPushService{client: client, log: log.WithField("component", "fcm")}, nil
}

func (s *FCMPushService) SendPush(ctx context.Context, push *PushNotification) (*PushResult, error) {
	if len(push.Tokens) == 0 {
		return nil, ErrNoPushTokens
	}

	data := make(map[string]string, len(push.Data)+2)
	for k, v := range push.Data {
		data[k] = v
	}
	data["title"] = push.Title
	data["body"] = push.Body

	android := &messaging.AndroidConfig{
		Priority: androidPriority(push.Priority),
		Notification: &messaging.AndroidNotification{
			Sound:       push.Sound,
			ClickAction: "FLUTTER_NOTIFICATION_CLICK",
		},
	}
	if push.CollapseKey != "" {
		android.CollapseKey = push.CollapseKey
	}

	badge := push.Badge
	message := &messaging.MulticastMessage{
		Tokens: push.Tokens,
		Notification: &messaging.Notification{
			Title: push.Title,
			Body:  push.Body,
		},
		Data:    data,
		Android: android,
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority": apnsPriority(push.Priority),
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: push.Title,
						Body:  push.Body,
					},
					Badge: &badge,
					Sound: push.Sound,
				},
			},
		},
	}

	batch, err := s.client.SendEachForMulticast(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("failed to send push notification: %w", err)
	}

	result := &PushResult{SuccessCount: batch.SuccessCount, FailureCount: batch.FailureCount}
	for idx, resp := range batch.Responses {
		if resp.Error == nil {
			continue
		}
		if messaging.IsUnregistered(resp.Error) || messaging.IsInvalidArgument(resp.Error) {
			result.InvalidTokens = append(result.InvalidTokens, push.Tokens[idx])
		}
		s.log.WithError(resp.Error).Debug("push delivery to token failed")
	}

	if batch.FailureCount > 0 {
		s.log.WithFields(logrus.Fields{
			"failed": batch.FailureCount,
			"total":  len(push.Tokens),
		}).Warn("some push notifications failed")
	}
	return result, nil
}

func androidPriority(priority Priority) string {
	if priority == PriorityLow {
		return "normal"
	}
	return "high"
}

func apnsPriority(priority Priority) string {
	if priority == PriorityLow {
		return "5"
	}
	return "10"
}

// MockPushService records pushes instead of sending them; used when push is disabled
type MockPushService struct {
	mu   sync.Mutex
	sent []*PushNotification
	log  logrus.FieldLogger
}

func NewMockPushService(log logrus.FieldLogger) *MockPushService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &MockPushService{log: log.WithField("component", "mock_push")}
}

func (m *MockPushService) SendPush(_ context.Context, push *PushNotification) (*PushResult, error) {
	if len(push.Tokens) == 0 {
		return nil, ErrNoPushTokens
	}

	m.mu.Lock()
	m.sent = append(m.sent, push)
	m.mu.Unlock()

	m.log.WithFields(logrus.Fields{
		"devices": len(push.Tokens),
		"title":   push.Title,
	}).Debug("push notification recorded")
	return &PushResult{SuccessCount: len(push.Tokens)}, nil
}

// Sent returns a copy of every recorded push
func (m *MockPushService) Sent() []*PushNotification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*PushNotification(nil), m.sent...)
}
