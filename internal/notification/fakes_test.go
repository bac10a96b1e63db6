package notification

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type fakeRepo struct {
	mu sync.Mutex

	names         map[int64]string
	notifications []*Notification
	tokens        []*PushToken
	deactivated   []string
	createErr     error
	nextID        int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{names: map[int64]string{}}
}

func (f *fakeRepo) CreateNotification(_ context.Context, n *Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	n.ID = f.nextID
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	f.notifications = append(f.notifications, n)
	return nil
}

func (f *fakeRepo) forUser(userID int64, unreadOnly bool) []*Notification {
	out := []*Notification{}
	for i := len(f.notifications) - 1; i >= 0; i-- {
		n := f.notifications[i]
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		out = append(out, n)
	}
	return out
}

func (f *fakeRepo) GetUserNotifications(_ context.Context, userID int64, limit, offset int, unreadOnly bool) ([]*Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	all := f.forUser(userID, unreadOnly)
	if offset >= len(all) {
		return []*Notification{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (f *fakeRepo) GetUserNotificationCount(_ context.Context, userID int64, unreadOnly bool) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.forUser(userID, unreadOnly)), nil
}

func (f *fakeRepo) MarkAsRead(_ context.Context, userID int64, ids []int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	wanted := map[int64]bool{}
	for _, id := range ids {
		wanted[id] = true
	}

	var updated int64
	for _, n := range f.notifications {
		if n.UserID != userID || n.IsRead || (len(ids) > 0 && !wanted[n.ID]) {
			continue
		}
		now := time.Now()
		n.IsRead = true
		n.ReadAt = &now
		updated++
	}
	return updated, nil
}

func (f *fakeRepo) DeleteOldNotifications(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	kept := f.notifications[:0]
	var removed int64
	for _, n := range f.notifications {
		if n.CreatedAt.Before(before) {
			removed++
			continue
		}
		kept = append(kept, n)
	}
	f.notifications = kept
	return removed, nil
}

func (f *fakeRepo) SavePushToken(_ context.Context, token *PushToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, t := range f.tokens {
		if t.UserID == token.UserID && t.DeviceID == token.DeviceID {
			t.Token, t.Platform, t.IsActive = token.Token, token.Platform, true
			*token = *t
			return nil
		}
	}
	token.ID = int64(len(f.tokens) + 1)
	token.IsActive = true
	clone := *token
	f.tokens = append(f.tokens, &clone)
	return nil
}

func (f *fakeRepo) GetUserPushTokens(_ context.Context, userID int64) ([]*PushToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []*PushToken{}
	for _, t := range f.tokens {
		if t.UserID == userID && t.IsActive {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeRepo) DeletePushToken(_ context.Context, userID int64, deviceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, t := range f.tokens {
		if t.UserID == userID && t.DeviceID == deviceID {
			f.tokens = append(f.tokens[:i], f.tokens[i+1:]...)
			return nil
		}
	}
	return ErrPushTokenNotFound
}

func (f *fakeRepo) DeactivatePushTokens(_ context.Context, tokens []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, value := range tokens {
		for _, t := range f.tokens {
			if t.Token == value {
				t.IsActive = false
			}
		}
		f.deactivated = append(f.deactivated, value)
	}
	return nil
}

func (f *fakeRepo) GetUserName(_ context.Context, userID int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	name, ok := f.names[userID]
	if !ok {
		return "", errors.New("user not found")
	}
	return name, nil
}

type realtimeEvent struct {
	userID    int64
	eventType string
}

type fakeRealtime struct {
	mu     sync.Mutex
	events []realtimeEvent
	online map[int64]bool
}

func (r *fakeRealtime) SendToUser(userID int64, eventType string, _ interface{}) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, realtimeEvent{userID, eventType})
	if r.online[userID] {
		return 1, nil
	}
	return 0, nil
}

// rejectingPush reports every token as unregistered
type rejectingPush struct{}

func (rejectingPush) SendPush(_ context.Context, push *PushNotification) (*PushResult, error) {
	return &PushResult{FailureCount: len(push.Tokens), InvalidTokens: push.Tokens}, nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
