package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendLikeNotification(t *testing.T) {
	repo := newFakeRepo()
	repo.names[1] = "Ada Lovelace"
	realtime := &fakeRealtime{online: map[int64]bool{2: true}}
	svc := NewService(repo, realtime, nil, quietLogger())

	require.NoError(t, svc.SendLikeNotification(context.Background(), 1, 2, false))
	require.NoError(t, svc.SendLikeNotification(context.Background(), 3, 2, true))

	require.Len(t, repo.notifications, 2)

	like := repo.notifications[0]
	assert.Equal(t, int64(2), like.UserID)
	assert.Equal(t, TypeLike, like.Type)
	assert.Equal(t, "Ada Lovelace liked your profile!", like.Message)
	assert.Equal(t, int64(1), like.Data["swiper_id"])

	superlike := repo.notifications[1]
	assert.Equal(t, TypeSuperlike, superlike.Type)
	assert.Equal(t, "Someone superliked your profile!", superlike.Message)

	assert.Equal(t, []realtimeEvent{{2, "new_like"}, {2, "new_superlike"}}, realtime.events)
}

func TestSendMatchNotificationNotifiesBothUsers(t *testing.T) {
	repo := newFakeRepo()
	repo.names[1] = "Ada"
	repo.names[2] = "Grace"
	svc := NewService(repo, nil, nil, quietLogger())

	require.NoError(t, svc.SendMatchNotification(context.Background(), 9, 1, 2, 71.43))
	require.Len(t, repo.notifications, 2)

	first, second := repo.notifications[0], repo.notifications[1]
	assert.Equal(t, int64(1), first.UserID)
	assert.Equal(t, "You matched with Grace! Compatibility: 71.43%", first.Message)
	assert.Equal(t, int64(2), first.Data["matched_user_id"])
	assert.Equal(t, int64(9), first.Data["match_id"])

	assert.Equal(t, int64(2), second.UserID)
	assert.Equal(t, "You matched with Ada! Compatibility: 71.43%", second.Message)
	assert.Equal(t, 71.43, second.Data["compatibility_score"])
}

func TestSendMatchNotificationReportsStoreFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.createErr = errors.New("db down")
	svc := NewService(repo, nil, nil, quietLogger())

	err := svc.SendMatchNotification(context.Background(), 1, 1, 2, 50)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user 1")
	assert.Contains(t, err.Error(), "user 2")
}

func TestPushDelivery(t *testing.T) {
	repo := newFakeRepo()
	push := NewMockPushService(quietLogger())
	svc := NewService(repo, nil, push, quietLogger())

	_, err := svc.RegisterPushToken(context.Background(), 2, &RegisterPushTokenRequest{
		Token: "tok-a", Platform: PlatformAndroid, DeviceID: "pixel",
	})
	require.NoError(t, err)

	require.NoError(t, svc.SendLikeNotification(context.Background(), 1, 2, false))
	require.NoError(t, svc.SendLikeNotification(context.Background(), 1, 5, false))

	sent := push.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"tok-a"}, sent[0].Tokens)
	assert.Equal(t, "New Like!", sent[0].Title)
	assert.Equal(t, "new_like", sent[0].Data["type"])
}

func TestInvalidPushTokensAreDeactivated(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, rejectingPush{}, quietLogger())

	_, err := svc.RegisterPushToken(context.Background(), 2, &RegisterPushTokenRequest{
		Token: "stale", Platform: PlatformIOS, DeviceID: "phone",
	})
	require.NoError(t, err)

	require.NoError(t, svc.SendLikeNotification(context.Background(), 1, 2, false))
	assert.Equal(t, []string{"stale"}, repo.deactivated)

	tokens, err := repo.GetUserPushTokens(context.Background(), 2)
	require.NoError(t, err)
	assert.Empty(t, tokens)
}

func TestGetNotificationsAndMarkRead(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil, quietLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.SendLikeNotification(ctx, int64(10+i), 1, false))
	}

	page, err := svc.GetNotifications(ctx, 1, 2, 0, false)
	require.NoError(t, err)
	assert.Len(t, page.Notifications, 2)
	assert.Equal(t, 3, page.TotalCount)
	assert.Equal(t, 3, page.UnreadCount)
	assert.True(t, page.HasMore)
	assert.Equal(t, int64(3), page.Notifications[0].ID)

	updated, err := svc.MarkAsRead(ctx, 1, []int64{3})
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)

	_, err = svc.MarkAsRead(ctx, 1, []int64{3})
	assert.ErrorIs(t, err, ErrNotificationNotFound)

	unread, err := svc.GetNotifications(ctx, 1, 0, 0, true)
	require.NoError(t, err)
	assert.Len(t, unread.Notifications, 2)
	assert.Equal(t, 2, unread.UnreadCount)
	assert.False(t, unread.HasMore)

	updated, err = svc.MarkAsRead(ctx, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)
}

func TestUnregisterPushToken(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil, quietLogger())
	ctx := context.Background()

	_, err := svc.RegisterPushToken(ctx, 4, &RegisterPushTokenRequest{
		Token: "tok", Platform: PlatformWeb, DeviceID: "browser",
	})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.UnregisterPushToken(ctx, 5, "browser"), ErrPushTokenNotFound)
	assert.NoError(t, svc.UnregisterPushToken(ctx, 4, "browser"))
}

func TestCleanupOldNotifications(t *testing.T) {
	repo := newFakeRepo()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo.notifications = []*Notification{
		{ID: 1, UserID: 1, CreatedAt: now.Add(-40 * 24 * time.Hour)},
		{ID: 2, UserID: 1, CreatedAt: now.Add(-time.Hour)},
	}

	svc := NewService(repo, nil, nil, quietLogger()).(*service)
	svc.now = func() time.Time { return now }

	removed, err := svc.CleanupOldNotifications(context.Background(), 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	require.Len(t, repo.notifications, 1)
	assert.Equal(t, int64(2), repo.notifications[0].ID)
}
