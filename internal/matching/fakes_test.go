package matching

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/imadgeboyega/projectmatch-backend/internal/cache"
	"github.com/imadgeboyega/projectmatch-backend/internal/compatibility"
)

// fakeRepo is an in-memory Repository
type fakeRepo struct {
	mu sync.Mutex

	users      map[int64]*UserInfo
	profiles   map[int64]*UserProfile
	completed  map[int64]bool
	swipes     map[int64]*Swipe
	matches    map[int64]*Match
	blocks     []*BlockedUser
	candidates []*UserProfile

	nextSwipeID int64
	nextMatchID int64
	nextBlockID int64
	findCalls   int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:     map[int64]*UserInfo{},
		profiles:  map[int64]*UserProfile{},
		completed: map[int64]bool{},
		swipes:    map[int64]*Swipe{},
		matches:   map[int64]*Match{},
	}
}

func (f *fakeRepo) addUser(id int64, profile *UserProfile) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.users[id] = &UserInfo{ID: id, FullName: "User"}
	if profile != nil {
		profile.UserID = id
		f.profiles[id] = profile
	}
}

func (f *fakeRepo) GetUserInfo(_ context.Context, userID int64) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (f *fakeRepo) GetProfile(_ context.Context, userID int64) (*UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.users[userID]; !ok {
		return nil, ErrUserNotFound
	}
	profile, ok := f.profiles[userID]
	if !ok {
		return &UserProfile{UserID: userID, Skills: StringList{}, Interests: StringList{}}, nil
	}
	clone := *profile
	return &clone, nil
}

func (f *fakeRepo) SaveProfile(_ context.Context, profile *UserProfile, completed bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	clone := *profile
	f.profiles[profile.UserID] = &clone
	f.completed[profile.UserID] = completed
	return nil
}

func (f *fakeRepo) SaveQuizResults(_ context.Context, userID int64, answers RatingMap) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	profile, ok := f.profiles[userID]
	if !ok {
		profile = &UserProfile{UserID: userID}
		f.profiles[userID] = profile
	}
	profile.QuizResults = answers
	profile.QuizComplete = true
	return nil
}

func (f *fakeRepo) FindCandidates(_ context.Context, _ int64, filters *CandidateFilters) ([]*UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.findCalls++
	out := make([]*UserProfile, 0, len(f.candidates))
	for _, c := range f.candidates {
		if filters.Department != "" && (c.Department == nil || *c.Department != filters.Department) {
			continue
		}
		out = append(out, c)
		if len(out) == filters.Limit {
			break
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateSwipe(_ context.Context, swipe *Swipe) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, s := range f.swipes {
		if s.SwiperID == swipe.SwiperID && s.SwipedID == swipe.SwipedID {
			return ErrAlreadySwiped
		}
	}
	f.nextSwipeID++
	swipe.ID = f.nextSwipeID
	swipe.CreatedAt = time.Now()
	clone := *swipe
	f.swipes[swipe.ID] = &clone
	return nil
}

func (f *fakeRepo) GetSwipe(_ context.Context, id int64) (*Swipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	swipe, ok := f.swipes[id]
	if !ok {
		return nil, ErrSwipeNotFound
	}
	clone := *swipe
	return &clone, nil
}

func (f *fakeRepo) FindSwipe(_ context.Context, swiperID, swipedID int64) (*Swipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, s := range f.swipes {
		if s.SwiperID == swiperID && s.SwipedID == swipedID {
			clone := *s
			return &clone, nil
		}
	}
	return nil, ErrSwipeNotFound
}

func (f *fakeRepo) HasPositiveSwipe(_ context.Context, swiperID, swipedID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, s := range f.swipes {
		if s.SwiperID == swiperID && s.SwipedID == swipedID && s.Action.IsPositive() {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) DeleteSwipe(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.swipes[id]; !ok {
		return ErrSwipeNotFound
	}
	delete(f.swipes, id)
	return nil
}

func (f *fakeRepo) GetSwipeHistory(_ context.Context, userID int64, params *SwipeHistoryParams) ([]*Swipe, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []*Swipe{}
	for _, s := range f.swipes {
		own := s.SwiperID
		if params.Type == "received" {
			own = s.SwipedID
		}
		if own != userID || (params.Action != "" && string(s.Action) != params.Action) {
			continue
		}
		out = append(out, s)
	}
	return out, len(out), nil
}

func (f *fakeRepo) GetSwipeStats(_ context.Context, userID int64) (*SwipeStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stats := &SwipeStats{}
	for _, s := range f.swipes {
		switch {
		case s.SwiperID == userID && s.Action.IsPositive():
			stats.LikesGiven++
			if s.Action == ActionSuperlike {
				stats.SuperlikesGiven++
			}
		case s.SwiperID == userID:
			stats.PassesGiven++
		case s.SwipedID == userID && s.Action.IsPositive():
			stats.LikesReceived++
		}
	}
	for _, m := range f.matches {
		if m.Involves(userID) {
			stats.TotalMatches++
		}
	}
	return stats, nil
}

func (f *fakeRepo) CreateMatch(_ context.Context, match *Match) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	match.User1ID, match.User2ID = orderedPair(match.User1ID, match.User2ID)
	for _, m := range f.matches {
		if m.User1ID == match.User1ID && m.User2ID == match.User2ID {
			*match = *m
			return false, nil
		}
	}
	f.nextMatchID++
	match.ID = f.nextMatchID
	match.MatchedAt = time.Now()
	clone := *match
	f.matches[match.ID] = &clone
	return true, nil
}

func (f *fakeRepo) GetMatch(_ context.Context, id int64) (*Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	match, ok := f.matches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	clone := *match
	return &clone, nil
}

func (f *fakeRepo) GetMatchBetween(_ context.Context, user1ID, user2ID int64) (*Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user1ID, user2ID = orderedPair(user1ID, user2ID)
	for _, m := range f.matches {
		if m.User1ID == user1ID && m.User2ID == user2ID {
			clone := *m
			return &clone, nil
		}
	}
	return nil, ErrMatchNotFound
}

func (f *fakeRepo) GetUserMatches(_ context.Context, userID int64) ([]*Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []*Match{}
	for _, m := range f.matches {
		if m.Involves(userID) {
			clone := *m
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeRepo) DeleteMatch(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.matches[id]; !ok {
		return ErrMatchNotFound
	}
	delete(f.matches, id)
	return nil
}

func (f *fakeRepo) IsBlocked(_ context.Context, user1ID, user2ID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, b := range f.blocks {
		if (b.BlockerID == user1ID && b.BlockedID == user2ID) ||
			(b.BlockerID == user2ID && b.BlockedID == user1ID) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) BlockUser(_ context.Context, block *BlockedUser) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, b := range f.blocks {
		if b.BlockerID == block.BlockerID && b.BlockedID == block.BlockedID {
			return ErrAlreadyBlocked
		}
	}
	f.nextBlockID++
	block.ID = f.nextBlockID
	block.BlockedAt = time.Now()
	f.blocks = append(f.blocks, block)
	return nil
}

func (f *fakeRepo) UnblockUser(_ context.Context, blockerID, blockedID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, b := range f.blocks {
		if b.BlockerID == blockerID && b.BlockedID == blockedID {
			f.blocks = append(f.blocks[:i], f.blocks[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) GetBlockedUsers(_ context.Context, blockerID int64) ([]*BlockedUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []*BlockedUser{}
	for _, b := range f.blocks {
		if b.BlockerID == blockerID {
			out = append(out, b)
		}
	}
	return out, nil
}

type likeCall struct {
	likerID, likedID int64
	superlike        bool
}

type matchCall struct {
	matchID, user1ID, user2ID int64
	score                     float64
}

// fakeNotifier records notifications; err makes every call fail after recording
type fakeNotifier struct {
	mu      sync.Mutex
	likes   []likeCall
	matches []matchCall
	err     error
}

func (n *fakeNotifier) SendLikeNotification(_ context.Context, likerID, likedID int64, superlike bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.likes = append(n.likes, likeCall{likerID, likedID, superlike})
	return n.err
}

func (n *fakeNotifier) SendMatchNotification(_ context.Context, matchID, user1ID, user2ID int64, score float64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.matches = append(n.matches, matchCall{matchID, user1ID, user2ID, score})
	return n.err
}

func (n *fakeNotifier) likeCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.likes)
}

func (n *fakeNotifier) matchCalls() []matchCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]matchCall(nil), n.matches...)
}

var errDeliveryFailed = errors.New("delivery failed")

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestService(repo *fakeRepo, notifier Notifier) *service {
	return newServiceWithRepo(repo, notifier)
}

func newServiceWithRepo(repo Repository, notifier Notifier) *service {
	log := quietLogger()
	backend := cache.NewMemoryBackend(100, time.Hour)
	svc := NewService(
		repo,
		compatibility.NewEngine(),
		cache.NewCompatibilityCache(backend, time.Hour, log),
		cache.NewFeedCache(backend, 5*time.Minute, log),
		notifier,
		Options{FeedPoolSize: 10, FeedLimit: 3},
		log,
	)
	return svc.(*service)
}

var errStoreUnavailable = errors.New("store unavailable")

// flakyRepo fails the next N match writes or positive-swipe lookups
type flakyRepo struct {
	*fakeRepo

	createMatchFailures int
	positiveFailures    int
}

func (f *flakyRepo) CreateMatch(ctx context.Context, match *Match) (bool, error) {
	if f.createMatchFailures > 0 {
		f.createMatchFailures--
		return false, errStoreUnavailable
	}
	return f.fakeRepo.CreateMatch(ctx, match)
}

func (f *flakyRepo) HasPositiveSwipe(ctx context.Context, swiperID, swipedID int64) (bool, error) {
	if f.positiveFailures > 0 {
		f.positiveFailures--
		return false, errStoreUnavailable
	}
	return f.fakeRepo.HasPositiveSwipe(ctx, swiperID, swipedID)
}

func profileWith(skills, interests []string) *UserProfile {
	return &UserProfile{Skills: skills, Interests: interests}
}

func strPtr(s string) *string { return &s }
