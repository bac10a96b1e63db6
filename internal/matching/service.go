// internal/matching/service.go

package matching

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/imadgeboyega/projectmatch-backend/internal/cache"
	"github.com/imadgeboyega/projectmatch-backend/internal/compatibility"
)

var (
	ErrCannotSwipeSelf   = errors.New("you cannot swipe on yourself")
	ErrCannotBlockSelf   = errors.New("you cannot block yourself")
	ErrSameUser          = errors.New("cannot compare a user with themselves")
	ErrAlreadySwiped     = errors.New("you have already swiped on this user")
	ErrUserBlocked       = errors.New("cannot interact with this user")
	ErrAlreadyBlocked    = errors.New("user already blocked")
	ErrNotBlocked        = errors.New("user is not blocked")
	ErrUserNotFound      = errors.New("user not found")
	ErrSwipeNotFound     = errors.New("swipe not found")
	ErrUndoWindowExpired = errors.New("swipe can no longer be undone")
	ErrUndoMatched       = errors.New("cannot undo swipe that resulted in a match")
	ErrMatchNotFound     = errors.New("match not found")
	ErrNotMatched        = errors.New("not matched with this user")
)

// Notifier delivers like and match notifications. Calls are made off the
// request path and their errors never undo a swipe or a match.
type Notifier interface {
	SendLikeNotification(ctx context.Context, likerID, likedID int64, superlike bool) error
	SendMatchNotification(ctx context.Context, matchID, user1ID, user2ID int64, score float64) error
}

type Service interface {
	// Swiping
	Swipe(ctx context.Context, userID int64, dto *SwipeDTO) (*SwipeResult, error)
	UndoSwipe(ctx context.Context, userID, swipeID int64) error
	CheckForMatch(ctx context.Context, user1ID, user2ID int64) (bool, error)
	GetSwipeHistory(ctx context.Context, userID int64, params *SwipeHistoryParams) (*SwipeHistory, error)
	GetSwipeStats(ctx context.Context, userID int64) (*SwipeStats, error)

	// Discovery
	Discover(ctx context.Context, userID int64, params *DiscoverParams) ([]*FeedEntry, error)
	GetCompatibility(ctx context.Context, userID, otherUserID int64) (*CompatibilityReport, error)

	// Matches
	GetMatches(ctx context.Context, userID int64) ([]*Match, error)
	GetMatchCompatibility(ctx context.Context, matchID, userID int64) (*CompatibilityReport, error)
	GetMatchStats(ctx context.Context, userID int64) (*MatchStats, error)
	Unmatch(ctx context.Context, matchID, userID int64) error

	// Blocking
	BlockUser(ctx context.Context, userID, blockedID int64, reason string) error
	UnblockUser(ctx context.Context, userID, blockedID int64) error
	GetBlockedUsers(ctx context.Context, userID int64) ([]*BlockedUser, error)

	// Profile
	GetProfile(ctx context.Context, userID int64) (*UserProfile, error)
	UpdateProfile(ctx context.Context, userID int64, dto *UpdateProfileDTO) (*UserProfile, error)
	SubmitQuiz(ctx context.Context, userID int64, dto *SubmitQuizDTO) (*UserProfile, error)
}

// Options tunes discovery and undo behaviour
type Options struct {
	FeedPoolSize  int
	FeedLimit     int
	UndoWindow    time.Duration
	NotifyTimeout time.Duration
}

const (
	defaultFeedPoolSize  = 50
	defaultFeedLimit     = 10
	defaultUndoWindow    = 24 * time.Hour
	defaultNotifyTimeout = 10 * time.Second
	topMatchesLimit      = 5
)

func (o Options) withDefaults() Options {
	if o.FeedPoolSize <= 0 {
		o.FeedPoolSize = defaultFeedPoolSize
	}
	if o.FeedLimit <= 0 {
		o.FeedLimit = defaultFeedLimit
	}
	if o.FeedLimit > o.FeedPoolSize {
		o.FeedLimit = o.FeedPoolSize
	}
	if o.UndoWindow <= 0 {
		o.UndoWindow = defaultUndoWindow
	}
	if o.NotifyTimeout <= 0 {
		o.NotifyTimeout = defaultNotifyTimeout
	}
	return o
}

type service struct {
	repo     Repository
	engine   compatibility.Engine
	scores   *cache.CompatibilityCache
	feeds    *cache.FeedCache
	notifier Notifier
	opts     Options
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewService(
	repo Repository,
	engine compatibility.Engine,
	scores *cache.CompatibilityCache,
	feeds *cache.FeedCache,
	notifier Notifier,
	opts Options,
	log logrus.FieldLogger,
) Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if engine == nil {
		engine = compatibility.NewEngine()
	}
	if scores == nil {
		scores = cache.NewCompatibilityCache(nil, 0, log)
	}
	if feeds == nil {
		feeds = cache.NewFeedCache(nil, 0, log)
	}
	return &service{
		repo:     repo,
		engine:   engine,
		scores:   scores,
		feeds:    feeds,
		notifier: notifier,
		opts:     opts.withDefaults(),
		log:      log.WithField("component", "matching"),
		now:      time.Now,
	}
}

// Swiping

func (s *service) Swipe(ctx context.Context, userID int64, dto *SwipeDTO) (*SwipeResult, error) {
	if userID == dto.SwipedID {
		return nil, ErrCannotSwipeSelf
	}

	swipedUser, err := s.repo.GetUserInfo(ctx, dto.SwipedID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindSwipe(ctx, userID, dto.SwipedID)
	if err != nil && !errors.Is(err, ErrSwipeNotFound) {
		return nil, err
	}

	blocked, err := s.repo.IsBlocked(ctx, userID, dto.SwipedID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, ErrUserBlocked
	}

	if existing != nil {
		return s.resumeMatch(ctx, existing, swipedUser)
	}

	swipe := &Swipe{
		SwiperID: userID,
		SwipedID: dto.SwipedID,
		Action:   dto.Action,
	}
	if err := s.repo.CreateSwipe(ctx, swipe); err != nil {
		return nil, err
	}
	RecordSwipe(swipe.Action)

	result := &SwipeResult{Swipe: swipe, SwipedUser: swipedUser}
	if !swipe.Action.IsPositive() {
		return result, nil
	}

	superlike := swipe.Action == ActionSuperlike
	s.dispatch("like", func(ctx context.Context) error {
		return s.notifier.SendLikeNotification(ctx, userID, dto.SwipedID, superlike)
	})

	// The swipe is stored even when matching fails below. Repeating the
	// swipe resumes the match through resumeMatch.
	mutual, err := s.CheckForMatch(ctx, userID, dto.SwipedID)
	if err != nil {
		return nil, fmt.Errorf("check for match: %w", err)
	}
	if !mutual {
		return result, nil
	}

	match, err := s.createMatch(ctx, userID, dto.SwipedID)
	if err != nil {
		return nil, err
	}
	result.Matched = true
	result.Match = match
	return result, nil
}

// resumeMatch handles a repeated swipe. A positive swipe whose pair is mutual
// but has no match yet gets its match created; anything else is a duplicate.
func (s *service) resumeMatch(ctx context.Context, swipe *Swipe, swipedUser *UserInfo) (*SwipeResult, error) {
	if !swipe.Action.IsPositive() {
		return nil, ErrAlreadySwiped
	}

	_, err := s.repo.GetMatchBetween(ctx, swipe.SwiperID, swipe.SwipedID)
	switch {
	case err == nil:
		return nil, ErrAlreadySwiped
	case !errors.Is(err, ErrMatchNotFound):
		return nil, err
	}

	mutual, err := s.CheckForMatch(ctx, swipe.SwiperID, swipe.SwipedID)
	if err != nil {
		return nil, fmt.Errorf("check for match: %w", err)
	}
	if !mutual {
		return nil, ErrAlreadySwiped
	}

	match, err := s.createMatch(ctx, swipe.SwiperID, swipe.SwipedID)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"user_id":  swipe.SwiperID,
		"other_id": swipe.SwipedID,
	}).Info("resumed match for repeated swipe")

	return &SwipeResult{Swipe: swipe, SwipedUser: swipedUser, Matched: true, Match: match}, nil
}

// CheckForMatch reports whether both users have liked or superliked each other
func (s *service) CheckForMatch(ctx context.Context, user1ID, user2ID int64) (bool, error) {
	liked, err := s.repo.HasPositiveSwipe(ctx, user1ID, user2ID)
	if err != nil || !liked {
		return false, err
	}
	return s.repo.HasPositiveSwipe(ctx, user2ID, user1ID)
}

// createMatch scores the pair once and stores the match. When another request
// already created it, the stored match and score are returned unchanged.
func (s *service) createMatch(ctx context.Context, user1ID, user2ID int64) (*Match, error) {
	score, err := s.pairScore(ctx, user1ID, user2ID)
	if err != nil {
		return nil, err
	}

	match := &Match{
		User1ID:            user1ID,
		User2ID:            user2ID,
		CompatibilityScore: score,
	}
	created, err := s.repo.CreateMatch(ctx, match)
	if err != nil {
		return nil, err
	}
	if !created {
		return match, nil
	}

	RecordMatch()
	RecordCompatibilityScore(match.CompatibilityScore)
	s.log.WithFields(logrus.Fields{
		"match_id": match.ID,
		"user1_id": match.User1ID,
		"user2_id": match.User2ID,
		"score":    match.CompatibilityScore,
	}).Info("match created")

	snapshot := *match
	s.dispatch("match", func(ctx context.Context) error {
		return s.notifier.SendMatchNotification(ctx, snapshot.ID, snapshot.User1ID, snapshot.User2ID, snapshot.CompatibilityScore)
	})
	return match, nil
}

func (s *service) UndoSwipe(ctx context.Context, userID, swipeID int64) error {
	swipe, err := s.repo.GetSwipe(ctx, swipeID)
	if err != nil {
		return err
	}
	if swipe.SwiperID != userID {
		return ErrSwipeNotFound
	}
	if s.now().Sub(swipe.CreatedAt) > s.opts.UndoWindow {
		return ErrUndoWindowExpired
	}

	_, err = s.repo.GetMatchBetween(ctx, swipe.SwiperID, swipe.SwipedID)
	switch {
	case err == nil:
		return ErrUndoMatched
	case !errors.Is(err, ErrMatchNotFound):
		return err
	}

	return s.repo.DeleteSwipe(ctx, swipe.ID)
}

func (s *service) GetSwipeHistory(ctx context.Context, userID int64, params *SwipeHistoryParams) (*SwipeHistory, error) {
	swipes, total, err := s.repo.GetSwipeHistory(ctx, userID, params)
	if err != nil {
		return nil, err
	}
	return &SwipeHistory{
		Swipes: swipes,
		Total:  total,
		Type:   params.Type,
		Action: params.Action,
	}, nil
}

func (s *service) GetSwipeStats(ctx context.Context, userID int64) (*SwipeStats, error) {
	stats, err := s.repo.GetSwipeStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	if stats.LikesGiven > 0 {
		stats.MatchRate = round2(float64(stats.TotalMatches) / float64(stats.LikesGiven) * 100)
	}
	return stats, nil
}

// Discovery

// Discover returns the user's ranked feed, best score first. The unfiltered
// feed is cached per user and only expires with time, so swipes made in the
// meantime do not remove cards from it.
func (s *service) Discover(ctx context.Context, userID int64, params *DiscoverParams) ([]*FeedEntry, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = s.opts.FeedLimit
	}
	if limit > s.opts.FeedPoolSize {
		limit = s.opts.FeedPoolSize
	}

	if !params.HasFilters() {
		var cached []*FeedEntry
		if s.feeds.Get(ctx, userID, &cached) {
			return firstEntries(cached, limit), nil
		}
	}

	feed, err := s.buildFeed(ctx, userID, params)
	if err != nil {
		return nil, err
	}

	if !params.HasFilters() {
		s.feeds.Set(ctx, userID, feed)
	}
	return firstEntries(feed, limit), nil
}

func (s *service) buildFeed(ctx context.Context, userID int64, params *DiscoverParams) ([]*FeedEntry, error) {
	start := time.Now()
	defer func() { RecordFeedBuild(time.Since(start)) }()

	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.repo.FindCandidates(ctx, userID, &CandidateFilters{
		Department:   params.Department,
		Skills:       params.Skills,
		Availability: params.Availability,
		Limit:        s.opts.FeedPoolSize,
	})
	if err != nil {
		return nil, err
	}

	mine := profile.Attributes()
	feed := make([]*FeedEntry, 0, len(candidates))
	for _, candidate := range candidates {
		theirs := candidate.Attributes()
		score := s.scores.GetOrCompute(ctx, userID, candidate.UserID, func() float64 {
			return s.engine.CalculateCompatibility(mine, theirs)
		})
		feed = append(feed, &FeedEntry{
			UserID:             candidate.UserID,
			FullName:           candidate.FullName,
			Department:         candidate.Department,
			Bio:                candidate.Bio,
			Skills:             candidate.Skills,
			Interests:          candidate.Interests,
			LookingFor:         candidate.LookingFor,
			Availability:       candidate.Availability,
			CompatibilityScore: score,
		})
	}

	sort.SliceStable(feed, func(i, j int) bool {
		if feed[i].CompatibilityScore != feed[j].CompatibilityScore {
			return feed[i].CompatibilityScore > feed[j].CompatibilityScore
		}
		return feed[i].UserID < feed[j].UserID
	})
	return feed, nil
}

func (s *service) GetCompatibility(ctx context.Context, userID, otherUserID int64) (*CompatibilityReport, error) {
	if userID == otherUserID {
		return nil, ErrSameUser
	}

	blocked, err := s.repo.IsBlocked(ctx, userID, otherUserID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, ErrUserBlocked
	}

	match, err := s.repo.GetMatchBetween(ctx, userID, otherUserID)
	switch {
	case err == nil:
		return s.matchReport(ctx, match, userID)
	case !errors.Is(err, ErrMatchNotFound):
		return nil, err
	}

	mine, theirs, err := s.profilePair(ctx, userID, otherUserID)
	if err != nil {
		return nil, err
	}

	report := s.buildReport(mine, theirs)
	report.UserID = userID
	report.OtherUserID = otherUserID
	report.CompatibilityScore = s.scores.GetOrCompute(ctx, userID, otherUserID, func() float64 {
		return s.engine.CalculateCompatibility(mine, theirs)
	})
	return report, nil
}

// Matches

func (s *service) GetMatches(ctx context.Context, userID int64) ([]*Match, error) {
	return s.repo.GetUserMatches(ctx, userID)
}

// GetMatchCompatibility explains a match. The headline score is the one stored
// when the match was made; the breakdown reflects the current profiles.
func (s *service) GetMatchCompatibility(ctx context.Context, matchID, userID int64) (*CompatibilityReport, error) {
	match, err := s.repo.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.Involves(userID) {
		return nil, ErrNotMatched
	}
	return s.matchReport(ctx, match, userID)
}

func (s *service) matchReport(ctx context.Context, match *Match, userID int64) (*CompatibilityReport, error) {
	otherUserID := match.OtherUserID(userID)
	mine, theirs, err := s.profilePair(ctx, userID, otherUserID)
	if err != nil {
		return nil, err
	}

	report := s.buildReport(mine, theirs)
	report.UserID = userID
	report.OtherUserID = otherUserID
	report.MatchID = &match.ID
	report.MatchedAt = &match.MatchedAt
	report.CompatibilityScore = match.CompatibilityScore
	return report, nil
}

func (s *service) GetMatchStats(ctx context.Context, userID int64) (*MatchStats, error) {
	matches, err := s.repo.GetUserMatches(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &MatchStats{TotalMatches: len(matches), TopMatches: []*Match{}}
	if len(matches) == 0 {
		return stats, nil
	}

	var sum float64
	for _, m := range matches {
		sum += m.CompatibilityScore
	}
	stats.AverageCompatibility = round2(sum / float64(len(matches)))

	ranked := make([]*Match, len(matches))
	copy(ranked, matches)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CompatibilityScore > ranked[j].CompatibilityScore
	})
	if len(ranked) > topMatchesLimit {
		ranked = ranked[:topMatchesLimit]
	}
	stats.TopMatches = ranked
	return stats, nil
}

func (s *service) Unmatch(ctx context.Context, matchID, userID int64) error {
	match, err := s.repo.GetMatch(ctx, matchID)
	if err != nil {
		return err
	}
	if !match.Involves(userID) {
		return ErrMatchNotFound
	}

	if err := s.repo.DeleteMatch(ctx, match.ID); err != nil {
		return err
	}
	RecordUnmatch()
	return nil
}

// Blocking

// BlockUser records the block and removes any match between the two users
func (s *service) BlockUser(ctx context.Context, userID, blockedID int64, reason string) error {
	if userID == blockedID {
		return ErrCannotBlockSelf
	}
	if _, err := s.repo.GetUserInfo(ctx, blockedID); err != nil {
		return err
	}

	block := &BlockedUser{BlockerID: userID, BlockedID: blockedID}
	if reason != "" {
		block.Reason = &reason
	}
	if err := s.repo.BlockUser(ctx, block); err != nil {
		return err
	}

	match, err := s.repo.GetMatchBetween(ctx, userID, blockedID)
	switch {
	case err == nil:
		if err := s.repo.DeleteMatch(ctx, match.ID); err != nil && !errors.Is(err, ErrMatchNotFound) {
			return err
		}
		RecordUnmatch()
	case !errors.Is(err, ErrMatchNotFound):
		return err
	}
	return nil
}

func (s *service) UnblockUser(ctx context.Context, userID, blockedID int64) error {
	removed, err := s.repo.UnblockUser(ctx, userID, blockedID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotBlocked
	}
	return nil
}

func (s *service) GetBlockedUsers(ctx context.Context, userID int64) ([]*BlockedUser, error) {
	return s.repo.GetBlockedUsers(ctx, userID)
}

// Profile

func (s *service) GetProfile(ctx context.Context, userID int64) (*UserProfile, error) {
	return s.repo.GetProfile(ctx, userID)
}

// UpdateProfile replaces the fields present in dto. A text field sent as ""
// clears it. The profile counts as
// completed once it lists at least one skill and one interest.
func (s *service) UpdateProfile(ctx context.Context, userID int64, dto *UpdateProfileDTO) (*UserProfile, error) {
	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if dto.Skills != nil {
		profile.Skills = dedupe(dto.Skills)
	}
	if dto.Interests != nil {
		profile.Interests = dedupe(dto.Interests)
	}
	if dto.ProjectTypes != nil {
		profile.ProjectTypes = dedupe(dto.ProjectTypes)
	}
	if dto.WorkStyle != nil {
		profile.WorkStyle = RatingMap(dto.WorkStyle)
	}
	if dto.LookingFor != nil {
		profile.LookingFor = *dto.LookingFor
	}
	if dto.Availability != nil {
		profile.Availability = optionalText(*dto.Availability)
	}
	if dto.Department != nil {
		profile.Department = optionalText(*dto.Department)
	}
	if dto.Bio != nil {
		profile.Bio = optionalText(*dto.Bio)
	}

	completed := len(profile.Skills) > 0 && len(profile.Interests) > 0
	if err := s.repo.SaveProfile(ctx, profile, completed); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *service) SubmitQuiz(ctx context.Context, userID int64, dto *SubmitQuizDTO) (*UserProfile, error) {
	if _, err := s.repo.GetUserInfo(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.repo.SaveQuizResults(ctx, userID, RatingMap(dto.Answers)); err != nil {
		return nil, err
	}
	return s.repo.GetProfile(ctx, userID)
}

// Helpers

func (s *service) profilePair(ctx context.Context, userID, otherUserID int64) (*compatibility.Profile, *compatibility.Profile, error) {
	mine, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	theirs, err := s.repo.GetProfile(ctx, otherUserID)
	if err != nil {
		return nil, nil, err
	}
	return mine.Attributes(), theirs.Attributes(), nil
}

func (s *service) pairScore(ctx context.Context, user1ID, user2ID int64) (float64, error) {
	mine, theirs, err := s.profilePair(ctx, user1ID, user2ID)
	if err != nil {
		return 0, err
	}
	return s.scores.GetOrCompute(ctx, user1ID, user2ID, func() float64 {
		return s.engine.CalculateCompatibility(mine, theirs)
	}), nil
}

func (s *service) buildReport(mine, theirs *compatibility.Profile) *CompatibilityReport {
	detailed := s.engine.GetDetailedCompatibility(mine, theirs)
	breakdown := &detailed.Breakdown

	return &CompatibilityReport{
		OverallScore:      detailed.Overall,
		Breakdown:         detailed.Breakdown,
		Insights:          compatibility.GenerateInsights(breakdown),
		Strengths:         compatibility.Strengths(breakdown),
		Improvements:      compatibility.Improvements(breakdown),
		MatchInsights:     compatibility.MatchInsights(mine, theirs),
		WorkStyleAnalysis: compatibility.AnalyzeWorkStyle(mine.QuizResults, theirs.QuizResults),
	}
}

// dispatch runs a notification in the background, detached from the request
// context but bounded by NotifyTimeout.
func (s *service) dispatch(kind string, send func(ctx context.Context) error) {
	if s.notifier == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.NotifyTimeout)
		defer cancel()

		if err := send(ctx); err != nil {
			RecordNotificationFailure(kind)
			s.log.WithError(err).WithField("notification", kind).Warn("failed to send notification")
		}
	}()
}

func firstEntries(feed []*FeedEntry, limit int) []*FeedEntry {
	if len(feed) > limit {
		return feed[:limit]
	}
	return feed
}

// optionalText maps an empty string to NULL.
func optionalText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func dedupe(items []string) StringList {
	seen := make(map[string]struct{}, len(items))
	out := make(StringList, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok || item == "" {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
