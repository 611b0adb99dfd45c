package services

import (
	"context"
	stderrors "errors"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jgirmay/vocab-practice/internal/common/errors"
	"github.com/jgirmay/vocab-practice/internal/common/metrics"
	"github.com/jgirmay/vocab-practice/internal/common/validation"
	"github.com/jgirmay/vocab-practice/internal/practice/cache"
	"github.com/jgirmay/vocab-practice/internal/practice/models"
	"github.com/jgirmay/vocab-practice/internal/practice/repository"
	"github.com/jgirmay/vocab-practice/pkg/config"
)

// Listing limits for ListAssignments.
const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// Options configures a PracticeService. Zero values fall back to defaults.
type Options struct {
	Cache    config.CacheConfig
	WeekDays int
	Clock    func() time.Time
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
}

// PracticeService is the entry point used by handlers and the CLI. Write
// errors are returned to the caller; read paths log failures and answer with
// empty or zeroed views instead.
type PracticeService struct {
	records     repository.RecordStore
	users       repository.UserRepository
	assignments repository.AssignmentRepository
	rank        *RankEngine
	reports     *ReportBuilder
	cache       *cache.AggregationCache

	ttl      config.CacheConfig
	weekDays int
	now      func() time.Time
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewPracticeService wires the service from its repositories and cache
func NewPracticeService(
	records repository.RecordStore,
	users repository.UserRepository,
	assignments repository.AssignmentRepository,
	aggCache *cache.AggregationCache,
	opts Options,
) *PracticeService {
	s := &PracticeService{
		records:     records,
		users:       users,
		assignments: assignments,
		rank:        NewRankEngine(records),
		reports:     NewReportBuilder(records, users),
		cache:       aggCache,
		ttl:         opts.Cache,
		weekDays:    opts.WeekDays,
		now:         opts.Clock,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
	}
	defaults := config.DefaultCacheConfig()
	if s.ttl.LeaderboardTTL <= 0 {
		s.ttl.LeaderboardTTL = defaults.LeaderboardTTL
	}
	if s.ttl.UserStatsTTL <= 0 {
		s.ttl.UserStatsTTL = defaults.UserStatsTTL
	}
	if s.ttl.AssignmentsTTL <= 0 {
		s.ttl.AssignmentsTTL = defaults.AssignmentsTTL
	}
	if s.weekDays <= 0 {
		s.weekDays = 7
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// SubmitRecord validates and stores one finished session. Resubmitting the
// same session is reported as a success with Duplicate set.
func (s *PracticeService) SubmitRecord(ctx context.Context, req models.SubmitRecordRequest) (models.SubmitResult, error) {
	if err := validation.Check(req); err != nil {
		s.metrics.ObserveSubmission(metrics.ResultInvalid)
		return models.SubmitResult{OK: false, Error: err.Error()}, err
	}

	record := &models.PracticeRecord{
		AssignmentID: req.AssignmentID,
		UserID:       req.UserID,
		SessionID:    req.SessionID,
		Score:        req.Score,
		TotalItems:   req.TotalItems,
		CorrectItems: req.CorrectItems,
		DurationMs:   req.DurationMs,
		RecordType:   req.RecordType,
	}

	recordID, duplicate, err := s.records.Append(ctx, record)
	if err != nil {
		s.metrics.ObserveSubmission(metrics.ResultFailed)
		s.logger.Error("failed to append practice record",
			zap.String("assignment_id", req.AssignmentID),
			zap.String("user_id", req.UserID),
			zap.Error(err))
		return models.SubmitResult{OK: false, Error: err.Error()}, err
	}

	if duplicate {
		s.metrics.ObserveSubmission(metrics.ResultDuplicate)
		s.logger.Debug("duplicate session ignored", zap.String("session_id", req.SessionID))
	} else {
		s.metrics.ObserveSubmission(metrics.ResultCreated)
		// The submitter's own stats screen is the next thing they open.
		s.cache.Invalidate(ctx, cache.KeyUserStats(req.UserID))
	}

	return models.SubmitResult{OK: true, RecordID: recordID, Duplicate: duplicate}, nil
}

// GetReport builds the teacher view of one assignment.
func (s *PracticeService) GetReport(ctx context.Context, assignmentID string) (models.Report, error) {
	if assignmentID == "" {
		return models.Report{}, errors.Validation("assignment id is required", "")
	}

	defer s.metrics.Time("report")()
	report, err := s.reports.BuildReport(ctx, assignmentID)
	if err != nil {
		s.logger.Warn("report degraded to empty",
			zap.String("assignment_id", assignmentID), zap.Error(err))
		return emptyReport(assignmentID), nil
	}
	return report, nil
}

// GetLeaderboard ranks every user with records in the time range.
// Summaries are cached per range; ranking by dimension happens per call.
func (s *PracticeService) GetLeaderboard(ctx context.Context, dimension models.Dimension, timeRange models.TimeRange, forceRefresh bool) (models.Leaderboard, error) {
	if dimension == "" {
		dimension = models.DimensionScore
	}
	if timeRange == "" {
		timeRange = models.TimeRangeWeek
	}
	if !ValidDimension(dimension) {
		return models.Leaderboard{}, errors.Validation("unknown ranking dimension", string(dimension))
	}
	if timeRange != models.TimeRangeWeek && timeRange != models.TimeRangeAll {
		return models.Leaderboard{}, errors.Validation("unknown time range", string(timeRange))
	}

	summaries, err := cache.Load(ctx, s.cache, cache.KeyLeaderboard(string(timeRange)), s.ttl.LeaderboardTTL, forceRefresh,
		func(ctx context.Context) ([]models.UserSummary, error) {
			return s.computeSummaries(ctx, timeRange)
		})
	if err != nil {
		s.logger.Warn("leaderboard degraded to empty",
			zap.String("time_range", string(timeRange)), zap.Error(err))
		summaries = nil
	}

	ranked, err := s.rank.Rank(summaries, dimension)
	if err != nil {
		return models.Leaderboard{}, err
	}

	return models.Leaderboard{
		Dimension:   dimension,
		TimeRange:   timeRange,
		Entries:     ranked,
		GeneratedAt: s.now(),
	}, nil
}

// GetPercentile answers "what share of other attempts scored below this".
// Invalid input is an error; an unreachable store answers {0, 0}.
func (s *PracticeService) GetPercentile(ctx context.Context, assignmentID string, score int) (models.PercentileResult, error) {
	result, err := s.rank.Percentile(ctx, assignmentID, score)
	if err != nil {
		if stderrors.Is(err, errors.ErrValidation) {
			return models.PercentileResult{}, err
		}
		s.logger.Warn("percentile degraded to zero",
			zap.String("assignment_id", assignmentID), zap.Error(err))
		return models.PercentileResult{}, nil
	}
	return result, nil
}

// GetUserStats returns one user's summary and overall position.
func (s *PracticeService) GetUserStats(ctx context.Context, userID string, forceRefresh bool) (models.UserStats, error) {
	if userID == "" {
		return models.UserStats{}, errors.Validation("user id is required", "")
	}

	stats, err := cache.Load(ctx, s.cache, cache.KeyUserStats(userID), s.ttl.UserStatsTTL, forceRefresh,
		func(ctx context.Context) (models.UserStats, error) {
			return s.computeUserStats(ctx, userID)
		})
	if err != nil {
		s.logger.Warn("user stats degraded to zero",
			zap.String("user_id", userID), zap.Error(err))
		name, avatar := profileOf(nil)
		return models.UserStats{
			Summary:     models.UserSummary{UserID: userID, DisplayName: name, AvatarRef: avatar},
			GeneratedAt: s.now(),
		}, nil
	}
	return stats, nil
}

// ListAssignments pages through assignments, newest first. limit defaults to
// 50 and is capped at 100.
func (s *PracticeService) ListAssignments(ctx context.Context, limit, skip int, forceRefresh bool) (models.AssignmentPage, error) {
	if skip < 0 {
		return models.AssignmentPage{}, errors.Validation("skip must not be negative", "")
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	page, err := cache.Load(ctx, s.cache, cache.KeyAssignments(limit, skip), s.ttl.AssignmentsTTL, forceRefresh,
		func(ctx context.Context) (models.AssignmentPage, error) {
			items, err := s.assignments.List(ctx, limit, skip)
			if err != nil {
				return models.AssignmentPage{}, err
			}
			if items == nil {
				items = []models.Assignment{}
			}
			return models.AssignmentPage{
				Items:     items,
				Count:     len(items),
				HasMore:   len(items) == limit,
				Timestamp: s.now(),
			}, nil
		})
	if err != nil {
		s.logger.Warn("assignment listing degraded to empty", zap.Error(err))
		return models.AssignmentPage{Items: []models.Assignment{}, Timestamp: s.now()}, nil
	}
	return page, nil
}

// GetAssignment fetches one assignment. Unknown ids are NotFound.
func (s *PracticeService) GetAssignment(ctx context.Context, id string) (*models.Assignment, error) {
	if id == "" {
		return nil, errors.Validation("assignment id is required", "")
	}
	return s.assignments.Get(ctx, id)
}

// CreateAssignment stores a new word list.
func (s *PracticeService) CreateAssignment(ctx context.Context, req models.CreateAssignmentRequest) (*models.Assignment, error) {
	if err := validation.Check(req); err != nil {
		return nil, err
	}
	words := req.Words
	if words == nil {
		words = []string{}
	}
	assignment := &models.Assignment{
		ID:        req.ID,
		Title:     req.Title,
		Words:     words,
		CreatedBy: req.CreatedBy,
		CreatedAt: s.now().UTC(),
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		return nil, err
	}
	// Pages are keyed by limit and skip; any of them may now be short.
	s.cache.InvalidatePrefix(ctx, cache.PrefixAssignments)
	s.logger.Info("assignment created", zap.String("assignment_id", assignment.ID), zap.Int("words", len(words)))
	return assignment, nil
}

// UpsertUser writes a directory entry.
func (s *PracticeService) UpsertUser(ctx context.Context, req models.UpsertUserRequest) (*models.User, error) {
	if err := validation.Check(req); err != nil {
		return nil, err
	}
	user := &models.User{
		ID:          req.ID,
		DisplayName: req.DisplayName,
		AvatarRef:   req.AvatarRef,
		Sign:        req.Sign,
		Role:        req.Role,
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// computeSummaries loads the range's records and decorates each summary with
// profile fields. A failed profile lookup falls back to defaults.
func (s *PracticeService) computeSummaries(ctx context.Context, timeRange models.TimeRange) ([]models.UserSummary, error) {
	defer s.metrics.Time("leaderboard")()

	filter := models.RecordFilter{}
	if timeRange == models.TimeRangeWeek {
		since := s.now().AddDate(0, 0, -s.weekDays)
		filter.Since = &since
	}

	records, err := s.records.Query(ctx, filter)
	if err != nil {
		return nil, err
	}

	byUser := SummarizeAll(records)
	ids := make([]string, 0, len(byUser))
	for id := range byUser {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	profiles := map[string]*models.User{}
	users, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("profile lookup failed, using defaults", zap.Error(err))
	}
	for i := range users {
		profiles[users[i].ID] = &users[i]
	}

	summaries := make([]models.UserSummary, 0, len(ids))
	for _, id := range ids {
		summary := byUser[id]
		applyProfile(&summary, profiles[id])
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// computeUserStats loads the user's records, profile and position in
// parallel. Only the profile lookup is allowed to fail.
func (s *PracticeService) computeUserStats(ctx context.Context, userID string) (models.UserStats, error) {
	defer s.metrics.Time("user_stats")()

	var (
		records  []models.PracticeRecord
		user     *models.User
		position models.Position
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = s.records.Query(gctx, models.RecordFilter{UserID: userID})
		return err
	})
	g.Go(func() error {
		var err error
		user, err = s.users.Get(gctx, userID)
		if err != nil {
			if !stderrors.Is(err, errors.ErrNotFound) {
				s.logger.Warn("profile lookup failed, using defaults", zap.String("user_id", userID), zap.Error(err))
			}
			user = nil
		}
		return nil
	})
	g.Go(func() error {
		var err error
		position, err = s.rank.Position(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.UserStats{}, err
	}

	summary := Summarize(records)
	summary.UserID = userID
	applyProfile(&summary, user)

	return models.UserStats{Summary: summary, Position: position, GeneratedAt: s.now()}, nil
}

func applyProfile(summary *models.UserSummary, user *models.User) {
	summary.DisplayName, summary.AvatarRef = profileOf(user)
	if user != nil {
		summary.Sign = user.Sign
	}
}

func emptyReport(assignmentID string) models.Report {
	return models.Report{
		AssignmentID: assignmentID,
		Completed:    []models.CompletedEntry{},
		NotCompleted: []models.PendingEntry{},
	}
}
