package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/ttb-planner-api/internal/models"
	"github.com/noah-isme/ttb-planner-api/internal/timetable"
	appErrors "github.com/noah-isme/ttb-planner-api/pkg/errors"
)

const (
	meetingCachePrefix = "meetings:"
	maxMeetingRows     = 50
)

// CourseReader describes the stored-course reads used by CourseService.
type CourseReader interface {
	SearchMeetings(ctx context.Context, filter models.MeetingSearchFilter) ([]models.MeetingRow, error)
	GetCourse(ctx context.Context, code, semester string) (*models.Course, error)
}

// CourseService serves stored courses and meetings.
type CourseService struct {
	repo    CourseReader
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
}

// NewCourseService constructs a CourseService.
func NewCourseService(repo CourseReader, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, cache: cache, metrics: metrics, logger: logger}
}

// SearchMeetings lists stored meetings of courses whose code starts with query,
// rendered with day names and HH:MM times. The boolean reports a cache hit.
func (s *CourseService) SearchMeetings(ctx context.Context, query string) ([]models.MeetingView, bool, error) {
	query = strings.ToUpper(strings.TrimSpace(query))
	cacheKey := meetingCachePrefix + query

	var cached []models.MeetingView
	if s.cache.Get(ctx, cacheKey, &cached) {
		return cached, true, nil
	}

	start := time.Now()
	rows, err := s.repo.SearchMeetings(ctx, models.MeetingSearchFilter{Query: query, Limit: maxMeetingRows})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search meetings")
	}
	s.metrics.ObserveDBQuery("search_meetings", time.Since(start))

	views := make([]models.MeetingView, 0, len(rows))
	for _, row := range rows {
		views = append(views, models.MeetingView{
			Course:   row.Course,
			Day:      timetable.DayName(row.Day),
			Start:    timetable.FormatClock(row.StartTime),
			End:      timetable.FormatClock(row.EndTime),
			Location: row.Location,
		})
	}

	s.cache.Set(ctx, cacheKey, views, 0)
	return views, false, nil
}

// GetCourse returns a stored course. An empty semester selects the latest one.
func (s *CourseService) GetCourse(ctx context.Context, code, semester string) (*models.Course, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course code is required")
	}
	start := time.Now()
	course, err := s.repo.GetCourse(ctx, code, strings.TrimSpace(semester))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	s.metrics.ObserveDBQuery("get_course", time.Since(start))
	return course, nil
}

// InvalidateMeetings drops every cached meeting search.
func (s *CourseService) InvalidateMeetings(ctx context.Context) error {
	return s.cache.Invalidate(ctx, meetingCachePrefix+"*")
}
