package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/ttb-planner-api/internal/models"
	"github.com/noah-isme/ttb-planner-api/internal/timetable"
	appErrors "github.com/noah-isme/ttb-planner-api/pkg/errors"
	"github.com/noah-isme/ttb-planner-api/pkg/ttb"
)

// CourseSearcher issues one upstream timetable query.
type CourseSearcher interface {
	Search(ctx context.Context, q ttb.Query) ([]ttb.RawCourse, error)
}

// CourseFetchConfig holds upstream defaults for CourseFetchService.
type CourseFetchConfig struct {
	Divisions []string
	PageSize  int
	// Concurrency bounds in-flight upstream requests. Values below 2 keep
	// fetching strictly sequential.
	Concurrency int
}

// CourseFetchService queries the timetable upstream per course code and
// normalises the results.
type CourseFetchService struct {
	searcher  CourseSearcher
	validator *validator.Validate
	logger    *zap.Logger
	config    CourseFetchConfig
}

// NewCourseFetchService constructs a CourseFetchService.
func NewCourseFetchService(searcher CourseSearcher, validate *validator.Validate, logger *zap.Logger, cfg CourseFetchConfig) *CourseFetchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CourseFetchService{searcher: searcher, validator: validate, logger: logger, config: cfg}
}

// GetCourses returns the normalised courses for every queried code, grouped by
// code in first-seen order and by upstream order within a code. Any upstream
// failure fails the whole call.
func (s *CourseFetchService) GetCourses(ctx context.Context, query models.CourseQuery) ([]models.Course, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course query")
	}
	codes := uniqueCodes(query.Codes)
	if len(codes) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "codes must contain at least one course code")
	}

	targetSession := strings.TrimSpace(query.Session)
	sessionFilters := compact(query.Sessions)
	if len(sessionFilters) == 0 && targetSession != "" {
		sessionFilters = []string{targetSession}
	}

	divisions := compact(query.Divisions)
	if len(divisions) == 0 {
		divisions = s.config.Divisions
	}
	pageSize := query.PageSize
	if pageSize <= 0 {
		pageSize = s.config.PageSize
	}

	fetch := func(ctx context.Context, code string) ([]models.Course, error) {
		raw, err := s.searcher.Search(ctx, ttb.Query{
			Code:      code,
			Sessions:  sessionFilters,
			Divisions: divisions,
			PageSize:  pageSize,
			SearchBy:  ttb.SearchBy(query.SearchBy),
		})
		if err != nil {
			return nil, upstreamError(code, err)
		}
		return filterAndNormalize(raw, code, targetSession), nil
	}

	perCode := make([][]models.Course, len(codes))
	if s.config.Concurrency < 2 || len(codes) == 1 {
		for i, code := range codes {
			courses, err := fetch(ctx, code)
			if err != nil {
				return nil, err
			}
			perCode[i] = courses
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.config.Concurrency)
		for i, code := range codes {
			i, code := i, code
			g.Go(func() error {
				courses, err := fetch(gctx, code)
				if err != nil {
					return err
				}
				perCode[i] = courses
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	result := make([]models.Course, 0, len(codes))
	for i, courses := range perCode {
		s.logger.Debug("normalised courses", zap.String("code", codes[i]), zap.Int("courses", len(courses)))
		result = append(result, courses...)
	}
	return result, nil
}

func filterAndNormalize(raw []ttb.RawCourse, code, targetSession string) []models.Course {
	prefix := strings.ToUpper(code)
	courses := make([]models.Course, 0, len(raw))
	for _, rc := range raw {
		if targetSession != "" && !rc.HasSession(targetSession) {
			continue
		}
		if !strings.HasPrefix(strings.ToUpper(string(rc.Code)), prefix) {
			continue
		}
		if course, ok := timetable.NormalizeCourse(rc, targetSession); ok {
			courses = append(courses, *course)
		}
	}
	return courses
}

func upstreamError(code string, err error) error {
	var statusErr *ttb.StatusError
	if errors.As(err, &statusErr) {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status,
			fmt.Sprintf("timetable request for %s failed with status %d: %s", code, statusErr.StatusCode, statusErr.Body))
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status,
		fmt.Sprintf("timetable request for %s failed", code))
}

func uniqueCodes(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	result := make([]string, 0, len(codes))
	for _, code := range codes {
		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}

func compact(values []string) []string {
	result := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
