package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/ttb-planner-api/internal/models"
	appErrors "github.com/noah-isme/ttb-planner-api/pkg/errors"
	"github.com/noah-isme/ttb-planner-api/pkg/jobs"
)

const syncJobType = "ttb_sync"

// CourseFetcher produces normalised courses for a query.
type CourseFetcher interface {
	GetCourses(ctx context.Context, query models.CourseQuery) ([]models.Course, error)
}

// CourseWriter persists normalised courses.
type CourseWriter interface {
	ReplaceCourse(ctx context.Context, course *models.Course) (int64, error)
}

// MeetingCacheInvalidator drops cached meeting searches after a write.
type MeetingCacheInvalidator interface {
	InvalidateMeetings(ctx context.Context) error
}

// SyncServiceConfig tunes background sync jobs.
type SyncServiceConfig struct {
	Workers    int
	Retries    int
	RetryDelay time.Duration
	BufferSize int
}

// SyncService fetches courses from the upstream and replaces their stored copies.
type SyncService struct {
	fetcher     CourseFetcher
	writer      CourseWriter
	invalidator MeetingCacheInvalidator
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	queue       *jobs.Queue

	mu      sync.RWMutex
	tracked map[string]*models.SyncJob
}

// NewSyncService constructs a SyncService. writer may be nil for dry-run only use.
func NewSyncService(fetcher CourseFetcher, writer CourseWriter, invalidator MeetingCacheInvalidator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg SyncServiceConfig) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	s := &SyncService{
		fetcher:     fetcher,
		writer:      writer,
		invalidator: invalidator,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		tracked:     make(map[string]*models.SyncJob),
	}
	s.queue = jobs.NewQueue("ttb-sync", s.handleJob, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.Retries,
		RetryDelay: cfg.RetryDelay,
		OnGiveUp:   s.giveUp,
		Logger:     logger,
	})
	return s
}

// Start launches the background workers.
func (s *SyncService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the background workers.
func (s *SyncService) Stop() {
	s.queue.Stop()
}

// Run fetches the queried courses and, unless dryRun, replaces each stored copy.
// A query without a session is rejected before any network call.
func (s *SyncService) Run(ctx context.Context, query models.CourseQuery, dryRun bool) (*models.SyncReport, error) {
	if err := s.checkQuery(query); err != nil {
		return nil, err
	}
	if !dryRun && s.writer == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "course storage is not configured")
	}

	courses, err := s.fetcher.GetCourses(ctx, query)
	if err != nil {
		return nil, err
	}

	report := &models.SyncReport{
		Session: strings.TrimSpace(query.Session),
		DryRun:  dryRun,
		Courses: make([]models.CourseSummary, 0, len(courses)),
	}
	for i := range courses {
		course := &courses[i]
		if !dryRun {
			if _, err := s.writer.ReplaceCourse(ctx, course); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status,
					fmt.Sprintf("failed to store course %s", course.Code))
			}
		}
		report.Courses = append(report.Courses, models.CourseSummary{
			Code:     course.Code,
			Semester: course.Semester,
			Title:    course.Title,
			Options:  len(course.Options),
			Meetings: course.MeetingCount(),
		})
	}

	if !dryRun && len(courses) > 0 {
		s.metrics.AddCoursesSynced(report.Session, len(courses))
		if s.invalidator != nil {
			if err := s.invalidator.InvalidateMeetings(ctx); err != nil {
				s.logger.Warn("failed to invalidate meeting cache", zap.Error(err))
			}
		}
	}

	s.logger.Info("sync finished",
		zap.String("session", report.Session),
		zap.Strings("codes", query.Codes),
		zap.Bool("dry_run", dryRun),
		zap.Int("courses", len(report.Courses)),
	)
	return report, nil
}

// Enqueue schedules a background sync and returns its tracking record.
func (s *SyncService) Enqueue(ctx context.Context, query models.CourseQuery) (*models.SyncJob, error) {
	if err := s.checkQuery(query); err != nil {
		return nil, err
	}

	job := &models.SyncJob{
		ID:        uuid.NewString(),
		Status:    models.SyncStatusQueued,
		Query:     query,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.tracked[job.ID] = job
	s.mu.Unlock()

	if err := s.queue.TryEnqueue(jobs.Job{ID: job.ID, Type: syncJobType, Payload: query}); err != nil {
		s.mu.Lock()
		delete(s.tracked, job.ID)
		s.mu.Unlock()
		if errors.Is(err, jobs.ErrQueueFull) {
			return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "sync queue is full")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "sync queue is not running")
	}

	s.logger.Info("sync job queued", zap.String("job_id", job.ID), zap.Strings("codes", query.Codes))
	return s.snapshot(job), nil
}

// Job returns a copy of a tracked sync job.
func (s *SyncService) Job(id string) (*models.SyncJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.tracked[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "sync job not found")
	}
	clone := *job
	return &clone, nil
}

func (s *SyncService) checkQuery(query models.CourseQuery) error {
	if err := s.validator.Struct(query); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid sync query")
	}
	if strings.TrimSpace(query.Session) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "session is required")
	}
	return nil
}

func (s *SyncService) handleJob(ctx context.Context, job jobs.Job) error {
	query, ok := job.Payload.(models.CourseQuery)
	if !ok {
		return fmt.Errorf("unexpected sync payload %T", job.Payload)
	}

	s.update(job.ID, func(j *models.SyncJob) {
		j.Status = models.SyncStatusRunning
		j.Attempts = job.Attempt + 1
	})

	report, err := s.Run(ctx, query, false)
	if err != nil {
		s.update(job.ID, func(j *models.SyncJob) {
			j.Status = models.SyncStatusQueued
			j.Error = err.Error()
		})
		return err
	}

	now := time.Now().UTC()
	s.update(job.ID, func(j *models.SyncJob) {
		j.Status = models.SyncStatusSucceeded
		j.Report = report
		j.Error = ""
		j.FinishedAt = &now
	})
	s.metrics.RecordSyncJob(string(models.SyncStatusSucceeded))
	return nil
}

func (s *SyncService) giveUp(job jobs.Job, err error) {
	now := time.Now().UTC()
	s.update(job.ID, func(j *models.SyncJob) {
		j.Status = models.SyncStatusFailed
		j.Error = err.Error()
		j.FinishedAt = &now
	})
	s.metrics.RecordSyncJob(string(models.SyncStatusFailed))
}

func (s *SyncService) update(id string, fn func(*models.SyncJob)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.tracked[id]; ok {
		fn(job)
	}
}

func (s *SyncService) snapshot(job *models.SyncJob) *models.SyncJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := *job
	return &clone
}
