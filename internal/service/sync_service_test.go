package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ttb-planner-api/internal/models"
	appErrors "github.com/noah-isme/ttb-planner-api/pkg/errors"
)

type fetcherStub struct {
	mu      sync.Mutex
	courses []models.Course
	errs    []error
	calls   int
}

func (f *fetcherStub) GetCourses(ctx context.Context, query models.CourseQuery) ([]models.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.courses, nil
}

type writerStub struct {
	mu      sync.Mutex
	written []string
	err     error
}

func (w *writerStub) ReplaceCourse(ctx context.Context, course *models.Course) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return 0, w.err
	}
	w.written = append(w.written, course.Code)
	return int64(len(w.written)), nil
}

type invalidatorStub struct {
	calls int
}

func (i *invalidatorStub) InvalidateMeetings(ctx context.Context) error {
	i.calls++
	return nil
}

func syncCourses() []models.Course {
	meeting := models.Meeting{Section: 101, Day: models.DayMonday, Start: 32400, End: 36000, Location: "TBA", Instructor: "TBA"}
	return []models.Course{
		{Code: "CSC108H1", Title: "Intro", Semester: "20259", Options: []models.Option{
			{Number: 0, Lectures: []models.Meeting{meeting, meeting}},
			{Number: 1, Lectures: []models.Meeting{meeting}},
		}},
		{Code: "CSC148H1", Title: "Intro II", Semester: "20259", Options: []models.Option{
			{Number: 0, Lectures: []models.Meeting{meeting}},
		}},
	}
}

func TestSyncServiceRunStoresCourses(t *testing.T) {
	writer := &writerStub{}
	invalidator := &invalidatorStub{}
	svc := NewSyncService(&fetcherStub{courses: syncCourses()}, writer, invalidator, NewMetricsService(), nil, nil, SyncServiceConfig{})

	report, err := svc.Run(context.Background(), models.CourseQuery{Codes: []string{"CSC"}, Session: "20259"}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"CSC108H1", "CSC148H1"}, writer.written)
	assert.Equal(t, 1, invalidator.calls)
	assert.False(t, report.DryRun)
	assert.Equal(t, "20259", report.Session)
	require.Len(t, report.Courses, 2)
	assert.Equal(t, models.CourseSummary{Code: "CSC108H1", Semester: "20259", Title: "Intro", Options: 2, Meetings: 3}, report.Courses[0])
}

func TestSyncServiceDryRunSkipsWrites(t *testing.T) {
	writer := &writerStub{}
	invalidator := &invalidatorStub{}
	svc := NewSyncService(&fetcherStub{courses: syncCourses()}, writer, invalidator, nil, nil, nil, SyncServiceConfig{})

	report, err := svc.Run(context.Background(), models.CourseQuery{Codes: []string{"CSC"}, Session: "20259"}, true)
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Len(t, report.Courses, 2)
	assert.Empty(t, writer.written)
	assert.Zero(t, invalidator.calls)
}

func TestSyncServiceRequiresSession(t *testing.T) {
	fetcher := &fetcherStub{}
	svc := NewSyncService(fetcher, &writerStub{}, nil, nil, nil, nil, SyncServiceConfig{})

	_, err := svc.Run(context.Background(), models.CourseQuery{Codes: []string{"CSC"}}, false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Zero(t, fetcher.calls)

	_, err = svc.Run(context.Background(), models.CourseQuery{Session: "20259"}, false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSyncServiceWriteFailure(t *testing.T) {
	svc := NewSyncService(&fetcherStub{courses: syncCourses()}, &writerStub{err: errors.New("tx aborted")}, nil, nil, nil, nil, SyncServiceConfig{})

	_, err := svc.Run(context.Background(), models.CourseQuery{Codes: []string{"CSC"}, Session: "20259"}, false)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "CSC108H1")
}

func TestSyncServiceWithoutWriterOnlyDryRuns(t *testing.T) {
	svc := NewSyncService(&fetcherStub{courses: syncCourses()}, nil, nil, nil, nil, nil, SyncServiceConfig{})

	_, err := svc.Run(context.Background(), models.CourseQuery{Codes: []string{"CSC"}, Session: "20259"}, false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnavailable.Code, appErrors.FromError(err).Code)

	_, err = svc.Run(context.Background(), models.CourseQuery{Codes: []string{"CSC"}, Session: "20259"}, true)
	require.NoError(t, err)
}

func TestSyncServiceEnqueueSucceeds(t *testing.T) {
	writer := &writerStub{}
	svc := NewSyncService(&fetcherStub{courses: syncCourses()}, writer, nil, nil, nil, nil, SyncServiceConfig{Workers: 1})
	svc.Start(context.Background())
	defer svc.Stop()

	job, err := svc.Enqueue(context.Background(), models.CourseQuery{Codes: []string{"CSC"}, Session: "20259"})
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)

	require.Eventually(t, func() bool {
		current, err := svc.Job(job.ID)
		return err == nil && current.Status == models.SyncStatusSucceeded
	}, 2*time.Second, 5*time.Millisecond)

	final, err := svc.Job(job.ID)
	require.NoError(t, err)
	require.NotNil(t, final.Report)
	assert.Len(t, final.Report.Courses, 2)
	assert.Equal(t, 1, final.Attempts)
	assert.NotNil(t, final.FinishedAt)
}

func TestSyncServiceEnqueueRetriesThenFails(t *testing.T) {
	upstream := appErrors.Clone(appErrors.ErrUpstream, "timetable request failed with status 500")
	fetcher := &fetcherStub{errs: []error{upstream, upstream}}
	svc := NewSyncService(fetcher, &writerStub{}, nil, nil, nil, nil, SyncServiceConfig{Retries: 1, RetryDelay: 5 * time.Millisecond})
	svc.Start(context.Background())
	defer svc.Stop()

	job, err := svc.Enqueue(context.Background(), models.CourseQuery{Codes: []string{"CSC"}, Session: "20259"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		current, err := svc.Job(job.ID)
		return err == nil && current.Status == models.SyncStatusFailed
	}, 2*time.Second, 5*time.Millisecond)

	final, _ := svc.Job(job.ID)
	assert.Equal(t, 2, final.Attempts)
	assert.Contains(t, final.Error, "500")
}

func TestSyncServiceEnqueueBeforeStart(t *testing.T) {
	svc := NewSyncService(&fetcherStub{}, &writerStub{}, nil, nil, nil, nil, SyncServiceConfig{})

	_, err := svc.Enqueue(context.Background(), models.CourseQuery{Codes: []string{"CSC"}, Session: "20259"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnavailable.Code, appErrors.FromError(err).Code)
}

func TestSyncServiceUnknownJob(t *testing.T) {
	svc := NewSyncService(&fetcherStub{}, &writerStub{}, nil, nil, nil, nil, SyncServiceConfig{})
	_, err := svc.Job("missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
