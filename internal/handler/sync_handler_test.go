package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/ttb-planner-api/internal/models"
	appErrors "github.com/noah-isme/ttb-planner-api/pkg/errors"
)

type fakeSyncService struct {
	job     *models.SyncJob
	report  *models.SyncReport
	err     error
	last    models.CourseQuery
	dryRuns int
}

func (f *fakeSyncService) Run(_ context.Context, q models.CourseQuery, dryRun bool) (*models.SyncReport, error) {
	f.last = q
	if dryRun {
		f.dryRuns++
	}
	return f.report, f.err
}

func (f *fakeSyncService) Enqueue(_ context.Context, q models.CourseQuery) (*models.SyncJob, error) {
	f.last = q
	return f.job, f.err
}

func (f *fakeSyncService) Job(id string) (*models.SyncJob, error) {
	if f.job == nil || f.job.ID != id {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "sync job not found")
	}
	return f.job, nil
}

func TestSyncHandlerEnqueue(t *testing.T) {
	svc := &fakeSyncService{job: &models.SyncJob{ID: "job-1", Status: models.SyncStatusQueued}}
	handler := NewSyncHandler(svc)
	c, rec := newTestContext(http.MethodPost, "/admin/sync", strings.NewReader(`{"codes":["CSC108"],"session":"20259"}`))

	handler.Enqueue(c)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{"CSC108"}, svc.last.Codes)
	assert.Equal(t, "20259", svc.last.Session)
}

func TestSyncHandlerEnqueueQueueFull(t *testing.T) {
	handler := NewSyncHandler(&fakeSyncService{err: appErrors.Clone(appErrors.ErrUnavailable, "sync queue is full")})
	c, rec := newTestContext(http.MethodPost, "/admin/sync", strings.NewReader(`{"codes":["CSC108"],"session":"20259"}`))

	handler.Enqueue(c)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSyncHandlerPreviewIsDryRun(t *testing.T) {
	svc := &fakeSyncService{report: &models.SyncReport{Session: "20259", DryRun: true}}
	handler := NewSyncHandler(svc)
	c, rec := newTestContext(http.MethodPost, "/admin/sync/preview", strings.NewReader(`{"codes":["CSC108"],"session":"20259"}`))

	handler.Preview(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.dryRuns)
}

func TestSyncHandlerRejectsMalformedBody(t *testing.T) {
	handler := NewSyncHandler(&fakeSyncService{})
	c, rec := newTestContext(http.MethodPost, "/admin/sync", strings.NewReader(`[`))

	handler.Enqueue(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSyncHandlerStatus(t *testing.T) {
	handler := NewSyncHandler(&fakeSyncService{job: &models.SyncJob{ID: "job-1", Status: models.SyncStatusSucceeded}})

	c, rec := newTestContext(http.MethodGet, "/admin/sync/job-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "job-1"}}
	handler.Status(c)
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = newTestContext(http.MethodGet, "/admin/sync/job-2", nil)
	c.Params = gin.Params{{Key: "id", Value: "job-2"}}
	handler.Status(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
