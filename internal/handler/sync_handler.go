package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ttb-planner-api/internal/models"
	appErrors "github.com/noah-isme/ttb-planner-api/pkg/errors"
	"github.com/noah-isme/ttb-planner-api/pkg/response"
)

type syncService interface {
	Run(ctx context.Context, query models.CourseQuery, dryRun bool) (*models.SyncReport, error)
	Enqueue(ctx context.Context, query models.CourseQuery) (*models.SyncJob, error)
	Job(id string) (*models.SyncJob, error)
}

// SyncHandler exposes admin-triggered timetable syncs.
type SyncHandler struct {
	service syncService
}

// NewSyncHandler constructs the handler.
func NewSyncHandler(svc syncService) *SyncHandler {
	return &SyncHandler{service: svc}
}

// Enqueue godoc
// @Summary Queue a timetable sync
// @Tags Admin
// @Accept json
// @Produce json
// @Security AdminKey
// @Param payload body models.CourseQuery true "Sync query"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /admin/sync [post]
func (h *SyncHandler) Enqueue(c *gin.Context) {
	query, ok := bindCourseQuery(c)
	if !ok {
		return
	}
	job, err := h.service.Enqueue(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, job)
}

// Preview godoc
// @Summary Dry-run a timetable sync
// @Description Fetches and normalises without writing anything
// @Tags Admin
// @Accept json
// @Produce json
// @Security AdminKey
// @Param payload body models.CourseQuery true "Sync query"
// @Success 200 {object} response.Envelope
// @Router /admin/sync/preview [post]
func (h *SyncHandler) Preview(c *gin.Context) {
	query, ok := bindCourseQuery(c)
	if !ok {
		return
	}
	report, err := h.service.Run(c.Request.Context(), query, true)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Status godoc
// @Summary Sync job status
// @Tags Admin
// @Produce json
// @Security AdminKey
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/sync/{id} [get]
func (h *SyncHandler) Status(c *gin.Context) {
	job, err := h.service.Job(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

func bindCourseQuery(c *gin.Context) (models.CourseQuery, bool) {
	var query models.CourseQuery
	if err := c.ShouldBindJSON(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid sync payload"))
		return query, false
	}
	return query, true
}
