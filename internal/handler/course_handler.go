package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ttb-planner-api/internal/middleware"
	"github.com/noah-isme/ttb-planner-api/internal/models"
	appErrors "github.com/noah-isme/ttb-planner-api/pkg/errors"
	"github.com/noah-isme/ttb-planner-api/pkg/response"
)

type courseReadService interface {
	SearchMeetings(ctx context.Context, query string) ([]models.MeetingView, bool, error)
	GetCourse(ctx context.Context, code, semester string) (*models.Course, error)
}

type courseFetchService interface {
	GetCourses(ctx context.Context, query models.CourseQuery) ([]models.Course, error)
}

// CourseHandler serves stored courses and live upstream searches.
type CourseHandler struct {
	courses courseReadService
	fetcher courseFetchService
}

// NewCourseHandler constructs the handler. fetcher may be nil to disable live search.
func NewCourseHandler(courses courseReadService, fetcher courseFetchService) *CourseHandler {
	return &CourseHandler{courses: courses, fetcher: fetcher}
}

// Meetings godoc
// @Summary Search stored meetings
// @Description Lists meetings of stored courses whose code starts with q
// @Tags Courses
// @Produce json
// @Param q query string false "Course code prefix"
// @Success 200 {object} response.Envelope
// @Router /courses/meetings [get]
func (h *CourseHandler) Meetings(c *gin.Context) {
	views, cacheHit, err := h.courses.SearchMeetings(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := responseMeta(c)
	meta["count"] = len(views)
	response.JSON(c, http.StatusOK, views, nil, meta)
}

// Get godoc
// @Summary Get stored course
// @Tags Courses
// @Produce json
// @Param code path string true "Course code"
// @Param semester query string false "Semester, latest when omitted"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{code} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.courses.GetCourse(c.Request.Context(), c.Param("code"), c.Query("semester"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Search godoc
// @Summary Search the live timetable
// @Description Fetches and normalises courses from the upstream timetable
// @Tags Courses
// @Produce json
// @Param codes query string true "Comma separated course codes"
// @Param session query string false "Session code"
// @Param sessions query string false "Comma separated session codes"
// @Param divisions query string false "Comma separated divisions"
// @Param search_by query string false "code, title or strict"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /courses/search [get]
func (h *CourseHandler) Search(c *gin.Context) {
	if h.fetcher == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnavailable, "live search is disabled"))
		return
	}
	query := models.CourseQuery{
		Codes:     splitList(append(c.QueryArray("code"), c.QueryArray("codes")...)),
		Session:   strings.TrimSpace(c.Query("session")),
		Sessions:  splitList(c.QueryArray("sessions")),
		Divisions: splitList(c.QueryArray("divisions")),
		SearchBy:  strings.TrimSpace(c.Query("search_by")),
	}
	if len(query.Codes) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "codes is required"))
		return
	}

	courses, err := h.fetcher.GetCourses(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil, map[string]interface{}{"count": len(courses)})
}

// splitList flattens repeated and comma separated query values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
