package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ttb-planner-api/internal/models"
	appErrors "github.com/noah-isme/ttb-planner-api/pkg/errors"
)

type fakeCourseReadService struct {
	views    []models.MeetingView
	hit      bool
	course   *models.Course
	err      error
	lastQ    string
	lastCode string
	lastSem  string
}

func (f *fakeCourseReadService) SearchMeetings(_ context.Context, q string) ([]models.MeetingView, bool, error) {
	f.lastQ = q
	return f.views, f.hit, f.err
}

func (f *fakeCourseReadService) GetCourse(_ context.Context, code, semester string) (*models.Course, error) {
	f.lastCode, f.lastSem = code, semester
	return f.course, f.err
}

type fakeCourseFetchService struct {
	courses []models.Course
	err     error
	last    models.CourseQuery
}

func (f *fakeCourseFetchService) GetCourses(_ context.Context, q models.CourseQuery) ([]models.Course, error) {
	f.last = q
	return f.courses, f.err
}

func TestCourseHandlerMeetings(t *testing.T) {
	svc := &fakeCourseReadService{
		views: []models.MeetingView{{Course: "CSC108H1", Day: "monday", Start: "10:00", End: "11:00", Location: "BA 1130"}},
		hit:   true,
	}
	handler := NewCourseHandler(svc, nil)
	c, rec := newTestContext(http.MethodGet, "/courses/meetings?q=csc", nil)

	handler.Meetings(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "csc", svc.lastQ)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, true, env.Meta["cache_hit"])
	assert.EqualValues(t, 1, env.Meta["count"])
	var views []models.MeetingView
	require.NoError(t, json.Unmarshal(env.Data, &views))
	assert.Equal(t, svc.views, views)
}

func TestCourseHandlerGet(t *testing.T) {
	svc := &fakeCourseReadService{course: &models.Course{Code: "CSC108H1", Semester: "20259"}}
	handler := NewCourseHandler(svc, nil)
	c, rec := newTestContext(http.MethodGet, "/courses/CSC108H1?semester=20259", nil)
	c.Params = gin.Params{{Key: "code", Value: "CSC108H1"}}

	handler.Get(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CSC108H1", svc.lastCode)
	assert.Equal(t, "20259", svc.lastSem)
}

func TestCourseHandlerGetNotFound(t *testing.T) {
	svc := &fakeCourseReadService{err: appErrors.Clone(appErrors.ErrNotFound, "course not found")}
	handler := NewCourseHandler(svc, nil)
	c, rec := newTestContext(http.MethodGet, "/courses/NOPE", nil)
	c.Params = gin.Params{{Key: "code", Value: "NOPE"}}

	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeEnvelope(t, rec).Error.Code)
}

func TestCourseHandlerSearchBuildsQuery(t *testing.T) {
	fetcher := &fakeCourseFetchService{courses: []models.Course{{Code: "CSC108H1"}}}
	handler := NewCourseHandler(&fakeCourseReadService{}, fetcher)
	c, rec := newTestContext(http.MethodGet, "/courses/search?codes=CSC108,+MAT137&code=STA130&session=20259&divisions=ARTSC&search_by=strict", nil)

	handler.Search(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.CourseQuery{
		Codes:     []string{"STA130", "CSC108", "MAT137"},
		Session:   "20259",
		Divisions: []string{"ARTSC"},
		SearchBy:  "strict",
	}, fetcher.last)
}

func TestCourseHandlerSearchErrors(t *testing.T) {
	handler := NewCourseHandler(&fakeCourseReadService{}, &fakeCourseFetchService{})
	c, rec := newTestContext(http.MethodGet, "/courses/search", nil)
	handler.Search(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	handler = NewCourseHandler(&fakeCourseReadService{}, &fakeCourseFetchService{err: appErrors.Clone(appErrors.ErrUpstream, "timetable request failed")})
	c, rec = newTestContext(http.MethodGet, "/courses/search?codes=CSC108", nil)
	handler.Search(c)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	handler = NewCourseHandler(&fakeCourseReadService{}, nil)
	c, rec = newTestContext(http.MethodGet, "/courses/search?codes=CSC108", nil)
	handler.Search(c)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
