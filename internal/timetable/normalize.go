package timetable

import (
	"github.com/noah-isme/ttb-planner-api/internal/models"
	"github.com/noah-isme/ttb-planner-api/pkg/ttb"
)

// UntitledCourse names a course that carries no title or code at all.
const UntitledCourse = "Untitled Course"

// NormalizeCourse reduces a raw course to its schedulable options for session.
// It reports false when no option survives.
func NormalizeCourse(course ttb.RawCourse, session string) (*models.Course, bool) {
	options := MergeSections(course.Sections, session)
	if len(options) == 0 {
		return nil, false
	}

	return &models.Course{
		Code:     string(course.Code),
		Title:    courseTitle(course),
		Semester: courseSemester(course, session),
		Options:  options,
	}, true
}

func courseTitle(course ttb.RawCourse) string {
	if course.Name != "" {
		return string(course.Name)
	}
	if course.CMCourseInfo != nil && course.CMCourseInfo.Title != "" {
		return string(course.CMCourseInfo.Title)
	}
	if course.Code != "" {
		return string(course.Code)
	}
	return UntitledCourse
}

func courseSemester(course ttb.RawCourse, session string) string {
	if session != "" {
		return session
	}
	if len(course.Sessions) > 0 {
		return string(course.Sessions[0])
	}
	return ""
}
