package timetable

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ttb-planner-api/internal/models"
	"github.com/noah-isme/ttb-planner-api/pkg/ttb"
)

const sampleCourse = `{
	"code": "ABC100H1",
	"name": "Intro",
	"sessions": ["20259"],
	"sections": [{
		"sectionNumber": "1",
		"teachMethod": "LEC",
		"meetingTimes": [{
			"start": {"day": 2, "millisofday": 36000000},
			"end": {"day": 2, "millisofday": 39600000}
		}],
		"instructors": [{"firstName": "Jane", "lastName": "Doe"}]
	}]
}`

func decodeCourse(t *testing.T, raw string) ttb.RawCourse {
	t.Helper()
	var course ttb.RawCourse
	require.NoError(t, json.Unmarshal([]byte(raw), &course))
	return course
}

func TestNormalizeCourseEndToEnd(t *testing.T) {
	course, ok := NormalizeCourse(decodeCourse(t, sampleCourse), "20259")
	require.True(t, ok)

	assert.Equal(t, &models.Course{
		Code:     "ABC100H1",
		Title:    "Intro",
		Semester: "20259",
		Options: []models.Option{{
			Number: 0,
			Lectures: []models.Meeting{{
				Section:    1,
				Day:        models.DayTuesday,
				Start:      36000,
				End:        39600,
				Location:   "TBA",
				Instructor: "Jane Doe",
			}},
		}},
	}, course)
}

func TestNormalizeCourseSkipsCoursesWithoutOptions(t *testing.T) {
	raw := decodeCourse(t, `{"code": "XYZ999", "sections": [{"sectionNumber": "1", "teachMethod": "LEC", "cancelInd": "Y",
		"meetingTimes": [{"start": {"day": 1, "millisofday": 0}, "end": {"day": 1, "millisofday": 3600000}}]}]}`)

	course, ok := NormalizeCourse(raw, "")
	assert.False(t, ok)
	assert.Nil(t, course)
}

func TestNormalizeCourseTitleFallbacks(t *testing.T) {
	base := decodeCourse(t, sampleCourse)

	withInfo := base
	withInfo.Name = ""
	withInfo.CMCourseInfo = &ttb.RawCourseInfo{Title: "Calendar Title"}
	course, ok := NormalizeCourse(withInfo, "")
	require.True(t, ok)
	assert.Equal(t, "Calendar Title", course.Title)

	codeOnly := base
	codeOnly.Name = ""
	course, ok = NormalizeCourse(codeOnly, "")
	require.True(t, ok)
	assert.Equal(t, "ABC100H1", course.Title)

	bare := base
	bare.Name = ""
	bare.Code = ""
	course, ok = NormalizeCourse(bare, "")
	require.True(t, ok)
	assert.Equal(t, UntitledCourse, course.Title)
}

func TestNormalizeCourseSemesterFallbacks(t *testing.T) {
	raw := decodeCourse(t, sampleCourse)

	course, ok := NormalizeCourse(raw, "")
	require.True(t, ok)
	assert.Equal(t, "20259", course.Semester)

	raw.Sessions = nil
	course, ok = NormalizeCourse(raw, "")
	require.True(t, ok)
	assert.Equal(t, "", course.Semester)
}

func TestNormalizeCourseToleratesMalformedFields(t *testing.T) {
	raw := decodeCourse(t, `{
		"code": 12345,
		"name": null,
		"sessions": "20259",
		"sections": [null, "junk", {
			"sectionNumber": 7,
			"teachMethod": "LEC",
			"instructors": {"firstName": "x"},
			"meetingTimes": [
				{"start": {"day": "2", "millisofday": 0}, "end": {"day": 2, "millisofday": 3600000}},
				{"start": {"day": 4, "millisofday": "bad"}, "end": {"day": 4, "millisofday": 3600000}},
				{"start": {"day": 5, "millisofday": 32400000}, "end": {"day": 5, "millisofday": 36000000},
				 "building": {"buildingCode": "BA", "buildingRoomNumber": 1130}}
			]
		}]
	}`)

	course, ok := NormalizeCourse(raw, "")
	require.True(t, ok)
	assert.Equal(t, "12345", course.Code)
	assert.Equal(t, "12345", course.Title)
	assert.Equal(t, "", course.Semester)
	require.Len(t, course.Options, 1)
	require.Len(t, course.Options[0].Lectures, 1)

	m := course.Options[0].Lectures[0]
	assert.Equal(t, 7, m.Section)
	assert.Equal(t, models.DayFriday, m.Day)
	assert.Equal(t, "BA 1130", m.Location)
	assert.Equal(t, Placeholder, m.Instructor)
}
