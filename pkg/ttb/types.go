package ttb

// Upstream category and flag values.
const (
	TeachMethodLecture   = "LEC"
	TeachMethodTutorial  = "TUT"
	TeachMethodPractical = "PRA"

	CancelledFlag = "Y"
)

// RawCourse is a course as returned by the timetable endpoint.
type RawCourse struct {
	Code         FlexString       `json:"code"`
	Name         FlexString       `json:"name"`
	CMCourseInfo *RawCourseInfo   `json:"cmCourseInfo,omitempty"`
	Sessions     List[FlexString] `json:"sessions"`
	Sections     List[RawSection] `json:"sections"`
}

// RawCourseInfo carries calendar metadata nested under a course.
type RawCourseInfo struct {
	Title       FlexString `json:"title"`
	Description FlexString `json:"description"`
}

// HasSession reports whether the course is offered in the given session.
func (c RawCourse) HasSession(session string) bool {
	for _, s := range c.Sessions {
		if string(s) == session {
			return true
		}
	}
	return false
}

// RawSection is one teaching section (lecture, tutorial, practical) of a course.
type RawSection struct {
	Name                  FlexString             `json:"name"`
	SectionNumber         FlexString             `json:"sectionNumber"`
	TeachMethod           FlexString             `json:"teachMethod"`
	CancelInd             FlexString             `json:"cancelInd"`
	MeetingTimes          List[RawMeetingTime]   `json:"meetingTimes"`
	Instructors           List[RawInstructor]    `json:"instructors"`
	LinkedMeetingSections List[RawLinkedSection] `json:"linkedMeetingSections"`
}

// Cancelled reports whether the section carries the cancellation flag.
func (s RawSection) Cancelled() bool {
	return string(s.CancelInd) == CancelledFlag
}

// IsLecture reports whether the section is lecture category.
func (s RawSection) IsLecture() bool {
	return string(s.TeachMethod) == TeachMethodLecture
}

// RawMeetingTime is one weekly meeting of a section.
type RawMeetingTime struct {
	Start       *RawTimePoint `json:"start,omitempty"`
	End         *RawTimePoint `json:"end,omitempty"`
	SessionCode FlexString    `json:"sessionCode"`
	Building    *RawBuilding  `json:"building,omitempty"`
}

// RawTimePoint is a weekday index (1 = Monday) plus millisecond-of-day offset.
type RawTimePoint struct {
	Day         FlexNumber `json:"day"`
	MillisOfDay FlexNumber `json:"millisofday"`
}

// RawBuilding locates a meeting.
type RawBuilding struct {
	BuildingCode       FlexString `json:"buildingCode"`
	BuildingRoomNumber FlexString `json:"buildingRoomNumber"`
	BuildingRoomSuffix FlexString `json:"buildingRoomSuffix"`
}

// RawInstructor is a person teaching a section.
type RawInstructor struct {
	FirstName FlexString `json:"firstName"`
	LastName  FlexString `json:"lastName"`
}

// RawLinkedSection is a cross-reference from one section to another.
type RawLinkedSection struct {
	TeachMethod   FlexString `json:"teachMethod"`
	SectionNumber FlexString `json:"sectionNumber"`
}

type searchResponse struct {
	Payload *struct {
		PageableCourse *struct {
			Courses List[RawCourse] `json:"courses"`
		} `json:"pageableCourse"`
	} `json:"payload"`
}

func (r searchResponse) courses() []RawCourse {
	if r.Payload == nil || r.Payload.PageableCourse == nil {
		return []RawCourse{}
	}
	if r.Payload.PageableCourse.Courses == nil {
		return []RawCourse{}
	}
	return r.Payload.PageableCourse.Courses
}
