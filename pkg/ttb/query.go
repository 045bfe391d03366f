package ttb

import "strings"

// SearchBy selects which upstream field a query term is matched against.
type SearchBy string

const (
	// SearchByCode matches the term against both the course code and title fields.
	SearchByCode SearchBy = "code"
	// SearchByTitle matches the term against the title field only.
	SearchByTitle SearchBy = "title"
	// SearchByStrict matches the term against the course code field only.
	SearchByStrict SearchBy = "strict"
)

// DefaultDivisions is used when a query names no divisions.
var DefaultDivisions = []string{"ARTSC", "APSC"}

// DefaultPageSize is used when a query leaves the page size unset.
const DefaultPageSize = 50

// Query scopes one upstream search.
type Query struct {
	Code      string
	Sessions  []string
	Divisions []string
	Page      int
	PageSize  int
	SearchBy  SearchBy
}

type courseCodeAndTitleProps struct {
	CourseCode              string `json:"courseCode"`
	CourseTitle             string `json:"courseTitle"`
	CourseSectionCode       string `json:"courseSectionCode"`
	SearchCourseDescription bool   `json:"searchCourseDescription"`
}

type requestBody struct {
	CourseCodeAndTitleProps courseCodeAndTitleProps `json:"courseCodeAndTitleProps"`
	DepartmentProps         []string                `json:"departmentProps"`
	Campuses                []string                `json:"campuses"`
	Sessions                []string                `json:"sessions,omitempty"`
	RequirementProps        []string                `json:"requirementProps"`
	Instructor              string                  `json:"instructor"`
	CourseLevels            []string                `json:"courseLevels"`
	DeliveryModes           []string                `json:"deliveryModes"`
	DayPreferences          []string                `json:"dayPreferences"`
	TimePreferences         []string                `json:"timePreferences"`
	Divisions               []string                `json:"divisions"`
	CreditWeights           []string                `json:"creditWeights"`
	AvailableSpace          bool                    `json:"availableSpace"`
	WaitListable            bool                    `json:"waitListable"`
	Page                    int                     `json:"page"`
	PageSize                int                     `json:"pageSize"`
	Direction               string                  `json:"direction"`
}

func buildRequestBody(q Query) requestBody {
	term := strings.TrimSpace(q.Code)
	props := courseCodeAndTitleProps{SearchCourseDescription: true}
	switch q.SearchBy {
	case SearchByTitle:
		props.CourseTitle = term
	case SearchByCode, "":
		props.CourseCode = term
		props.CourseTitle = term
	default:
		props.CourseCode = term
	}

	divisions := q.Divisions
	if len(divisions) == 0 {
		divisions = DefaultDivisions
	}
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	page := q.Page
	if page <= 0 {
		page = 1
	}

	empty := []string{}
	return requestBody{
		CourseCodeAndTitleProps: props,
		DepartmentProps:         empty,
		Campuses:                empty,
		Sessions:                q.Sessions,
		RequirementProps:        empty,
		CourseLevels:            empty,
		DeliveryModes:           empty,
		DayPreferences:          empty,
		TimePreferences:         empty,
		Divisions:               divisions,
		CreditWeights:           empty,
		Page:                    page,
		PageSize:                pageSize,
		Direction:               "asc",
	}
}
