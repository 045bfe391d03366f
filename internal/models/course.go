package models

// Day is a canonical weekday code.
type Day string

const (
	DayMonday    Day = "mon"
	DayTuesday   Day = "tue"
	DayWednesday Day = "wed"
	DayThursday  Day = "thu"
	DayFriday    Day = "fri"
	DaySaturday  Day = "sat"
	DaySunday    Day = "sun"
)

// Weekdays lists the day codes in calendar order, Monday first.
var Weekdays = []Day{DayMonday, DayTuesday, DayWednesday, DayThursday, DayFriday, DaySaturday, DaySunday}

// Meeting is one weekly meeting normalised to a day code and seconds of day.
type Meeting struct {
	Section    int    `db:"section" json:"section"`
	Day        Day    `db:"day" json:"day"`
	Start      int    `db:"start_time" json:"start"`
	End        int    `db:"end_time" json:"end"`
	Location   string `db:"location" json:"location"`
	Instructor string `db:"instructor" json:"instructor"`
}

// Overlaps reports whether two meetings share a day and intersect in time.
// Back to back meetings do not overlap.
func (m Meeting) Overlaps(other Meeting) bool {
	return m.Day == other.Day && m.Start < other.End && other.Start < m.End
}

// Option is one selectable enrollment combination: a lecture section plus
// every section attached to it.
type Option struct {
	Number   int       `json:"number"`
	Lectures []Meeting `json:"lectures"`
}

// Course is a normalised course ready to be stored or rendered.
type Course struct {
	Code     string   `json:"code"`
	Title    string   `json:"title"`
	Semester string   `json:"semester"`
	Options  []Option `json:"options"`
}

// FindOption returns the option with the given number.
func (c *Course) FindOption(number int) (*Option, bool) {
	for i := range c.Options {
		if c.Options[i].Number == number {
			return &c.Options[i], true
		}
	}
	return nil, false
}

// MeetingCount totals meetings across options.
func (c *Course) MeetingCount() int {
	total := 0
	for _, opt := range c.Options {
		total += len(opt.Lectures)
	}
	return total
}

// CourseQuery describes one fetch from the timetable upstream.
type CourseQuery struct {
	Codes     []string `json:"codes" validate:"required,min=1"`
	Session   string   `json:"session"`
	Sessions  []string `json:"sessions"`
	Divisions []string `json:"divisions"`
	PageSize  int      `json:"page_size" validate:"gte=0,lte=500"`
	SearchBy  string   `json:"search_by" validate:"omitempty,oneof=code title strict"`
}

// CourseRecord is a stored course row.
type CourseRecord struct {
	ID       int64  `db:"id" json:"id"`
	Code     string `db:"code" json:"code"`
	Semester string `db:"semester" json:"semester"`
	Title    string `db:"title" json:"title"`
}

// StoredMeeting is a lecture row joined with its option number.
type StoredMeeting struct {
	OptionNumber int `db:"option_number"`
	Meeting
}

// MeetingRow is a flattened search row as read from storage.
type MeetingRow struct {
	Course    string `db:"course"`
	Day       Day    `db:"day"`
	StartTime int    `db:"start_time"`
	EndTime   int    `db:"end_time"`
	Location  string `db:"location"`
}

// MeetingView is the display form of a MeetingRow.
type MeetingView struct {
	Course   string `json:"course"`
	Day      string `json:"day"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Location string `json:"location"`
}

// MeetingSearchFilter filters stored meetings by course code prefix.
type MeetingSearchFilter struct {
	Query string
	Limit int
}
