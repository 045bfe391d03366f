package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// SelectionItem picks one option of one course.
type SelectionItem struct {
	CourseCode   string `json:"course_code" validate:"required,max=32"`
	OptionNumber int    `json:"option_number" validate:"gte=0"`
}

// Selection is a saved set of picked options for one semester.
type Selection struct {
	ID        string          `db:"id" json:"id"`
	UserID    string          `db:"user_id" json:"user_id"`
	Name      string          `db:"name" json:"name"`
	Semester  string          `db:"semester" json:"semester"`
	RawItems  types.JSONText  `db:"items" json:"-"`
	Items     []SelectionItem `db:"-" json:"items"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// SelectedCourse is a resolved selection item.
type SelectedCourse struct {
	Code         string    `json:"code"`
	Title        string    `json:"title"`
	OptionNumber int       `json:"option_number"`
	Meetings     []Meeting `json:"meetings"`
}

// MeetingRef identifies one meeting inside a selection.
type MeetingRef struct {
	CourseCode string `json:"course_code"`
	Section    int    `json:"section"`
	Day        Day    `json:"day"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
}

// MeetingConflict pairs two overlapping meetings.
type MeetingConflict struct {
	First  MeetingRef `json:"first"`
	Second MeetingRef `json:"second"`
}

// SelectionCalendar is a selection resolved into weekly meetings.
type SelectionCalendar struct {
	Selection Selection         `json:"selection"`
	Courses   []SelectedCourse  `json:"courses"`
	Conflicts []MeetingConflict `json:"conflicts"`
}

// CreateSelectionRequest is the payload for saving a selection.
type CreateSelectionRequest struct {
	Name     string          `json:"name" validate:"required,max=120"`
	Semester string          `json:"semester" validate:"required"`
	Items    []SelectionItem `json:"items" validate:"required,min=1,dive"`
}

// ExportFormat names a selection export encoding.
type ExportFormat string

const (
	ExportFormatICS ExportFormat = "ics"
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// SelectionExport is a rendered selection ready to download.
type SelectionExport struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ShareLink grants token-based read access to one export of a selection.
type ShareLink struct {
	Token     string       `json:"token"`
	Format    ExportFormat `json:"format"`
	Path      string       `json:"path"`
	ExpiresAt time.Time    `json:"expires_at"`
}
