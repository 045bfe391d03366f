package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/ttb-planner-api/internal/models"
	"github.com/noah-isme/ttb-planner-api/internal/timetable"
	appErrors "github.com/noah-isme/ttb-planner-api/pkg/errors"
	"github.com/noah-isme/ttb-planner-api/pkg/export"
	"github.com/noah-isme/ttb-planner-api/pkg/sharelink"
)

// SelectionStore persists saved selections.
type SelectionStore interface {
	Create(ctx context.Context, selection *models.Selection) error
	ListByUser(ctx context.Context, userID string) ([]models.Selection, error)
	FindByID(ctx context.Context, id string) (*models.Selection, error)
	Delete(ctx context.Context, id string) error
}

// CourseLookup resolves stored courses.
type CourseLookup interface {
	GetCourse(ctx context.Context, code, semester string) (*models.Course, error)
}

type icsRenderer interface {
	Render(name string, events []export.WeeklyEvent, now time.Time) ([]byte, error)
}

type tableRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type linkSigner interface {
	Sign(selectionID, format string) (string, time.Time, error)
	Verify(token string) (*sharelink.Link, error)
}

var exportHeaders = []string{"Course", "Title", "Option", "Section", "Day", "Start", "End", "Location", "Instructor"}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SelectionService manages saved selections and their exports.
type SelectionService struct {
	store     SelectionStore
	courses   CourseLookup
	ics       icsRenderer
	csv       tableRenderer
	pdf       tableRenderer
	links     linkSigner
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewSelectionService constructs a SelectionService. Nil renderers fall back to
// the default exporters; a nil ICS renderer disables calendar export.
func NewSelectionService(store SelectionStore, courses CourseLookup, ics icsRenderer, csv, pdf tableRenderer, validate *validator.Validate, logger *zap.Logger) *SelectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &SelectionService{
		store:     store,
		courses:   courses,
		ics:       ics,
		csv:       csv,
		pdf:       pdf,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// WithShareLinks enables share tokens for exports.
func (s *SelectionService) WithShareLinks(signer linkSigner) *SelectionService {
	s.links = signer
	return s
}

// Create validates and saves a selection for userID. Every item must name a
// stored option of the selection's semester.
func (s *SelectionService) Create(ctx context.Context, userID string, req models.CreateSelectionRequest) (*models.Selection, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid selection payload")
	}

	seen := make(map[string]struct{}, len(req.Items))
	items := make([]models.SelectionItem, 0, len(req.Items))
	for _, item := range req.Items {
		key := strings.ToUpper(strings.TrimSpace(item.CourseCode))
		if _, dup := seen[key]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("course %s selected more than once", key))
		}
		seen[key] = struct{}{}

		course, err := s.lookupCourse(ctx, item.CourseCode, req.Semester)
		if err != nil {
			return nil, err
		}
		if _, ok := course.FindOption(item.OptionNumber); !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("option %d of %s not found", item.OptionNumber, course.Code))
		}
		items = append(items, models.SelectionItem{CourseCode: course.Code, OptionNumber: item.OptionNumber})
	}

	selection := &models.Selection{
		UserID:   userID,
		Name:     strings.TrimSpace(req.Name),
		Semester: strings.TrimSpace(req.Semester),
		Items:    items,
	}
	if err := s.store.Create(ctx, selection); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save selection")
	}
	s.logger.Info("selection saved", zap.String("selection_id", selection.ID), zap.Int("items", len(items)))
	return selection, nil
}

// List returns the caller's selections.
func (s *SelectionService) List(ctx context.Context, userID string) ([]models.Selection, error) {
	selections, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list selections")
	}
	if selections == nil {
		selections = []models.Selection{}
	}
	return selections, nil
}

// Get returns a selection owned by userID.
func (s *SelectionService) Get(ctx context.Context, userID, id string) (*models.Selection, error) {
	selection, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "selection not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load selection")
	}
	if selection.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "selection belongs to another user")
	}
	return selection, nil
}

// Delete removes a selection owned by userID.
func (s *SelectionService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete selection")
	}
	return nil
}

// Calendar resolves a selection into its meetings and reports overlapping
// pairs. Items whose course or option has since disappeared are skipped.
func (s *SelectionService) Calendar(ctx context.Context, userID, id string) (*models.SelectionCalendar, error) {
	selection, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.calendarFor(ctx, selection)
}

func (s *SelectionService) calendarFor(ctx context.Context, selection *models.Selection) (*models.SelectionCalendar, error) {
	calendar := &models.SelectionCalendar{
		Selection: *selection,
		Courses:   make([]models.SelectedCourse, 0, len(selection.Items)),
		Conflicts: []models.MeetingConflict{},
	}
	for _, item := range selection.Items {
		course, err := s.lookupCourse(ctx, item.CourseCode, selection.Semester)
		if err != nil {
			if appErrors.FromError(err).Code == appErrors.ErrNotFound.Code {
				s.logger.Warn("selected course no longer stored", zap.String("selection_id", selection.ID), zap.String("course", item.CourseCode))
				continue
			}
			return nil, err
		}
		option, ok := course.FindOption(item.OptionNumber)
		if !ok {
			s.logger.Warn("selected option no longer stored", zap.String("selection_id", selection.ID), zap.String("course", course.Code), zap.Int("option", item.OptionNumber))
			continue
		}
		calendar.Courses = append(calendar.Courses, models.SelectedCourse{
			Code:         course.Code,
			Title:        course.Title,
			OptionNumber: option.Number,
			Meetings:     option.Lectures,
		})
	}

	calendar.Conflicts = findConflicts(calendar.Courses)
	return calendar, nil
}

// Export renders a selection as an iCalendar feed, CSV or PDF.
func (s *SelectionService) Export(ctx context.Context, userID, id string, format models.ExportFormat) (*models.SelectionExport, error) {
	if err := s.checkFormat(format); err != nil {
		return nil, err
	}
	selection, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, selection, format)
}

// ShareLink issues a token that lets anyone holding it download one export of
// the selection, used for calendar subscriptions.
func (s *SelectionService) ShareLink(ctx context.Context, userID, id string, format models.ExportFormat) (*models.ShareLink, error) {
	if s.links == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "share links are not configured")
	}
	if err := s.checkFormat(format); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	token, expiresAt, err := s.links.Sign(id, string(format))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign share link")
	}
	return &models.ShareLink{Token: token, Format: format, ExpiresAt: expiresAt}, nil
}

// ExportShared renders the export named by a share token.
func (s *SelectionService) ExportShared(ctx context.Context, token string) (*models.SelectionExport, error) {
	if s.links == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "share links are not configured")
	}
	link, err := s.links.Verify(token)
	if err != nil {
		if errors.Is(err, sharelink.ErrExpiredToken) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "share link expired")
		}
		return nil, appErrors.Clone(appErrors.ErrNotFound, "share link not found")
	}
	format := models.ExportFormat(link.Format)
	if err := s.checkFormat(format); err != nil {
		return nil, err
	}
	selection, err := s.store.FindByID(ctx, link.SelectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "selection not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load selection")
	}
	return s.render(ctx, selection, format)
}

func (s *SelectionService) checkFormat(format models.ExportFormat) error {
	switch format {
	case models.ExportFormatICS, models.ExportFormatCSV, models.ExportFormatPDF:
	default:
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if format == models.ExportFormatICS && s.ics == nil {
		return appErrors.Clone(appErrors.ErrUnavailable, "calendar export is not configured")
	}
	return nil
}

func (s *SelectionService) render(ctx context.Context, selection *models.Selection, format models.ExportFormat) (*models.SelectionExport, error) {
	calendar, err := s.calendarFor(ctx, selection)
	if err != nil {
		return nil, err
	}
	name := calendar.Selection.Name
	if name == "" {
		name = "selection"
	}
	base := unsafeFilename.ReplaceAllString(name, "_")

	var (
		body        []byte
		contentType string
	)
	switch format {
	case models.ExportFormatICS:
		body, err = s.ics.Render(name, weeklyEvents(calendar), s.now())
		contentType = "text/calendar; charset=utf-8"
	case models.ExportFormatCSV:
		body, err = s.csv.Render(selectionDataset(calendar))
		contentType = "text/csv"
	case models.ExportFormatPDF:
		body, err = s.pdf.Render(selectionDataset(calendar))
		contentType = "application/pdf"
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	return &models.SelectionExport{
		Filename:    base + "." + string(format),
		ContentType: contentType,
		Body:        body,
	}, nil
}

func (s *SelectionService) lookupCourse(ctx context.Context, code, semester string) (*models.Course, error) {
	course, err := s.courses.GetCourse(ctx, strings.TrimSpace(code), strings.TrimSpace(semester))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %s not found for semester %s", strings.ToUpper(code), semester))
		}
		var typed *appErrors.Error
		if errors.As(err, &typed) {
			return nil, typed
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// findConflicts compares meetings across different courses pairwise.
func findConflicts(courses []models.SelectedCourse) []models.MeetingConflict {
	conflicts := []models.MeetingConflict{}
	for i := 0; i < len(courses); i++ {
		for j := i + 1; j < len(courses); j++ {
			for _, a := range courses[i].Meetings {
				for _, b := range courses[j].Meetings {
					if a.Overlaps(b) {
						conflicts = append(conflicts, models.MeetingConflict{
							First:  meetingRef(courses[i].Code, a),
							Second: meetingRef(courses[j].Code, b),
						})
					}
				}
			}
		}
	}
	return conflicts
}

func meetingRef(code string, m models.Meeting) models.MeetingRef {
	return models.MeetingRef{CourseCode: code, Section: m.Section, Day: m.Day, Start: m.Start, End: m.End}
}

func weeklyEvents(calendar *models.SelectionCalendar) []export.WeeklyEvent {
	var events []export.WeeklyEvent
	for _, course := range calendar.Courses {
		for i, m := range course.Meetings {
			idx := timetable.DayIndex(m.Day)
			if idx == 0 {
				continue
			}
			events = append(events, export.WeeklyEvent{
				UID:         fmt.Sprintf("%s-%s-%d-%d@ttb-planner", calendar.Selection.ID, course.Code, course.OptionNumber, i),
				Summary:     fmt.Sprintf("%s %s", course.Code, course.Title),
				Location:    m.Location,
				Description: "Instructor: " + m.Instructor,
				Weekday:     time.Weekday(idx % 7),
				StartSecond: m.Start,
				EndSecond:   m.End,
			})
		}
	}
	return events
}

func selectionDataset(calendar *models.SelectionCalendar) export.Dataset {
	type row struct {
		day   int
		start int
		cells map[string]string
	}
	var rows []row
	for _, course := range calendar.Courses {
		for _, m := range course.Meetings {
			rows = append(rows, row{day: timetable.DayIndex(m.Day), start: m.Start, cells: map[string]string{
				"Course":     course.Code,
				"Title":      course.Title,
				"Option":     strconv.Itoa(course.OptionNumber),
				"Section":    strconv.Itoa(m.Section),
				"Day":        timetable.DayName(m.Day),
				"Start":      timetable.FormatClock(m.Start),
				"End":        timetable.FormatClock(m.End),
				"Location":   m.Location,
				"Instructor": m.Instructor,
			}})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].day != rows[j].day {
			return rows[i].day < rows[j].day
		}
		return rows[i].start < rows[j].start
	})

	data := export.Dataset{
		Title:    calendar.Selection.Name,
		Subtitle: "Semester " + calendar.Selection.Semester,
		Headers:  exportHeaders,
		Rows:     make([]map[string]string, 0, len(rows)),
	}
	for _, r := range rows {
		data.Rows = append(data.Rows, r.cells)
	}
	return data
}
