package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/ttb-planner-api/internal/models"
)

const defaultMeetingSearchLimit = 50

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS courses (
	id BIGSERIAL PRIMARY KEY,
	code TEXT NOT NULL,
	semester TEXT NOT NULL,
	title TEXT NOT NULL,
	UNIQUE (code, semester)
)`,
	`CREATE TABLE IF NOT EXISTS options (
	id BIGSERIAL PRIMARY KEY,
	course_id BIGINT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
	option_number INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS lectures (
	id BIGSERIAL PRIMARY KEY,
	option_id BIGINT NOT NULL REFERENCES options(id) ON DELETE CASCADE,
	section INTEGER NOT NULL,
	day TEXT NOT NULL,
	start_time INTEGER NOT NULL,
	end_time INTEGER NOT NULL,
	location TEXT NOT NULL DEFAULT 'TBA',
	instructor TEXT NOT NULL DEFAULT 'TBA'
)`,
	`CREATE INDEX IF NOT EXISTS idx_courses_code_upper ON courses (UPPER(code))`,
	`CREATE INDEX IF NOT EXISTS idx_lectures_option ON lectures (option_id)`,
	`CREATE TABLE IF NOT EXISTS selections (
	id UUID PRIMARY KEY,
	user_id TEXT NOT NULL,
	name TEXT NOT NULL,
	semester TEXT NOT NULL,
	items JSONB NOT NULL DEFAULT '[]',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_selections_user ON selections (user_id, created_at DESC)`,
}

// CourseRepository persists normalised courses as course -> option -> lecture rows.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// EnsureSchema creates the planner tables when missing.
func (r *CourseRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// ReplaceCourse swaps the stored copy of (code, semester) for the provided course
// in a single transaction and returns the new course id.
func (r *CourseRepository) ReplaceCourse(ctx context.Context, course *models.Course) (id int64, err error) {
	if course == nil {
		return 0, fmt.Errorf("course payload is nil")
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin replace course tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM courses WHERE code = $1 AND semester = $2`, course.Code, course.Semester); err != nil {
		return 0, fmt.Errorf("delete course %s: %w", course.Code, err)
	}

	const insertCourse = `INSERT INTO courses (code, semester, title) VALUES ($1, $2, $3) RETURNING id`
	if err = tx.QueryRowxContext(ctx, insertCourse, course.Code, course.Semester, course.Title).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert course %s: %w", course.Code, err)
	}

	const insertOption = `INSERT INTO options (course_id, option_number) VALUES ($1, $2) RETURNING id`
	const insertLecture = `INSERT INTO lectures (option_id, section, day, start_time, end_time, location, instructor)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for _, opt := range course.Options {
		var optionID int64
		if err = tx.QueryRowxContext(ctx, insertOption, id, opt.Number).Scan(&optionID); err != nil {
			return 0, fmt.Errorf("insert option %d of %s: %w", opt.Number, course.Code, err)
		}
		for _, m := range opt.Lectures {
			if m.Day == "" {
				continue
			}
			if _, err = tx.ExecContext(ctx, insertLecture, optionID, m.Section, string(m.Day), m.Start, m.End, m.Location, m.Instructor); err != nil {
				return 0, fmt.Errorf("insert lecture for %s: %w", course.Code, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit replace course tx: %w", err)
	}
	return id, nil
}

// SearchMeetings lists stored meetings whose course code starts with the
// filter query, ignoring case. An empty query matches every course.
func (r *CourseRepository) SearchMeetings(ctx context.Context, filter models.MeetingSearchFilter) ([]models.MeetingRow, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultMeetingSearchLimit
	}
	const query = `SELECT c.code AS course, l.day, l.start_time, l.end_time, l.location
FROM courses c
JOIN options o ON o.course_id = c.id
JOIN lectures l ON l.option_id = o.id
WHERE UPPER(c.code) LIKE $1 ESCAPE '\'
ORDER BY c.code ASC,
         array_position(ARRAY['mon','tue','wed','thu','fri','sat','sun']::text[], l.day) ASC,
         l.start_time ASC
LIMIT $2`
	pattern := escapeLike(strings.ToUpper(strings.TrimSpace(filter.Query))) + "%"
	rows := []models.MeetingRow{}
	if err := r.db.SelectContext(ctx, &rows, query, pattern, limit); err != nil {
		return nil, fmt.Errorf("search meetings: %w", err)
	}
	return rows, nil
}

// GetCourse loads a stored course with its options. An empty semester picks
// the latest stored semester for the code. Missing courses return sql.ErrNoRows.
func (r *CourseRepository) GetCourse(ctx context.Context, code, semester string) (*models.Course, error) {
	const courseQuery = `SELECT id, code, semester, title FROM courses
WHERE UPPER(code) = UPPER($1) AND ($2 = '' OR semester = $2)
ORDER BY semester DESC LIMIT 1`
	var record models.CourseRecord
	if err := r.db.GetContext(ctx, &record, courseQuery, code, semester); err != nil {
		return nil, err
	}

	const meetingsQuery = `SELECT o.option_number, l.section, l.day, l.start_time, l.end_time, l.location, l.instructor
FROM options o
JOIN lectures l ON l.option_id = o.id
WHERE o.course_id = $1
ORDER BY o.option_number ASC, l.id ASC`
	var stored []models.StoredMeeting
	if err := r.db.SelectContext(ctx, &stored, meetingsQuery, record.ID); err != nil {
		return nil, fmt.Errorf("load course meetings: %w", err)
	}

	course := &models.Course{
		Code:     record.Code,
		Title:    record.Title,
		Semester: record.Semester,
		Options:  []models.Option{},
	}
	for _, row := range stored {
		n := len(course.Options)
		if n == 0 || course.Options[n-1].Number != row.OptionNumber {
			course.Options = append(course.Options, models.Option{Number: row.OptionNumber})
			n++
		}
		course.Options[n-1].Lectures = append(course.Options[n-1].Lectures, row.Meeting)
	}
	return course, nil
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
