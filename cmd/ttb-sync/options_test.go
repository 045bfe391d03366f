package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ttb-planner-api/internal/models"
)

func TestQueriesFromFlags(t *testing.T) {
	dir := t.TempDir()
	codesFile := filepath.Join(dir, "codes.txt")
	require.NoError(t, os.WriteFile(codesFile, []byte("# first year\nSTA130\n\nMAT223, MAT224\n"), 0o600))

	opts, err := parseOptions([]string{
		"--session", "20259",
		"--code", "CSC108",
		"--codes", "MAT137,CSC148",
		"--codes-file", codesFile,
		"--sessions", "20259,20261",
		"--divisions", "ARTSC",
		"--page-size", "20",
		"--search-by", "strict",
	}, &bytes.Buffer{})
	require.NoError(t, err)

	queries, err := opts.queries()
	require.NoError(t, err)
	assert.Equal(t, []models.CourseQuery{{
		Codes:     []string{"CSC108", "MAT137", "CSC148", "STA130", "MAT223", "MAT224"},
		Session:   "20259",
		Sessions:  []string{"20259", "20261"},
		Divisions: []string{"ARTSC"},
		PageSize:  20,
		SearchBy:  "strict",
	}}, queries)
}

func TestQueriesRequireSessionAndCodes(t *testing.T) {
	opts, err := parseOptions([]string{"--code", "CSC108"}, &bytes.Buffer{})
	require.NoError(t, err)
	_, err = opts.queries()
	assert.True(t, errors.Is(err, errUsage))

	opts, err = parseOptions([]string{"--session", "20259"}, &bytes.Buffer{})
	require.NoError(t, err)
	_, err = opts.queries()
	assert.True(t, errors.Is(err, errUsage))
}

func TestParseOptionsUnknownFlag(t *testing.T) {
	stderr := &bytes.Buffer{}
	_, err := parseOptions([]string{"--nope"}, stderr)
	assert.Equal(t, errUsage, err)
	assert.Contains(t, stderr.String(), "Usage: ttb-sync")
}

func TestQueriesFromPlan(t *testing.T) {
	plan := `
- session: "20259"
  codes: [CSC108, CSC148]
  search_by: strict
- session: "20261"
  codes: [MAT137]
  divisions: [APSC]
  page_size: 10
`
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(plan), 0o600))

	opts, err := parseOptions([]string{"--plan", path, "--divisions", "ARTSC"}, &bytes.Buffer{})
	require.NoError(t, err)

	queries, err := opts.queries()
	require.NoError(t, err)
	require.Len(t, queries, 2)
	assert.Equal(t, "20259", queries[0].Session)
	assert.Equal(t, []string{"CSC108", "CSC148"}, queries[0].Codes)
	assert.Equal(t, "strict", queries[0].SearchBy)
	assert.Equal(t, []string{"ARTSC"}, queries[0].Divisions)
	assert.Equal(t, []string{"APSC"}, queries[1].Divisions)
	assert.Equal(t, 10, queries[1].PageSize)
	assert.Equal(t, "code", queries[1].SearchBy)
}

func TestParsePlanRejectsEmptyAndInvalid(t *testing.T) {
	_, err := parsePlan([]byte("[]"))
	assert.True(t, errors.Is(err, errUsage))

	_, err = parsePlan([]byte("session: [unterminated"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- codes: [CSC108]\n"), 0o600))
	opts := &options{planFile: path}
	_, err = opts.queries()
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "plan entry 1"))
}

func TestPrintReport(t *testing.T) {
	out := &bytes.Buffer{}
	printReport(out, &models.SyncReport{
		Session: "20259",
		DryRun:  true,
		Courses: []models.CourseSummary{{Code: "CSC108H1", Semester: "20259", Title: "Intro", Options: 2, Meetings: 5}},
	})
	assert.Equal(t, "would store CSC108H1 20259: 2 options, 5 meetings (Intro)\n1 courses for session 20259\n", out.String())
}
