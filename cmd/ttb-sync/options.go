package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/ttb-planner-api/internal/models"
)

var errUsage = errors.New("usage")

// stringList collects a repeatable flag; each value may itself be comma separated.
type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, ",")
}

func (l *stringList) Set(value string) error {
	*l = append(*l, splitCSV(value)...)
	return nil
}

type options struct {
	session   string
	codes     stringList
	codesFile string
	sessions  string
	divisions string
	pageSize  int
	searchBy  string
	dryRun    bool
	planFile  string
	cronSpec  string
	logLevel  string
}

// planEntry is one query of a YAML sync plan.
type planEntry struct {
	Session   string   `yaml:"session"`
	Codes     []string `yaml:"codes"`
	Sessions  []string `yaml:"sessions"`
	Divisions []string `yaml:"divisions"`
	PageSize  int      `yaml:"page_size"`
	SearchBy  string   `yaml:"search_by"`
}

func parseOptions(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("ttb-sync", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.session, "session", "", "Session code to store, e.g. 20259 (required)")
	fs.Var(&opts.codes, "code", "Course code to fetch (repeatable)")
	fs.Var(&opts.codes, "codes", "Comma separated course codes")
	fs.StringVar(&opts.codesFile, "codes-file", "", "File with one course code per line")
	fs.StringVar(&opts.sessions, "sessions", "", "Comma separated sessions sent upstream (default: --session)")
	fs.StringVar(&opts.divisions, "divisions", "", "Comma separated divisions (default from TTB_DIVISIONS)")
	fs.IntVar(&opts.pageSize, "page-size", 0, "Upstream page size (default from TTB_PAGE_SIZE)")
	fs.StringVar(&opts.searchBy, "search-by", "code", "Match codes against code, title or strict")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "Fetch and normalise without writing to the database")
	fs.StringVar(&opts.planFile, "plan", "", "YAML file listing several sync queries")
	fs.StringVar(&opts.cronSpec, "cron", "", "Cron schedule; run repeatedly instead of once")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level (default from LOG_LEVEL)")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: ttb-sync --session 20259 --code CSC108 [--code MAT137 ...] [flags]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return nil, errUsage
	}
	return opts, nil
}

// queries turns the options into sync queries, reading the codes file or plan
// when given. Every query must carry a session and at least one code.
func (o *options) queries() ([]models.CourseQuery, error) {
	if o.planFile != "" {
		raw, err := os.ReadFile(o.planFile)
		if err != nil {
			return nil, fmt.Errorf("read plan: %w", err)
		}
		entries, err := parsePlan(raw)
		if err != nil {
			return nil, err
		}
		queries := make([]models.CourseQuery, 0, len(entries))
		for i, entry := range entries {
			q := o.withDefaults(models.CourseQuery{
				Codes:     entry.Codes,
				Session:   strings.TrimSpace(entry.Session),
				Sessions:  entry.Sessions,
				Divisions: entry.Divisions,
				PageSize:  entry.PageSize,
				SearchBy:  entry.SearchBy,
			})
			if err := checkQuery(q); err != nil {
				return nil, fmt.Errorf("plan entry %d: %w", i+1, err)
			}
			queries = append(queries, q)
		}
		return queries, nil
	}

	codes := append([]string(nil), o.codes...)
	if o.codesFile != "" {
		file, err := os.Open(o.codesFile)
		if err != nil {
			return nil, fmt.Errorf("open codes file: %w", err)
		}
		defer file.Close()
		fromFile, err := readCodes(file)
		if err != nil {
			return nil, err
		}
		codes = append(codes, fromFile...)
	}

	q := o.withDefaults(models.CourseQuery{
		Codes:   codes,
		Session: strings.TrimSpace(o.session),
	})
	if err := checkQuery(q); err != nil {
		return nil, err
	}
	return []models.CourseQuery{q}, nil
}

// withDefaults fills fields a plan entry leaves empty from the command line.
func (o *options) withDefaults(q models.CourseQuery) models.CourseQuery {
	if len(q.Sessions) == 0 {
		q.Sessions = splitCSV(o.sessions)
	}
	if len(q.Divisions) == 0 {
		q.Divisions = splitCSV(o.divisions)
	}
	if q.PageSize == 0 {
		q.PageSize = o.pageSize
	}
	if q.SearchBy == "" {
		q.SearchBy = o.searchBy
	}
	return q
}

func checkQuery(q models.CourseQuery) error {
	if q.Session == "" {
		return fmt.Errorf("%w: --session is required", errUsage)
	}
	if len(q.Codes) == 0 {
		return fmt.Errorf("%w: at least one course code is required", errUsage)
	}
	return nil
}

func parsePlan(raw []byte) ([]planEntry, error) {
	var entries []planEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: plan has no entries", errUsage)
	}
	return entries, nil
}

// readCodes reads codes one per line (commas also separate); blank lines and
// lines starting with # are ignored.
func readCodes(r io.Reader) ([]string, error) {
	var codes []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		codes = append(codes, splitCSV(line)...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read codes: %w", err)
	}
	return codes, nil
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
