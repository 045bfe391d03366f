// Command ttb-sync fetches courses from the timetable and stores them for the
// planner API. It runs once, or repeatedly with --cron.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/ttb-planner-api/internal/models"
	"github.com/noah-isme/ttb-planner-api/internal/repository"
	"github.com/noah-isme/ttb-planner-api/internal/service"
	"github.com/noah-isme/ttb-planner-api/pkg/cache"
	"github.com/noah-isme/ttb-planner-api/pkg/config"
	"github.com/noah-isme/ttb-planner-api/pkg/database"
	"github.com/noah-isme/ttb-planner-api/pkg/logger"
	"github.com/noah-isme/ttb-planner-api/pkg/ttb"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseOptions(args, stderr)
	if err != nil {
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return 1
	}
	if opts.planFile == "" && cfg.Sync.PlanFile != "" && len(opts.codes) == 0 && opts.codesFile == "" {
		opts.planFile = cfg.Sync.PlanFile
	}
	if opts.cronSpec == "" {
		opts.cronSpec = cfg.Sync.Cron
	}

	queries, err := opts.queries()
	if err != nil {
		fmt.Fprintf(stderr, "ttb-sync: %v\n", err)
		if errors.Is(err, errUsage) {
			fmt.Fprintln(stderr, "Usage: ttb-sync --session 20259 --code CSC108 [--code MAT137 ...] [flags]")
		}
		return 1
	}

	level := opts.logLevel
	if level == "" {
		level = cfg.Log.Level
	}
	logr, err := logger.NewCLI(level)
	if err != nil {
		fmt.Fprintf(stderr, "failed to init logger: %v\n", err)
		return 1
	}
	defer logr.Sync() //nolint:errcheck

	syncSvc, cleanup, err := buildSyncService(ctx, cfg, opts.dryRun, logr)
	if err != nil {
		logr.Error("setup failed", zap.Error(err))
		return 1
	}
	defer cleanup()

	runAll := func() error {
		for _, q := range queries {
			report, err := syncSvc.Run(ctx, q, opts.dryRun)
			if err != nil {
				return err
			}
			printReport(stdout, report)
			if len(report.Courses) == 0 {
				logr.Warn("no courses found", zap.Strings("codes", q.Codes), zap.String("session", q.Session))
			}
		}
		return nil
	}

	if opts.cronSpec == "" {
		if err := runAll(); err != nil {
			logr.Error("sync failed", zap.Error(err))
			return 1
		}
		return 0
	}

	scheduler := cron.New(cron.WithLogger(cron.DiscardLogger))
	if _, err := scheduler.AddFunc(opts.cronSpec, func() {
		if err := runAll(); err != nil {
			logr.Error("scheduled sync failed", zap.Error(err))
		}
	}); err != nil {
		fmt.Fprintf(stderr, "ttb-sync: invalid --cron %q: %v\n", opts.cronSpec, err)
		return 1
	}
	logr.Info("sync scheduled", zap.String("cron", opts.cronSpec), zap.Int("queries", len(queries)))
	scheduler.Start()
	<-ctx.Done()
	<-scheduler.Stop().Done()
	return 0
}

// buildSyncService wires the fetcher and, unless dryRun, the database writer
// and meeting cache invalidation.
func buildSyncService(ctx context.Context, cfg *config.Config, dryRun bool, logr *zap.Logger) (*service.SyncService, func(), error) {
	client := ttb.NewClient(ttb.ClientConfig{
		BaseURL: cfg.Upstream.BaseURL,
		Timeout: cfg.Upstream.Timeout,
		Logger:  logr,
	})
	fetcher := service.NewCourseFetchService(client, nil, logr, service.CourseFetchConfig{
		Divisions:   cfg.Upstream.Divisions,
		PageSize:    cfg.Upstream.PageSize,
		Concurrency: cfg.Upstream.Concurrency,
	})

	cleanup := func() {}
	var (
		writer      service.CourseWriter
		invalidator service.MeetingCacheInvalidator
	)
	if !dryRun {
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		repo := repository.NewCourseRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		writer = repo

		redisClient, err := cache.NewRedis(ctx, cfg.Redis, cfg.Cache.Enabled)
		if err != nil {
			logr.Warn("redis unavailable, meeting cache will not be invalidated", zap.Error(err))
		}
		cacheRepo := repository.NewCacheRepository(redisClient)
		cacheSvc := service.NewCacheService(cacheRepo, nil, cfg.Cache.TTL, logr, redisClient != nil)
		invalidator = service.NewCourseService(repo, cacheSvc, nil, logr)

		cleanup = func() {
			_ = cacheRepo.Close()
			_ = db.Close()
		}
	}

	svc := service.NewSyncService(fetcher, writer, invalidator, nil, nil, logr, service.SyncServiceConfig{})
	return svc, cleanup, nil
}

func printReport(w io.Writer, report *models.SyncReport) {
	verb := "stored"
	if report.DryRun {
		verb = "would store"
	}
	for _, c := range report.Courses {
		fmt.Fprintf(w, "%s %s %s: %d options, %d meetings (%s)\n", verb, c.Code, c.Semester, c.Options, c.Meetings, c.Title)
	}
	fmt.Fprintf(w, "%d courses for session %s\n", len(report.Courses), report.Session)
}
