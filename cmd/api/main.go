package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/ttb-planner-api/api/swagger"
	"github.com/noah-isme/ttb-planner-api/internal/handler"
	"github.com/noah-isme/ttb-planner-api/internal/middleware"
	"github.com/noah-isme/ttb-planner-api/internal/repository"
	"github.com/noah-isme/ttb-planner-api/internal/service"
	"github.com/noah-isme/ttb-planner-api/pkg/cache"
	"github.com/noah-isme/ttb-planner-api/pkg/config"
	"github.com/noah-isme/ttb-planner-api/pkg/database"
	"github.com/noah-isme/ttb-planner-api/pkg/export"
	"github.com/noah-isme/ttb-planner-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/ttb-planner-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/ttb-planner-api/pkg/middleware/requestid"
	"github.com/noah-isme/ttb-planner-api/pkg/sharelink"
	"github.com/noah-isme/ttb-planner-api/pkg/ttb"
)

// @title TTB Planner API
// @version 1.0.0
// @description Course timetable search, saved selections and calendar export
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis, cfg.Cache.Enabled)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}

	courseRepo := repository.NewCourseRepository(db)
	if err := courseRepo.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	selectionRepo := repository.NewSelectionRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)
	defer cacheRepo.Close() //nolint:errcheck

	validate := validator.New()
	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled && redisClient != nil)

	client := ttb.NewClient(ttb.ClientConfig{
		BaseURL:  cfg.Upstream.BaseURL,
		Timeout:  cfg.Upstream.Timeout,
		Logger:   logr,
		Observer: metrics,
	})
	fetchSvc := service.NewCourseFetchService(client, validate, logr, service.CourseFetchConfig{
		Divisions:   cfg.Upstream.Divisions,
		PageSize:    cfg.Upstream.PageSize,
		Concurrency: cfg.Upstream.Concurrency,
	})
	courseSvc := service.NewCourseService(courseRepo, cacheSvc, metrics, logr)
	authSvc := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
		AdminKeyHash:      cfg.Admin.APIKeyHash,
	})

	icsExporter, err := export.NewICSExporter(cfg.Export.Timezone, cfg.Export.TermStart, cfg.Export.TermEnd)
	if err != nil {
		return err
	}
	selectionSvc := service.NewSelectionService(selectionRepo, courseRepo, icsExporter, export.NewCSVExporter(), export.NewPDFExporter(), validate, logr).
		WithShareLinks(sharelink.NewSigner(cfg.JWT.Secret, cfg.Export.ShareLinkTTL))

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics, map[string]handler.Pinger{
		"postgres": db.PingContext,
		"redis": func(ctx context.Context) error {
			if redisClient == nil {
				return nil
			}
			return redisClient.Ping(ctx).Err()
		},
	})
	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta())

	authHandler := handler.NewAuthHandler(authSvc)
	api.POST("/auth/guest", authHandler.Guest)

	courseHandler := handler.NewCourseHandler(courseSvc, fetchSvc)
	courses := api.Group("/courses")
	courses.GET("/meetings", courseHandler.Meetings)
	courses.GET("/search", courseHandler.Search)
	courses.GET("/:code", courseHandler.Get)

	selectionHandler := handler.NewSelectionHandler(selectionSvc, cfg.APIPrefix+"/feeds")
	api.GET("/feeds/:token", selectionHandler.Feed)
	selections := api.Group("/selections", middleware.JWT(authSvc))
	selections.POST("", selectionHandler.Create)
	selections.GET("", selectionHandler.List)
	selections.GET("/:id", selectionHandler.Get)
	selections.DELETE("/:id", selectionHandler.Delete)
	selections.GET("/:id/calendar", selectionHandler.Calendar)
	selections.GET("/:id/export", selectionHandler.Export)
	selections.POST("/:id/share", selectionHandler.Share)

	if cfg.Sync.APIEnabled {
		if !authSvc.AdminEnabled() {
			logr.Warn("sync API enabled without ADMIN_API_KEY_HASH; admin routes will reject every request")
		}
		syncSvc := service.NewSyncService(fetchSvc, courseRepo, courseSvc, metrics, validate, logr, service.SyncServiceConfig{
			Workers: cfg.Sync.Workers,
			Retries: cfg.Sync.Retries,
		})
		syncSvc.Start(ctx)
		defer syncSvc.Stop()

		syncHandler := handler.NewSyncHandler(syncSvc)
		admin := api.Group("/admin", middleware.AdminKey(authSvc))
		admin.POST("/sync", syncHandler.Enqueue)
		admin.POST("/sync/preview", syncHandler.Preview)
		admin.GET("/sync/:id", syncHandler.Status)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
