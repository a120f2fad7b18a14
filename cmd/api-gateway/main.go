package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polibaldeo/polibaldeo-api/internal/handler"
	"github.com/polibaldeo/polibaldeo-api/internal/middleware"
	"github.com/polibaldeo/polibaldeo-api/internal/repository"
	"github.com/polibaldeo/polibaldeo-api/internal/service"
	"github.com/polibaldeo/polibaldeo-api/pkg/cache"
	"github.com/polibaldeo/polibaldeo-api/pkg/config"
	"github.com/polibaldeo/polibaldeo-api/pkg/jobs"
	"github.com/polibaldeo/polibaldeo-api/pkg/logger"
	corsmiddleware "github.com/polibaldeo/polibaldeo-api/pkg/middleware/cors"
	reqidmiddleware "github.com/polibaldeo/polibaldeo-api/pkg/middleware/requestid"
	"github.com/polibaldeo/polibaldeo-api/pkg/storage"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
)

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, search memoisation disabled", "error", err)
			redisClient = nil
		}
	}

	// schedule documents resolve against the working directory;
	// absolute paths in requests bypass it entirely
	documents, err := storage.NewLocalStorage(".")
	if err != nil {
		logr.Sugar().Fatalw("failed to init document storage", "error", err)
	}
	exports, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}

	catalogRepo := repository.NewCatalogRepository(documents, logr)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	availabilitySvc := service.NewAvailabilityService()
	catalogSvc := service.NewCatalogService(availabilitySvc, validator.New(), logr, service.CatalogServiceConfig{
		DefaultCredits: cfg.Schedule.DefaultCredits,
		MaxCredits:     cfg.Schedule.MaxCredits,
		OpenHour:       cfg.Schedule.OpenHour,
		CloseHour:      cfg.Schedule.CloseHour,
	})
	combinationSvc := service.NewCombinationService(catalogSvc, cacheRepo, metricsSvc, logr, service.CombinationServiceConfig{
		ResultTTL: cfg.Search.ResultTTL,
		CacheTTL:  cfg.Search.CacheTTL,
	})
	documentSvc := service.NewDocumentService(catalogSvc, catalogRepo, exports, metricsSvc, logr, service.DocumentServiceConfig{
		SemesterWeeks: cfg.Schedule.SemesterWeeks,
	})

	searchQueue := jobs.NewQueue("combination-search", combinationSvc.HandleSearchJob, jobs.QueueConfig{
		Workers: cfg.Search.Workers,
		Logger:  logr,
	})
	searchQueue.Start(context.Background())
	defer searchQueue.Stop()
	combinationSvc.AttachQueue(searchQueue)

	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	documentHandler := handler.NewDocumentHandler(documentSvc)
	combinationHandler := handler.NewCombinationHandler(combinationSvc, catalogSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	{
		catalog := api.Group("/catalog")
		{
			catalog.GET("", catalogHandler.Get)
			catalog.GET("/availability", catalogHandler.Availability)
			catalog.GET("/credits", catalogHandler.Credits)
			catalog.GET("/grid", catalogHandler.Grid)
			catalog.POST("/new", documentHandler.New)
			catalog.POST("/load", documentHandler.Load)
			catalog.POST("/save", documentHandler.Save)
			catalog.POST("/deselect-all", catalogHandler.DeselectAll)

			catalog.POST("/courses", catalogHandler.AddCourse)
			catalog.PUT("/courses/:courseId", catalogHandler.UpdateCourse)
			catalog.DELETE("/courses/:courseId", catalogHandler.DeleteCourse)
			catalog.POST("/courses/:courseId/move", catalogHandler.MoveCourse)

			catalog.POST("/courses/:courseId/sections", catalogHandler.AddSection)
			catalog.PUT("/courses/:courseId/sections/:sectionId", catalogHandler.UpdateSection)
			catalog.DELETE("/courses/:courseId/sections/:sectionId", catalogHandler.DeleteSection)
			catalog.POST("/courses/:courseId/sections/:sectionId/move", catalogHandler.MoveSection)
			catalog.POST("/courses/:courseId/sections/:sectionId/select", catalogHandler.Select)
		}

		combinations := api.Group("/combinations")
		{
			combinations.POST("/search", combinationHandler.Start)
			combinations.GET("/search/:searchId", combinationHandler.Status)
			combinations.DELETE("/search/:searchId", combinationHandler.Cancel)
			combinations.POST("/apply", combinationHandler.Apply)
		}

		exportsGroup := api.Group("/exports")
		{
			exportsGroup.POST("/ics", documentHandler.ExportICS)
			exportsGroup.POST("/pdf", documentHandler.ExportPDF)
			exportsGroup.POST("/csv", documentHandler.ExportCSV)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
