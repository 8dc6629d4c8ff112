package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/bfc-aero/charter-leads-api/api/swagger"
	"github.com/bfc-aero/charter-leads-api/internal/handler"
	"github.com/bfc-aero/charter-leads-api/internal/middleware"
	"github.com/bfc-aero/charter-leads-api/internal/repository"
	"github.com/bfc-aero/charter-leads-api/internal/service"
	rediscache "github.com/bfc-aero/charter-leads-api/pkg/cache"
	"github.com/bfc-aero/charter-leads-api/pkg/config"
	"github.com/bfc-aero/charter-leads-api/pkg/database"
	"github.com/bfc-aero/charter-leads-api/pkg/logger"
	corsmiddleware "github.com/bfc-aero/charter-leads-api/pkg/middleware/cors"
	reqidmiddleware "github.com/bfc-aero/charter-leads-api/pkg/middleware/requestid"
)

// @title Charter Leads API
// @version 1.0.0
// @description Lead-capture intake and admin review service for charter flight inquiries
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	redisClient, err := rediscache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, rate limits fall back to per-instance counters", "error", err)
	}

	submissionRepo := repository.NewSubmissionRepository(db)
	operatorRepo := repository.NewOperatorRepository(db)

	metricsSvc := service.NewMetricsService()
	challengeSvc := service.NewChallengeService(cfg.Challenge)
	notifySvc := service.NewNotifyService(cfg.Mail, logr)
	intakeSvc := service.NewIntakeService(submissionRepo, notifySvc, challengeSvc, metricsSvc, cfg.Intake, cfg.Challenge.Enforce, logr)
	adminSvc := service.NewAdminService(submissionRepo, logr)
	authSvc := service.NewAuthService(operatorRepo, validator.New(), logr, cfg.Auth)

	submissionHandler := handler.NewSubmissionHandler(intakeSvc, challengeSvc)
	authHandler := handler.NewAuthHandler(authSvc)
	adminHandler := handler.NewAdminHandler(adminSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	limiter := middleware.NewRateLimiter(redisClient, metricsSvc, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group("/api")
	{
		api.GET("/challenge", submissionHandler.Challenge)

		submit := api.Group("/submissions", limiter.Limit("submit", cfg.RateLimit.SubmitLimit, cfg.RateLimit.Window))
		{
			submit.POST("/booking", submissionHandler.SubmitBooking)
			submit.POST("/contact", submissionHandler.SubmitContact)
		}

		api.POST("/admin/login", limiter.Limit("login", cfg.RateLimit.LoginLimit, cfg.RateLimit.Window), authHandler.Login)

		admin := api.Group("/admin", middleware.Auth(authSvc))
		{
			admin.POST("/logout", middleware.CSRF(authSvc), authHandler.Logout)
			admin.GET("/session", authHandler.Session)
			admin.GET("/submissions", adminHandler.List)
			admin.GET("/submissions/export.csv", adminHandler.ExportCSV)
			admin.GET("/submissions/export.pdf", adminHandler.ExportPDF)
			admin.GET("/submissions/:id", adminHandler.Get)
			admin.PATCH("/submissions/:id", middleware.CSRF(authSvc), adminHandler.Update)
		}
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
