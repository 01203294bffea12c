package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/mkt-backoffice-api/api/swagger"
	"github.com/noah-isme/mkt-backoffice-api/internal/handler"
	"github.com/noah-isme/mkt-backoffice-api/internal/middleware"
	"github.com/noah-isme/mkt-backoffice-api/internal/models"
	"github.com/noah-isme/mkt-backoffice-api/internal/policy"
	"github.com/noah-isme/mkt-backoffice-api/internal/repository"
	"github.com/noah-isme/mkt-backoffice-api/internal/service"
	"github.com/noah-isme/mkt-backoffice-api/pkg/cache"
	"github.com/noah-isme/mkt-backoffice-api/pkg/config"
	"github.com/noah-isme/mkt-backoffice-api/pkg/database"
	"github.com/noah-isme/mkt-backoffice-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/mkt-backoffice-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/mkt-backoffice-api/pkg/middleware/requestid"
)

// @title Marketplace Back-Office API
// @version 1.0.0
// @description Return lifecycle and commission/profit recomputation service
// @BasePath /api/v1
// @schemes http
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	returnRepo := repository.NewReturnRepository(db)
	commissionRepo := repository.NewCommissionRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	profitRepo := repository.NewProfitRepository(db)
	summaryCache := repository.NewSummaryCache(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()

	authSvc := service.NewAuthService(userRepo, auditRepo, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "mkt-backoffice-api",
	})

	evidencePolicies := policy.FromConfig(cfg.Returns.DefaultEvidence, cfg.Returns.EvidenceByCat)
	returnSvc := service.NewReturnService(returnRepo, auditRepo, evidencePolicies, logr,
		service.WithEarningReverser(commissionRepo, orderRepo),
		service.WithReturnMetrics(metricsSvc),
	)

	recomputeSvc := service.NewRecomputeService(orderRepo, commissionRepo, profitRepo, auditRepo, logr,
		service.WithRecomputeChunkSize(cfg.Recompute.ChunkSize),
		service.WithSummaryCache(summaryCache, cfg.Recompute.SummaryCacheTTL),
		service.WithRecomputeMetrics(metricsSvc),
	)

	ruleSvc := service.NewCommissionRuleService(commissionRepo, auditRepo, logr)
	exportSvc := service.NewExportService(commissionRepo, profitRepo, logr)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	returnHandler := handler.NewReturnHandler(returnSvc)
	ruleHandler := handler.NewCommissionRuleHandler(ruleSvc)
	recomputeHandler := handler.NewRecomputeHandler(recomputeSvc, exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

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
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	returns := api.Group("/returns", middleware.JWT(authSvc))
	{
		returns.POST("", middleware.RequireAtLeast(models.RoleAttendant), returnHandler.Create)
		returns.GET("", returnHandler.List)
		returns.GET("/:id", returnHandler.Get)
		returns.POST("/:id/transition", returnHandler.Transition)
		returns.POST("/:id/pick", returnHandler.Pick)
		returns.POST("/:id/pickup", returnHandler.SchedulePickup)
		returns.POST("/:id/evidence", returnHandler.SubmitEvidence)
		returns.POST("/:id/resolve", middleware.RequireAtLeast(models.RoleAdmin), returnHandler.Resolve)
	}

	commission := api.Group("/commission", middleware.JWT(authSvc))
	{
		commission.GET("/rules", ruleHandler.List)
		if cfg.Commission.RuleAdminEnabled {
			commission.POST("/rules", middleware.RequireAtLeast(models.RoleAdmin), ruleHandler.Create)
		}
	}

	recompute := api.Group("/recompute", middleware.JWT(authSvc), middleware.RequireAtLeast(models.RoleSupervisor))
	{
		recompute.POST("/commissions", recomputeHandler.Commissions)
		recompute.GET("/commissions/summary", recomputeHandler.CommissionSummary)
		recompute.POST("/profit", recomputeHandler.Profit)
		recompute.GET("/earnings/export",
			middleware.Audit(auditRepo, models.AuditActionExportEarnings, "export"),
			recomputeHandler.ExportEarnings)
		recompute.GET("/profit/export",
			middleware.Audit(auditRepo, models.AuditActionExportProfit, "export"),
			recomputeHandler.ExportProfit)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var scheduler *service.RecomputeScheduler
	if cfg.Recompute.ScheduleEnabled {
		scheduler = service.NewRecomputeScheduler(recomputeSvc, logr, service.SchedulerConfig{
			Interval:   cfg.Recompute.ScheduleInterval,
			Window:     cfg.Recompute.ScheduleWindow,
			MaxRetries: cfg.Recompute.WorkerRetries,
		})
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
