package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/Umair-28/logistics-management/internal/app"
	"github.com/Umair-28/logistics-management/internal/auth"
	"github.com/Umair-28/logistics-management/internal/contract"
	"github.com/Umair-28/logistics-management/internal/dashboard"
	"github.com/Umair-28/logistics-management/internal/dispatch"
	"github.com/Umair-28/logistics-management/internal/ewaybill"
	"github.com/Umair-28/logistics-management/internal/fleet"
	"github.com/Umair-28/logistics-management/internal/lorryreceipt"
	"github.com/Umair-28/logistics-management/internal/observability"
	"github.com/Umair-28/logistics-management/internal/platform/cache"
	"github.com/Umair-28/logistics-management/internal/platform/db"
	"github.com/Umair-28/logistics-management/internal/pod"
	"github.com/Umair-28/logistics-management/internal/shared"
	"github.com/Umair-28/logistics-management/internal/tripsheet"
	"github.com/Umair-28/logistics-management/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "logistics_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	activityLogger := shared.NewActivityLogger(dbpool, logger)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	dispatchRepo := dispatch.NewRepository(dbpool)
	dispatchService := dispatch.NewService(dispatchRepo, activityLogger)
	dispatchHandler := dispatch.NewHandler(logger, dispatchService, activityLogger)

	tripSheetRepo := tripsheet.NewRepository(dbpool)
	tripSheetService := tripsheet.NewService(tripSheetRepo, activityLogger)
	tripSheetHandler := tripsheet.NewHandler(logger, tripSheetService, activityLogger)

	lrRepo := lorryreceipt.NewRepository(dbpool)
	lrService := lorryreceipt.NewService(lrRepo, activityLogger)
	lrHandler := lorryreceipt.NewHandler(logger, lrService, activityLogger)

	podRepo := pod.NewRepository(dbpool)
	podService := pod.NewService(podRepo, activityLogger)
	podHandler := pod.NewHandler(logger, podService, activityLogger)

	ewbRepo := ewaybill.NewRepository(dbpool)
	ewbService := ewaybill.NewService(ewbRepo, activityLogger)
	ewbHandler := ewaybill.NewHandler(logger, ewbService, activityLogger)

	contractRepo := contract.NewRepository(dbpool)
	contractService := contract.NewService(contractRepo, activityLogger)
	contractHandler := contract.NewHandler(logger, contractService, activityLogger)

	fleetRepo := fleet.NewRepository(dbpool)
	fleetHandler := fleet.NewHandler(logger, fleetRepo)

	dashboardRepo := dashboard.NewRepository(dbpool)
	dashboardCache := dashboard.NewCache(redisClient, cfg.DashboardCacheTTL)
	dashboardService := dashboard.NewService(dashboardRepo, dashboardCache)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,

		AuthHandler:         authHandler,
		DispatchHandler:     dispatchHandler,
		TripSheetHandler:    tripSheetHandler,
		LorryReceiptHandler: lrHandler,
		PODHandler:          podHandler,
		EwayBillHandler:     ewbHandler,
		ContractHandler:     contractHandler,
		FleetHandler:        fleetHandler,
		DashboardHandler:    dashboardHandler,
		JobHandler:          jobHandler,
		Metrics:             metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
