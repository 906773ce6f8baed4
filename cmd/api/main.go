package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mahidhar9542/mortgage-app/internal/config"
	"github.com/mahidhar9542/mortgage-app/internal/infra/auth"
	"github.com/mahidhar9542/mortgage-app/internal/infra/database"
	"github.com/mahidhar9542/mortgage-app/internal/infra/http/handlers"
	"github.com/mahidhar9542/mortgage-app/internal/infra/http/middleware"
	"github.com/mahidhar9542/mortgage-app/internal/infra/mail"
	"github.com/mahidhar9542/mortgage-app/internal/infra/worker"
	"github.com/mahidhar9542/mortgage-app/internal/usecase"
	"github.com/mahidhar9542/mortgage-app/pkg/logging"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Errorw("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Infra
	db, err := database.NewDBConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if cfg.RunMigrations {
		if err := database.RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	tokens, err := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpire)
	if err != nil {
		return err
	}

	rateCache, redisPing, closeRedis := newRateCache(cfg, logger)
	defer closeRedis()

	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("document storage: %w", err)
	}

	mailer, err := newMailer(cfg, logger)
	if err != nil {
		return fmt.Errorf("mail transport: %w", err)
	}
	renderer, err := mail.NewRenderer(mail.Company{
		Name:    cfg.CompanyName,
		Address: cfg.CompanyAddress,
		Phone:   cfg.CompanyPhone,
		Email:   cfg.CompanyEmail,
		AppURL:  cfg.AppURL,
	})
	if err != nil {
		return fmt.Errorf("mail templates: %w", err)
	}

	notifications, err := newNotificationQueue(cfg, mail.NewService(renderer, mailer), logger)
	if err != nil {
		return err
	}
	defer notifications.Close()

	// 2. Repositories
	leadRepo := database.NewLeadRepository(db)
	userRepo := database.NewUserRepository(db)
	rateRepo := database.NewRateRepository(db)
	alertRepo := database.NewRateAlertRepository(db)
	documentRepo := database.NewDocumentRepository(db)

	// 3. Use cases
	dispatcher := usecase.NewNotificationDispatcher(notifications.Publisher, logger, cfg.AdminEmail, cfg.AdminURL)
	rates := usecase.NewRateUseCase(rateRepo, rateCache, alertRepo, dispatcher, logger)
	createLead := usecase.NewCreateLeadUseCase(leadRepo, rates, dispatcher, logger)
	queryLeads := usecase.NewLeadQueryUseCase(leadRepo, userRepo, logger)
	manageLeads := usecase.NewManageLeadUseCase(leadRepo, userRepo, dispatcher, logger)
	authUC := usecase.NewAuthUseCase(userRepo, tokens, dispatcher, logger, cfg.AppURL)
	dashboard := usecase.NewDashboardUseCase(usecase.DashboardDeps{
		Leads:      leadRepo,
		Users:      userRepo,
		Documents:  documentRepo,
		Blobs:      blobs,
		Rates:      rates,
		Manage:     manageLeads,
		Notifier:   dispatcher,
		Logger:     logger,
		AdminEmail: cfg.AdminEmail,
		MaxUpload:  cfg.MaxUploadBytes,
	})

	// 4. Handlers
	rs := handlers.NewResponder(logger, cfg.IsProduction())
	health := handlers.NewHealthHandler(db, nil, redisPing)
	if notifications.Conn != nil {
		health.RabbitMQ = notifications.Conn
	}
	limiter := middleware.NewRateLimiter(10, time.Minute)

	router := handlers.NewRouter(handlers.RouterConfig{
		Logger:      logger,
		CORSOrigins: cfg.CORSOrigin,
		Tokens:      tokens,
		CookieName:  cfg.CookieName,
		Limiter:     limiter,
		Metrics:     promhttp.Handler(),
		Leads:       handlers.NewLeadHandler(rs, createLead, queryLeads, manageLeads),
		Auth:        handlers.NewAuthHandler(rs, authUC, cfg.CookieName),
		Rates:       handlers.NewRateHandler(rs, rates),
		Dashboard:   handlers.NewDashboardHandler(rs, dashboard, cfg.MaxUploadBytes),
		Health:      health,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 5. Background work
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return notifications.Run(gctx) })
	g.Go(func() error { return limiter.Run(gctx) })
	g.Go(func() error {
		return worker.NewRateRefreshWorker(rates, cfg.RatesRefreshHour, logger, middleware.RecordRateRefresh).Start(gctx)
	})
	g.Go(func() error {
		logger.Infow("server listening", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Infow("shutting down")
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
