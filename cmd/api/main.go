package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voice-campaign-platform/internal/audit"
	"voice-campaign-platform/internal/auth"
	"voice-campaign-platform/internal/callstore"
	"voice-campaign-platform/internal/campaign"
	"voice-campaign-platform/internal/config"
	"voice-campaign-platform/internal/reconcile"
	"voice-campaign-platform/internal/report"
	"voice-campaign-platform/internal/telephony"
	"voice-campaign-platform/internal/webhook"
	"voice-campaign-platform/pkg/logger"
	"voice-campaign-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional .env for local runs; real deployments set the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	pgStore, err := callstore.NewPostgresStore(rootCtx, db)
	if err != nil {
		log.Error("call store init failed", "err", err)
		os.Exit(1)
	}
	store := callstore.NewResilient(pgStore, log)

	provider := telephony.NewVapiProvider(cfg.Vapi)

	pollSlotTTL := time.Duration(cfg.Campaign.PollMaxAttempts+1) * cfg.Campaign.PollInterval
	limiter := reconcile.NewRedisPollLimiter(rdb, "campaign:poll-slots", cfg.Campaign.MaxConcurrentPolls, pollSlotTTL, log)
	coordinator := reconcile.NewCoordinator(store, provider, limiter, reconcile.Config{
		MaxAttempts: cfg.Campaign.PollMaxAttempts,
		Interval:    cfg.Campaign.PollInterval,
	}, log)

	// The provider echoes this secret on every webhook event. A fresh value
	// per process means a restart invalidates in-flight callbacks, which is
	// acceptable: those calls settle through polling instead.
	webhookSecret := uuid.NewString()

	roster := campaign.NewRosterIndex()
	exporter := report.NewExporter(store)
	mailer := report.NewMailer(cfg.SMTP, exporter, log)
	trail := audit.NewService(audit.NewMemoryRepo(0), log)

	dispatcher := campaign.NewDispatcher(
		provider, store, coordinator, roster,
		cfg.WebhookURL(), webhookSecret,
		cfg.Campaign.SettleTimeout,
		mailer, trail, log,
	)

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, routeDeps{
		authManager: authManager,
		authMW:      auth.RequireAccessToken(authManager),
		webhook: webhook.Handler{
			Secret:      webhookSecret,
			Coordinator: coordinator,
			Store:       store,
			Roster:      roster,
			Trail:       trail,
			Log:         log,
		},
		campaign: campaign.Handler{Dispatcher: dispatcher, Base: rootCtx},
		report:   report.Handler{Exporter: exporter},
		trail:    audit.Handler{Service: trail},
		db:       db,
		redis:    rdb,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	// Poll loops observe rootCtx cancellation; give them a moment to land
	// their final writes before the process exits.
	coordinator.Wait()

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}
