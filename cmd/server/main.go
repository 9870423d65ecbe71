// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal services
// packages.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"acredita/internal/adminconfig"
	"acredita/internal/audit"
	"acredita/internal/notify"
	"acredita/internal/platform/config"
	"acredita/internal/platform/database"
	"acredita/internal/platform/httpserver"
	"acredita/internal/platform/logger"
	"acredita/internal/platform/metrics"
	"acredita/internal/platform/redis"
	"acredita/internal/platform/token"
	"acredita/internal/report"
	"acredita/internal/scoring"
	"acredita/internal/storage"
	httptransport "acredita/internal/transport/http"
)

// Combined store interfaces: both the postgres and in-memory implementations
// satisfy the admin (read/write) and report (read-only) views.
type ruleStore interface {
	adminconfig.RuleStore
	report.RuleSource
}

type templateStore interface {
	adminconfig.TemplateStore
	report.TemplateSource
}

type mappingStore interface {
	adminconfig.MappingStore
	report.MappingSource
}

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	var (
		siteStore     report.SiteStore
		reportStore   report.Store
		rulesStore    ruleStore
		tplStore      templateStore
		mapStore      mappingStore
		domainStore   report.DomainSource
		auditStore    audit.Store
		activityStore audit.ActivityStore
		locker        report.Locker
	)

	checks := make(map[string]httptransport.HealthChecker)

	if cfg.DatabaseURL != "" {
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		siteStore = storage.NewPostgresSiteStore(db)
		reportStore = storage.NewPostgresReportStore(db)
		rulesStore = storage.NewPostgresRuleStore(db)
		tplStore = storage.NewPostgresTemplateStore(db)
		mapStore = storage.NewPostgresMappingStore(db)
		domainStore = storage.NewPostgresDomainStore(db)
		auditStore = storage.NewPostgresAuditStore(db)
		activityStore = storage.NewPostgresActivityStore(db)
		checks["database"] = dbHealth{db: db}
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		siteStore = storage.NewInMemorySiteStore()
		reportStore = storage.NewInMemoryReportStore()
		rulesStore = storage.NewInMemoryRuleStore()
		tplStore = storage.NewInMemoryTemplateStore()
		mapStore = storage.NewInMemoryMappingStore()
		domainStore = storage.NewInMemoryDomainStore()
		auditStore = storage.NewInMemoryAuditStore()
		activityStore = storage.NewInMemoryActivityStore()
	}

	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		locker = storage.NewRedisLocker(redisClient.Client, cfg.GenerateLockTTL)
		checks["redis"] = redisClient
	} else {
		log.Warn("REDIS_URL not set, using in-process generation lock")
		locker = storage.NewInMemoryLocker()
	}

	auditor := audit.NewPublisher(auditStore)
	activity := audit.NewActivityLog(activityStore, log, cfg.ActivityBuffer)
	notifier := notify.New(notify.LogSender{Logger: log}, log)

	reportSvc := report.NewService(
		siteStore, reportStore, rulesStore, tplStore, mapStore,
		domainStore, locker, scoring.DefaultConfig(),
		auditor, activity, log,
		report.WithNotifier(notifier),
		report.WithMetrics(m),
	)
	adminSvc := adminconfig.NewService(rulesStore, tplStore, mapStore, auditor, activity, m, log)

	jwtService := token.NewJWTService(cfg.JWTSigningKey, "acredita", "acredita-api")

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger:       log,
		Metrics:      m,
		JWTValidator: token.NewMiddlewareAdapter(jwtService),
		Reports:      httptransport.NewReportHandler(reportSvc, log),
		Admin:        httptransport.NewAdminHandler(adminSvc, auditor, activity, log),
		Scoring:      httptransport.NewScoringHandler(scoring.DefaultConfig(), log),
		Checks:       checks,
	})

	srv := httpserver.New(cfg.Addr, router)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	go func() {
		if err := activity.Run(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("activity worker stopped", "error", err)
		}
	}()

	go func() {
		log.Info("starting acredita", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

type dbHealth struct {
	db interface{ PingContext(context.Context) error }
}

func (h dbHealth) Health(ctx context.Context) error {
	return h.db.PingContext(ctx)
}
