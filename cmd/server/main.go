package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"onboard/internal/assessment"
	"onboard/internal/enrichment"
	"onboard/internal/onboarding/engine"
	"onboard/internal/onboarding/handler"
	onboardingmetrics "onboard/internal/onboarding/metrics"
	"onboard/internal/onboarding/resolver"
	"onboard/internal/onboarding/store"
	"onboard/internal/platform/config"
	"onboard/internal/platform/httpserver"
	"onboard/internal/platform/kafka"
	kafkaconsumer "onboard/internal/platform/kafka/consumer"
	"onboard/internal/platform/logger"
	platformmetrics "onboard/internal/platform/metrics"
	platformredis "onboard/internal/platform/redis"
	"onboard/internal/token"
	"onboard/pkg/platform/audit"
	auditconsumer "onboard/pkg/platform/audit/consumer"
	"onboard/pkg/platform/audit/publishers/compliance"
	"onboard/pkg/platform/audit/publishers/ops"
	"onboard/pkg/platform/audit/publishers/security"
	auditmemory "onboard/pkg/platform/audit/store/memory"
	auditpostgres "onboard/pkg/platform/audit/store/postgres"
	auditworker "onboard/pkg/platform/audit/worker"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in internal packages; nothing here makes decisions beyond
// which backend each port gets.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpMetrics := platformmetrics.New()
	flowMetrics := onboardingmetrics.New()

	// Session store: Postgres when configured, Redis as the lighter-weight
	// alternative, in-memory for local development.
	var (
		sessions store.SessionStore = store.NewMemory()
		pool     *pgxpool.Pool
	)
	if cfg.Postgres.URL != "" {
		var err error
		pool, err = pgxpool.New(ctx, cfg.Postgres.URL)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		sessions = store.NewPostgres(pool)
		log.Info("using postgres session store")
	} else if cfg.Redis.URL != "" {
		redisClient, err := platformredis.New(cfg.Redis)
		if err != nil {
			log.Error("redis connection failed", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		sessions = store.NewRedis(redisClient.Client, cfg.Server.TokenLifetime)
		log.Info("using redis session store")
	} else {
		log.Warn("no session store configured, using in-memory store")
	}

	// Audit store: outbox-backed Postgres when available, memory otherwise.
	var (
		auditStore audit.Store = auditmemory.NewInMemoryStore()
		auditDB    *sql.DB
	)
	if cfg.Postgres.URL != "" {
		var err error
		auditDB, err = sql.Open("postgres", cfg.Postgres.URL)
		if err != nil {
			log.Error("audit store connection failed", "error", err)
			os.Exit(1)
		}
		defer auditDB.Close()
		auditStore = auditpostgres.New(auditDB)
	}

	compliancePub := compliance.New(auditStore,
		compliance.WithLogger(log),
		compliance.WithMetrics(compliance.NewMetrics()),
	)
	securityPub := security.New(auditStore, security.WithLogger(log))
	opsPub := ops.New(auditStore,
		ops.WithLogger(log),
		ops.WithMetrics(ops.NewMetrics()),
	)
	defer func() {
		_ = securityPub.Close()
		_ = opsPub.Close()
	}()

	// Outbox relay and materializer only run with both Postgres and Kafka.
	if auditDB != nil && len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(ctx, cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			log.Error("kafka producer setup failed", "error", err)
			os.Exit(1)
		}
		defer producer.Close()

		relay := auditworker.NewRelay(auditDB, producer, log)
		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("outbox relay stopped", "error", err)
			}
		}()

		router := auditconsumer.NewRouter(log, nil)
		router.Register(cfg.Kafka.AuditTopic, auditconsumer.NewEventsHandler(auditpostgres.New(auditDB), log))
		materializer, err := kafkaconsumer.New(cfg.Kafka.Brokers, "onboard-audit-materializer",
			[]string{cfg.Kafka.AuditTopic}, router, log)
		if err != nil {
			log.Error("kafka consumer setup failed", "error", err)
			os.Exit(1)
		}
		defer materializer.Close()
		go func() {
			if err := materializer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("audit materializer stopped", "error", err)
			}
		}()
		log.Info("audit relay running", "topic", cfg.Kafka.AuditTopic)
	}

	platformClient := resolver.NewHTTP(cfg.PlatformAPI.BaseURL,
		resolver.WithHTTPClient(&http.Client{Timeout: cfg.PlatformAPI.Timeout}),
		resolver.WithMetrics(flowMetrics),
	)
	enrichClient := enrichment.NewHTTP(cfg.Enrichment.BaseURL,
		enrichment.WithHTTPClient(&http.Client{Timeout: cfg.Enrichment.Timeout}),
	)
	tokens := token.New(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, cfg.Server.TokenLifetime)

	eng := engine.New(sessions, platformClient, enrichClient, tokens,
		engine.WithLogger(log),
		engine.WithMetrics(flowMetrics),
		engine.WithCompliancePublisher(compliancePub),
		engine.WithSecurityPublisher(securityPub),
		engine.WithOpsPublisher(opsPub),
	)

	router := chi.NewRouter()
	handler.New(eng, log, httpMetrics).Register(router)
	assessment.NewHandler(assessment.NewHTTP(cfg.PlatformAPI.BaseURL), tokens, log, httpMetrics).Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	srv := httpserver.New(cfg.Server.Addr, router)

	go func() {
		log.Info("starting onboard server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
