// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal service
// packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	artifacthandler "deedledger/internal/artifact/handler"
	artifactmetrics "deedledger/internal/artifact/metrics"
	artifactservice "deedledger/internal/artifact/service"
	artifactstore "deedledger/internal/artifact/store"
	authhandler "deedledger/internal/auth/handler"
	"deedledger/internal/events"
	"deedledger/internal/jwtauth"
	"deedledger/internal/ledger"
	"deedledger/internal/platform/config"
	"deedledger/internal/platform/httpserver"
	"deedledger/internal/platform/logger"
	"deedledger/internal/platform/middleware"
	"deedledger/internal/platform/postgres"
	platformredis "deedledger/internal/platform/redis"
	registryhandler "deedledger/internal/registry/handler"
	registrymetrics "deedledger/internal/registry/metrics"
	registryservice "deedledger/internal/registry/service"
	registrystore "deedledger/internal/registry/store"
	"deedledger/pkg/domain"
	txcontext "deedledger/pkg/platform/tx"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	authority, err := domain.ParseAddress(cfg.AuthorityAddress)
	if err != nil {
		return err
	}
	registryAddr, err := domain.ParseAddress(cfg.RegistryAddress)
	if err != nil {
		return err
	}

	var (
		db        *sql.DB
		records   registrystore.Store
		artifacts artifactstore.Store
		txRunner  txcontext.Runner = txcontext.NoopRunner{}
	)
	if cfg.PostgresURL != "" {
		db, err = postgres.Open(ctx, cfg.PostgresURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			return err
		}
		records = registrystore.NewPostgres(db)
		artifacts = artifactstore.NewPostgres(db)
		txRunner = txcontext.SQLRunner{DB: db}
		log.Info("using postgres storage")
	} else {
		records = registrystore.NewInMemory()
		artifacts = artifactstore.NewInMemory()
		log.Info("using in-memory storage")
	}

	regMetrics := registrymetrics.New()
	artMetrics := artifactmetrics.New()

	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		records = registrystore.NewRedisCache(records, redisClient.Client, cfg.RegistryCacheTTL, regMetrics)
		log.Info("registry lookup cache enabled")
	}

	var publisher events.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err = events.NewKafkaPublisher(ctx, cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			return err
		}
		log.Info("publishing events to kafka", "topic", cfg.KafkaTopic)
	} else {
		publisher = events.NewInMemoryPublisher()
		log.Warn("no kafka brokers configured, events stay in memory")
	}
	defer publisher.Close()

	fungible := ledger.NewInMemoryFungibleLedger()
	units := ledger.NewInMemoryUnitLedger()

	tokens := jwtauth.New(cfg.JWTSigningKey, cfg.ActorTokenTTL)

	registrySvc := registryservice.New(records, artifacts, fungible, publisher, authority, registryAddr,
		registryservice.WithMetrics(regMetrics),
		registryservice.WithLogger(log),
		registryservice.WithTxRunner(txRunner),
	)
	artifactSvc := artifactservice.New(artifacts, units, publisher,
		artifactservice.WithMetrics(artMetrics),
		artifactservice.WithLogger(log),
		artifactservice.WithTxRunner(txRunner),
	)

	registryH := registryhandler.New(registrySvc, log)
	artifactH := artifacthandler.New(artifactSvc, log)
	authH := authhandler.New(tokens, cfg.ActorTokenTTL, log)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	router.Handle("/metrics", promhttp.Handler())

	router.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		registryH.RegisterReads(r)
		artifactH.RegisterReads(r)
	})
	router.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAdminToken(cfg.AdminToken, log))
		authH.Register(r)
	})
	router.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireActor(tokens, log))
		registryH.RegisterWrites(r)
		artifactH.RegisterWrites(r)
	})

	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting deedledger", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return group.Wait()
}
