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

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"hemolink/internal/auth"
	"hemolink/internal/donor"
	"hemolink/internal/notification/dispatch"
	notifhandler "hemolink/internal/notification/handler"
	notifstore "hemolink/internal/notification/store"
	"hemolink/internal/platform/config"
	"hemolink/internal/platform/events"
	"hemolink/internal/platform/httpserver"
	"hemolink/internal/platform/logger"
	"hemolink/internal/platform/metrics"
	platformredis "hemolink/internal/platform/redis"
	requesthandler "hemolink/internal/request/handler"
	"hemolink/internal/request/service"
	"hemolink/internal/request/store"
	httptransport "hemolink/internal/transport/http"
	"hemolink/internal/verify"
	verifyhandler "hemolink/internal/verify/handler"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Postgres backs the request, notification, and donor stores; without
	// it the service runs on memory stores for local development.
	var (
		db            *sql.DB
		requests      service.RequestStore
		notifications notifstore.Store
		directory     donor.Directory
	)
	if cfg.Postgres.URL != "" {
		var err error
		db, err = sql.Open("postgres", cfg.Postgres.URL)
		if err != nil {
			log.Error("failed to open postgres", "error", err.Error())
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("postgres unreachable", "error", err.Error())
			os.Exit(1)
		}
		requests = store.NewPostgres(db)
		notifications = notifstore.NewPostgres(db)
		directory = donor.NewPostgres(db)
	} else {
		log.Warn("DATABASE_URL not set; using in-memory stores")
		requests = store.NewInMemory()
		notifications = notifstore.NewInMemory()
		directory = donor.NewFakeDirectory()
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err.Error())
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	publisher, err := events.NewKafkaPublisher(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
	if err != nil {
		log.Error("failed to set up kafka publisher", "error", err.Error())
		os.Exit(1)
	}

	jwtService := auth.NewJWTService(cfg.Server.JWTSigningKey, "hemolink", "hemolink-api")
	jwtValidator := auth.NewJWTServiceAdapter(jwtService)

	dispatcher := dispatch.New(directory, notifications,
		dispatch.WithLogger(log),
		dispatch.WithMetrics(m),
	)

	serviceOpts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithPruneMaxAge(cfg.PruneMaxAge),
	}

	var worker *events.Worker
	if publisher != nil {
		worker = events.NewWorker(publisher, 256, log)
		serviceOpts = append(serviceOpts, service.WithEventEmitter(worker))
	}

	svc := service.New(requests, notifications, dispatcher, directory, serviceOpts...)

	health := func() error {
		if db != nil {
			if err := db.Ping(); err != nil {
				return err
			}
		}
		if redisClient != nil {
			return redisClient.Health(context.Background())
		}
		return nil
	}
	var codes verify.CodeStore = verify.NewMemoryCodeStore()
	if redisClient != nil {
		codes = verify.NewRedisCodeStore(redisClient.Client)
	}
	verifyService := verify.NewService(codes, verify.DefaultTTL)

	router := httptransport.NewRouter(health,
		requesthandler.New(svc, log, m, jwtValidator, requesthandler.WithVerifier(verifyService)),
		notifhandler.New(notifications, log, m, jwtValidator),
		verifyhandler.New(verifyService, log, jwtValidator),
	)

	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting hemolink", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if worker != nil {
		g.Go(func() error {
			if err := worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if publisher != nil {
			defer publisher.Close(shutdownCtx)
		}
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err.Error())
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
