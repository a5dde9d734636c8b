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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/dkeye/carelink/internal/adapters/auth"
	router "github.com/dkeye/carelink/internal/adapters/http"
	"github.com/dkeye/carelink/internal/adapters/kv"
	"github.com/dkeye/carelink/internal/adapters/pg"
	"github.com/dkeye/carelink/internal/adapters/queue"
	"github.com/dkeye/carelink/internal/adapters/rtc"
	wssignal "github.com/dkeye/carelink/internal/adapters/signal"
	"github.com/dkeye/carelink/internal/app"
	"github.com/dkeye/carelink/internal/app/orch"
	"github.com/dkeye/carelink/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogger(cfg)

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("Server exited gracefully")
}

func setupLogger(cfg *config.Config) {
	if cfg.Mode != "debug" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func run(ctx context.Context, cfg *config.Config) error {
	rdb, err := kv.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	store := kv.NewStore(rdb)
	defer func() { _ = store.Close() }()
	bus := kv.NewBus(rdb, kv.DefaultBusChannel)

	pool, err := pg.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	care := pg.NewStore(pool)

	iceServers, err := rtc.ICEServers(cfg.ICEServers)
	if err != nil {
		return fmt.Errorf("ice servers: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := app.NewMetrics(reg)

	policy, err := app.PolicyByName(cfg.BackpressurePolicy)
	if err != nil {
		return err
	}
	hub := app.NewHub(bus, policy, metrics)
	dir := app.NewSessionDirectory(store)
	resolver := app.NewResolver(dir, care)

	o := &orch.Orchestrator{
		Hub:         hub,
		Directory:   dir,
		Mailbox:     app.NewSignalingMailbox(store, cfg.OfferTTL, metrics),
		ICE:         app.NewIceRelay(dir, resolver, hub, metrics),
		Checks:      app.NewCoordinator(hub, cfg.SafetyCheckTimeout, metrics).WithPeers(store, bus),
		Status:      app.NewStatusCache(store, resolver, hub),
		Resolver:    resolver,
		Auth:        auth.NewVerifier(cfg.JWTSecret, care),
		Lookup:      care,
		Emergencies: care,
		Metrics:     metrics,
		ICEServers:  iceServers,
	}

	limiter := wssignal.NewAuthRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow)
	ctrl := wssignal.NewSignalWSController(o, limiter, wssignal.Options{
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
		WriteWait:  cfg.WriteWait,
		SendBuffer: cfg.SendBuffer,
	})

	consumer, err := queue.NewConsumer(cfg.RedisURL, cfg.QueueConcurrency, o)
	if err != nil {
		return err
	}

	r := router.SetupRouter(ctx, cfg, ctrl, reg, map[string]router.Pinger{
		"redis":    store,
		"postgres": care,
	})
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("carelink server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
		return nil
	})
	g.Go(func() error {
		return bus.Subscribe(gctx, hub.OnBusFrame)
	})
	g.Go(func() error {
		return bus.SubscribeReplies(gctx, o.Checks.OnReply)
	})
	g.Go(func() error {
		return consumer.Run(gctx)
	})
	g.Go(func() error {
		return limiter.Run(gctx)
	})
	return g.Wait()
}
