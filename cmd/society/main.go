package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"society/internal/amqp"
	"society/internal/auth"
	"society/internal/cache"
	"society/internal/cli"
	"society/internal/config"
	"society/internal/core"
	apphttp "society/internal/http"
	"society/internal/ledger"
	"society/internal/log"
	"society/internal/metrics"
	"society/internal/middleware/ratelimit"
	"society/internal/middleware/security"
	"society/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg).WithComponent(log.ComponentApp)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	store, closeStore, err := cli.OpenStore(startupCtx, logger, cfg)
	cancelStartup()
	if err != nil {
		logger.Error("Failed to open record store", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Publishing is optional: without a broker the workflow still commits
	// and the worker picks batches up on its sweep.
	var (
		amqpClient *amqp.Client
		publisher  services.EventPublisher
	)
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, settlement events disabled", "error", err)
		} else {
			publisher = amqpClient
		}
	} else {
		logger.Info("AMQP_URL not set, settlement events disabled")
	}

	settlements := services.NewSettlementService(store, publisher, m, services.SettlementOptions{
		Reserve:     cfg.Reserve(),
		PaymentMode: cfg.PaymentMode,
	})
	dashboard := services.NewDashboardService(store, cfg.CacheTTL)

	caches := cache.NewManager()
	for _, c := range dashboard.Caches() {
		caches.Register(c)
	}
	caches.StartCleanup(time.Minute)

	authMW, err := newAuth(logger, store, cfg)
	if err != nil {
		logger.Error("Failed to configure authentication", "error", err)
		os.Exit(1)
	}

	limiter := ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerMinute: cfg.RateLimitPerMinute,
		CleanupInterval:   5 * time.Minute,
	})

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Settlements: settlements,
		Dashboard:   dashboard,
		Auth:        authMW,
		Metrics:     m,
		Limiter:     limiter,
		Detector:    security.NewDetector(),
		Logger:      logger,
		Ready: func(ctx context.Context) error {
			_, err := store.Settlements(ctx)
			return err
		},
	})

	_, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		caches.Stop()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", "error", err)
			}
		}
		if err := closeStore(); err != nil {
			logger.Warn("Store close error", "error", err)
		}
	})

	var g errgroup.Group
	g.Go(func() error {
		logger.Info("Starting society server", "port", cfg.Port, "backend", cfg.DataBackend, "auth_disabled", cfg.AuthDisabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}

// newAuth verifies bearer tokens, or with AUTH_DISABLED serves every
// request as the configured demo user.
func newAuth(logger *log.Logger, store ledger.RecordReader, cfg *config.Config) (*auth.Middleware, error) {
	policy := auth.NewDefaultPolicy(apphttp.PublicPaths, []string{"/static/"})
	if !cfg.AuthDisabled {
		return auth.NewMiddleware([]byte(cfg.JWTSecret), policy), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	user, err := store.User(ctx, cfg.DemoUserID)
	if err != nil {
		return nil, err
	}
	role, err := core.ParseRole(cfg.DemoRole)
	if err != nil {
		return nil, err
	}
	id := auth.IdentityFromUser(user, role)
	logger.Warn("Authentication disabled, serving demo identity", "user", id.Subject, "role", id.Role)
	return auth.NewDemoMiddleware(id, policy), nil
}
