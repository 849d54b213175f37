// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"saas-starter-billing/internal/config"
	"saas-starter-billing/internal/domain/ports/adapter"
	"saas-starter-billing/internal/domain/ports/repository"
	"saas-starter-billing/internal/infra/adapters/identity"
	"saas-starter-billing/internal/infra/adapters/payment"
	"saas-starter-billing/internal/infra/api"
	"saas-starter-billing/internal/infra/db/migrations"
	pg "saas-starter-billing/internal/infra/db/postgres"
	"saas-starter-billing/internal/infra/logging"
	"saas-starter-billing/internal/infra/metrics"
	red "saas-starter-billing/internal/infra/redis"
	"saas-starter-billing/internal/infra/scheduler"
	"saas-starter-billing/internal/usecase"
)

// set via -ldflags
var (
	version = "dev"
	commit  = "none"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, unredacted PII, in-memory billing)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("service stopped")
	}
}

func run(cfg *config.Config, logger *zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)
	logger.Info().Str("version", version).Str("commit", commit).Bool("dev", cfg.Runtime.Dev).Msg("starting billing service")

	// ---- Postgres ----
	if cfg.Database.AutoMigrate {
		if err := migrations.Up(cfg.Database.URL, logger); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	// ---- Repositories ----
	subRepo := pg.NewSubscriptionRepo(pool)
	invoiceRepo := pg.NewInvoiceRepo(pool)
	var userRepo repository.UserRepository = pg.NewUserRepo(pool)

	// ---- Redis (optional) ----
	var limiter api.RateLimiter
	if cfg.Redis.URL != "" {
		rc, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rc.Close()
		userRepo = pg.NewUserRepoCacheDecorator(userRepo, rc, cfg.Redis.UserCacheTTL)
		limiter = red.NewRateLimiter(rc, cfg.Auth.SignInLimit, cfg.Auth.SignInLimitWindow)
	} else {
		logger.Warn().Msg("redis not configured; user cache and sign-in rate limit disabled")
	}

	// ---- Billing provider ----
	billing, err := newBillingProvider(cfg, logger)
	if err != nil {
		return err
	}
	verifier := payment.NewStripeEventVerifier(cfg.Payment.Stripe.WebhookSecret)

	// ---- Identity provider (optional) ----
	var idp adapter.IdentityProvider
	if cfg.Auth.Clerk.FrontendAPI != "" {
		clerk, err := identity.NewClerkClient(cfg.Auth.Clerk.FrontendAPI, cfg.Auth.Clerk.PublishableKey, cfg.Auth.Clerk.Timeout, logger)
		if err != nil {
			return fmt.Errorf("clerk: %w", err)
		}
		idp = clerk
	} else {
		logger.Warn().Msg("clerk frontend api not set; sign-in disabled")
	}

	// ---- Use cases ----
	webhookUC := usecase.NewWebhookUseCase(verifier, billing, subRepo, invoiceRepo, userRepo, logger, cfg.Runtime.Dev)
	signInUC := usecase.NewSignInUseCase(idp, userRepo, cfg.Auth.AfterSignInURL, cfg.Auth.OAuthCallbackURL, logger, cfg.Runtime.Dev)

	// ---- HTTP ----
	sessions, err := api.NewSessionManager(api.SessionConfig{
		Secret:       cfg.Auth.SessionSecret,
		CookieDomain: cfg.Auth.CookieDomain,
		SecureCookie: cfg.Auth.SecureCookie,
		TTL:          cfg.Auth.SessionTTL,
	})
	if err != nil {
		return fmt.Errorf("sessions: %w", err)
	}
	srv := api.NewServer(webhookUC, signInUC, userRepo, sessions, limiter, pool, api.Options{
		MirrorWebhookStatus: cfg.MirrorWebhookStatus(),
		RequestTimeout:      cfg.HTTP.RequestTimeout,
		TrustProxyHeaders:   cfg.HTTP.TrustProxyHeaders,
	}, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ---- Stats refresher ----
	sched := scheduler.NewScheduler(cfg.Metrics.RefreshInterval, logger,
		scheduler.NewSubscriptionStatsJob(subRepo),
		scheduler.JobFunc{JobName: "db_pool_stats", Fn: func(context.Context) error {
			pg.ReportPoolStats(pool)
			return nil
		}},
	)
	sched.Start(ctx)
	defer sched.Stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown requested")
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown incomplete")
	}
	logger.Info().Msg("bye")
	return nil
}

// newBillingProvider picks Stripe when a key is configured and the in-memory
// provider otherwise (config validation only allows that with -dev).
func newBillingProvider(cfg *config.Config, logger *zerolog.Logger) (adapter.BillingProvider, error) {
	if cfg.Payment.Stripe.SecretKey != "" {
		gw, err := payment.NewStripeGateway(cfg.Payment.Stripe.SecretKey, logger)
		if err != nil {
			return nil, fmt.Errorf("stripe: %w", err)
		}
		return gw, nil
	}
	logger.Warn().
		Int("seeded_customers", len(cfg.Payment.Dev.Customers)).
		Str("email_domain", cfg.Payment.Dev.EmailDomain).
		Msg("stripe secret key not set; using in-memory billing provider")
	return payment.NewNoopBillingProvider(cfg.Payment.Dev.Customers, cfg.Payment.Dev.EmailDomain), nil
}
