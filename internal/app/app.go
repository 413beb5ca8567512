package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirinyoku/raffle-go/internal/config"
	"github.com/kirinyoku/raffle-go/internal/events"
	"github.com/kirinyoku/raffle-go/internal/metrics"
	"github.com/kirinyoku/raffle-go/internal/notify"
	"github.com/kirinyoku/raffle-go/internal/payment"
	"github.com/kirinyoku/raffle-go/internal/postgres"
	"github.com/kirinyoku/raffle-go/internal/redis"
	"github.com/kirinyoku/raffle-go/internal/repository/memory"
	postgresrepo "github.com/kirinyoku/raffle-go/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/raffle-go/internal/repository/redis"
	"github.com/kirinyoku/raffle-go/internal/service"
	"github.com/kirinyoku/raffle-go/internal/service/auth"
	"github.com/kirinyoku/raffle-go/internal/service/ledger"
	"github.com/kirinyoku/raffle-go/internal/service/purchase"
	"github.com/kirinyoku/raffle-go/internal/service/raffles"
	httpgin "github.com/kirinyoku/raffle-go/internal/transport/http/gin"
	"golang.org/x/sync/errgroup"
)

const limiterPruneSchedule = "@every 5m"

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
	services   *service.Services
	hub        *events.Hub
	pubsub     *redisrepo.EventsPubSub
	limiter    *memory.Limiter
	closers    []func()
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx := context.Background()
	a := &App{cfg: cfg, logger: logger, hub: events.NewHub()}

	store, err := a.newStore(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	// Without redis the hub publishes changes itself and the limiter is
	// per process.
	a.limiter = memory.NewLimiter(cfg.Raffle.RateLimitPerMinute, time.Minute)
	var (
		cache       *redisrepo.Cache
		idempotency *redisrepo.IdempotencyStore
		invalidator events.Invalidator
		publisher   events.Publisher = a.hub
		limiter     purchase.Limiter = a.limiter
	)

	if cfg.Redis.Enabled {
		rdb, err := redis.New(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = rdb.Close() })

		cache = redisrepo.New(rdb, logger)
		invalidator = cache
		a.pubsub = redisrepo.NewEventsPubSub(rdb)
		publisher = a.pubsub
		limiter = redisrepo.NewSlidingWindowLimiter(rdb, "purchase", cfg.Raffle.RateLimitPerMinute, time.Minute)
		idempotency = redisrepo.NewIdempotencyStore(rdb, 2*time.Hour)
		a.limiter = nil
	}

	gateway, err := newGateway(cfg)
	if err != nil {
		a.close()
		return nil, err
	}

	notifier, err := newNotifier(cfg, logger)
	if err != nil {
		a.close()
		return nil, err
	}

	authSvc, err := newAuth(cfg.Admin)
	if err != nil {
		a.close()
		return nil, err
	}
	if authSvc == nil {
		logger.Warn("admin api disabled: JWT_SECRET or admin password not set")
	}

	m := metrics.New()

	a.services = service.NewServices(service.Deps{
		Store:    store,
		Cache:    cache,
		Changes:  events.NewChanges(invalidator, publisher, logger),
		Gateway:  gateway,
		Limiter:  limiter,
		Notifier: notifier,
		Metrics:  m,
		Auth:     authSvc,
		Logger:   logger,
	}, service.Config{
		Raffles: raffles.Config{MaxTotalNumbers: cfg.Raffle.MaxTotalNumbers},
		Ledger: ledger.Config{
			DefaultTTL: cfg.Reservation.TTL,
			MinTTL:     cfg.Reservation.MinTTL,
			MaxTTL:     cfg.Reservation.MaxTTL,
			MaxNumbers: cfg.Raffle.MaxNumbersPerPurchase,
		},
		Purchase: purchase.Config{
			Currency:       cfg.Payment.Currency,
			ReservationTTL: cfg.Reservation.TTL,
		},
	})
	a.closers = append(a.closers, a.services.Ledger.Close)

	router := httpgin.NewRouter(a.services, httpgin.Options{
		Idempotency: idempotency,
		Hub:         a.hub,
		Gateway:     gateway,
		Metrics:     m,
	}, logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	a.httpServer.RegisterOnShutdown(a.hub.Close)

	return a, nil
}

func (a *App) newStore(ctx context.Context) (service.Store, error) {
	if a.cfg.StoreDriver == config.StoreMemory {
		a.logger.Warn("using in-memory store; data is lost on restart")
		return memory.NewStore(), nil
	}

	dsn := a.cfg.Postgres.DSN()

	if a.cfg.Postgres.Migrate {
		if err := postgres.Migrate(dsn); err != nil {
			return nil, fmt.Errorf("failed to migrate postgres: %w", err)
		}
	}

	pgxPool, err := postgres.New(ctx, postgres.Config{DSN: dsn, MaxConns: a.cfg.Postgres.MaxConns})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}
	a.closers = append(a.closers, pgxPool.Close)

	return postgresrepo.NewStore(pgxPool), nil
}

func newGateway(cfg *config.Config) (payment.Provider, error) {
	switch cfg.Payment.Provider {
	case config.ProviderStripe:
		base := cfg.Server.BaseURL
		return payment.NewStripe(payment.StripeConfig{
			SecretKey:     cfg.Payment.StripeSecretKey,
			WebhookSecret: cfg.Payment.StripeWebhookSecret,
			SuccessURL:    base + "/purchase/success?session_id={CHECKOUT_SESSION_ID}",
			CancelURL:     base + "/purchase/cancel",
		}), nil
	case config.ProviderLocal:
		return payment.NewLocal(payment.LocalConfig{
			Secret:      cfg.Payment.WebhookSecret,
			CheckoutURL: cfg.Payment.CheckoutURL,
		}), nil
	}
	return nil, fmt.Errorf("unknown payment provider %q", cfg.Payment.Provider)
}

func newNotifier(cfg *config.Config, logger *slog.Logger) (notify.Notifier, error) {
	if cfg.Telegram.Token == "" || cfg.Telegram.AdminChatID == 0 {
		return notify.Nop{}, nil
	}

	tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.AdminChatID, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telegram: %w", err)
	}

	return tg, nil
}

// newAuth returns nil when no admin credentials are configured.
func newAuth(cfg config.AdminConfig) (*auth.Service, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	hash := cfg.PasswordHash
	if hash == "" {
		var err error
		if hash, err = auth.HashPassword(cfg.Password); err != nil {
			return nil, fmt.Errorf("failed to hash admin password: %w", err)
		}
	}

	svc, err := auth.New(auth.Config{
		Secret:       cfg.JWTSecret,
		TTL:          cfg.JWTTTL,
		Username:     cfg.Username,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	return svc, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	defer a.close()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Expiry sweeper
	g.Go(func() error {
		return a.services.Ledger.RunSweeper(gCtx, a.cfg.Reservation.SweepSchedule)
	})

	// Drop idle per-client rate limit buckets
	if a.limiter != nil {
		g.Go(func() error {
			return a.limiter.RunPruner(gCtx, limiterPruneSchedule)
		})
	}

	// Fan redis change events out to local stream subscribers
	if a.pubsub != nil {
		g.Go(func() error {
			err := a.pubsub.Subscribe(gCtx, func(_ context.Context, ev events.Event) {
				a.hub.Broadcast(ev)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("raffle events subscription: %w", err)
			}
			return nil
		})
	}

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}

// close releases resources in reverse order of acquisition.
func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
