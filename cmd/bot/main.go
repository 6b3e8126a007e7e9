package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Proton-105/cashback-bot/internal/bot"
	"github.com/Proton-105/cashback-bot/internal/cashback"
	"github.com/Proton-105/cashback-bot/internal/conversation"
	"github.com/Proton-105/cashback-bot/internal/database"
	"github.com/Proton-105/cashback-bot/internal/health"
	"github.com/Proton-105/cashback-bot/internal/i18n"
	"github.com/Proton-105/cashback-bot/internal/idempotency"
	"github.com/Proton-105/cashback-bot/internal/lifecycle"
	"github.com/Proton-105/cashback-bot/internal/middleware"
	"github.com/Proton-105/cashback-bot/internal/ratelimit"
	"github.com/Proton-105/cashback-bot/internal/repository"
	"github.com/Proton-105/cashback-bot/internal/state"
	"github.com/Proton-105/cashback-bot/internal/user"
	"github.com/Proton-105/cashback-bot/internal/usercache"
	"github.com/Proton-105/cashback-bot/pkg/config"
	"github.com/Proton-105/cashback-bot/pkg/graceful"
	"github.com/Proton-105/cashback-bot/pkg/logger"
	"github.com/Proton-105/cashback-bot/pkg/metrics"
	appredis "github.com/Proton-105/cashback-bot/pkg/redis"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "cashback bot: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			SampleRate:  cfg.Sentry.SampleRate,
		}); err != nil {
			return fmt.Errorf("init sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	level := logger.NewLevelVar(cfg.Logger.Level)
	log, logCloser := logger.New(cfg.Logger, level, cfg.Sentry.Enabled)
	slog.SetDefault(log)

	config.Watch(v, log, func(next *config.Config) {
		level.Set(logger.ParseLevel(next.Logger.Level))
	})

	log.Info("starting cashback bot",
		slog.String("env", cfg.AppEnv),
		slog.String("database", cfg.Database.Driver),
		slog.String("state_backend", cfg.State.Backend),
	)

	shutdown := lifecycle.NewShutdown(log)
	shutdown.RegisterCloser("logger", logCloser)

	loc, err := cfg.App.Location()
	if err != nil {
		return err
	}

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	shutdown.RegisterCloser("database", db)

	migrator, err := database.NewMigrator(db, cfg.Database.Driver, log)
	if err != nil {
		return err
	}
	if _, err := migrator.Apply(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	checker := health.NewChecker(log, 2*time.Second)
	checker.AddCheck("database", health.NewDBChecker(db))

	var redisClient *appredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = appredis.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		shutdown.RegisterCloser("redis", redisClient)
		checker.AddCheck("redis", health.NewRedisChecker(redisClient))
	}

	translations, err := i18n.Load(cfg.App.Language)
	if err != nil {
		return fmt.Errorf("load translations: %w", err)
	}
	t := translations.Default()

	store := repository.New(db, log)

	machine, stateStorage, err := newStateMachine(cfg, redisClient, log)
	if err != nil {
		return err
	}

	engine := conversation.NewEngine(store, machine, t, log,
		conversation.WithClock(func() time.Time { return time.Now().In(loc) }),
		conversation.WithObserver(metrics.CashbackObserver{}),
	)

	cashbackService := cashback.NewService(store, t, log)
	var userCache user.Cache
	if redisClient != nil {
		userCache = usercache.NewCache(redisClient.Universal(), 24*time.Hour)
	}
	userService := user.NewService(store, userCache, log)

	deps := bot.Deps{
		Engine:     engine,
		Reports:    cashbackService,
		Categories: cashbackService,
		Users:      userService,
		Translator: t,
	}

	workers := newWorkerGroup(ctx)

	if cfg.Idempotency.Enabled {
		idemStore, idemMemory := newIdempotencyStore(redisClient, log)
		deps.Idempotency = idempotency.NewManager(idemStore, log)
		workers.Go(idempotency.NewCleaner(universal(redisClient), idemMemory, log, time.Minute, cfg.Idempotency.TTL).Run)
	}

	if cfg.RateLimit.Enabled {
		limiter, memoryLimiter := newLimiter(redisClient, log)
		deps.RateLimit = middleware.NewRateLimitMiddleware(limiter, ratelimit.NewRules(cfg.RateLimit), log)
		workers.Go(ratelimit.NewCleaner(universal(redisClient), memoryLimiter, log, cfg.RateLimit.Window, cfg.RateLimit.Window).Run)
	}

	workers.Go(state.NewCleaner(stateStorage, log, cfg.State.TTL, cfg.State.CleanupInterval).Run)
	workers.Go(metrics.NewStateCollector(machine, 15*time.Second).Run)

	b, err := bot.New(*cfg, log, deps)
	if err != nil {
		return err
	}
	checker.AddCheck("telegram", health.NewTelegramChecker(b.Telebot()))

	if cfg.Metrics.Enabled {
		srv := graceful.NewServer(log, cfg.Metrics.Addr, newHTTPHandler(checker, log), cfg.Shutdown.Timeout)
		workers.Go(func(ctx context.Context) {
			if err := srv.ListenAndServe(ctx); err != nil {
				log.Error("metrics server stopped", slog.Any("error", err))
			}
		})
	}

	go b.Start()
	shutdown.Register("bot", func(context.Context) error {
		b.Stop()
		return nil
	})
	log.Info("bot started", slog.String("mode", cfg.Bot.Mode))

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
	defer cancel()

	workers.Stop()

	if err := shutdown.Execute(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newStateMachine(cfg *config.Config, client *appredis.Client, log *slog.Logger) (*state.Machine, state.Storage, error) {
	switch cfg.State.Backend {
	case "redis":
		if client == nil {
			return nil, nil, errors.New("state backend redis requires redis.enabled")
		}
		storage := state.NewRedisStorage(client.Universal(), log, cfg.State.TTL)
		return state.NewMachine(storage, state.NewRedisLocker(client.Universal(), log), log), storage, nil
	default:
		storage := state.NewMemoryStorage()
		return state.NewMachine(storage, state.NewMemoryLocker(), log), storage, nil
	}
}

func newIdempotencyStore(client *appredis.Client, log *slog.Logger) (idempotency.Store, *idempotency.MemoryStore) {
	if client != nil {
		return idempotency.NewRedisStore(client.Universal(), log), nil
	}
	memory := idempotency.NewMemoryStore()
	return memory, memory
}

// newLimiter prefers Redis and falls back to process memory when it fails.
func newLimiter(client *appredis.Client, log *slog.Logger) (ratelimit.Limiter, *ratelimit.MemoryLimiter) {
	memory := ratelimit.NewMemoryLimiter(log)
	if client == nil {
		return memory, memory
	}
	return ratelimit.NewAdaptiveLimiter(ratelimit.NewRedisLimiter(client.Universal(), log), memory, log), memory
}

// universal returns nil, not a typed nil, when Redis is disabled.
func universal(client *appredis.Client) goredis.UniversalClient {
	if client == nil {
		return nil
	}
	return client.Universal()
}

func newHTTPHandler(checker *health.Checker, log *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", checker.Handler())
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return logger.Middleware(middleware.New(log)(mux))
}

// workerGroup runs background loops until the parent context ends or Stop is called.
type workerGroup struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newWorkerGroup(parent context.Context) *workerGroup {
	ctx, cancel := context.WithCancel(parent)
	return &workerGroup{ctx: ctx, cancel: cancel}
}

func (g *workerGroup) Go(fn func(ctx context.Context)) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		fn(g.ctx)
	}()
}

func (g *workerGroup) Stop() {
	g.cancel()
	g.wg.Wait()
}
