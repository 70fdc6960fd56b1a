package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/seating-plan/internal/collab"
	"github.com/iliyamo/seating-plan/internal/config"
	"github.com/iliyamo/seating-plan/internal/database"
	"github.com/iliyamo/seating-plan/internal/engine"
	"github.com/iliyamo/seating-plan/internal/handler"
	"github.com/iliyamo/seating-plan/internal/logging"
	"github.com/iliyamo/seating-plan/internal/middleware"
	"github.com/iliyamo/seating-plan/internal/queue"
	"github.com/iliyamo/seating-plan/internal/repository"
	"github.com/iliyamo/seating-plan/internal/router"
	"github.com/iliyamo/seating-plan/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	config.LoadDotEnv()
	logger := logging.FromEnv()
	log.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger); err != nil {
		logger.Fatal("server stopped", "err", err)
	}
}

func run(ctx context.Context, logger *log.Logger) error {
	cfg := config.Load()
	engCfg, err := config.LoadEngineConfig()
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	rdb := config.NewRedisClient(ctx)
	if rdb != nil {
		defer rdb.Close()
	}

	origin := cfg.InstanceID
	if origin == "" {
		origin = uuid.NewString()
	}
	eCfg, err := engCfg.Engine(origin)
	if err != nil {
		return err
	}

	var locks collab.LockStore = collab.NewMemoryLockStore()
	if cfg.LockStore == "redis" {
		if rdb == nil {
			logger.Warn("LOCK_STORE=redis but redis is unavailable, locks stay in memory")
		} else {
			locks = collab.NewRedisLockStore(rdb, "seating:locks")
		}
	}

	hub := collab.NewHub()
	deps := engine.Deps{Store: store, Locks: locks, Hub: hub, Logger: logger}
	var pub *service.Publisher
	if cfg.RabbitURL != "" {
		pub = service.NewPublisher(cfg.RabbitURL, cfg.Exchange, origin, logger)
		defer pub.Close()
		deps.Relay = pub
	}
	reg := engine.NewRegistry(eCfg, deps)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	router.RegisterRoutes(e)
	router.RegisterTemplates(e, middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	router.RegisterPlans(e, handler.NewPlanHandler(reg, hub, logger), cfg.JWTSecret,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	if cfg.Env == "dev" {
		ttl := time.Duration(cfg.AccessTTLMin) * time.Minute
		router.RegisterDevToken(e, handler.DevToken(cfg.JWTSecret, ttl, logger))
		logger.Warn("dev token endpoint enabled", "path", "/v1/dev/token")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port
		logger.Info("listening", "addr", addr, "env", cfg.Env, "store", cfg.StoreDriver, "origin", origin)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if pub != nil {
		g.Go(func() error {
			err := queue.StartCollabConsumer(gctx, queue.ConsumerConfig{
				URL:      cfg.RabbitURL,
				Exchange: cfg.Exchange,
				Origin:   origin,
			}, reg, logger)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(sctx)
	})
	return g.Wait()
}

// openStore connects the plan repository selected by STORE_DRIVER.
func openStore(ctx context.Context, cfg config.Config) (engine.Store, func(), error) {
	var driver, dsn string
	switch cfg.StoreDriver {
	case config.StoreMemory:
		return repository.NewMemoryPlanRepo(), func() {}, nil
	case config.StoreSQLite:
		driver, dsn = database.SQLite, cfg.StoreDSN
		if dsn == "" {
			dsn = cfg.SQLitePath
		}
	case config.StoreMySQL:
		driver, dsn = database.MySQL, cfg.StoreDSN
		if dsn == "" {
			dsn = database.MySQLDSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		}
	case config.StorePostgres:
		driver, dsn = database.Postgres, cfg.StoreDSN
	default:
		return nil, nil, errors.New("unknown store driver " + strconv.Quote(cfg.StoreDriver))
	}
	db, err := database.Open(driver, dsn)
	if err != nil {
		return nil, nil, err
	}
	repo, err := repository.NewPlanRepo(db, driver)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	if err := repo.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return repo, func() { _ = db.Close() }, nil
}
