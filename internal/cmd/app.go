package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"
	"github.com/matthieukhl/freshmart/internal/analytics"
	"github.com/matthieukhl/freshmart/internal/auth"
	"github.com/matthieukhl/freshmart/internal/catalog"
	"github.com/matthieukhl/freshmart/internal/config"
	"github.com/matthieukhl/freshmart/internal/database"
	"github.com/matthieukhl/freshmart/internal/images"
	"github.com/matthieukhl/freshmart/internal/logging"
	"github.com/matthieukhl/freshmart/internal/orders"
	"github.com/matthieukhl/freshmart/internal/session"
)

// app wires configuration, storage and services for a command
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	db        *database.DB
	redis     *redis.Client
	catalog   *catalog.Service
	orders    *orders.Service
	analytics *analytics.Service
	auth      *auth.Service
	sessions  *session.Codec
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func connect(cfg *config.Config) (*database.DB, error) {
	db, err := database.NewConnection(&cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// newApp connects to the database (and Redis when the redis allocator is
// selected) and builds every service
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.Log, cfg.App.Env)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	db, err := connect(cfg)
	if err != nil {
		return nil, err
	}

	imageStore, err := images.NewStore(&cfg.Images)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set up image storage: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, db: db}

	productStore := catalog.NewStore(db)
	orderStore := orders.NewStore(db)

	var allocator orders.Allocator = orders.NewStoreAllocator(orderStore)
	if cfg.Orders.Allocator == config.AllocatorRedis {
		a.redis, err = orders.NewRedisClient(ctx, cfg.Redis.URL, cfg.Redis.DB)
		if err != nil {
			db.Close()
			return nil, err
		}
		allocator = orders.NewRedisAllocator(a.redis, orderStore)
	}

	a.catalog = catalog.NewService(productStore, imageStore, logger)
	a.orders = orders.NewService(orderStore, productStore, allocator, orders.Options{
		TrustClientTotal: cfg.Orders.TrustClientTotal,
		NumberRetries:    cfg.Orders.NumberRetries,
		Location:         loc,
	}, logger)
	a.analytics = analytics.NewService(analytics.NewStore(db, loc), loc, logger)
	a.auth = auth.NewService(auth.NewStore(db), auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), logger)
	a.sessions = session.NewCodec(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)

	logger.Debug("Application wired",
		"allocator", cfg.Orders.Allocator,
		"images", imageStore.Provider(),
		"timezone", loc.String())
	return a, nil
}

func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
	a.db.Close()
}
