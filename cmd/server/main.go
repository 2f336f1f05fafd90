package main

import (
	"context"
	"net/http"

	"github.com/creatorly/churnalytics/internal/api"
	v1 "github.com/creatorly/churnalytics/internal/api/v1"
	"github.com/creatorly/churnalytics/internal/cache"
	"github.com/creatorly/churnalytics/internal/clickhouse"
	"github.com/creatorly/churnalytics/internal/config"
	"github.com/creatorly/churnalytics/internal/domain/events"
	"github.com/creatorly/churnalytics/internal/domain/product"
	"github.com/creatorly/churnalytics/internal/logger"
	"github.com/creatorly/churnalytics/internal/postgres"
	redisClient "github.com/creatorly/churnalytics/internal/redis"
	chrepo "github.com/creatorly/churnalytics/internal/repository/clickhouse"
	pgrepo "github.com/creatorly/churnalytics/internal/repository/postgres"
	"github.com/creatorly/churnalytics/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fx.Provide(
			config.NewConfig,
			logger.NewLogger,
			newClickHouseStore,
			newPostgresPool,
			newRedisClient,
			newCache,
			newEventRepository,
			newProductRepository,
			newServiceParams,
			service.NewChurnAnalyticsService,
			newRouter,
		),
		fx.Invoke(startServer),
	).Run()
}

func newClickHouseStore(cfg *config.Configuration, log *logger.Logger) (*clickhouse.ClickHouseStore, error) {
	return clickhouse.NewClickHouseStore(cfg.ClickHouse, log)
}

func newPostgresPool(cfg *config.Configuration, log *logger.Logger) (*pgxpool.Pool, error) {
	return postgres.NewPool(cfg.Postgres, log)
}

// newRedisClient only connects when the Redis cache is configured; the
// service runs fine on the in-memory cache without it.
func newRedisClient(cfg *config.Configuration, log *logger.Logger) *redisClient.Client {
	if cache.CacheType(cfg.Cache.Type) != cache.CacheTypeRedis {
		return nil
	}
	client, err := redisClient.NewClient(cfg.Redis, log)
	if err != nil {
		log.Errorw("failed to connect to Redis, falling back to in-memory cache", "error", err)
		return nil
	}
	return client
}

func newCache(cfg *config.Configuration, client *redisClient.Client, log *logger.Logger) cache.Cache {
	return cache.Initialize(cfg, client, log)
}

func newEventRepository(store *clickhouse.ClickHouseStore, log *logger.Logger) events.Repository {
	return chrepo.NewSubscriptionEventRepository(store, log)
}

func newProductRepository(pool *pgxpool.Pool, log *logger.Logger) product.Repository {
	return pgrepo.NewProductRepository(pool, log)
}

func newServiceParams(
	cfg *config.Configuration,
	log *logger.Logger,
	c cache.Cache,
	productRepo product.Repository,
	eventRepo events.Repository,
) service.ServiceParams {
	return service.ServiceParams{
		Logger:      log,
		Config:      cfg,
		Cache:       c,
		ProductRepo: productRepo,
		EventRepo:   eventRepo,
	}
}

func newRouter(
	churnService service.ChurnAnalyticsService,
	store *clickhouse.ClickHouseStore,
	pool *pgxpool.Pool,
	redis *redisClient.Client,
	log *logger.Logger,
) http.Handler {
	pingers := map[string]v1.Pinger{
		"clickhouse": store,
		"postgres":   pgPinger{pool},
	}
	if redis != nil {
		pingers["redis"] = redis
	}
	return api.NewRouter(api.Handlers{
		Analytics: v1.NewAnalyticsHandler(churnService, log),
		Health:    v1.NewHealthHandler(pingers, log),
	}, log)
}

// pgPinger adapts pgxpool.Pool to the health-check Pinger interface.
type pgPinger struct {
	pool *pgxpool.Pool
}

func (p pgPinger) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func startServer(
	lc fx.Lifecycle,
	handler http.Handler,
	cfg *config.Configuration,
	store *clickhouse.ClickHouseStore,
	pool *pgxpool.Pool,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: handler,
	}

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			log.Infow("starting server", "address", cfg.Server.Address)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatalf("server error: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down server")
			if err := srv.Shutdown(ctx); err != nil {
				return err
			}
			pool.Close()
			return store.Close()
		},
	})
}
