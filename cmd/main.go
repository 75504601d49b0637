package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"storefront-service/internal/api"
	"storefront-service/internal/catalog"
	"storefront-service/internal/config"
	"storefront-service/internal/gateway"
	"storefront-service/internal/repository"
	"storefront-service/internal/service"
	"storefront-service/internal/session"
	"storefront-service/internal/sharding"
	"storefront-service/migrations"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

const shutdownTimeout = 10 * time.Second

func connectDB(dsn string, shard int) (*sql.DB, error) {
	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("mysql", dsn)
		if err == nil {
			err = db.Ping()
			if err == nil {
				logger.Info().Msgf("Connected to receipt shard %d", shard)
				return db, nil
			}
		}
		logger.Warn().Err(err).Msgf("Retry %d: failed to connect to receipt shard %d", i+1, shard)
		time.Sleep(3 * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to receipt shard %d after retries: %v", shard, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load catalog")
	}

	var store session.Store = session.NewMemoryStore()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to redis")
		}
		store = session.NewRedisStore(rdb, cfg.SessionTTL)
	}
	sessions := session.NewManager(store, cfg.SessionTTL)

	var receipts service.ReceiptStore
	if len(cfg.OrderDBDSNs) > 0 {
		dbs := make([]*sql.DB, 0, len(cfg.OrderDBDSNs))
		for i, dsn := range cfg.OrderDBDSNs {
			db, err := connectDB(dsn, i)
			if err != nil {
				logger.Fatal().Err(err).Msg("Failed to connect to receipt database")
			}
			dbs = append(dbs, db)
		}

		if err := migrations.AutoMigrateOrderReceipts(3, dbs...); err != nil {
			logger.Fatal().Err(err).Msg("Failed to migrate order_receipts table")
		}

		repo, err := repository.NewReceiptRepository(dbs, sharding.NewShardRouter(len(dbs)))
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to build receipt repository")
		}
		receipts = repo
	}

	var events service.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaWriter := config.NewKafkaWriter(cfg.KafkaBrokers, cfg.OrderTopic)
		defer kafkaWriter.Close()
		events = service.NewKafkaPublisher(kafkaWriter)
	}

	gatewayClient := gateway.NewClient(cfg.GatewayURL, &http.Client{Timeout: cfg.GatewayTimeout})

	storefrontService := service.NewStorefrontService(sessions, cat, gatewayClient, receipts, events, []byte(cfg.JWTSecret), cfg.SessionTTL)
	storefrontHandler := api.NewStorefrontHandler(storefrontService)

	e := echo.New()

	limiterConfig := middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(cfg.RateLimit),
				Burst:     cfg.RateBurst,
				ExpiresIn: 3 * time.Minute,
			}),
		IdentifierExtractor: func(context echo.Context) (string, error) {
			return context.RealIP(), nil
		},
		ErrorHandler: func(context echo.Context, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
		DenyHandler: func(context echo.Context, identifier string, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
	}

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RateLimiterWithConfig(limiterConfig))

	api.RegisterRoutes(e, storefrontHandler)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().Str("addr", cfg.HTTPAddr).Str("gateway", cfg.GatewayURL).Msg("Starting storefront-service")
	if err := serve(ctx, e, cfg.HTTPAddr); err != nil {
		logger.Error().Err(err).Msg("Server stopped")
		return
	}
	logger.Info().Msg("Server stopped")
}

// serve runs e until ctx is done, then drains in-flight requests so deferred
// cleanup in main gets to run.
func serve(ctx context.Context, e *echo.Echo, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
