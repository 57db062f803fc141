package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	c "github.com/fjod/go_storefront/internal/cache"
	"github.com/fjod/go_storefront/internal/catalog"
	h "github.com/fjod/go_storefront/internal/http"
	"github.com/fjod/go_storefront/internal/outbox"
	"github.com/fjod/go_storefront/internal/poller"
	"github.com/fjod/go_storefront/internal/publisher"
	"github.com/fjod/go_storefront/internal/repository"
	s "github.com/fjod/go_storefront/internal/service"
	"github.com/fjod/go_storefront/pkg/logger"
)

type Config struct {
	HTTPPort        string
	MongoURI        string
	MongoDBName     string
	RedisAddr       string
	RedisPassword   string
	CatalogDBPath   string
	MigrationsPath  string
	KafkaBrokers    []string
	OrdersTopic     string
	LogLevel        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:     getEnv("MONGO_DB_NAME", "storefront"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		CatalogDBPath:   getEnv("CATALOG_DB_PATH", "./catalog.db"),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "./internal/catalog/migrations"),
		KafkaBrokers:    strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		OrdersTopic:     getEnv("ORDERS_TOPIC", publisher.DefaultTopic),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		RequestTimeout:  getDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return defaultValue
}

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()
	cfg := loadConfig()

	log := logger.New("storefront", cfg.LogLevel)
	slog.SetDefault(log)

	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	ctx := context.Background()

	// Catalog
	catalogRepo, err := catalog.NewRepository(cfg.CatalogDBPath)
	if err != nil {
		fatal(log, "failed to open catalog", err)
	}
	defer catalogRepo.Close()
	if err := catalogRepo.RunMigrations(cfg.MigrationsPath); err != nil {
		fatal(log, "failed to run catalog migrations", err)
	}
	products := catalog.NewGuarded(catalogRepo, log)

	// Carts
	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		fatal(log, "failed to connect to MongoDB", err)
	}
	repo := repository.NewMongoRepository(mongoDB)
	if ix, ok := repo.(repository.IndexCreator); ok {
		if err := ix.CreateIndexes(ctx); err != nil {
			fatal(log, "failed to create cart indexes", err)
		}
	}
	log.Info("connected to MongoDB", slog.String("uri", cfg.MongoURI))

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		fatal(log, "redis connection failed", err)
	}
	cache := c.NewRedisCache(redisClient)

	// Orders
	orders := publisher.NewOrderPublisher(cfg.OrdersTopic, log, cfg.KafkaBrokers...)
	defer orders.Close()

	pending := outbox.NewStore(catalogRepo.DB())
	relay := outbox.NewRelay(pending, orders, log)
	orderPoller := poller.NewPoller(repo, cache, log, cfg.OrdersTopic, cfg.KafkaBrokers...)

	bgCtx, stopBackground := context.WithCancel(ctx)
	var background sync.WaitGroup
	background.Add(2)
	go func() {
		defer background.Done()
		relay.Run(bgCtx)
	}()
	go func() {
		defer background.Done()
		orderPoller.Run(bgCtx)
	}()

	carts := s.NewCartService(repo, cache, products, log)
	stores := s.NewStoreService(products, cache, log)
	checkout := s.NewCheckoutService(carts, stores, pending, log)

	router := h.NewRouter(h.Handlers{
		Products: h.NewProductHandler(products, cfg.RequestTimeout),
		Carts:    h.NewCartHandler(carts, cfg.RequestTimeout),
		Stores:   h.NewStoreHandler(stores, cfg.RequestTimeout),
		Checkout: h.NewCheckoutHandler(checkout, cfg.RequestTimeout),
	}, log, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("storefront starting", slog.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(log, "server error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", slog.Any("error", err))
	}

	stopBackground()
	background.Wait()
	orderPoller.Close()

	if err := mongoDB.Client().Disconnect(shutdownCtx); err != nil {
		log.Error("mongo disconnect failed", slog.Any("error", err))
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Error("tracer shutdown failed", slog.Any("error", err))
	}
	log.Info("server exited")
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, slog.Any("error", err))
	os.Exit(1)
}
