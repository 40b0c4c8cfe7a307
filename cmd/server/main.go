package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/chesterzelaya/database-populator/config"
	httpDelivery "github.com/chesterzelaya/database-populator/internal/delivery/http"
	"github.com/chesterzelaya/database-populator/internal/domain"
	"github.com/chesterzelaya/database-populator/internal/infrastructure/cache"
	"github.com/chesterzelaya/database-populator/internal/infrastructure/completion"
	"github.com/chesterzelaya/database-populator/internal/infrastructure/schemafile"
	"github.com/chesterzelaya/database-populator/internal/infrastructure/store"
	"github.com/chesterzelaya/database-populator/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	if err := setupLogging(cfg.Log); err != nil {
		logrus.WithError(err).Fatal("invalid log configuration")
	}

	log := logrus.WithField("component", "main")
	log.WithFields(logrus.Fields{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"cache":       cfg.Cache.Type,
		"store":       cfg.Store.Type,
	}).Info("starting parts catalog service v1.0.0")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	schemas, err := loadSchemas(cfg.Catalog.SchemaPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load category schemas")
	}
	registry, err := usecase.NewSchemaRegistry(schemas...)
	if err != nil {
		log.WithError(err).Fatal("failed to build schema registry")
	}
	log.WithField("categories", registry.Categories()).Info("category schemas loaded")

	prompts, err := loadPromptBuilder(cfg.Catalog.PromptTemplatePath)
	if err != nil {
		log.WithError(err).Fatal("failed to load prompt template")
	}

	resultCache, closeCache, err := buildCache(ctx, cfg.Cache)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize cache")
	}
	defer closeCache()

	repository, closeStore, err := buildRepository(ctx, cfg.Store)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize product store")
	}
	defer closeStore()

	if cfg.Completion.APIKey == "" {
		log.Warn("completion API key not configured (set PARTSCATALOG_COMPLETION_API_KEY); acquisitions will fail")
	}
	client := completion.NewClient(cfg.Completion.APIKey, cfg.Completion.BaseURL, completion.Options{
		Timeout:           cfg.Completion.Timeout,
		RequestsPerMinute: cfg.Completion.RequestsPerMinute,
	})

	acquisitions := usecase.NewAcquisitionService(registry, prompts, client, resultCache, usecase.AcquisitionServiceConfig{
		RetrievalModel:  cfg.Completion.RetrievalModel,
		ValidationModel: cfg.Completion.ValidationModel,
		AllowedModels:   cfg.Completion.Models,
		MaxTokens:       cfg.Completion.MaxTokens,
		CacheTTL:        cfg.Cache.TTL,
	})
	tracker := usecase.NewAcquisitionTracker(acquisitions, cfg.Completion.AcquisitionTimeout)
	products := usecase.NewProductService(registry, repository)

	handler := httpDelivery.NewHandler(registry, acquisitions, tracker, products)
	router := httpDelivery.SetupRouter(cfg, handler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}

func setupLogging(cfg config.LogConfig) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stdout)

	if cfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}

func loadSchemas(path string) ([]domain.CategorySchema, error) {
	if path == "" {
		return schemafile.LoadDefault()
	}
	return schemafile.LoadFile(path)
}

func loadPromptBuilder(path string) (*usecase.PromptBuilder, error) {
	if path == "" {
		return usecase.NewPromptBuilder(""), nil
	}
	template, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return usecase.NewPromptBuilder(string(template)), nil
}

func buildCache(ctx context.Context, cfg config.CacheConfig) (domain.CacheRepository, func(), error) {
	switch cfg.Type {
	case "redis":
		c, err := cache.NewRedisCache(ctx, cfg.RedisURL, "partscatalog:")
		if err != nil {
			return nil, nil, err
		}
		return c, closer(c, "redis cache"), nil
	case "none":
		return nil, func() {}, nil
	default:
		c := cache.NewMemoryCache()
		return c, closer(c, "memory cache"), nil
	}
}

func buildRepository(ctx context.Context, cfg config.StoreConfig) (domain.ProductRepository, func(), error) {
	if cfg.Type != "mongo" {
		return store.NewMemoryRepository(), func() {}, nil
	}

	client, err := store.Connect(ctx, cfg.MongoURI, 10*time.Second)
	if err != nil {
		return nil, nil, err
	}
	logrus.WithFields(logrus.Fields{"component": "main", "database": cfg.Database}).Info("connected to MongoDB")

	disconnect := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			logrus.WithError(err).Warn("MongoDB disconnect failed")
		}
	}
	return store.NewMongoRepository(client.Database(cfg.Database)), disconnect, nil
}

func closer(c io.Closer, name string) func() {
	return func() {
		if err := c.Close(); err != nil {
			logrus.WithError(err).WithField("resource", name).Warn("close failed")
		}
	}
}
