package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/SergeiKhy/tracking-links/internal/config"
	"github.com/SergeiKhy/tracking-links/internal/handler"
	"github.com/SergeiKhy/tracking-links/internal/linksapi"
	"github.com/SergeiKhy/tracking-links/internal/middleware"
	"github.com/SergeiKhy/tracking-links/internal/repository"
	"github.com/SergeiKhy/tracking-links/internal/service"
	"github.com/SergeiKhy/tracking-links/internal/storage"
)

func main() {
	// Загрузка конфига
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	logger, err := newLogger(cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Книга
	store, err := repository.NewWorkbookStore(cfg.App.WorkbookPath)
	if err != nil {
		logger.Fatal("Failed to open workbook", zap.String("path", cfg.App.WorkbookPath), zap.Error(err))
	}
	defer store.Close()

	headers := service.NewHeaderService(store, logger)
	if err := headers.Bootstrap(); err != nil {
		logger.Fatal("Failed to prepare workbook", zap.Error(err))
	}
	if err := store.Flush(); err != nil {
		logger.Fatal("Failed to save workbook", zap.Error(err))
	}
	logger.Info("Workbook ready", zap.String("path", cfg.App.WorkbookPath))

	// Журнал: лист "Links History" и, если настроен, Postgres
	history := repository.NewSheetHistoryRepository(store)
	var mirror *service.HistoryMirror
	if cfg.DB.Enabled() {
		db, err := repository.NewPostgresDB(cfg.DB)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		if err := db.Migrate(context.Background()); err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
		logger.Info("Connected to PostgreSQL")

		mirror = service.NewHistoryMirror(repository.NewPostgresHistoryRepository(db), logger)
		mirror.Start()
		history = repository.NewMultiHistoryRepository(history, mirror)
	}

	// Кэш каталога аккаунта
	cache := repository.NewNoopCatalogCache()
	if cfg.Redis.Enabled() {
		redis, err := repository.NewRedisClient(cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redis.Close()
		cache = repository.NewCatalogCache(redis)
		logger.Info("Connected to Redis")
	}

	objects, err := newObjectStore(cfg.QR)
	if err != nil {
		logger.Fatal("Failed to create QR storage", zap.String("storage", cfg.QR.Storage), zap.Error(err))
	}

	// Инициализация сервисов
	client := linksapi.NewClient(cfg.LinksAPI)
	clock := service.NewRealClock()
	// запуски, синхронизация и правки книги не пересекаются
	runLock := service.NewRunLock()
	linkService := service.NewLinkService(store, client, history, clock, cfg.Pipeline, runLock, logger)
	accountService := service.NewAccountService(store, client, cache, headers, cfg.Redis.TTL, runLock, logger)
	edits := service.NewEditDispatcher(store, headers, runLock, logger)
	qrService := service.NewQRService(store, objects, cfg.QR, clock, logger)

	// Инициализация middleware
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		BurstSize:         cfg.RateLimit.BurstSize,
		CleanupInterval:   time.Minute,
	})
	defer rateLimiter.Stop()

	apiKey := middleware.NewAPIKey(middleware.APIKeyConfig{ValidKeys: cfg.Auth.APIKeys})
	if apiKey.Enabled() {
		logger.Info("API key authentication enabled", zap.Int("keys_count", len(cfg.Auth.APIKeys)))
	} else {
		logger.Warn("API key authentication disabled")
	}

	// отменяется при остановке: идущие запуски прерываются между строками
	shutdownCtx, stopRuns := context.WithCancel(context.Background())
	defer stopRuns()

	// Настройка роутера
	router := handler.NewRouter(handler.Handlers{
		Links:    handler.NewLinkHandler(shutdownCtx, linkService, history, logger),
		Workbook: handler.NewWorkbookHandler(store, store, accountService, edits, logger),
		QR:       handler.NewQRHandler(shutdownCtx, qrService, logger),
	}, rateLimiter, apiKey, logger)

	// Запуск сервера
	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.App.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Запуск в горутине
	go func() {
		logger.Info("Server starting", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stopRuns()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if mirror != nil {
		mirror.Stop()
	}
	if err := store.Flush(); err != nil {
		logger.Error("Failed to save workbook", zap.Error(err))
	}

	logger.Info("Server exited")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func newObjectStore(cfg config.QRConfig) (storage.ObjectStore, error) {
	switch cfg.Storage {
	case "s3":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return storage.NewS3Store(ctx, cfg.S3Bucket, cfg.S3Prefix, cfg.S3Endpoint, cfg.S3PathStyle)
	case "", "local":
		return storage.NewLocalStore(cfg.LocalDir)
	default:
		return nil, errors.New("unknown QR storage " + cfg.Storage)
	}
}
