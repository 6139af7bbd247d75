// Package main Mystic Forest Server
//
//	@title			Mystic Forest API
//	@version		1.0
//	@description	Интерактивная история с выбором пути: состояние сессии, выборы, прогресс.
//	@BasePath		/
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mystic-forest-server/internal/config"
	"mystic-forest-server/internal/database"
	"mystic-forest-server/internal/handler"
	"mystic-forest-server/internal/interfaces"
	"mystic-forest-server/internal/logger"
	"mystic-forest-server/internal/messaging"
	"mystic-forest-server/internal/middleware"
	"mystic-forest-server/internal/service"
	"mystic-forest-server/internal/story"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

var connectOpts = database.ConnectOptions{MaxRetries: 5, RetryDelay: 3 * time.Second}

func main() {
	log.Println("Запуск Mystic Forest Server...")

	cfg, err := config.LoadConfig(".env")
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding})
	if err != nil {
		log.Fatalf("Не удалось инициализировать логгер: %v", err)
	}
	defer zapLogger.Sync()
	zap.ReplaceGlobals(zapLogger)
	zapLogger.Info("Logger initialized",
		zap.String("logLevel", cfg.LogLevel),
		zap.String("env", cfg.Env),
		zap.String("sessionBackend", cfg.SessionBackend),
	)

	graph, err := loadStory(cfg.StoryFile)
	if err != nil {
		zapLogger.Fatal("Не удалось загрузить историю", zap.Error(err))
	}
	zapLogger.Info("Story loaded",
		zap.String("title", graph.Title()),
		zap.Int("nodes", graph.Len()),
		zap.String("source", storySource(cfg.StoryFile)),
	)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	backend, err := setupSessionStore(ctx, cfg, zapLogger)
	cancel()
	if err != nil {
		zapLogger.Fatal("Не удалось инициализировать хранилище сессий", zap.Error(err))
	}
	defer backend.close()

	publisher, closePublisher, err := setupPublisher(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Не удалось инициализировать паблишер событий", zap.Error(err))
	}
	defer closePublisher()

	gameService := service.NewGameService(graph, backend.store, publisher, cfg.ImageBaseURL, zapLogger)
	gameHandler := handler.NewGameHandler(gameService, handler.CookieConfig{
		Name:   cfg.SessionCookieName,
		MaxAge: cfg.SessionCookieMaxAge,
		Secure: cfg.SessionCookieSecure,
	}, zapLogger)

	// --- HTTP Server Setup (Gin) ---
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(middleware.GinZapLogger(zapLogger.Named("HTTP")))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if origins := cfg.GetAllowedOrigins(); len(origins) > 0 {
		corsConfig.AllowOrigins = origins
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
		zapLogger.Info("CORSAllowedOrigins not set, allowing default", zap.String("origin", "http://localhost:3000"))
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", handler.SessionHeader, middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{handler.SessionHeader, middleware.RequestIDHeader}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Счетчики лимитера живут в Redis, только если сессии тоже там.
	rateLimiter := handler.NewRateLimitMiddleware(cfg.RateLimitPerMinute, backend.redisClient, zapLogger.Named("RateLimiter"))
	gameHandler.RegisterRoutes(router, rateLimiter)
	if cfg.SwaggerEnabled {
		handler.RegisterDocsRoutes(router)
		zapLogger.Info("Swagger UI настроен на /swagger/index.html")
	}

	// Prometheus подключаем после регистрации роутов, он сам добавит /metrics
	p := ginprometheus.NewPrometheus("gin")
	p.Use(router)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zapLogger.Info("Starting HTTP server", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("HTTP Server listen error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("HTTP Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exiting")
}

func loadStory(path string) (*story.Graph, error) {
	if path == "" {
		return story.LoadDefault()
	}
	return story.LoadFile(path)
}

func storySource(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}

// sessionBackend - выбранное хранилище сессий и ресурсы, которые нужно закрыть при выходе.
type sessionBackend struct {
	store       interfaces.SessionStore
	redisClient *redis.Client // nil, если SESSION_BACKEND не redis
	close       func()
}

// setupSessionStore создает хранилище по SESSION_BACKEND.
func setupSessionStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*sessionBackend, error) {
	switch cfg.SessionBackend {
	case config.SessionBackendRedis:
		client, err := database.ConnectRedis(ctx, &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, connectOpts, logger)
		if err != nil {
			return nil, err
		}
		return &sessionBackend{
			store:       database.NewRedisSessionStore(client, logger),
			redisClient: client,
			close:       func() { client.Close() },
		}, nil

	case config.SessionBackendPostgres:
		dsn := cfg.GetDSN()
		if err := database.ApplyMigrations(dsn); err != nil {
			return nil, fmt.Errorf("не удалось применить миграции: %w", err)
		}
		logger.Info("Migrations applied")
		pool, err := database.ConnectPostgres(ctx, dsn, cfg.DBMaxConns, cfg.DBIdleTimeout, connectOpts, logger)
		if err != nil {
			return nil, err
		}
		return &sessionBackend{store: database.NewPgSessionStore(pool, logger), close: pool.Close}, nil

	default:
		logger.Warn("Using in-memory session store, sessions are lost on restart")
		return &sessionBackend{store: database.NewMemorySessionStore(logger), close: func() {}}, nil
	}
}

// setupPublisher подключается к RabbitMQ, если задан RABBITMQ_URL. Иначе события не публикуются.
func setupPublisher(cfg *config.Config, logger *zap.Logger) (interfaces.GameEventPublisher, func(), error) {
	if !cfg.EventsEnabled() {
		logger.Info("RABBITMQ_URL not set, game events are disabled")
		return messaging.NewNopGameEventPublisher(), func() {}, nil
	}
	conn, err := messaging.ConnectRabbitMQ(context.Background(), cfg.RabbitMQURL, connectOpts.MaxRetries, connectOpts.RetryDelay, logger)
	if err != nil {
		return nil, nil, err
	}
	publisher, err := messaging.NewRabbitMQGameEventPublisher(conn, cfg.GameEventsQueue, logger)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return publisher, func() { conn.Close() }, nil
}
