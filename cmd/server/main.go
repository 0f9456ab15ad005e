package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/talhadevelopes/a11yguard-sub001/internal/auth"
	"github.com/talhadevelopes/a11yguard-sub001/internal/cache"
	"github.com/talhadevelopes/a11yguard-sub001/internal/config"
	"github.com/talhadevelopes/a11yguard-sub001/internal/domain"
	"github.com/talhadevelopes/a11yguard-sub001/internal/handler"
	"github.com/talhadevelopes/a11yguard-sub001/internal/hub"
	"github.com/talhadevelopes/a11yguard-sub001/internal/kafka"
	"github.com/talhadevelopes/a11yguard-sub001/internal/metrics"
	"github.com/talhadevelopes/a11yguard-sub001/internal/report"
	"github.com/talhadevelopes/a11yguard-sub001/internal/repository"
	"github.com/talhadevelopes/a11yguard-sub001/internal/service"
	"github.com/talhadevelopes/a11yguard-sub001/internal/store"
	"github.com/talhadevelopes/a11yguard-sub001/pkg/database"
	"github.com/talhadevelopes/a11yguard-sub001/pkg/jwt"
	pkglog "github.com/talhadevelopes/a11yguard-sub001/pkg/log"
	"github.com/talhadevelopes/a11yguard-sub001/pkg/middleware"
	"github.com/talhadevelopes/a11yguard-sub001/pkg/mongodb"
	"github.com/talhadevelopes/a11yguard-sub001/pkg/pubsub"
	"github.com/talhadevelopes/a11yguard-sub001/pkg/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// Initialize structured logger
	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Pretty || cfg.Log.Level == "debug",
		ServiceName: "a11yguard",
	})
	logger := pkglog.L()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MongoDB: chat messages, snapshots, issues
	mongoClient, err := mongodb.Connect(ctx, mongodb.Config{
		URI:            cfg.Mongo.URI,
		Database:       cfg.Mongo.Database,
		ConnectTimeout: cfg.Mongo.ConnectTimeout,
		MaxPoolSize:    cfg.Mongo.MaxPoolSize,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer mongoClient.Close(context.Background())

	messageRepo := repository.NewMongoMessageRepository(mongoClient.Database)
	snapshotRepo := repository.NewMongoSnapshotRepository(mongoClient.Database)
	issueRepo := repository.NewMongoIssueRepository(mongoClient.Database)
	for name, ensure := range map[string]func(context.Context) error{
		"chat_messages":        messageRepo.EnsureIndexes,
		"snapshots":            snapshotRepo.EnsureIndexes,
		"accessibility_issues": issueRepo.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			logger.Warn().Err(err).Str("collection", name).Msg("failed to ensure indexes")
		}
	}

	// Relational database: members, websites
	db, err := database.New(&database.Config{
		Driver:          cfg.Database.Driver,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		FilePath:        cfg.Database.FilePath,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.AutoMigrate(db, &domain.MemberModel{}, &domain.WebsiteModel{}); err != nil {
		logger.Fatal().Err(err).Msg("failed to auto-migrate")
	}
	logger.Info().Str("driver", cfg.Database.Driver).Msg("database migration completed")

	memberRepo := repository.NewGormMemberRepository(db)
	websiteRepo := repository.NewGormWebsiteRepository(db)

	// Redis: presence, cache, cross-instance fan-out
	var (
		redisClient redis.UniversalClient
		presence    store.PresenceStore
		cacheStore  cache.Store
	)
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			// Presence and cache degrade on their own; keep serving.
			logger.Warn().Err(err).Str("address", cfg.Redis.Address).Msg("redis ping failed")
		}
		presence = store.NewRedisStore(redisClient)
		cacheStore = cache.NewRedisStore(redisClient)
		logger.Info().Str("address", cfg.Redis.Address).Msg("redis configured")
	} else {
		presence = store.NewMemoryStore()
		logger.Warn().Msg("redis disabled, using in-memory presence and no cache")
	}
	defer presence.Close()

	accessor := cache.NewAccessor(cacheStore, cache.Options{
		Name:               "read-through",
		OpTimeout:          cfg.Cache.OpTimeout,
		BreakerMaxFailures: cfg.Cache.BreakerMaxFail,
		BreakerTimeout:     cfg.Cache.BreakerTimeout,
		OnLookup:           metrics.CacheLookupObserver("read-through"),
	})

	// Hub and optional relay
	wsHub := hub.NewHub()
	go wsHub.Run(ctx)

	var emitter service.Emitter = wsHub
	if cfg.PubSub.Enabled && redisClient != nil {
		instanceID := cfg.PubSub.InstanceID
		if instanceID == "" {
			instanceID = uuid.New().String()
		}
		ps := pubsub.NewRedisPubSubFromClient(redisClient)
		defer ps.Close()
		relay := hub.NewRelay(wsHub, ps, cfg.PubSub.Channel, instanceID)
		go relay.Run(ctx)
		emitter = relay
		logger.Info().Str("channel", cfg.PubSub.Channel).Str("instance_id", instanceID).Msg("socket relay enabled")
	}

	// Kafka snapshot events
	var producer kafka.SnapshotEventProducer = kafka.NoopProducer{}
	if cfg.Kafka.Enabled {
		p, err := kafka.NewConfluentProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Partitions)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize kafka producer")
		}
		producer = p
		logger.Info().Str("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("kafka producer connected")
	}
	defer producer.Close()

	// Report storage
	files, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}

	// Auth
	tokens, err := jwt.NewManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, time.Hour)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize token manager")
	}

	// Services
	chatSvc := service.NewChatService(messageRepo, memberRepo, emitter)
	presenceSvc := service.NewPresenceService(presence, emitter)
	websiteSvc := service.NewWebsiteService(websiteRepo, accessor, cfg.Cache)
	snapshotSvc := service.NewSnapshotService(snapshotRepo, issueRepo, websiteSvc, producer, accessor, cfg.Cache)
	renderer := report.NewProcessRenderer(cfg.Report.RendererCommand, cfg.Report.RendererArgs, cfg.Report.Timeout)
	reportSvc := service.NewReportService(websiteSvc, snapshotSvc, renderer, files, cfg.Report.URLExpiry)

	// Handlers
	httpHandler := handler.NewHandler(chatSvc, presenceSvc, websiteSvc, snapshotSvc, reportSvc, middleware.NewAuthMiddleware(tokens))
	wsHandler := handler.NewWSHandler(wsHub, emitter, auth.NewAuthenticator(tokens), chatSvc, presenceSvc, cfg.WebSocket)

	// Setup Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))
	r.Use(metrics.HTTPMetricsMiddleware())

	r.GET("/health", httpHandler.Health)
	r.GET("/metrics", metrics.Handler())
	r.GET("/ws", wsHandler.HandleWebSocket)
	if local, ok := files.(*storage.LocalStorage); ok && cfg.Storage.Local.URLPrefix != "" {
		r.Static(cfg.Storage.Local.URLPrefix, local.BasePath())
	}
	httpHandler.RegisterRoutes(r)

	server := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("a11yguard listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}
	// Stops the hub, which closes every socket.
	cancel()

	logger.Info().Msg("stopped")
}
