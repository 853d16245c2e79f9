package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/commonweb/user-manager/internal/api"
	"github.com/commonweb/user-manager/internal/api/handler"
	"github.com/commonweb/user-manager/internal/core/ports"
	"github.com/commonweb/user-manager/internal/core/service"
	"github.com/commonweb/user-manager/internal/infrastructure/config"
	mongodb "github.com/commonweb/user-manager/internal/infrastructure/db/mongo"
	redisdb "github.com/commonweb/user-manager/internal/infrastructure/db/redis"
	"github.com/commonweb/user-manager/internal/infrastructure/queue"
	"github.com/commonweb/user-manager/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongodb disconnect failed")
		}
	}()

	repo := mongodb.NewRepository(db)
	if err := repo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("index creation failed")
	}
	txm := mongodb.NewTxManager(client)

	notifier := service.NewNotifier(log)

	var rdb *goredis.Client
	var cache ports.ListingCache
	switch cfg.CacheBackend {
	case "redis":
		rdb, err = redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			log.Fatal().Err(err).Msg("redis connection failed")
		}
		defer rdb.Close()
		cache = redisdb.NewListingCache(rdb, repo, log)
	default:
		cache = service.NewListingCache(repo, log)
	}

	// Cache invalidation runs off the request path, sharded per kind.
	dispatcher := queue.NewDispatcher(0, log)
	dispatcher.Register(cache)
	dispatcher.Start(ctx)
	notifier.Register(dispatcher)

	passwords := service.NewPasswords()
	manager := service.NewDataManager(repo, txm, notifier, cache, passwords, log)

	initializer := service.NewInitializer(manager, passwords, service.AdminSeed{
		Username:  cfg.Admin.Username,
		FirstName: cfg.Admin.FirstName,
		LastName:  cfg.Admin.LastName,
		Email:     cfg.Admin.Email,
		Password:  cfg.Admin.Password,
	}, log)
	if err := initializer.EnsureAdmin(ctx); err != nil {
		log.Fatal().Err(err).Msg("admin bootstrap failed")
	}

	authService := service.NewAuthService(repo, passwords, cfg.JWTSecret, cfg.TokenTTL, log)

	e := api.NewRouter(api.RouterDeps{
		JWTSecret:   cfg.JWTSecret,
		Log:         log,
		Auth:        handler.NewAuthHandler(authService),
		Users:       handler.NewUserHandler(manager, passwords),
		Roles:       handler.NewRoleHandler(manager),
		Permissions: handler.NewPermissionHandler(manager),
		Health:      handler.NewHealthHandler(),
		Readiness:   handler.NewReadinessHandler(db, rdb),
	})

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
		os.Exit(1)
	}
}
