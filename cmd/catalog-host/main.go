package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog-host/internal/config"
	"catalog-host/internal/database"
	httpapi "catalog-host/internal/http"
	"catalog-host/internal/logger"
	"catalog-host/internal/repository"
	"catalog-host/internal/search"
	"catalog-host/internal/service"
	"catalog-host/internal/storage"
	"catalog-host/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "catalog-host")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting catalog-host service")

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	stores := repository.NewStoresRepo(db, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := stores.EnsureTable(ctx); err != nil {
		log.Fatal("Failed to ensure stores table", zap.Error(err))
	}

	var cache store.KV
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn("Redis unavailable, search caching disabled", zap.Error(err))
		} else {
			cache = store.NewRedisKV(client)
			defer client.Close()
		}
	}

	disk := storage.NewDisk(cfg.Media.Root)

	catalog := service.NewCatalogService(db, stores, disk, cache, log)
	ranker := search.NewRanker(cfg.Search.ScoreCutoff, cfg.Search.FuzzyLimit)
	searcher := service.NewSearchService(db, stores, ranker, cache,
		time.Duration(cfg.Search.CacheTTLSec)*time.Second, log)

	router := httpapi.NewRouter(log)
	router.RegisterSearchRoutes(httpapi.NewSearchHandler(searcher, log))
	router.RegisterImageRoutes(httpapi.NewImageViewHandler(catalog, disk, log))
	router.RegisterAdminRoutes(httpapi.NewAdminHandler(catalog, log))

	srv := service.NewServer(cfg.HTTP.Addr, router.Handler(), log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errChan <- err
		}
	}()

	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-errChan:
		log.Error("Server error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping server", zap.Error(err))
	}

	log.Info("Service stopped")
}
