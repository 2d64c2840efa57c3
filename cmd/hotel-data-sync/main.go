package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hotel-data-sync/internal/anonymizer"
	"hotel-data-sync/internal/config"
	"hotel-data-sync/internal/database"
	httpapi "hotel-data-sync/internal/http"
	"hotel-data-sync/internal/logger"
	"hotel-data-sync/internal/report"
	"hotel-data-sync/internal/repository"
	"hotel-data-sync/internal/scheduler"
	"hotel-data-sync/internal/service"
	"hotel-data-sync/internal/sink"
	"hotel-data-sync/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const serviceName = "EU Hotel Data Sync Service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "hotel-data-sync")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// 业务库：预订数据只读源
	opDB, err := database.NewPostgresDB(&cfg.Operational)
	if err != nil {
		log.Fatal("Failed to connect operational database", zap.Error(err))
	}
	defer database.Close(opDB)

	// BI库：单连接，启动时不探活（BI库不可用不影响服务启动）
	sinkDB, err := database.NewSinkDB(&cfg.Sink)
	if err != nil {
		log.Fatal("Failed to open sink database", zap.Error(err))
	}
	defer database.Close(sinkDB)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	kv := store.NewRedisKVStore(redisClient)

	reservations := repository.NewReservationRepository(opDB, log)
	names := repository.NewCachedNameResolver(
		repository.NewNameRepository(opDB, log),
		kv,
		time.Duration(cfg.Sync.NameCacheTTLSeconds)*time.Second,
		log,
	)

	generator := report.NewGenerator(cfg.Sync.Region, cfg.Sync.Currency, names, log)
	gate := sink.NewGatekeeper(time.Duration(cfg.Sync.AcquireTimeoutSeconds) * time.Second)
	writer := sink.NewWriter(sinkDB, gate, cfg.Sync.DataSource, log)

	syncScheduler := scheduler.NewSyncScheduler(
		reservations,
		anonymizer.Service{},
		generator,
		writer,
		time.Duration(cfg.Sync.IntervalSeconds)*time.Second,
		log,
	)

	router := httpapi.NewRouter(log)
	router.RegisterSyncRoutes(httpapi.NewSyncHandler(
		syncScheduler, writer, serviceName, cfg.Sync.Region, cfg.Sync.Currency, log,
	))

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go syncScheduler.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		log.Error("HTTP server exited", zap.Error(err))
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}
