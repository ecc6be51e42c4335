// Package main runs the background certificate worker: queued issuance and the ended-webinar sweep.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yucheyahyasukaca/trainingcenter/config"
	"github.com/yucheyahyasukaca/trainingcenter/internal/certificates"
	"github.com/yucheyahyasukaca/trainingcenter/internal/registrations"
	"github.com/yucheyahyasukaca/trainingcenter/internal/webinars"
	"github.com/yucheyahyasukaca/trainingcenter/internal/worker"
	"github.com/yucheyahyasukaca/trainingcenter/pkg/database"
	"github.com/yucheyahyasukaca/trainingcenter/pkg/queue"
	"github.com/yucheyahyasukaca/trainingcenter/pkg/redis"
	"github.com/yucheyahyasukaca/trainingcenter/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), database.PoolConfig{
		MaxConns:        int32(cfg.Database.MaxConns),
		MinConns:        int32(cfg.Database.MinConns),
		MaxConnLifetime: time.Duration(cfg.Database.MaxConnLifetimeMin) * time.Minute,
	}, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var docs certificates.DocumentStore
	if cfg.AWS.StorageEnabled() {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			CertificatesBucket:   cfg.AWS.CertificatesBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Fatal("s3", zap.Error(err))
		}
		docs = s3Client
	}

	loc, _ := cfg.Certificates.Location()
	webinarRepo := webinars.NewRepository(pool)
	issuer := certificates.NewIssuer(webinarRepo, registrations.NewRepository(pool), certificates.NewRepository(pool), docs,
		certificates.NewRenderer(cfg.Certificates.IssuerName, loc),
		certificates.IssuerOptions{NumberPrefix: cfg.Certificates.NumberPrefix}, logger)

	jobQueue := queue.NewQueue(rdb.Client, logger)
	processor := worker.NewCertificateProcessor(issuer, jobQueue, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		processor.Run(workerCtx)
		close(done)
	}()

	var sweeper *worker.Sweeper
	if cfg.Certificates.SweepSchedule != "" {
		sweeper = worker.NewSweeper(webinarRepo, jobQueue, cfg.Certificates.SweepSchedule, cfg.Certificates.Lookback(), logger)
		if err := sweeper.Start(); err != nil {
			logger.Fatal("sweeper", zap.Error(err))
		}
	}
	logger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	if sweeper != nil {
		sweeper.Stop()
	}
	cancel()
	select {
	case <-done:
	case <-time.After(15 * time.Second):
		logger.Warn("worker did not stop in time")
	}
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
