// Package main runs the training center webinar HTTP server with graceful shutdown.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yucheyahyasukaca/trainingcenter/config"
	"github.com/yucheyahyasukaca/trainingcenter/internal/auth"
	"github.com/yucheyahyasukaca/trainingcenter/internal/certificates"
	"github.com/yucheyahyasukaca/trainingcenter/internal/recordings"
	"github.com/yucheyahyasukaca/trainingcenter/internal/registrations"
	"github.com/yucheyahyasukaca/trainingcenter/internal/webinars"
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

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	// Certificate documents are optional; without S3 certificates are recorded without a file.
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
			logger.Warn("s3 disabled", zap.Error(err))
		} else {
			docs = s3Client
		}
	}

	// Async issuance needs Redis; the synchronous path works without it.
	var enqueuer certificates.Enqueuer
	if cfg.Certificates.AsyncEnabled {
		rdb, err := redis.NewClient(ctx, redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}, logger)
		if err != nil {
			logger.Warn("async certificate issuance disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			enqueuer = queue.NewQueue(rdb.Client, logger)
		}
	}

	loc, _ := cfg.Certificates.Location()
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.ExpireHours)

	webinarRepo := webinars.NewRepository(pool)
	recordingRepo := recordings.NewRepository(pool)
	registrationRepo := registrations.NewRepository(pool)
	certificateRepo := certificates.NewRepository(pool)

	issuer := certificates.NewIssuer(webinarRepo, registrationRepo, certificateRepo, docs,
		certificates.NewRenderer(cfg.Certificates.IssuerName, loc),
		certificates.IssuerOptions{NumberPrefix: cfg.Certificates.NumberPrefix}, logger)

	router := newRouter(routerDeps{
		tokens:        jwtService,
		corsOrigins:   cfg.Server.CORSAllowedOrigins,
		webinars:      webinars.NewHandler(webinars.NewService(webinarRepo, recordingRepo, logger), logger),
		registrations: registrations.NewHandler(registrations.NewService(registrationRepo, webinarRepo, logger), logger),
		certificates:  certificates.NewHandler(issuer, certificates.NewService(certificateRepo, docs, logger), enqueuer, logger),
		healthCheck:   pool.Ping,
		logger:        logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
