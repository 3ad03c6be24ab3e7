package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	kafka_impl "dynamic-image/internal/broker/kafka"
	"dynamic-image/internal/config"
	"dynamic-image/internal/domain"
	image_h "dynamic-image/internal/http-server/handler/image"
	"dynamic-image/internal/http-server/router"
	minio_repo "dynamic-image/internal/repository/image/cloud/minio"
	postgres_repo "dynamic-image/internal/repository/image/db/postgres"
	"dynamic-image/internal/signing"
	image_uc "dynamic-image/internal/usecase/image"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"
)

type App struct {
	cfg      *config.Config
	server   *http.Server
	logger   *zlog.Zerolog
	db       *dbpg.DB
	producer *kafka_impl.ProducerClient
}

func NewApp(cfg *config.Config, logger *zlog.Zerolog) (*App, error) {
	retries := cfg.DefaultRetryStrategy()

	dbOpts := &dbpg.Options{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	}

	db, err := dbpg.New(cfg.DBDSN(), []string{}, dbOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	client, err := minio_repo.NewClient(context.Background(), cfg.MinIO)
	if err != nil {
		return nil, fmt.Errorf("failed to create file repository: %w", err)
	}

	verifier, err := signing.NewVerifier(cfg.Images.Secret, cfg.Images.Digest)
	if err != nil {
		return nil, fmt.Errorf("failed to create digest verifier: %w", err)
	}

	imageRepo := postgres_repo.NewImagesRepository(db, retries)
	images := minio_repo.NewMinIORepository(client, cfg.MinIO.Bucket, domain.BlobTypeImages, retries)
	variantBlobs := minio_repo.NewMinIORepository(client, cfg.MinIO.Bucket, domain.BlobTypeVariants, retries)

	producer := kafka_impl.NewProducerClient(cfg)

	imageUsecase := image_uc.NewImageUsecase(imageRepo, imageRepo, images, variantBlobs, producer, logger, image_uc.Options{
		MaxPixelArea: cfg.Images.MaxPixelArea,
	})

	imageHandler := image_h.NewImageHandler(imageUsecase, verifier, logger, image_h.Options{
		CacheMaxAge:   cfg.Images.CacheMaxAge,
		RetryAfter:    cfg.Images.RetryAfter,
		MaxUploadSize: cfg.Images.MaxUploadSize,
	})

	h := &router.Handler{
		ImageHandler: imageHandler,
	}

	mux := router.SetupRouter(h)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		cfg:      cfg,
		server:   server,
		logger:   logger,
		db:       db,
		producer: producer,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info().Str("addr", a.cfg.Server.Addr).Msg("Starting server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.handleSignals(cancel)

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		a.logger.Error().Err(err).Msg("Server error")
		return err
	case <-ctx.Done():
		a.logger.Info().Msg("Shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error().Err(err).Msg("Server shutdown failed")
		}

		if a.db != nil && a.db.Master != nil {
			a.db.Master.Close()
		}

		if a.producer != nil {
			if err := a.producer.Close(); err != nil {
				a.logger.Error().Err(err).Msg("Failed to close producer")
			}
		}

		a.logger.Info().Msg("Server stopped gracefully")
		return nil
	}
}

func (a *App) handleSignals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	a.logger.Info().Str("signal", sig.String()).Msg("Received signal")
	cancel()
}
