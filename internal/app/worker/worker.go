package worker

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	kafka_impl "dynamic-image/internal/broker/kafka"
	"dynamic-image/internal/config"
	"dynamic-image/internal/domain"
	minio_repo "dynamic-image/internal/repository/image/cloud/minio"
	postgres_repo "dynamic-image/internal/repository/image/db/postgres"
	image_uc "dynamic-image/internal/usecase/image"
	"dynamic-image/internal/worker"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"
)

type Worker struct {
	cfg      *config.Config
	logger   *zlog.Zerolog
	db       *dbpg.DB
	consumer *kafka_impl.ConsumerClient
	engine   *worker.Worker
}

func NewWorker(cfg *config.Config, logger *zlog.Zerolog) (*Worker, error) {
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

	imageRepo := postgres_repo.NewImagesRepository(db, retries)
	images := minio_repo.NewMinIORepository(client, cfg.MinIO.Bucket, domain.BlobTypeImages, retries)
	variantBlobs := minio_repo.NewMinIORepository(client, cfg.MinIO.Bucket, domain.BlobTypeVariants, retries)

	// Workers only render; they never enqueue, so no producer is wired.
	imageUsecase := image_uc.NewImageUsecase(imageRepo, imageRepo, images, variantBlobs, nil, logger, image_uc.Options{})

	consumer := kafka_impl.NewConsumerClient(cfg)
	engine := worker.NewWorker(consumer, imageUsecase, logger, worker.Options{
		Concurrency:  cfg.Worker.Concurrency,
		FetchRetries: retries,
		TaskRetries:  cfg.TaskRetryStrategy(),
	})

	logger.Info().
		Strs("brokers", cfg.Kafka.Brokers).
		Str("topic", cfg.Kafka.VariantsTopic).
		Str("group", cfg.Kafka.GroupID).
		Int("concurrency", cfg.Worker.Concurrency).
		Msg("Worker configuration")

	return &Worker{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		consumer: consumer,
		engine:   engine,
	}, nil
}

func (w *Worker) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := w.engine.Run(ctx)

	if w.consumer != nil {
		if err := w.consumer.Close(); err != nil {
			w.logger.Error().Err(err).Msg("Failed to close consumer")
		}
	}
	if w.db != nil && w.db.Master != nil {
		w.db.Master.Close()
	}

	return err
}
