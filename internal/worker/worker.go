package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"dynamic-image/internal/broker"
	"dynamic-image/internal/domain"
	image_uc "dynamic-image/internal/usecase/image"
	"dynamic-image/internal/usecase/processor"
	"dynamic-image/internal/usecase/sizing"

	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

// ErrConsumerStopped is returned by Run when the message stream ends
// before shutdown was requested.
var ErrConsumerStopped = errors.New("consumer stopped")

type variantCreator interface {
	CreateVariant(ctx context.Context, task *domain.VariantTask) (*domain.Variant, error)
}

type Options struct {
	Concurrency int
	// FetchRetries is passed to the consumer.
	FetchRetries retry.Strategy
	// TaskRetries bounds attempts at rendering a single task.
	TaskRetries retry.Strategy
}

// Worker renders queued variant tasks with a fixed pool of goroutines.
type Worker struct {
	consumer     broker.Consumer
	usecase      variantCreator
	logger       *zlog.Zerolog
	concurrency  int
	fetchRetries retry.Strategy
	taskRetries  retry.Strategy
	wg           sync.WaitGroup
}

func NewWorker(consumer broker.Consumer, usecase variantCreator, logger *zlog.Zerolog, opts Options) *Worker {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Worker{
		consumer:     consumer,
		usecase:      usecase,
		logger:       logger,
		concurrency:  opts.Concurrency,
		fetchRetries: opts.FetchRetries,
		taskRetries:  opts.TaskRetries,
	}
}

// Run consumes until ctx is done and then waits for in-flight tasks. If the
// consumer closes the stream first, Run drains it and returns
// ErrConsumerStopped so the process can be restarted.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().Int("concurrency", w.concurrency).Msg("Starting worker")

	messages := make(chan *broker.Message, w.concurrency*2)
	w.consumer.Start(ctx, messages, w.fetchRetries)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go func(id int) {
			defer w.wg.Done()
			w.processWorker(ctx, id, messages)
		}(i)
	}

	stopped := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(stopped)
	}()

	w.logger.Info().Msg("Worker started successfully")

	select {
	case <-ctx.Done():
		w.logger.Info().Msg("Shutting down worker gracefully...")
		<-stopped
		w.logger.Info().Msg("Worker stopped gracefully")
		return nil
	case <-stopped:
		w.logger.Error().Msg("Message stream closed, worker stopped")
		return ErrConsumerStopped
	}
}

func (w *Worker) processWorker(ctx context.Context, id int, messages <-chan *broker.Message) {
	w.logger.Debug().Int("worker_id", id).Msg("Worker started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Debug().Int("worker_id", id).Msg("Worker stopping")
			return
		case msg, ok := <-messages:
			if !ok {
				w.logger.Debug().Int("worker_id", id).Msg("Message stream closed")
				return
			}
			startTime := time.Now()
			if err := w.safeProcessMessage(ctx, id, msg); err != nil {
				w.logger.Error().
					Err(err).
					Int("worker_id", id).
					Int64("offset", msg.Offset).
					Msg("Failed to process message")
				continue
			}

			if err := w.consumer.Commit(ctx, msg); err != nil {
				w.logger.Error().
					Err(err).
					Int("worker_id", id).
					Int64("offset", msg.Offset).
					Msg("Failed to commit message after successful processing")
				continue
			}

			w.logger.Debug().
				Int("worker_id", id).
				Int64("offset", msg.Offset).
				Dur("duration", time.Since(startTime)).
				Msg("Message processed and committed successfully")
		}
	}
}

func (w *Worker) safeProcessMessage(ctx context.Context, workerID int, msg *broker.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error().
				Int("worker_id", workerID).
				Interface("panic", r).
				Int64("offset", msg.Offset).
				Msg("Panic recovered while processing message")
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.processMessage(ctx, msg)
}

// processMessage returns nil when the message should be committed. Tasks
// that can never succeed are logged and dropped.
func (w *Worker) processMessage(ctx context.Context, msg *broker.Message) error {
	var task domain.VariantTask
	if err := json.Unmarshal(msg.Value, &task); err != nil {
		w.logger.Error().Err(err).Str("message", string(msg.Value)).Int64("offset", msg.Offset).Msg("Dropping malformed task")
		return nil
	}

	w.logger.Info().
		Str("task_id", task.ID).
		Str("image_id", task.ImageID).
		Str("size", task.Size).
		Str("format", task.Format).
		Int64("offset", msg.Offset).
		Msg("Processing task started")

	var (
		variant   *domain.Variant
		permanent error
	)
	err := retry.Do(func() error {
		v, err := w.usecase.CreateVariant(ctx, &task)
		if err != nil && Permanent(err) {
			permanent = err
			return nil
		}
		variant = v
		return err
	}, w.taskRetries)

	if permanent != nil {
		w.logger.Warn().Err(permanent).Str("task_id", task.ID).Str("image_id", task.ImageID).Msg("Dropping task")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create variant for image %s: %w", task.ImageID, err)
	}

	w.logger.Info().
		Str("task_id", task.ID).
		Str("image_id", task.ImageID).
		Str("variant_id", variant.ID).
		Msg("Variant ready")
	return nil
}

// Permanent reports whether retrying a task cannot help.
func Permanent(err error) bool {
	for _, target := range []error{
		image_uc.ErrImageNotFound,
		image_uc.ErrInvalidImage,
		image_uc.ErrUnsupportedFormat,
		image_uc.ErrValidation,
		domain.ErrInvalidSize,
		processor.ErrInvalidTransformation,
		sizing.ErrInvalidSizeOptions,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
