package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"dynamic-image/internal/broker"
	"dynamic-image/internal/domain"
	image_uc "dynamic-image/internal/usecase/image"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/retry"
)

type fakeConsumer struct {
	mu      sync.Mutex
	pending []*broker.Message
	commits []int64

	// closeAfter closes the stream once pending is delivered.
	closeAfter bool
}

func (c *fakeConsumer) Fetch(context.Context, retry.Strategy) (*broker.Message, error) {
	return nil, errors.New("not supported")
}

func (c *fakeConsumer) Commit(_ context.Context, msg *broker.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commits = append(c.commits, msg.Offset)
	return nil
}

func (c *fakeConsumer) Start(ctx context.Context, out chan<- *broker.Message, _ retry.Strategy) {
	go func() {
		for _, msg := range c.pending {
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
		if c.closeAfter {
			close(out)
		}
	}()
}

func (c *fakeConsumer) Close() error { return nil }

func (c *fakeConsumer) committed() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int64(nil), c.commits...)
}

type fakeCreator struct {
	mu    sync.Mutex
	calls map[string]int
	fn    func(task *domain.VariantTask) (*domain.Variant, error)
}

func (f *fakeCreator) CreateVariant(_ context.Context, task *domain.VariantTask) (*domain.Variant, error) {
	f.mu.Lock()
	f.calls[task.ImageID]++
	f.mu.Unlock()
	return f.fn(task)
}

func (f *fakeCreator) callsFor(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

func message(t *testing.T, offset int64, imageID string) *broker.Message {
	t.Helper()
	value, err := json.Marshal(domain.VariantTask{ID: "t", ImageID: imageID, Size: "10x10", Format: "PNG"})
	require.NoError(t, err)
	return &broker.Message{Key: []byte(imageID), Value: value, Offset: offset}
}

func TestWorkerProcessesTasks(t *testing.T) {
	consumer := &fakeConsumer{}
	consumer.pending = []*broker.Message{
		message(t, 1, "ok"),
		message(t, 2, "missing"),
		{Value: []byte("not json"), Offset: 3},
		message(t, 4, "flaky"),
		message(t, 5, "panics"),
	}

	creator := &fakeCreator{calls: map[string]int{}}
	creator.fn = func(task *domain.VariantTask) (*domain.Variant, error) {
		switch task.ImageID {
		case "missing":
			return nil, image_uc.ErrImageNotFound
		case "flaky":
			return nil, image_uc.ErrStorageError
		case "panics":
			panic("boom")
		}
		return &domain.Variant{ID: "v-" + task.ImageID}, nil
	}

	logger := zerolog.Nop()
	w := NewWorker(consumer, creator, &logger, Options{
		Concurrency: 2,
		TaskRetries: retry.Strategy{Attempts: 3, Delay: time.Millisecond, Backoff: 1},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	assert.Eventually(t, func() bool {
		return len(consumer.committed()) == 3 && creator.callsFor("flaky") >= 2 && creator.callsFor("panics") == 1
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	assert.ElementsMatch(t, []int64{1, 2, 3}, consumer.committed())
	assert.Equal(t, 1, creator.callsFor("ok"))
	assert.Equal(t, 1, creator.callsFor("missing"))
}

func TestWorkerStopsWhenStreamCloses(t *testing.T) {
	consumer := &fakeConsumer{closeAfter: true}
	consumer.pending = []*broker.Message{message(t, 1, "ok"), message(t, 2, "ok")}

	creator := &fakeCreator{calls: map[string]int{}}
	creator.fn = func(task *domain.VariantTask) (*domain.Variant, error) {
		return &domain.Variant{ID: "v-" + task.ImageID}, nil
	}

	logger := zerolog.Nop()
	w := NewWorker(consumer, creator, &logger, Options{
		Concurrency: 3,
		TaskRetries: retry.Strategy{Attempts: 1, Delay: time.Millisecond, Backoff: 1},
	})

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrConsumerStopped)
	case <-time.After(5 * time.Second):
		t.Fatal("worker kept running after the stream closed")
	}

	assert.ElementsMatch(t, []int64{1, 2}, consumer.committed())
	assert.Equal(t, 2, creator.callsFor("ok"))
}

func TestPermanent(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{image_uc.ErrImageNotFound, true},
		{image_uc.ErrInvalidImage, true},
		{&image_uc.ValidationError{Fields: map[string]string{"real_width": "is required"}}, true},
		{domain.ErrInvalidSize, true},
		{image_uc.ErrStorageError, false},
		{image_uc.ErrDatabaseError, false},
		{errors.New("connection reset"), false},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, Permanent(tt.err))
		})
	}
}
