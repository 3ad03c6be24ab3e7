package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"dynamic-image/internal/broker"
	"dynamic-image/internal/domain"

	kafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeTask(t *testing.T) {
	task := &domain.VariantTask{
		ID:         "task-1",
		ImageID:    "img-1",
		ImageType:  domain.ImageTypeImage,
		Size:       "100x100",
		Uncropped:  true,
		Format:     "PNG",
		EnqueuedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	value, err := EncodeTask(task)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(value, &fields))
	assert.Equal(t, "img-1", fields["image_id"])
	assert.Equal(t, "100x100", fields["size"])
	assert.Equal(t, true, fields["uncropped"])
	assert.Equal(t, "2024-01-02T03:04:05Z", fields["enqueued_at"])
}

func TestMessageConversion(t *testing.T) {
	msg := kafka.Message{
		Topic:     domain.KafkaTopicVariants,
		Partition: 3,
		Offset:    42,
		Key:       []byte("img-1"),
		Value:     []byte(`{}`),
	}

	converted := fromKafka(msg)
	assert.Equal(t, 3, converted.Partition)
	assert.Equal(t, int64(42), converted.Offset)
	assert.Equal(t, domain.KafkaTopicVariants, converted.Topic)

	back := toKafka(converted)
	assert.Equal(t, msg.Topic, back.Topic)
	assert.Equal(t, msg.Partition, back.Partition)
	assert.Equal(t, msg.Offset, back.Offset)
	assert.Equal(t, msg.Key, back.Key)
}

func TestForwardStopsWhenUpstreamCloses(t *testing.T) {
	raw := make(chan kafka.Message, 1)
	out := make(chan *broker.Message, 4)

	raw <- kafka.Message{Topic: domain.KafkaTopicVariants, Offset: 7, Value: []byte(`{}`)}
	close(raw)

	done := make(chan struct{})
	go func() {
		forward(context.Background(), raw, out)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("forward kept running after upstream closed")
	}

	var got []*broker.Message
	for msg := range out {
		got = append(got, msg)
	}
	require.Len(t, got, 1)
	assert.Equal(t, int64(7), got[0].Offset)
}

func TestForwardStopsOnCancel(t *testing.T) {
	raw := make(chan kafka.Message)
	out := make(chan *broker.Message)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		forward(ctx, raw, out)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("forward kept running after cancel")
	}

	_, ok := <-out
	assert.False(t, ok)
}
