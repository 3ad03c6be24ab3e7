package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"dynamic-image/internal/broker"
	"dynamic-image/internal/config"
	"dynamic-image/internal/domain"

	wbkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
)

var _ broker.Producer = (*ProducerClient)(nil)

type ProducerClient struct {
	producer *wbkafka.Producer
	retries  retry.Strategy
}

func NewProducerClient(cfg *config.Config) *ProducerClient {
	return &ProducerClient{
		producer: wbkafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.VariantsTopic),
		retries:  cfg.DefaultRetryStrategy(),
	}
}

func (p *ProducerClient) Send(ctx context.Context, strategy retry.Strategy, key, value []byte) error {
	return p.producer.SendWithRetry(ctx, strategy, key, value)
}

// Enqueue publishes a variant task keyed by image id, so tasks for one
// image land on one partition.
func (p *ProducerClient) Enqueue(ctx context.Context, task *domain.VariantTask) error {
	value, err := EncodeTask(task)
	if err != nil {
		return err
	}
	return p.Send(ctx, p.retries, []byte(task.ImageID), value)
}

func (p *ProducerClient) Close() error {
	return p.producer.Close()
}

func EncodeTask(task *domain.VariantTask) ([]byte, error) {
	value, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task: %w", err)
	}
	return value, nil
}
