package kafka

import (
	"context"

	"dynamic-image/internal/broker"
	"dynamic-image/internal/config"

	kafka "github.com/segmentio/kafka-go"
	wbkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
)

var _ broker.Consumer = (*ConsumerClient)(nil)

type ConsumerClient struct {
	consumer *wbkafka.Consumer
}

func NewConsumerClient(cfg *config.Config) *ConsumerClient {
	return &ConsumerClient{
		consumer: wbkafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.VariantsTopic, cfg.Kafka.GroupID),
	}
}

func (c *ConsumerClient) Fetch(ctx context.Context, strategy retry.Strategy) (*broker.Message, error) {
	msg, err := c.consumer.FetchWithRetry(ctx, strategy)
	if err != nil {
		return nil, err
	}
	return fromKafka(msg), nil
}

func (c *ConsumerClient) Commit(ctx context.Context, msg *broker.Message) error {
	return c.consumer.Commit(ctx, toKafka(msg))
}

func (c *ConsumerClient) Close() error {
	return c.consumer.Close()
}

// Start consumes in the background and forwards messages to out. out is
// closed when ctx is done or when the upstream consumer gives up after
// exhausting its fetch retries.
func (c *ConsumerClient) Start(ctx context.Context, out chan<- *broker.Message, strategy retry.Strategy) {
	raw := make(chan kafka.Message, cap(out))

	go c.consumer.StartConsuming(ctx, raw, strategy)
	go forward(ctx, raw, out)
}

func forward(ctx context.Context, raw <-chan kafka.Message, out chan<- *broker.Message) {
	defer close(out)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-raw:
			if !ok {
				return
			}
			select {
			case out <- fromKafka(msg):
			case <-ctx.Done():
				return
			}
		}
	}
}

func fromKafka(msg kafka.Message) *broker.Message {
	return &broker.Message{
		Key:       msg.Key,
		Value:     msg.Value,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
	}
}

func toKafka(msg *broker.Message) kafka.Message {
	return kafka.Message{
		Key:       msg.Key,
		Value:     msg.Value,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
	}
}
