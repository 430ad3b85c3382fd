package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"

	"ms-ordering/internal/logger"
)

// Consumer reads a set of topics as one consumer group member.
type Consumer struct {
	reader *kafka.Reader
	log    *logger.Logger
}

func NewConsumer(brokers, topics []string, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupTopics: topics,
		GroupID:     groupID,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.LastOffset,
	})
	return &Consumer{reader: reader, log: log}
}

// Run calls handle for every message until ctx is cancelled. Handler errors
// are logged and the message is skipped.
func (c *Consumer) Run(ctx context.Context, handle func(topic string, key, value []byte) error) error {
	c.log.Info("KAFKA", "consumer started")
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			c.log.Error("KAFKA", fmt.Sprintf("read message: %v", err))
			continue
		}
		if err := handle(msg.Topic, msg.Key, msg.Value); err != nil {
			c.log.Warn("KAFKA", fmt.Sprintf("skip %s/%d@%d: %v", msg.Topic, msg.Partition, msg.Offset, err))
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
