// Package consumer provides a consumer-group reader for the audit stream.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Message is one record delivered to a handler.
type Message struct {
	Topic     string
	Key       []byte
	Value     []byte
	Timestamp time.Time
}

// Handler processes one message. Returning an error leaves the offset
// uncommitted so the message is redelivered; handlers must be idempotent.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

// Consumer reads topics inside a consumer group and dispatches each record
// to the handler.
type Consumer struct {
	client  *kgo.Client
	handler Handler
	logger  *slog.Logger
}

// New joins the group and subscribes to the topics.
func New(brokers []string, group string, topics []string, handler Handler, logger *slog.Logger) (*Consumer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topics...),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	return &Consumer{
		client:  client,
		handler: handler,
		logger:  logger,
	}, nil
}

// Run polls until the context is cancelled. Only offsets of records the
// handler actually processed are committed; when a record fails, its
// partition is rewound to the failed offset so the next poll delivers it
// again. A failure in one partition never blocks progress in the others.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if errors.Is(fetches.Err0(), context.Canceled) {
			return ctx.Err()
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.Error("kafka fetch error",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})

		var processed []*kgo.Record
		rewind := make(map[string]map[int32]kgo.EpochOffset)
		fetches.EachPartition(func(p kgo.FetchTopicPartition) {
			for _, record := range p.Records {
				msg := &Message{
					Topic:     record.Topic,
					Key:       record.Key,
					Value:     record.Value,
					Timestamp: record.Timestamp,
				}
				if err := c.handler.Handle(ctx, msg); err != nil {
					c.logger.Error("message handling failed, will redeliver",
						"topic", record.Topic,
						"partition", record.Partition,
						"offset", record.Offset,
						"key", string(record.Key),
						"error", err,
					)
					if rewind[p.Topic] == nil {
						rewind[p.Topic] = make(map[int32]kgo.EpochOffset)
					}
					rewind[p.Topic][p.Partition] = kgo.EpochOffset{
						Epoch:  record.LeaderEpoch,
						Offset: record.Offset,
					}
					return
				}
				processed = append(processed, record)
			}
		})

		if len(processed) > 0 {
			if err := c.client.CommitRecords(ctx, processed...); err != nil && !errors.Is(err, context.Canceled) {
				c.logger.Error("offset commit failed", "error", err)
			}
		}
		if len(rewind) > 0 {
			c.client.SetOffsets(rewind)
		}
	}
}

// Close leaves the group and releases the client.
func (c *Consumer) Close() {
	c.client.Close()
}
