package notify

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// KafkaPublisher writes one message per status change, keyed by order id so
// every change of an order lands on the same partition in order.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *logrus.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *logrus.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 10 * time.Millisecond,
		},
		logger: logger,
	}
}

func (p *KafkaPublisher) Notify(ctx context.Context, change StatusChange) error {
	msg, err := Message(change)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.WithError(err).WithField("order_id", change.OrderID).Error("Failed to publish status change")
		return err
	}
	p.logger.WithFields(logrus.Fields{
		"topic":    p.writer.Topic,
		"order_id": change.OrderID,
		"status":   change.To,
	}).Debug("Status change published to Kafka")
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Message encodes a change as a Kafka message.
func Message(change StatusChange) (kafka.Message, error) {
	data, err := json.Marshal(change)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(change.OrderID), 10)),
		Value: data,
		Time:  change.At.UTC(),
	}, nil
}
