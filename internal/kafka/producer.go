package kafka

import (
	"context"

	"event-ticketing/internal/logger"

	"github.com/segmentio/kafka-go"
)

// Producer writes payment lifecycle events. One writer serves every
// topic; the topic rides on each message.
type Producer struct {
	Writer *kafka.Writer
	logger *logger.Logger
}

func NewProducer(brokers []string, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{Writer: writer, logger: log}
}

func (p *Producer) Publish(topic, key string, value []byte) error {
	p.logger.Info("KAFKA", "Publishing to "+topic+": "+string(value))
	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: value,
		},
	)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
