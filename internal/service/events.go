package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"storefront-service/internal/entity"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher publishes one event per order submission outcome.
type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(writer messageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

func (p *KafkaPublisher) PublishOrderEvent(ctx context.Context, receipt *entity.OrderReceipt) error {
	receiptJSON, err := json.Marshal(receipt)
	if err != nil {
		return err
	}

	// order-confirmed-asha or order-failed-asha
	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("order-%s-%s", receipt.Status, receipt.Username)),
		Value: receiptJSON,
	}

	return p.writer.WriteMessages(ctx, msg)
}
