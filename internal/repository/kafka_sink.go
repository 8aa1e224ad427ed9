package repository

import (
	"context"

	"BarPull/internal/domain/models"
	domrepo "BarPull/internal/domain/repository"
	pkgkafka "BarPull/pkg/kafka"
	"BarPull/pkg/util"
)

// KafkaSink publishes committed bars as JSON events keyed by symbol, so
// downstream consumers see ingestion batches in symbol order.
type KafkaSink struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaSink creates a Kafka-backed sink.
func NewKafkaSink(producer *pkgkafka.Producer, topic string) domrepo.Sink {
	return &KafkaSink{producer: producer, topic: topic}
}

func (s *KafkaSink) Archive(ctx context.Context, symbol string, bars []models.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(bars))
	for i, bar := range bars {
		msgs[i] = pkgkafka.Message{
			Key: []byte(symbol),
			Value: map[string]interface{}{
				"symbol":        symbol,
				"instrument_id": bar.InstrumentID,
				"date":          util.FormatDate(bar.Date),
				"open":          bar.Open,
				"high":          bar.High,
				"low":           bar.Low,
				"close":         bar.Close,
				"volume":        bar.Volume,
			},
		}
	}
	return s.producer.PublishBatch(ctx, s.topic, msgs)
}

func (s *KafkaSink) Close() error {
	if s.producer != nil {
		return s.producer.Close()
	}
	return nil
}
