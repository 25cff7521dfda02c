package kafka

import (
	"fmt"

	"github.com/IBM/sarama"
	"github.com/thuanng/bookingpay/pkg/logger"
)

// ProducerConfig конфигурация для продюсера
type ProducerConfig struct {
	MaxMessageBytes  int
	Compression      sarama.CompressionCodec
	RequiredAcks     sarama.RequiredAcks
	FlushMaxMessages int
}

// DefaultProducerConfig конфигурация продюсера по умолчанию
func DefaultProducerConfig() ProducerConfig {
	return ProducerConfig{
		MaxMessageBytes:  1000000,
		Compression:      sarama.CompressionSnappy,
		RequiredAcks:     sarama.WaitForAll,
		FlushMaxMessages: 100,
	}
}

// NewSyncProducer создает синхронный продюсер Kafka
func NewSyncProducer(brokers []string, cfg ProducerConfig, log *logger.Logger) (sarama.SyncProducer, error) {
	saramaConfig := sarama.NewConfig()

	// Версия Kafka
	saramaConfig.Version = sarama.V3_3_0_0

	// Настройки продюсера
	saramaConfig.Producer.MaxMessageBytes = cfg.MaxMessageBytes
	saramaConfig.Producer.Compression = cfg.Compression
	saramaConfig.Producer.RequiredAcks = cfg.RequiredAcks
	saramaConfig.Producer.Flush.MaxMessages = cfg.FlushMaxMessages
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true

	producer, err := sarama.NewSyncProducer(brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	log.Info("Kafka sync producer created: brokers=%v", brokers)
	return producer, nil
}
