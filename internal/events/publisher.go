package events

import (
	"fmt"

	"cinema-inventory/pkg/utils"

	"go.uber.org/zap"
)

// NewPublisher builds the publisher selected by EVENT_BROKER.
func NewPublisher(config utils.BrokerConfig, log *zap.Logger) (Publisher, error) {
	switch config.Kind {
	case "kafka":
		return NewKafkaPublisher(config.KafkaBrokers, config.KafkaTopic, log)
	case "rabbitmq", "amqp":
		return NewRabbitPublisher(config.RabbitURL, config.RabbitQueue, log)
	case "", "none":
		return NopPublisher{}, nil
	default:
		return nil, fmt.Errorf("unknown event broker %q", config.Kind)
	}
}
