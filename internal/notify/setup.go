package notify

import (
	"github.com/wichananm65/deko-shop-backend/internal/config"
	"go.uber.org/zap"
)

// FromConfig always includes the log sink and adds Kafka and RabbitMQ when
// configured. An unreachable broker is logged and skipped so the shop still starts.
func FromConfig(cfg config.Config, log *zap.Logger) Multi {
	sinks := Multi{NewLogNotifier(log)}

	if cfg.Kafka.Enabled() {
		sinks = append(sinks, NewKafkaNotifier(cfg.Kafka.Brokers, cfg.Kafka.Topic))
		log.Info("kafka notifications enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	if cfg.AMQP.Enabled() {
		rabbit, err := DialRabbit(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			log.Warn("rabbitmq notifications disabled", zap.Error(err))
		} else {
			sinks = append(sinks, rabbit)
			log.Info("rabbitmq notifications enabled", zap.String("exchange", cfg.AMQP.Exchange))
		}
	}

	return sinks
}
