package notify

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// RabbitNotifier publishes events to a topic exchange with the event type as
// routing key.
type RabbitNotifier struct {
	ch       publisher
	exchange string
	closers  []func() error
}

// DialRabbit connects to url and declares the durable topic exchange.
func DialRabbit(url, exchange string) (*RabbitNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &RabbitNotifier{
		ch:       ch,
		exchange: exchange,
		closers:  []func() error{ch.Close, conn.Close},
	}, nil
}

func (n *RabbitNotifier) Name() string { return "rabbitmq" }

func (n *RabbitNotifier) Notify(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = n.ch.PublishWithContext(ctx,
		n.exchange, // exchange
		ev.Type,    // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    ev.ID,
			Timestamp:    ev.Timestamp,
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", n.exchange, err)
	}
	return nil
}

func (n *RabbitNotifier) Close() error {
	var first error
	for _, c := range n.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
