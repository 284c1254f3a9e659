// Package rabbitmq holds the thin AMQP helpers used by the API and the
// notification-sender binary.
package rabbitmq

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"

	"github.com/kdiomande/pronostic-platform/internal/models"
)

// PublishMessage serializes message as JSON and publishes it persistently.
func PublishMessage(ch *amqp.Channel, exchange, routingKey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(
		exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// EmailEventPublisher binds a channel to the emails exchange so services
// can publish without knowing AMQP details.
type EmailEventPublisher struct {
	ch *amqp.Channel
}

// NewEmailEventPublisher creates an EmailEventPublisher.
func NewEmailEventPublisher(ch *amqp.Channel) *EmailEventPublisher {
	return &EmailEventPublisher{ch: ch}
}

// Publish sends one email event to the emails exchange.
func (p *EmailEventPublisher) Publish(routingKey string, event models.EmailEvent) error {
	return PublishMessage(p.ch, Exchange, routingKey, event)
}
