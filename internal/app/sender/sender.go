// Package sender assembles the email delivery binary consuming the
// verification and subscription queues.
package sender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/kdiomande/pronostic-platform/internal/config"
	"github.com/kdiomande/pronostic-platform/internal/lib/rabbitmq"
	"github.com/kdiomande/pronostic-platform/internal/lib/smtp"
	senderservice "github.com/kdiomande/pronostic-platform/internal/services/sender"
)

// App owns the consumers and their broker resources.
type App struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	sender *senderservice.SenderService
	logger *slog.Logger
}

// New builds the sender application from cfg.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetEmailQueues())
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	transport := smtp.NewTransport(cfg, logger)
	sender := senderservice.New(transport, cfg.FrontendBaseURL, logger)

	return &App{
		conn:   conn,
		ch:     ch,
		sender: sender,
		logger: logger,
	}, nil
}

// Run starts one consumer per email queue and blocks until ctx is
// canceled.
func (a *App) Run(ctx context.Context) error {
	for _, q := range rabbitmq.GetEmailQueues() {
		if err := rabbitmq.ConsumeMessages(ctx, a.ch, q.QueueName, a.sender.HandleEmailEvent); err != nil {
			a.logger.Error("failed to start consumer",
				slog.String("queue", q.QueueName), slog.Any("err", err))
			return err
		}
	}

	<-ctx.Done()
	a.logger.Info("notification sender shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}

	return nil
}
