// Package sweeper assembles the subscription expiry sweep binary.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/kdiomande/pronostic-platform/internal/config"
	"github.com/kdiomande/pronostic-platform/internal/lib/rabbitmq"
	schedulerservice "github.com/kdiomande/pronostic-platform/internal/services/scheduler"
	"github.com/kdiomande/pronostic-platform/internal/storage/repository"
)

// App owns the sweep loop and its broker resources.
type App struct {
	scheduler *schedulerservice.SchedulerService
	conn      *amqp.Connection
	ch        *amqp.Channel
	interval  time.Duration
	logger    *slog.Logger
	db        *repository.Storage
}

func waitForDB(db *repository.Storage) error {
	for range 10 {
		if err := repository.CheckDatabaseReady(db); err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

// New builds the sweeper application from cfg.
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

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err := waitForDB(db); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &App{
		scheduler: schedulerservice.New(db, logger),
		conn:      conn,
		ch:        ch,
		interval:  cfg.SweepInterval,
		logger:    logger,
		db:        db,
	}, nil
}

// Run sweeps until ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	a.scheduler.Run(ctx, a.ch, a.interval)

	a.logger.Info("shutting down expiry sweeper")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}
	a.db.DB.Close()

	return nil
}
