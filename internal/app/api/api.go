// Package api assembles the HTTP API from its storage, cache, broker
// and payment-gateway dependencies.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/kdiomande/pronostic-platform/internal/cache"
	"github.com/kdiomande/pronostic-platform/internal/config"
	"github.com/kdiomande/pronostic-platform/internal/lib/jwt"
	"github.com/kdiomande/pronostic-platform/internal/lib/rabbitmq"
	"github.com/kdiomande/pronostic-platform/internal/migrations"
	"github.com/kdiomande/pronostic-platform/internal/paymentgateway"
	authservice "github.com/kdiomande/pronostic-platform/internal/services/auth"
	couponservice "github.com/kdiomande/pronostic-platform/internal/services/coupon"
	notificationservice "github.com/kdiomande/pronostic-platform/internal/services/notification"
	paymentservice "github.com/kdiomande/pronostic-platform/internal/services/payment"
	subscriptionservice "github.com/kdiomande/pronostic-platform/internal/services/subscription"
	"github.com/kdiomande/pronostic-platform/internal/storage/repository"
)

// App ties together the HTTP server and the resources it owns.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New builds the API application from cfg.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetEmailQueues())
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}
	publisher := rabbitmq.NewEmailEventPublisher(ch)

	jwtMaker := jwt.NewMaker(cfg.JWTSecretKey, cfg.AccessTTL, cfg.RefreshTTL)
	paydunya := paymentgateway.NewClient(cfg.PayDunya)
	fedapay := paymentgateway.NewFedaPayClient(cfg.FedaPay)

	authService := authservice.New(db, jwtMaker, publisher, logger)
	subscriptionService := subscriptionservice.New(db, cacheRedis, logger)
	paymentService := paymentservice.New(db, paydunya, fedapay, publisher, cfg.PaymentCallbackURL, logger)
	couponService := couponservice.New(db, cacheRedis, logger)
	notificationService := notificationservice.New(db, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, jwtMaker, db, &Services{
		Auth:         authService,
		Subscription: subscriptionService,
		Payment:      paymentService,
		Coupon:       couponService,
		Notification: notificationService,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		conn:   conn,
		ch:     ch,
	}, nil
}

// Run serves HTTP until ctx is canceled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if chErr := a.ch.Close(); chErr != nil {
			a.logger.Error("failed to close channel", slog.Any("err", chErr))
		}
		if connErr := a.conn.Close(); connErr != nil {
			a.logger.Error("failed to close connection", slog.Any("err", connErr))
		}
		a.db.DB.Close()
		return err
	}
}
