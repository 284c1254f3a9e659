package api

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/kdiomande/pronostic-platform/internal/config"
	"github.com/kdiomande/pronostic-platform/internal/http/handlers/auth/login"
	"github.com/kdiomande/pronostic-platform/internal/http/handlers/auth/refresh"
	"github.com/kdiomande/pronostic-platform/internal/http/handlers/auth/register"
	"github.com/kdiomande/pronostic-platform/internal/http/handlers/auth/verify"
	bookmakerlist "github.com/kdiomande/pronostic-platform/internal/http/handlers/bookmaker/list"
	couponfollow "github.com/kdiomande/pronostic-platform/internal/http/handlers/coupon/follow"
	couponhistory "github.com/kdiomande/pronostic-platform/internal/http/handlers/coupon/history"
	couponlist "github.com/kdiomande/pronostic-platform/internal/http/handlers/coupon/list"
	couponread "github.com/kdiomande/pronostic-platform/internal/http/handlers/coupon/read"
	couponsettle "github.com/kdiomande/pronostic-platform/internal/http/handlers/coupon/settle"
	"github.com/kdiomande/pronostic-platform/internal/http/handlers/health"
	notificationlist "github.com/kdiomande/pronostic-platform/internal/http/handlers/notification/list"
	"github.com/kdiomande/pronostic-platform/internal/http/handlers/notification/markread"
	"github.com/kdiomande/pronostic-platform/internal/http/handlers/payment/checkstatus"
	"github.com/kdiomande/pronostic-platform/internal/http/handlers/payment/confirm"
	"github.com/kdiomande/pronostic-platform/internal/http/handlers/payment/initiate"
	"github.com/kdiomande/pronostic-platform/internal/http/handlers/payment/initiatecard"
	"github.com/kdiomande/pronostic-platform/internal/http/handlers/payment/webhook"
	planlist "github.com/kdiomande/pronostic-platform/internal/http/handlers/plan/list"
	subscriptioncancel "github.com/kdiomande/pronostic-platform/internal/http/handlers/subscription/cancel"
	subscriptioncreate "github.com/kdiomande/pronostic-platform/internal/http/handlers/subscription/create"
	subscriptionlist "github.com/kdiomande/pronostic-platform/internal/http/handlers/subscription/list"
	"github.com/kdiomande/pronostic-platform/internal/http/handlers/user/me"
	"github.com/kdiomande/pronostic-platform/internal/http/middlewarectx"
	"github.com/kdiomande/pronostic-platform/internal/lib/jwt"
	authservice "github.com/kdiomande/pronostic-platform/internal/services/auth"
	couponservice "github.com/kdiomande/pronostic-platform/internal/services/coupon"
	notificationservice "github.com/kdiomande/pronostic-platform/internal/services/notification"
	paymentservice "github.com/kdiomande/pronostic-platform/internal/services/payment"
	subscriptionservice "github.com/kdiomande/pronostic-platform/internal/services/subscription"
	"github.com/kdiomande/pronostic-platform/internal/storage/repository"
)

// Services groups the business-logic services the routes dispatch to.
type Services struct {
	Auth         *authservice.AuthService
	Subscription *subscriptionservice.SubscriptionService
	Payment      *paymentservice.PaymentService
	Coupon       *couponservice.CouponService
	Notification *notificationservice.NotificationService
}

// RegisterRoutes mounts all application routes on r.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config,
	jwtMaker jwt.Maker, db *repository.Storage, s *Services) {
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Open endpoints
		r.Post("/auth/register", register.New(logger, s.Auth).ServeHTTP)
		r.Get("/auth/verify-email", verify.New(logger, s.Auth).ServeHTTP)
		r.Post("/auth/login", login.New(logger, s.Auth).ServeHTTP)
		r.Post("/auth/refresh", refresh.New(logger, s.Auth).ServeHTTP)
		r.Get("/plans", planlist.New(logger, s.Subscription).ServeHTTP)
		r.Get("/bookmakers", bookmakerlist.New(logger, s.Coupon).ServeHTTP)

		// JWT-protected group
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(jwtMaker, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger, 10, 20))

			r.Get("/users/me", me.New(logger, s.Auth).ServeHTTP)

			r.Post("/subscriptions", subscriptioncreate.New(logger, s.Subscription).ServeHTTP)
			r.Get("/subscriptions", subscriptionlist.New(logger, s.Subscription).ServeHTTP)
			r.Post("/subscriptions/{id}/cancel", subscriptioncancel.New(logger, s.Subscription).ServeHTTP)

			r.Post("/subscriptions/{id}/payments", initiate.New(logger, s.Payment).ServeHTTP)
			r.Post("/subscriptions/{id}/payments/card", initiatecard.New(logger, s.Payment).ServeHTTP)
			r.Get("/subscriptions/{id}/payments/status", checkstatus.New(logger, s.Payment).ServeHTTP)
			r.Post("/payments/confirm/{country}/{method}", confirm.New(logger, s.Payment).ServeHTTP)

			r.Get("/coupons", couponlist.New(logger, s.Coupon).ServeHTTP)
			r.Get("/coupons/history", couponhistory.New(logger, s.Coupon).ServeHTTP)
			r.Get("/coupons/{id}", couponread.New(logger, s.Coupon).ServeHTTP)
			r.Post("/coupons/{id}/follow", couponfollow.New(logger, s.Coupon).ServeHTTP)

			r.Get("/notifications", notificationlist.New(logger, s.Notification).ServeHTTP)
			r.Post("/notifications/{id}/read", markread.New(logger, s.Notification).ServeHTTP)

			// Staff-only group
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.StaffOnlyMiddleware(logger))
				r.Post("/coupons/{id}/settle", couponsettle.New(logger, s.Coupon).ServeHTTP)
			})
		})

		// Webhook endpoint, authenticated by HMAC signature instead of JWT
		r.Post("/payments/webhook", webhook.New(logger, s.Payment, cfg.PayDunya.WebhookSecret).ServeHTTP)
	})

	r.Get("/health", health.New(logger, db).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
