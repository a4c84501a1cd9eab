package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metabolixmd/telehealth-api/internal/api/handler"
	"github.com/metabolixmd/telehealth-api/internal/api/middleware"
	"github.com/metabolixmd/telehealth-api/internal/api/spec"
	"github.com/metabolixmd/telehealth-api/internal/repository"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

// RouterConfig wires the HTTP surface.
type RouterConfig struct {
	DB        *pgxpool.Pool
	Redis     redis.Cmdable
	Store     *repository.Store
	Verifier  handler.SignatureVerifier
	Router    handler.EventRouter
	Logger    *zap.Logger
	PublicRPS int
	AuthRPS   int
}

// Routes builds the chi router. The webhook endpoint is deliberately outside
// the rate limiter: the provider controls delivery volume, and a throttled
// delivery would be retried anyway.
func Routes(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.LoggingMiddleware(cfg.Logger))
	r.Use(middleware.RecoverMiddleware(cfg.Logger))
	r.Use(middleware.MetricsMiddleware)

	healthHandler := handler.NewHealthHandler(cfg.DB, cfg.Redis)
	webhookHandler := handler.NewWebhookHandler(cfg.Verifier, cfg.Router)
	paymentHandler := handler.NewPaymentHandler(cfg.Store.Queries())

	r.Group(func(r chi.Router) {
		r.Use(middleware.PublicRateLimiter(cfg.PublicRPS))

		r.Get("/health/live", healthHandler.Live)
		r.Get("/health/ready", healthHandler.Ready)
		r.Handle("/metrics", promhttp.Handler())
		r.Get("/openapi.yaml", spec.OpenAPIHandler())
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))
	})

	r.Post("/v1/webhooks/payments", webhookHandler.HandlePaymentWebhook)

	// Admin lookups
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)
		r.Use(middleware.RequireRole("admin"))
		r.Use(middleware.AuthRateLimiter(cfg.AuthRPS))

		r.Get("/v1/payments/{id}", paymentHandler.GetPayment)
		r.Get("/v1/orders/{id}/payments", paymentHandler.ListOrderPayments)
	})

	return r
}
