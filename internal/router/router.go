package router

import (
	"net/http"

	"scentrale/internal/handler"
	"scentrale/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
// The webhook and health endpoints bypass bearer auth: the webhook
// authenticates itself by signature, health is public.
func New(
	orderHandler *handler.OrderHandler,
	paymentHandler *handler.PaymentHandler,
	jwtSecret string,
	logger zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	r.Post("/api/payments/webhook", paymentHandler.Webhook)

	r.Group(func(r chi.Router) {
		r.Use(middleware.JWTAuth(jwtSecret, logger))

		r.Post("/api/orders", orderHandler.Create)
		r.Get("/api/orders", orderHandler.List)
		r.Get("/api/orders/{id}", orderHandler.GetByID)
		r.Put("/api/orders/{id}/cancel", orderHandler.Cancel)

		r.Post("/api/payments/create-checkout", paymentHandler.CreateCheckout)
		r.Get("/api/payments/status/{orderId}", paymentHandler.Status)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(logger))
			r.Put("/api/orders/{id}/status", orderHandler.UpdateStatus)
		})
	})

	return r
}
