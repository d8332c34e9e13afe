package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/vasiliy-maslov/ecommerce-microservices/coupon-service/internal/handler"
)

func NewRouter(h *handler.CouponHandler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Post("/webhooks/payment-completed", h.PaymentCompleted)
	r.Get("/admin/orders/{id}/coupons", h.AdminOrderCoupons)
	r.Get("/admin/orders/{id}/actions", h.AdminOrderActions)
	r.Post("/admin/orders/{id}/actions/{actionID}", h.InvokeOrderAction)
	r.Post("/fragments/email", h.EmailFragment)
	r.Get("/orders/{id}/thank-you", h.ThankYou)

	return r
}
