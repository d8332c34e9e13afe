package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/ecommerce-microservices/coupon-service/internal/lifecycle"
	"github.com/vasiliy-maslov/ecommerce-microservices/coupon-service/internal/order"
)

// CouponHandler exposes the order lifecycle points over HTTP. The platform
// calls these endpoints; the handler resolves the order where the payload is
// only an id and hands the event to the dispatcher.
type CouponHandler struct {
	dispatcher *lifecycle.Dispatcher
	orders     order.Service
}

func NewCouponHandler(dispatcher *lifecycle.Dispatcher, orders order.Service) *CouponHandler {
	return &CouponHandler{dispatcher: dispatcher, orders: orders}
}

type paymentCompletedRequest struct {
	OrderID string `json:"order_id"`
}

// PaymentCompleted receives the payment-completed webhook from order-service.
func (h *CouponHandler) PaymentCompleted(w http.ResponseWriter, r *http.Request) {
	var req paymentCompletedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OrderID == "" {
		respondWithError(w, http.StatusBadRequest, "order_id is required")
		return
	}

	h.dispatcher.EmitPaymentCompleted(r.Context(), req.OrderID)

	respondWithJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// AdminOrderCoupons renders the coupon fragment of the admin order view.
func (h *CouponHandler) AdminOrderCoupons(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ord, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			respondWithError(w, http.StatusNotFound, "order not found")
			return
		}
		log.Error().Err(err).Str("order_id", id).Msg("handler: failed to resolve order for admin view")
		respondWithError(w, http.StatusInternalServerError, "failed to resolve order")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	h.dispatcher.EmitAdminOrderRender(r.Context(), w, ord)
}

// AdminOrderActions lists the registered admin order actions.
func (h *CouponHandler) AdminOrderActions(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.dispatcher.OrderActions())
}

// InvokeOrderAction runs one admin order action for the order.
func (h *CouponHandler) InvokeOrderAction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	actionID := chi.URLParam(r, "actionID")

	ord, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			respondWithError(w, http.StatusNotFound, "order not found")
			return
		}
		log.Error().Err(err).Str("order_id", id).Msg("handler: failed to resolve order for action")
		respondWithError(w, http.StatusInternalServerError, "failed to resolve order")
		return
	}

	if err := h.dispatcher.InvokeOrderAction(r.Context(), actionID, ord); err != nil {
		if errors.Is(err, lifecycle.ErrUnknownOrderAction) {
			respondWithError(w, http.StatusNotFound, "unknown order action")
			return
		}
		log.Error().Err(err).Str("order_id", id).Str("action", actionID).Msg("handler: order action failed")
		respondWithError(w, http.StatusInternalServerError, "order action failed")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type emailFragmentRequest struct {
	OrderID     string `json:"order_id"`
	SentToAdmin bool   `json:"sent_to_admin"`
	PlainText   bool   `json:"plain_text"`
	EmailID     string `json:"email_id"`
}

// EmailFragment renders the fragment that notification-service inserts after
// the order table of an outgoing email.
func (h *CouponHandler) EmailFragment(w http.ResponseWriter, r *http.Request) {
	var req emailFragmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OrderID == "" {
		respondWithError(w, http.StatusBadRequest, "order_id is required")
		return
	}

	ord, err := h.orders.GetOrder(r.Context(), req.OrderID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			respondWithError(w, http.StatusNotFound, "order not found")
			return
		}
		log.Error().Err(err).Str("order_id", req.OrderID).Msg("handler: failed to resolve order for email fragment")
		respondWithError(w, http.StatusInternalServerError, "failed to resolve order")
		return
	}

	if req.PlainText {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	} else {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
	w.WriteHeader(http.StatusOK)
	h.dispatcher.EmitEmailRender(r.Context(), w, lifecycle.EmailContext{
		Order:       ord,
		SentToAdmin: req.SentToAdmin,
		PlainText:   req.PlainText,
		EmailID:     req.EmailID,
	})
}

// ThankYou renders the coupon fragment of the post-purchase thank-you page.
// An order that cannot be resolved yields an empty fragment rather than an
// error: the storefront embeds this response as-is.
func (h *CouponHandler) ThankYou(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if id == "" {
		w.WriteHeader(http.StatusOK)
		return
	}

	ord, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		if !errors.Is(err, order.ErrOrderNotFound) {
			log.Error().Err(err).Str("order_id", id).Msg("handler: failed to resolve order for thank-you page")
		}
		w.WriteHeader(http.StatusOK)
		return
	}

	w.WriteHeader(http.StatusOK)
	h.dispatcher.EmitThankYouRender(r.Context(), w, ord)
}
