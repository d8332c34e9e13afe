package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/ecommerce-microservices/coupon-service/internal/display"
	"github.com/vasiliy-maslov/ecommerce-microservices/coupon-service/internal/handler"
	"github.com/vasiliy-maslov/ecommerce-microservices/coupon-service/internal/lifecycle"
	"github.com/vasiliy-maslov/ecommerce-microservices/coupon-service/internal/order"
)

type mockOrderService struct {
	getOrderFunc    func(ctx context.Context, id string) (*order.Order, error)
	setMetadataFunc func(ctx context.Context, orderID, key string, value []string) error
}

func (m *mockOrderService) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	return m.getOrderFunc(ctx, id)
}

func (m *mockOrderService) SetMetadata(ctx context.Context, orderID, key string, value []string) error {
	return m.setMetadataFunc(ctx, orderID, key, value)
}

func newRouter(d *lifecycle.Dispatcher, orders order.Service) *chi.Mux {
	h := handler.NewCouponHandler(d, orders)
	r := chi.NewRouter()
	r.Post("/webhooks/payment-completed", h.PaymentCompleted)
	r.Get("/admin/orders/{id}/coupons", h.AdminOrderCoupons)
	r.Get("/admin/orders/{id}/actions", h.AdminOrderActions)
	r.Post("/admin/orders/{id}/actions/{actionID}", h.InvokeOrderAction)
	r.Post("/fragments/email", h.EmailFragment)
	r.Get("/orders/{id}/thank-you", h.ThankYou)
	return r
}

func ordersWith(ord *order.Order) *mockOrderService {
	return &mockOrderService{
		getOrderFunc: func(ctx context.Context, id string) (*order.Order, error) {
			if ord != nil && ord.ID == id {
				return ord, nil
			}
			return nil, order.ErrOrderNotFound
		},
		setMetadataFunc: func(ctx context.Context, orderID, key string, value []string) error {
			return nil
		},
	}
}

func orderWithCodes(codes ...string) *order.Order {
	raw, _ := json.Marshal(codes)
	return &order.Order{
		ID:       "order-1",
		Metadata: map[string]json.RawMessage{order.MetadataCouponCodes: raw},
	}
}

func TestCouponHandler_PaymentCompleted(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectEmit     bool
	}{
		{
			name:           "success",
			body:           `{"order_id": "order-1"}`,
			expectedStatus: http.StatusAccepted,
			expectEmit:     true,
		},
		{
			name:           "missing_order_id",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid_json",
			body:           `{invalid}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := lifecycle.NewDispatcher()
			var emitted []string
			d.OnPaymentCompleted(func(ctx context.Context, orderID string) error {
				emitted = append(emitted, orderID)
				return nil
			})

			r := newRouter(d, ordersWith(nil))
			req := httptest.NewRequest(http.MethodPost, "/webhooks/payment-completed", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectEmit {
				assert.Equal(t, []string{"order-1"}, emitted)
			} else {
				assert.Empty(t, emitted)
			}
		})
	}
}

func TestCouponHandler_AdminOrderCoupons(t *testing.T) {
	d := lifecycle.NewDispatcher()
	d.OnAdminOrderRender(func(ctx context.Context, w io.Writer, ord *order.Order) error {
		return display.AdminOrderSection(w, ord)
	})

	t.Run("renders_codes", func(t *testing.T) {
		r := newRouter(d, ordersWith(orderWithCodes("TOYS-AAAAA1")))
		req := httptest.NewRequest(http.MethodGet, "/admin/orders/order-1/coupons", nil)
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Body.String(), "TOYS-AAAAA1")
	})

	t.Run("no_codes_message", func(t *testing.T) {
		r := newRouter(d, ordersWith(&order.Order{ID: "order-1"}))
		req := httptest.NewRequest(http.MethodGet, "/admin/orders/order-1/coupons", nil)
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "No coupon codes generated.")
	})

	t.Run("order_not_found", func(t *testing.T) {
		r := newRouter(d, ordersWith(nil))
		req := httptest.NewRequest(http.MethodGet, "/admin/orders/missing/coupons", nil)
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCouponHandler_AdminOrderActions(t *testing.T) {
	d := lifecycle.NewDispatcher()
	d.RegisterOrderAction("resend_coupon_email", "Resend Coupon Email", func(ctx context.Context, ord *order.Order) error {
		return nil
	})

	r := newRouter(d, ordersWith(nil))
	req := httptest.NewRequest(http.MethodGet, "/admin/orders/order-1/actions", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id":"resend_coupon_email","label":"Resend Coupon Email"}]`, w.Body.String())
}

func TestCouponHandler_InvokeOrderAction(t *testing.T) {
	newDispatcher := func(invoked *[]string) *lifecycle.Dispatcher {
		d := lifecycle.NewDispatcher()
		d.RegisterOrderAction("resend_coupon_email", "Resend Coupon Email", func(ctx context.Context, ord *order.Order) error {
			*invoked = append(*invoked, ord.ID)
			return nil
		})
		return d
	}

	t.Run("success", func(t *testing.T) {
		var invoked []string
		r := newRouter(newDispatcher(&invoked), ordersWith(&order.Order{ID: "order-1"}))
		req := httptest.NewRequest(http.MethodPost, "/admin/orders/order-1/actions/resend_coupon_email", nil)
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"order-1"}, invoked)
	})

	t.Run("unknown_action", func(t *testing.T) {
		var invoked []string
		r := newRouter(newDispatcher(&invoked), ordersWith(&order.Order{ID: "order-1"}))
		req := httptest.NewRequest(http.MethodPost, "/admin/orders/order-1/actions/explode", nil)
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Empty(t, invoked)
	})

	t.Run("order_not_found", func(t *testing.T) {
		var invoked []string
		r := newRouter(newDispatcher(&invoked), ordersWith(nil))
		req := httptest.NewRequest(http.MethodPost, "/admin/orders/missing/actions/resend_coupon_email", nil)
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Empty(t, invoked)
	})
}

func TestCouponHandler_EmailFragment(t *testing.T) {
	d := lifecycle.NewDispatcher()
	d.OnEmailRender(func(ctx context.Context, w io.Writer, email lifecycle.EmailContext) error {
		return display.EmailSection(w, display.EmailParams{
			Order:       email.Order,
			SentToAdmin: email.SentToAdmin,
			PlainText:   email.PlainText,
			EmailID:     email.EmailID,
		})
	})

	t.Run("renders_for_completed_order_email", func(t *testing.T) {
		r := newRouter(d, ordersWith(orderWithCodes("TOYS-AAAAA1")))
		body := `{"order_id":"order-1","email_id":"customer_completed_order"}`
		req := httptest.NewRequest(http.MethodPost, "/fragments/email", bytes.NewBufferString(body))
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Body.String(), "TOYS-AAAAA1")
	})

	t.Run("empty_for_other_email", func(t *testing.T) {
		r := newRouter(d, ordersWith(orderWithCodes("TOYS-AAAAA1")))
		body := `{"order_id":"order-1","email_id":"customer_processing_order"}`
		req := httptest.NewRequest(http.MethodPost, "/fragments/email", bytes.NewBufferString(body))
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("plain_text", func(t *testing.T) {
		r := newRouter(d, ordersWith(orderWithCodes("TOYS-AAAAA1")))
		body := `{"order_id":"order-1","email_id":"customer_completed_order","plain_text":true}`
		req := httptest.NewRequest(http.MethodPost, "/fragments/email", bytes.NewBufferString(body))
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Body.String(), "* TOYS-AAAAA1")
	})

	t.Run("order_not_found", func(t *testing.T) {
		r := newRouter(d, ordersWith(nil))
		body := `{"order_id":"missing","email_id":"customer_completed_order"}`
		req := httptest.NewRequest(http.MethodPost, "/fragments/email", bytes.NewBufferString(body))
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCouponHandler_ThankYou(t *testing.T) {
	d := lifecycle.NewDispatcher()
	d.OnThankYouRender(func(ctx context.Context, w io.Writer, ord *order.Order) error {
		return display.ThankYouSection(w, ord)
	})

	t.Run("renders_codes", func(t *testing.T) {
		r := newRouter(d, ordersWith(orderWithCodes("TOYS-AAAAA1")))
		req := httptest.NewRequest(http.MethodGet, "/orders/order-1/thank-you", nil)
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "<li><code>TOYS-AAAAA1</code></li>")
	})

	t.Run("empty_when_order_missing", func(t *testing.T) {
		r := newRouter(d, ordersWith(nil))
		req := httptest.NewRequest(http.MethodGet, "/orders/missing/thank-you", nil)
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("empty_when_no_codes", func(t *testing.T) {
		r := newRouter(d, ordersWith(&order.Order{ID: "order-1"}))
		req := httptest.NewRequest(http.MethodGet, "/orders/order-1/thank-you", nil)
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())
	})
}

func TestCouponHandler_WebhookRetry(t *testing.T) {
	// Полный путь повторной доставки: первый вебхук выдаёт купоны, второй
	// видит заполненные метаданные и ничего не создаёт.
	issued := 0
	stored := map[string][]string{}

	orders := &mockOrderService{
		getOrderFunc: func(ctx context.Context, id string) (*order.Order, error) {
			ord := &order.Order{ID: id, Items: []order.Item{{Quantity: 1, Product: &order.Product{SKU: "virtual-coupon"}}}}
			if codes, ok := stored[id]; ok {
				raw, err := json.Marshal(codes)
				require.NoError(t, err)
				ord.Metadata = map[string]json.RawMessage{order.MetadataCouponCodes: raw}
			}
			return ord, nil
		},
		setMetadataFunc: func(ctx context.Context, orderID, key string, value []string) error {
			stored[orderID] = value
			return nil
		},
	}

	d := lifecycle.NewDispatcher()
	d.OnPaymentCompleted(func(ctx context.Context, orderID string) error {
		ord, err := orders.GetOrder(ctx, orderID)
		require.NoError(t, err)
		if len(ord.CouponCodes()) > 0 {
			return nil
		}
		issued++
		return orders.SetMetadata(ctx, orderID, order.MetadataCouponCodes, []string{"TOYS-AAAAA1"})
	})

	r := newRouter(d, orders)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/payment-completed", bytes.NewBufferString(`{"order_id":"order-1"}`))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusAccepted, w.Code)
	}

	assert.Equal(t, 1, issued)
	assert.Equal(t, []string{"TOYS-AAAAA1"}, stored["order-1"])
}
