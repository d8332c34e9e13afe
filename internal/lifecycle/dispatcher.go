// Package lifecycle is the in-process dispatcher for the order lifecycle
// points this service reacts to. Listeners are registered explicitly at
// startup; nothing attaches itself through package-level side effects.
package lifecycle

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/ecommerce-microservices/coupon-service/internal/order"
)

var ErrUnknownOrderAction = errors.New("unknown order action")

type (
	// PaymentCompletedListener reacts to a finished payment for the order.
	PaymentCompletedListener func(ctx context.Context, orderID string) error

	// AdminOrderRenderListener contributes a fragment to the admin order
	// detail view.
	AdminOrderRenderListener func(ctx context.Context, w io.Writer, ord *order.Order) error

	// EmailRenderListener contributes a fragment after the order table of an
	// outgoing email.
	EmailRenderListener func(ctx context.Context, w io.Writer, email EmailContext) error

	// ThankYouRenderListener contributes a fragment to the thank-you page.
	ThankYouRenderListener func(ctx context.Context, w io.Writer, ord *order.Order) error

	// OrderActionFunc runs a manually invoked admin order action.
	OrderActionFunc func(ctx context.Context, ord *order.Order) error
)

// EmailContext describes the email being composed.
type EmailContext struct {
	Order       *order.Order
	SentToAdmin bool
	PlainText   bool
	EmailID     string
}

// OrderAction is one entry of the admin order action menu.
type OrderAction struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type registeredAction struct {
	label string
	fn    OrderActionFunc
}

// Dispatcher fans lifecycle events out to registered listeners. Registration
// happens during startup wiring; emission is request-scoped and synchronous.
type Dispatcher struct {
	paymentCompleted []PaymentCompletedListener
	adminOrderRender []AdminOrderRenderListener
	emailRender      []EmailRenderListener
	thankYouRender   []ThankYouRenderListener

	actionIDs []string
	actions   map[string]registeredAction
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		actions: make(map[string]registeredAction),
	}
}

func (d *Dispatcher) OnPaymentCompleted(l PaymentCompletedListener) {
	d.paymentCompleted = append(d.paymentCompleted, l)
}

func (d *Dispatcher) OnAdminOrderRender(l AdminOrderRenderListener) {
	d.adminOrderRender = append(d.adminOrderRender, l)
}

func (d *Dispatcher) OnEmailRender(l EmailRenderListener) {
	d.emailRender = append(d.emailRender, l)
}

func (d *Dispatcher) OnThankYouRender(l ThankYouRenderListener) {
	d.thankYouRender = append(d.thankYouRender, l)
}

// RegisterOrderAction adds an entry to the admin order action menu. A second
// registration under the same id replaces the handler but keeps the menu
// position.
func (d *Dispatcher) RegisterOrderAction(id, label string, fn OrderActionFunc) {
	if _, ok := d.actions[id]; !ok {
		d.actionIDs = append(d.actionIDs, id)
	}
	d.actions[id] = registeredAction{label: label, fn: fn}
}

// OrderActions lists the registered actions in registration order.
func (d *Dispatcher) OrderActions() []OrderAction {
	out := make([]OrderAction, 0, len(d.actionIDs))
	for _, id := range d.actionIDs {
		out = append(out, OrderAction{ID: id, Label: d.actions[id].label})
	}
	return out
}

func (d *Dispatcher) InvokeOrderAction(ctx context.Context, id string, ord *order.Order) error {
	act, ok := d.actions[id]
	if !ok {
		return ErrUnknownOrderAction
	}
	return act.fn(ctx, ord)
}

// EmitPaymentCompleted notifies every payment listener. Listener failures are
// logged and do not stop the remaining listeners; payment processing itself
// must not fail because a follow-up reaction did.
func (d *Dispatcher) EmitPaymentCompleted(ctx context.Context, orderID string) {
	for _, l := range d.paymentCompleted {
		if err := l(ctx, orderID); err != nil {
			log.Error().Err(err).Str("order_id", orderID).Msg("lifecycle: payment-completed listener failed")
		}
	}
}

func (d *Dispatcher) EmitAdminOrderRender(ctx context.Context, w io.Writer, ord *order.Order) {
	for _, l := range d.adminOrderRender {
		if err := l(ctx, w, ord); err != nil {
			log.Error().Err(err).Str("order_id", ord.ID).Msg("lifecycle: admin-order-render listener failed")
		}
	}
}

func (d *Dispatcher) EmitEmailRender(ctx context.Context, w io.Writer, email EmailContext) {
	for _, l := range d.emailRender {
		if err := l(ctx, w, email); err != nil {
			log.Error().Err(err).Str("email_id", email.EmailID).Msg("lifecycle: email-render listener failed")
		}
	}
}

func (d *Dispatcher) EmitThankYouRender(ctx context.Context, w io.Writer, ord *order.Order) {
	for _, l := range d.thankYouRender {
		if err := l(ctx, w, ord); err != nil {
			log.Error().Err(err).Str("order_id", ord.ID).Msg("lifecycle: thank-you-render listener failed")
		}
	}
}
