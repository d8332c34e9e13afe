package display

import (
	"fmt"
	"html/template"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/ecommerce-microservices/coupon-service/internal/mailer"
	"github.com/vasiliy-maslov/ecommerce-microservices/coupon-service/internal/order"
)

// EmailParams mirrors the arguments notification-service passes to the
// after-order-table hook.
type EmailParams struct {
	Order       *order.Order
	SentToAdmin bool
	PlainText   bool
	EmailID     string
}

var emailTmpl = template.Must(template.New("email_coupons").Parse(`<h3>Your Promo Code</h3>
<p>Here is your promo code(s):</p>
<ul>
{{range .Codes}}<li><strong>{{.}}</strong></li>
{{end}}</ul>
<p>You can use it for a one-time discount on your next order.</p>
`))

// EmailSection writes the coupon block inserted after the order table in the
// customer completed-order email. Other templates and orders without codes
// produce no output.
func EmailSection(w io.Writer, p EmailParams) error {
	if p.EmailID != mailer.TemplateCustomerCompletedOrder {
		return nil
	}

	codes := p.Order.CouponCodes()
	if len(codes) == 0 {
		return nil
	}

	// Only the count goes to the log. The codes are single-customer
	// promotions and must not end up in log storage.
	log.Debug().Str("email_id", p.EmailID).Int("codes", len(codes)).Msg("display: inserting coupon codes into email")

	if p.PlainText {
		return emailSectionPlain(w, codes)
	}

	data := struct {
		Codes []string
	}{
		Codes: codes,
	}

	if err := emailTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("display: failed to render email coupon section: %w", err)
	}

	return nil
}

func emailSectionPlain(w io.Writer, codes []string) error {
	if _, err := fmt.Fprintf(w, "Your Promo Code\n\nHere is your promo code(s):\n"); err != nil {
		return fmt.Errorf("display: failed to write plain-text email section: %w", err)
	}
	for _, code := range codes {
		if _, err := fmt.Fprintf(w, "  * %s\n", code); err != nil {
			return fmt.Errorf("display: failed to write plain-text email section: %w", err)
		}
	}
	if _, err := fmt.Fprintf(w, "\nYou can use it for a one-time discount on your next order.\n"); err != nil {
		return fmt.Errorf("display: failed to write plain-text email section: %w", err)
	}

	return nil
}
