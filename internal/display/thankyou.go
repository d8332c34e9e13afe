package display

import (
	"fmt"
	"html/template"
	"io"

	"github.com/vasiliy-maslov/ecommerce-microservices/coupon-service/internal/order"
)

var thankYouTmpl = template.Must(template.New("thankyou_coupons").Parse(`<section class="order-coupons">
<h2>Your Promo Code(s)</h2>
<ul>
{{range .Codes}}<li><code>{{.}}</code></li>
{{end}}</ul>
<p>Each code is valid for one-time use and can be shared.</p>
</section>
`))

// ThankYouSection writes the coupon block of the post-purchase thank-you page.
// Orders without generated codes produce no output.
func ThankYouSection(w io.Writer, ord *order.Order) error {
	if ord == nil {
		return nil
	}

	codes := ord.CouponCodes()
	if len(codes) == 0 {
		return nil
	}

	data := struct {
		Codes []string
	}{
		Codes: codes,
	}

	if err := thankYouTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("display: failed to render thank-you coupon section: %w", err)
	}

	return nil
}
