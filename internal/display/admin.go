// Package display renders the coupon fragments embedded in the admin order
// view, customer emails and the thank-you page. All dynamic values go through
// html/template, so codes render as text even if they contain markup.
package display

import (
	"fmt"
	"html/template"
	"io"

	"github.com/vasiliy-maslov/ecommerce-microservices/coupon-service/internal/order"
)

var adminTmpl = template.Must(template.New("admin_order_coupons").Parse(`{{if .Codes}}<p><strong>Generated Coupon Codes:</strong></p>
<ul>
{{range .Codes}}<li><span class="coupon-code">{{.}}</span></li>
{{end}}</ul>
{{else}}<p>No coupon codes generated.</p>
{{end}}`))

// AdminOrderSection writes the coupon block of the admin order detail view.
func AdminOrderSection(w io.Writer, ord *order.Order) error {
	data := struct {
		Codes []string
	}{
		Codes: ord.CouponCodes(),
	}

	if err := adminTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("display: failed to render admin coupon section: %w", err)
	}

	return nil
}
