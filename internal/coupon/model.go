package coupon

import (
	"time"

	"github.com/gofrs/uuid"
)

const DiscountTypeFixedCart = "fixed_cart"

// Coupon is a one-time-use discount record issued for a virtual coupon
// purchase. Redemption is owned by the promotion engine; this service only
// creates the record.
type Coupon struct {
	ID                uuid.UUID `json:"id" db:"id"`
	Code              string    `json:"code" db:"code"`
	DiscountType      string    `json:"discount_type" db:"discount_type"`
	Amount            float64   `json:"amount" db:"amount"` // Используем float64 для денег, как в order-service
	UsageLimit        int       `json:"usage_limit" db:"usage_limit"`
	UsageLimitPerUser int       `json:"usage_limit_per_user" db:"usage_limit_per_user"`
	EmailRestrictions []string  `json:"email_restrictions" db:"email_restrictions"`
	IndividualUse     bool      `json:"individual_use" db:"individual_use"`
	Description       string    `json:"description" db:"description"`
	OrderID           string    `json:"order_id" db:"order_id"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}
