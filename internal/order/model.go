package order

import (
	"encoding/json"
	"time"
)

// MetadataCouponCodes is the order metadata key under which generated coupon
// codes are persisted by the issuance flow and read back by every render path.
const MetadataCouponCodes = "generated_coupon_codes"

type Product struct {
	ID  string `json:"id"`
	SKU string `json:"sku"`
}

type Item struct {
	ID        string   `json:"id"`
	ProductID string   `json:"product_id"`
	Quantity  int      `json:"quantity"`
	Product   *Product `json:"product,omitempty"` // nil when the catalog has no record for the item
}

type Order struct {
	ID        string                     `json:"id"`
	UserID    string                     `json:"user_id"`
	Status    string                     `json:"status"`
	Items     []Item                     `json:"items"`
	Metadata  map[string]json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time                  `json:"created_at"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

// CouponCodes returns the generated coupon codes stored in the order metadata,
// normalized to a string slice. Older orders carry the value as a bare string
// instead of an array, so both shapes decode here and nowhere else.
func (o *Order) CouponCodes() []string {
	if o == nil || o.Metadata == nil {
		return nil
	}
	return decodeCodes(o.Metadata[MetadataCouponCodes])
}

func decodeCodes(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var codes []string
	if err := json.Unmarshal(raw, &codes); err == nil {
		return codes
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		return []string{single}
	}

	return nil
}
