package model

import "github.com/shopspring/decimal"

// Shop represents a vendor offering a menu.
type Shop struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Email       string `json:"email"`
}

// MenuItem is an immutable snapshot of a purchasable product of one shop.
type MenuItem struct {
	ID          string          `json:"item_id"`
	ShopID      string          `json:"shop_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"price"`
}

// PaymentMethodType names a payment channel such as a mobile wallet.
type PaymentMethodType string

// Known payment channels. Shops may report others; they are accepted as-is.
const (
	MethodJazzCash  PaymentMethodType = "jazzcash"
	MethodEasyPaisa PaymentMethodType = "easypaisa"
	MethodSadaPay   PaymentMethodType = "sadapay"
	MethodNayaPay   PaymentMethodType = "nayapay"
)

// PaymentMethod carries shop-specific payment instructions.
type PaymentMethod struct {
	ID      string            `json:"id"`
	Type    PaymentMethodType `json:"type"`
	Details []string          `json:"details"`
}

// PaymentDetails lists the payment methods a shop accepts.
type PaymentDetails struct {
	Methods []PaymentMethod `json:"methods"`
}

// Find returns the method of the given type.
func (p *PaymentDetails) Find(t PaymentMethodType) (PaymentMethod, bool) {
	if p == nil {
		return PaymentMethod{}, false
	}
	for _, m := range p.Methods {
		if m.Type == t {
			return m, true
		}
	}
	return PaymentMethod{}, false
}
