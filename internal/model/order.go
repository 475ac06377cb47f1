package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment lifecycle of an order. It is
// server-authoritative; the client only displays the last value received.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPreparing OrderStatus = "preparing"
	StatusAccepted  OrderStatus = "accepted"
	StatusRejected  OrderStatus = "rejected"
	StatusDelivered OrderStatus = "delivered"
	StatusDiscarded OrderStatus = "discarded"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPreparing, StatusAccepted, StatusRejected, StatusDelivered, StatusDiscarded:
		return true
	}
	return false
}

// PaymentStatus is the verification lifecycle of the payment proof,
// independent of OrderStatus.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentVerified PaymentStatus = "verified"
	PaymentRejected PaymentStatus = "rejected"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentVerified, PaymentRejected:
		return true
	}
	return false
}

// CartLine is one item of a cart. Quantity is always at least 1.
type CartLine struct {
	ItemID    string          `json:"item_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Subtotal returns UnitPrice × Quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// OrderItem represents a line item in an order.
type OrderItem struct {
	ItemID    string          `json:"item_id"`
	Name      string          `json:"item_name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"price"`
}

// Order is a server-confirmed purchase record.
type Order struct {
	OrderID       string          `json:"order_id"`
	ShopID        string          `json:"shop_id"`
	UserID        string          `json:"user_id"`
	UserName      string          `json:"user_name,omitempty"`
	Email         string          `json:"email,omitempty"`
	Items         []OrderItem     `json:"items"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	Status        OrderStatus     `json:"status"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	PaymentInfo   *PaymentInfo    `json:"paymentInfo,omitempty"`
}

// Clone returns a deep copy of the order.
func (o Order) Clone() Order {
	c := o
	if o.Items != nil {
		c.Items = append([]OrderItem(nil), o.Items...)
	}
	if o.PaymentInfo != nil {
		pi := o.PaymentInfo.Clone()
		c.PaymentInfo = &pi
	}
	return c
}

// PaymentInfo is the owner-side enrichment of an order: the payment record
// and its verification report.
type PaymentInfo struct {
	PaymentID    string         `json:"payment_id"`
	CustomerName string         `json:"customerName,omitempty"`
	Role         string         `json:"role,omitempty"`
	Payment      *PaymentRecord `json:"payment,omitempty"`
}

// Clone returns a deep copy.
func (p PaymentInfo) Clone() PaymentInfo {
	c := p
	if p.Payment != nil {
		rec := *p.Payment
		if p.Payment.Verification != nil {
			v := *p.Payment.Verification
			rec.Verification = &v
		}
		c.Payment = &rec
	}
	return c
}

// PaymentRecord is the payment submitted with an order.
type PaymentRecord struct {
	Method        PaymentMethodType   `json:"method"`
	ScreenshotURL string              `json:"screenshotUrl"`
	Verification  *VerificationReport `json:"geminiResponse,omitempty"`
}

// VerificationReport is what the backend extracted from the screenshot.
type VerificationReport struct {
	From        string          `json:"from"`
	To          string          `json:"to"`
	BankName    string          `json:"bankName"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// VerifyPaymentRequest is the combined verify-and-create-order payload.
type VerifyPaymentRequest struct {
	PaymentScreenshotURL string            `json:"payment_screenshot_url"`
	ShopID               string            `json:"shop_id"`
	Amount               decimal.Decimal   `json:"amount"`
	PaymentMethod        PaymentMethodType `json:"payment_method"`
	Items                []CartLine        `json:"items"`
}

// VerifyPaymentResponse is the verify-and-create-order result.
type VerifyPaymentResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Order   *Order `json:"order"`
}

// Succeeded reports whether the backend accepted the payment and created the order.
func (r *VerifyPaymentResponse) Succeeded() bool {
	return r != nil && r.Status == "success" && r.Order != nil
}

// Merge overlays the non-empty fields of other onto p.
func (p *PaymentInfo) Merge(other PaymentInfo) {
	if other.PaymentID != "" {
		p.PaymentID = other.PaymentID
	}
	if other.CustomerName != "" {
		p.CustomerName = other.CustomerName
	}
	if other.Role != "" {
		p.Role = other.Role
	}
	if other.Payment != nil {
		rec := *other.Payment
		p.Payment = &rec
	}
}
