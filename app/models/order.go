package models

import (
	"time"

	"gorm.io/gorm"
)

type PaymentProvider string

const (
	PaymentStripe PaymentProvider = "stripe"
	PaymentManual PaymentProvider = "manual"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

type OrderStatus string

const (
	OrderPendingPayment OrderStatus = "pending_payment"
	OrderConfirmed      OrderStatus = "confirmed"
)

// Order is a customer order. StockAdjusted guarantees inventory is
// decremented exactly once; it is only flipped while the row is locked.
type Order struct {
	gorm.Model
	Reference       string          `gorm:"size:40;not null;uniqueIndex" json:"reference"`
	UserID          uint            `gorm:"not null;index"               json:"user_id"`
	PaymentProvider PaymentProvider `gorm:"size:20;not null"             json:"payment_provider"`
	PaymentStatus   PaymentStatus   `gorm:"size:20;not null;default:pending" json:"payment_status"`
	Status          OrderStatus     `gorm:"size:30;not null;default:pending_payment;index" json:"status"`
	Total           int64           `gorm:"not null;default:0"           json:"total"` // cents
	StockAdjusted   bool            `gorm:"not null;default:false"       json:"stock_adjusted"`
	StripeSessionID *string         `gorm:"size:255;uniqueIndex"         json:"stripe_session_id,omitempty"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`

	Details []OrderDetail `gorm:"constraint:OnDelete:CASCADE" json:"details,omitempty"`
}

func (o *Order) IsPaid() bool { return o.PaymentStatus == PaymentPaid }

// SessionID returns the stored checkout session id or "".
func (o *Order) SessionID() string {
	if o.StripeSessionID == nil {
		return ""
	}
	return *o.StripeSessionID
}

// OrderDetail is one order line. UnitPrice is a snapshot taken at purchase
// time and never follows later product price changes.
type OrderDetail struct {
	gorm.Model
	OrderID      uint   `gorm:"not null;index" json:"order_id"`
	ProductID    uint   `gorm:"not null;index" json:"product_id"`
	VariantID    *uint  `gorm:"index"          json:"variant_id,omitempty"`
	ProductName  string `gorm:"size:255"       json:"product_name"`
	SelectedSize string `gorm:"size:50"        json:"selected_size,omitempty"`
	Quantity     int    `gorm:"not null"       json:"quantity"`
	UnitPrice    int64  `gorm:"not null"       json:"unit_price"` // cents
}

// LineTotal is Quantity × UnitPrice.
func (d *OrderDetail) LineTotal() int64 {
	return int64(d.Quantity) * d.UnitPrice
}
