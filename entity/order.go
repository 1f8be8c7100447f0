package entity

import (
	"encoding/json"
	"time"
)

const (
	OrderPending    = "pending"
	OrderProcessing = "processing"
	OrderCompleted  = "completed"
	OrderCancelled  = "cancelled"

	OrderPaymentPending = "pending"
	OrderPaymentPaid    = "paid"
)

// Order is a storefront order as kept by the shop database.
type Order struct {
	Id              string       `json:"id"`
	OrderNumber     string       `json:"order_number"`
	CustomerEmail   string       `json:"customer_email"`
	CustomerName    string       `json:"customer_name"`
	CustomerPhone   string       `json:"customer_phone,omitempty"`
	CustomerAddress string       `json:"customer_address,omitempty"`
	CustomerCountry string       `json:"customer_country,omitempty"`
	Items           []*OrderItem `json:"items"`
	Subtotal        float64      `json:"subtotal"`
	VatAmount       float64      `json:"vat_amount"`
	Total           float64      `json:"total"`
	Currency        string       `json:"currency"`
	Status          string       `json:"status"`
	PaymentStatus   string       `json:"payment_status"`
	InvoiceId       string       `json:"invoice_id,omitempty"`
	Notes           string       `json:"notes,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	PaidAt          *time.Time   `json:"paid_at,omitempty"`
}

// OrderItem BasePrice is the GROSS unit price shown in the shop
type OrderItem struct {
	Id        string  `json:"id"`
	Name      string  `json:"name"`
	Slug      string  `json:"slug,omitempty"`
	Quantity  float64 `json:"quantity"`
	BasePrice float64 `json:"basePrice"`
	Unit      string  `json:"unit,omitempty"`
}

func (o *Order) IsPaid() bool {
	return o.PaymentStatus == OrderPaymentPaid
}

func (o *Order) CurrencyCode() string {
	if o.Currency == "" {
		return DefaultCurrency
	}
	return o.Currency
}

// ParseOrderItems reads the items column stored as JSON text
func ParseOrderItems(raw []byte) ([]*OrderItem, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var items []*OrderItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}
