package entity

import (
	"net/http"
	"ywbilling/lib/validate"
)

type GenerateItem struct {
	Id          string  `json:"id"`
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description,omitempty"`
	Quantity    float64 `json:"quantity" validate:"gt=0"`
	Unit        string  `json:"unit,omitempty"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
	VatRate     float64 `json:"vat_rate" validate:"gte=0,lt=1"`
}

// GenerateRequest is the input for issuing a new invoice
type GenerateRequest struct {
	Buyer            InvoiceAddress    `json:"buyer" validate:"required"`
	Items            []*GenerateItem   `json:"items" validate:"required,min=1,dive"`
	PaymentMethod    PaymentMethod     `json:"payment_method,omitempty" validate:"omitempty,oneof=bank_transfer cash card stripe paypal manual"`
	Payments         []*InvoicePayment `json:"payments,omitempty"`
	Notes            string            `json:"notes,omitempty"`
	DueInDays        *int              `json:"due_in_days,omitempty" validate:"omitempty,gte=0,lte=365"`
	PricesIncludeVat bool              `json:"prices_include_vat,omitempty"`
	OrderId          string            `json:"order_id,omitempty"`
	OrderNumber      string            `json:"order_number,omitempty"`
	DocumentTitle    string            `json:"document_title,omitempty"`
	Currency         string            `json:"currency,omitempty" validate:"omitempty,len=3"`
}

func (r *GenerateRequest) Bind(_ *http.Request) error {
	return validate.Struct(r)
}

type StatusChange struct {
	Status InvoiceStatus `json:"status" validate:"required,oneof=draft issued paid cancelled overdue"`
}

func (s *StatusChange) Bind(_ *http.Request) error {
	return validate.Struct(s)
}
