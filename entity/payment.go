package entity

import (
	"net/http"
	"ywbilling/lib/validate"
)

// PaymentInit asks for a payment provider link for an existing order
type PaymentInit struct {
	OrderId string `json:"order_id" validate:"required,max=64"`
}

func (p *PaymentInit) Bind(_ *http.Request) error {
	return validate.Struct(p)
}

type PaymentLink struct {
	OrderId string `json:"order_id"`
	Amount  int64  `json:"amount"`
	Link    string `json:"url"`
}
