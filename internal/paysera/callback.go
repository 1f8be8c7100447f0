package paysera

import (
	"errors"
	"strconv"
	"strings"
)

var (
	ErrMissingData      = errors.New("missing data")
	ErrMissingSignature = errors.New("missing signature")
	ErrInvalidSignature = errors.New("invalid signature")
)

const StatusPaid = "1"

// Callback is a verified provider notification
type Callback struct {
	OrderId   string
	Status    string
	Test      bool
	Amount    int64
	HasAmount bool
	Currency  string
	RequestId string
	Payment   string
	Params    map[string]string
}

func (cb *Callback) Paid() bool {
	return cb.Status == StatusPaid
}

// ParseCallback verifies ss1 over data before decoding; a payload that
// fails verification is never decoded
func (c *Checkout) ParseCallback(data, ss1 string) (*Callback, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	data = strings.TrimSpace(data)
	ss1 = strings.TrimSpace(ss1)
	if data == "" {
		return nil, ErrMissingData
	}
	if ss1 == "" {
		return nil, ErrMissingSignature
	}
	if !Verify(ss1, data, c.conf.SignPassword) {
		return nil, ErrInvalidSignature
	}
	params, err := Decode(data)
	if err != nil {
		return nil, err
	}

	cb := &Callback{
		OrderId:   strings.TrimSpace(params["orderid"]),
		Status:    strings.TrimSpace(params["status"]),
		Test:      strings.TrimSpace(params["test"]) == "1",
		Currency:  strings.ToUpper(first(params, "currency", "paycurrency", "pay_currency", "request_currency")),
		RequestId: params["requestid"],
		Payment:   params["payment"],
		Params:    params,
	}
	if raw := first(params, "amount", "payamount", "pay_amount", "request_amount"); raw != "" {
		if amount, ok := parseAmount(raw); ok {
			cb.Amount = amount
			cb.HasAmount = true
		}
	}
	return cb, nil
}

func first(params map[string]string, keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(params[key]); v != "" {
			return v
		}
	}
	return ""
}

// parseAmount reads minor units; a value with a decimal separator is taken
// as major units
func parseAmount(raw string) (int64, bool) {
	if !strings.ContainsAny(raw, ".,") {
		n, err := strconv.ParseInt(raw, 10, 64)
		return n, err == nil
	}
	f, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return Cents(f), true
}
