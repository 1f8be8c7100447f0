package entity

import (
	"fmt"
	"time"
)

const DefaultCurrency = "EUR"

type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoiceIssued    InvoiceStatus = "issued"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceCancelled InvoiceStatus = "cancelled"
	InvoiceOverdue   InvoiceStatus = "overdue"
)

// allowed one-way transitions; paid and cancelled are terminal
var transitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceDraft:   {InvoiceIssued, InvoiceCancelled},
	InvoiceIssued:  {InvoicePaid, InvoiceOverdue, InvoiceCancelled},
	InvoiceOverdue: {InvoicePaid, InvoiceCancelled},
}

func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceDraft, InvoiceIssued, InvoicePaid, InvoiceCancelled, InvoiceOverdue:
		return true
	}
	return false
}

func (s InvoiceStatus) CanTransition(next InvoiceStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type PaymentMethod string

const (
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentCash         PaymentMethod = "cash"
	PaymentCard         PaymentMethod = "card"
	PaymentStripe       PaymentMethod = "stripe"
	PaymentPaypal       PaymentMethod = "paypal"
	PaymentManual       PaymentMethod = "manual"
)

type InvoiceAddress struct {
	Name        string `json:"name" bson:"name" validate:"required"`
	CompanyName string `json:"company_name,omitempty" bson:"company_name,omitempty"`
	CompanyCode string `json:"company_code,omitempty" bson:"company_code,omitempty"`
	VatCode     string `json:"vat_code,omitempty" bson:"vat_code,omitempty"`
	Address     string `json:"address" bson:"address"`
	City        string `json:"city" bson:"city"`
	PostalCode  string `json:"postal_code" bson:"postal_code"`
	Country     string `json:"country" bson:"country"`
	Phone       string `json:"phone,omitempty" bson:"phone,omitempty"`
	Email       string `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
}

// DisplayName is the company name when the party is a company
func (a InvoiceAddress) DisplayName() string {
	if a.CompanyName != "" {
		return a.CompanyName
	}
	return a.Name
}

// InvoiceItem amounts: UnitPrice is NET and kept unrounded,
// line amounts are rounded half-up to 2 decimals.
type InvoiceItem struct {
	Id               string  `json:"id"`
	Name             string  `json:"name"`
	Description      string  `json:"description,omitempty"`
	Quantity         float64 `json:"quantity"`
	Unit             string  `json:"unit,omitempty"`
	UnitPrice        float64 `json:"unit_price"`
	UnitPriceInclVat float64 `json:"unit_price_incl_vat"`
	VatRate          float64 `json:"vat_rate"`
	TotalExclVat     float64 `json:"total_excl_vat"`
	VatAmount        float64 `json:"vat_amount"`
	TotalInclVat     float64 `json:"total_incl_vat"`
	Total            float64 `json:"total"`
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

type InvoicePayment struct {
	Id        string        `json:"id"`
	Method    PaymentMethod `json:"method"`
	Amount    float64       `json:"amount"`
	Currency  string        `json:"currency"`
	Date      time.Time     `json:"date"`
	Status    PaymentStatus `json:"status"`
	Reference string        `json:"reference,omitempty"`
	Note      string        `json:"note,omitempty"`
}

// Invoice is the billing document derived from an order. It is not changed
// after issuance; Transition produces the next version instead.
type Invoice struct {
	Id             string        `json:"id"`
	InvoiceNumber  string        `json:"invoice_number"`
	Series         string        `json:"series"`
	SequenceNumber int           `json:"sequence_number"`
	Status         InvoiceStatus `json:"status"`

	OrderId       string `json:"order_id,omitempty"`
	OrderNumber   string `json:"order_number,omitempty"`
	DocumentTitle string `json:"document_title,omitempty"`
	Currency      string `json:"currency"`

	IssueDate   time.Time  `json:"issue_date"`
	DueDate     time.Time  `json:"due_date"`
	PaymentDate *time.Time `json:"payment_date,omitempty"`

	Seller InvoiceAddress `json:"seller"`
	Buyer  InvoiceAddress `json:"buyer"`

	Items []*InvoiceItem `json:"items"`

	Subtotal float64 `json:"subtotal"`
	TotalVat float64 `json:"total_vat"`
	Total    float64 `json:"total"`

	PaymentMethod    PaymentMethod     `json:"payment_method,omitempty"`
	PaymentReference string            `json:"payment_reference,omitempty"`
	Payments         []*InvoicePayment `json:"payments,omitempty"`

	BankName    string `json:"bank_name,omitempty"`
	BankAccount string `json:"bank_account,omitempty"`
	Swift       string `json:"swift,omitempty"`

	Notes              string `json:"notes,omitempty"`
	TermsAndConditions string `json:"terms_and_conditions,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (inv *Invoice) CurrencyCode() string {
	if inv.Currency == "" {
		return DefaultCurrency
	}
	return inv.Currency
}

// Clone copies the invoice together with its items and payments
func (inv *Invoice) Clone() *Invoice {
	c := *inv
	c.Items = make([]*InvoiceItem, len(inv.Items))
	for i, item := range inv.Items {
		it := *item
		c.Items[i] = &it
	}
	if inv.Payments != nil {
		c.Payments = make([]*InvoicePayment, len(inv.Payments))
		for i, p := range inv.Payments {
			pm := *p
			c.Payments[i] = &pm
		}
	}
	if inv.PaymentDate != nil {
		d := *inv.PaymentDate
		c.PaymentDate = &d
	}
	return &c
}

// Transition returns a copy of the invoice in the next status; the receiver
// is left untouched. Moving to paid records the payment date.
func (inv *Invoice) Transition(next InvoiceStatus, at time.Time) (*Invoice, error) {
	if !next.IsValid() {
		return nil, fmt.Errorf("unknown invoice status: %s", next)
	}
	if !inv.Status.CanTransition(next) {
		return nil, &TransitionError{From: inv.Status, To: next}
	}
	c := inv.Clone()
	c.Status = next
	c.UpdatedAt = at
	if next == InvoicePaid && c.PaymentDate == nil {
		y, m, d := at.Date()
		paid := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		c.PaymentDate = &paid
	}
	return c, nil
}

// AdvancePaid sums succeeded payments; a paid invoice without payment
// records counts as fully paid
func (inv *Invoice) AdvancePaid() float64 {
	var paid float64
	for _, p := range inv.Payments {
		if p != nil && p.Status == PaymentSucceeded {
			paid += p.Amount
		}
	}
	if paid > 0 {
		return paid
	}
	if inv.Status == InvoicePaid || inv.PaymentDate != nil {
		return inv.Total
	}
	return 0
}

func (inv *Invoice) RemainingDue() float64 {
	remaining := inv.Total - inv.AdvancePaid()
	if remaining < 0 {
		return 0
	}
	return remaining
}

type TransitionError struct {
	From InvoiceStatus
	To   InvoiceStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invoice status %s cannot change to %s", e.From, e.To)
}
