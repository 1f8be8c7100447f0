package invoice

import (
	"fmt"
	"strings"
	"time"
	"ywbilling/entity"
	"ywbilling/lib/clock"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	defaultUnit          = "vnt"
	unknownAddress       = "Nenurodyta"
	defaultBuyerCountry  = "Lietuva"
	defaultDocumentTitle = "Production - Shou sugi ban"
)

// ItemInput describes a line before amounts are derived; UnitPrice is GROSS
// when PricesIncludeVat is set
type ItemInput struct {
	Id               string
	Name             string
	Description      string
	Quantity         float64
	Unit             string
	UnitPrice        float64
	VatRate          float64
	PricesIncludeVat bool
}

// BuildItem derives line amounts. The NET unit price is kept unrounded, so
// Total always equals round(Quantity*UnitPrice*(1+VatRate), 2).
func BuildItem(in ItemInput) *entity.InvoiceItem {
	rate := dec(in.VatRate)
	one := decimal.NewFromInt(1)

	unit := dec(in.UnitPrice)
	unitGross := unit.Mul(one.Add(rate))
	if in.PricesIncludeVat {
		unitGross = unit
		unit = unit.Div(one.Add(rate))
	}
	unitNet := float(unit)

	q := dec(in.Quantity)
	net := q.Mul(dec(unitNet))
	gross := net.Add(net.Mul(rate)).Round(2)
	netRounded := net.Round(2)

	id := in.Id
	if id == "" {
		id = uuid.NewString()
	}
	unitName := in.Unit
	if unitName == "" {
		unitName = defaultUnit
	}
	return &entity.InvoiceItem{
		Id:               id,
		Name:             in.Name,
		Description:      in.Description,
		Quantity:         in.Quantity,
		Unit:             unitName,
		UnitPrice:        unitNet,
		UnitPriceInclVat: float(unitGross.Round(2)),
		VatRate:          in.VatRate,
		TotalExclVat:     float(netRounded),
		VatAmount:        float(gross.Sub(netRounded)),
		TotalInclVat:     float(gross),
		Total:            float(gross),
	}
}

// CalculateTotals sums the rounded line amounts, so total is exactly the sum
// of line totals and VAT is total minus subtotal
func CalculateTotals(items []*entity.InvoiceItem) (subtotal, totalVat, total float64) {
	net := decimal.Zero
	gross := decimal.Zero
	for _, item := range items {
		line := dec(item.Quantity).Mul(dec(item.UnitPrice))
		net = net.Add(line.Round(2))
		gross = gross.Add(line.Add(line.Mul(dec(item.VatRate))).Round(2))
	}
	return float(net), float(gross.Sub(net)), float(gross)
}

// Build issues a new invoice from a request. The sequence number comes from
// the caller's counter.
func Build(req *entity.GenerateRequest, settings *entity.InvoiceSettings, seq int, now time.Time) (*entity.Invoice, error) {
	if req == nil {
		return nil, malformed("request", "empty")
	}
	if settings == nil {
		settings = entity.DefaultInvoiceSettings()
	}
	if strings.TrimSpace(req.Buyer.Name) == "" {
		return nil, malformed("buyer.name", "missing")
	}
	if len(req.Items) == 0 {
		return nil, malformed("items", "no line items")
	}

	items := make([]*entity.InvoiceItem, 0, len(req.Items))
	for i, in := range req.Items {
		if in == nil {
			return nil, malformed(fmt.Sprintf("items[%d]", i), "empty")
		}
		if !isFinite(in.Quantity) || !isFinite(in.UnitPrice) || !isFinite(in.VatRate) {
			return nil, malformed(fmt.Sprintf("items[%d]", i), "amount is not a finite number")
		}
		items = append(items, BuildItem(ItemInput{
			Id:               in.Id,
			Name:             in.Name,
			Description:      in.Description,
			Quantity:         in.Quantity,
			Unit:             in.Unit,
			UnitPrice:        in.UnitPrice,
			VatRate:          in.VatRate,
			PricesIncludeVat: req.PricesIncludeVat,
		}))
	}

	dueIn := settings.DueInDays
	if req.DueInDays != nil {
		dueIn = *req.DueInDays
	}
	currency := req.Currency
	if currency == "" {
		currency = settings.Currency
	}
	title := req.DocumentTitle
	if title == "" {
		title = settings.DocumentTitle
	}
	method := req.PaymentMethod
	if method == "" {
		method = entity.PaymentBankTransfer
	}

	inv := newInvoice(settings, seq, now, dueIn)
	inv.OrderId = req.OrderId
	inv.OrderNumber = req.OrderNumber
	inv.DocumentTitle = title
	inv.Buyer = req.Buyer
	inv.Items = items
	inv.PaymentMethod = method
	inv.Payments = req.Payments
	inv.Notes = req.Notes
	if currency != "" {
		inv.Currency = currency
	}
	inv.Subtotal, inv.TotalVat, inv.Total = CalculateTotals(items)
	return inv, nil
}

// FromOrder issues a paid invoice for a settled storefront order. Order
// prices are gross and carry the configured VAT rate.
func FromOrder(order *entity.Order, settings *entity.InvoiceSettings, seq int, now time.Time, method entity.PaymentMethod, note string) (*entity.Invoice, error) {
	if order == nil {
		return nil, malformed("order", "empty")
	}
	if settings == nil {
		settings = entity.DefaultInvoiceSettings()
	}
	name := strings.TrimSpace(order.CustomerName)
	if name == "" {
		name = order.CustomerEmail
	}
	if name == "" {
		return nil, malformed("buyer.name", "missing")
	}
	if len(order.Items) == 0 {
		return nil, malformed("items", "no line items")
	}

	items := make([]*entity.InvoiceItem, 0, len(order.Items))
	for i, oi := range order.Items {
		if oi == nil || !isFinite(oi.Quantity) || !isFinite(oi.BasePrice) {
			return nil, malformed(fmt.Sprintf("items[%d]", i), "amount is not a finite number")
		}
		id := oi.Id
		if id == "" {
			id = fmt.Sprintf("item-%d", i+1)
		}
		items = append(items, BuildItem(ItemInput{
			Id:               id,
			Name:             oi.Name,
			Quantity:         oi.Quantity,
			Unit:             oi.Unit,
			UnitPrice:        oi.BasePrice,
			VatRate:          settings.VatRate,
			PricesIncludeVat: true,
		}))
	}

	address := order.CustomerAddress
	if address == "" {
		address = unknownAddress
	}
	country := order.CustomerCountry
	if country == "" {
		country = defaultBuyerCountry
	}
	title := settings.DocumentTitle
	if title == "" {
		title = defaultDocumentTitle
	}

	inv := newInvoice(settings, seq, now, 0)
	inv.Status = entity.InvoicePaid
	inv.OrderId = order.Id
	inv.OrderNumber = order.OrderNumber
	inv.DocumentTitle = title
	inv.Currency = order.CurrencyCode()
	inv.Buyer = entity.InvoiceAddress{
		Name:    name,
		Address: address,
		Country: country,
		Phone:   order.CustomerPhone,
		Email:   order.CustomerEmail,
	}
	inv.Items = items
	inv.PaymentMethod = method
	inv.Notes = note
	paid := inv.IssueDate
	inv.PaymentDate = &paid
	inv.Subtotal, inv.TotalVat, inv.Total = CalculateTotals(items)
	inv.Payments = []*entity.InvoicePayment{{
		Id:        uuid.NewString(),
		Method:    method,
		Amount:    inv.Total,
		Currency:  inv.Currency,
		Date:      paid,
		Status:    entity.PaymentSucceeded,
		Reference: order.OrderNumber,
	}}
	return inv, nil
}

func newInvoice(settings *entity.InvoiceSettings, seq int, now time.Time, dueIn int) *entity.Invoice {
	issue := clock.Date(now)
	currency := settings.Currency
	if currency == "" {
		currency = entity.DefaultCurrency
	}
	return &entity.Invoice{
		Id:                 uuid.NewString(),
		InvoiceNumber:      FormatNumber(settings.Series, seq, settings.NumberWidth),
		Series:             settings.Series,
		SequenceNumber:     seq,
		Status:             entity.InvoiceIssued,
		Currency:           currency,
		IssueDate:          issue,
		DueDate:            clock.AddDays(issue, dueIn),
		Seller:             settings.Seller,
		BankName:           settings.BankName,
		BankAccount:        settings.BankAccount,
		Swift:              settings.Swift,
		TermsAndConditions: settings.TermsAndConditions,
		CreatedAt:          now.UTC(),
		UpdatedAt:          now.UTC(),
	}
}
