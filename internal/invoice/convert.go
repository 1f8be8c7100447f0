package invoice

import (
	"fmt"
	"math"
	"ywbilling/entity"
	"ywbilling/lib/clock"
)

const defaultDueInDays = 14

// Convert promotes a persisted invoice row to an Invoice. Required fields are
// checked in order and the first failure is returned as *MalformedRecordError.
// Convert performs no I/O.
func Convert(rec Record) (*entity.Invoice, error) {
	if rec == nil {
		return nil, malformed("record", "empty")
	}

	buyer, err := party(rec, "buyer")
	if err != nil {
		return nil, err
	}
	if buyer.Name == "" {
		return nil, malformed("buyer_name", "missing")
	}

	itemRecords, present, err := rec.Records("items")
	if err != nil {
		return nil, malformed("items", "%v", err)
	}
	if !present || len(itemRecords) == 0 {
		return nil, malformed("items", "no line items")
	}

	number, series, seq, err := resolveNumber(rec)
	if err != nil {
		return nil, err
	}

	issueDate, present, err := rec.Date("issued_at", "issue_date", "issueDate")
	if err != nil {
		return nil, malformed("issued_at", "%v", err)
	}
	if !present {
		return nil, malformed("issued_at", "missing")
	}

	items := make([]*entity.InvoiceItem, 0, len(itemRecords))
	for i, ir := range itemRecords {
		item, err := convertItem(i, ir)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	subtotal, err := requiredNumber(rec, "subtotal")
	if err != nil {
		return nil, err
	}
	totalVat, err := requiredNumber(rec, "vat_amount", "total_vat", "totalVat")
	if err != nil {
		return nil, err
	}
	total, err := requiredNumber(rec, "total")
	if err != nil {
		return nil, err
	}
	if !approxEqual(total, subtotal+totalVat, Tolerance) {
		return nil, malformed("total", "%.2f does not match subtotal %.2f + vat %.2f", total, subtotal, totalVat)
	}
	var lines float64
	for _, item := range items {
		lines += item.Total
	}
	if !approxEqual(lines, total, Tolerance) {
		return nil, malformed("items", "line totals %.2f do not reconcile with total %.2f", lines, total)
	}

	status := entity.InvoiceIssued
	if s := rec.String("status"); s != "" {
		status = entity.InvoiceStatus(s)
		if !status.IsValid() {
			return nil, malformed("status", "unknown status %q", s)
		}
	}

	dueDate, present, err := rec.Date("due_date", "dueDate")
	if err != nil {
		return nil, malformed("due_date", "%v", err)
	}
	if !present {
		dueDate = clock.AddDays(issueDate, defaultDueInDays)
	}

	seller, err := party(rec, "seller")
	if err != nil {
		return nil, err
	}

	inv := &entity.Invoice{
		Id:                 rec.String("id"),
		InvoiceNumber:      number,
		Series:             series,
		SequenceNumber:     seq,
		Status:             status,
		OrderId:            rec.String("order_id", "orderId"),
		OrderNumber:        rec.String("order_number", "orderNumber"),
		DocumentTitle:      rec.String("document_title", "documentTitle"),
		Currency:           rec.String("currency"),
		IssueDate:          issueDate,
		DueDate:            dueDate,
		Seller:             seller,
		Buyer:              buyer,
		Items:              items,
		Subtotal:           Round2(subtotal),
		TotalVat:           Round2(totalVat),
		Total:              Round2(total),
		PaymentMethod:      entity.PaymentMethod(rec.String("payment_method", "paymentMethod")),
		PaymentReference:   rec.String("payment_reference", "paymentReference"),
		BankName:           rec.String("seller_bank_name", "bank_name", "bankName"),
		BankAccount:        rec.String("seller_bank_account", "bank_account", "bankAccount"),
		Swift:              rec.String("seller_swift", "swift"),
		Notes:              rec.String("notes"),
		TermsAndConditions: rec.String("terms_and_conditions", "termsAndConditions"),
		CreatedAt:          rec.Timestamp("created_at", "createdAt"),
		UpdatedAt:          rec.Timestamp("updated_at", "updatedAt"),
	}
	if inv.Currency == "" {
		inv.Currency = entity.DefaultCurrency
	}

	paidAt, present, err := rec.Date("paid_at", "payment_date", "paymentDate")
	if err != nil {
		return nil, malformed("paid_at", "%v", err)
	}
	if present {
		inv.PaymentDate = &paidAt
	}

	payments, _, err := rec.Records("payments")
	if err != nil {
		return nil, malformed("payments", "%v", err)
	}
	for i, pr := range payments {
		p, err := convertPayment(i, pr, inv.Currency)
		if err != nil {
			return nil, err
		}
		inv.Payments = append(inv.Payments, p)
	}

	return inv, nil
}

func requiredNumber(rec Record, keys ...string) (float64, error) {
	v, present, err := rec.Number(keys...)
	if !present {
		return 0, malformed(keys[0], "missing")
	}
	if err != nil {
		return 0, malformed(keys[0], "%v", err)
	}
	return v, nil
}

// resolveNumber takes the stored invoice number, or composes one from
// series and sequence when only those are kept
func resolveNumber(rec Record) (number, series string, seq int, err error) {
	number = rec.String("invoice_number", "invoiceNumber")
	if number != "" {
		series, seq, err = ParseNumber(number)
		if err != nil {
			return "", "", 0, malformed("invoice_number", "%v", err)
		}
		if s := rec.String("series"); s != "" {
			series = s
		}
		return number, series, seq, nil
	}
	series = rec.String("series")
	n, present, err := rec.Number("sequence_number", "sequenceNumber")
	if series == "" || !present || err != nil || n < 0 || n != math.Trunc(n) {
		return "", "", 0, malformed("invoice_number", "missing")
	}
	seq = int(n)
	return FormatNumber(series, seq, DefaultNumberWidth), series, seq, nil
}

// party reads either a nested object or the flat prefixed columns
func party(rec Record, prefix string) (entity.InvoiceAddress, error) {
	nested, err := rec.Nested(prefix)
	if err != nil {
		return entity.InvoiceAddress{}, malformed(prefix, "%v", err)
	}
	key := func(name string) string { return prefix + "_" + name }
	src := rec
	if nested != nil {
		key = func(name string) string { return name }
		src = nested
	}
	return entity.InvoiceAddress{
		Name:        src.String(key("name")),
		CompanyName: src.String(key("company_name")),
		CompanyCode: src.String(key("company_code")),
		VatCode:     src.String(key("vat_code")),
		Address:     src.String(key("address")),
		City:        src.String(key("city")),
		PostalCode:  src.String(key("postal_code")),
		Country:     src.String(key("country")),
		Phone:       src.String(key("phone")),
		Email:       src.String(key("email")),
	}, nil
}

func convertItem(i int, rec Record) (*entity.InvoiceItem, error) {
	field := func(name string) string { return fmt.Sprintf("items[%d].%s", i, name) }

	quantity, present, err := rec.Number("quantity")
	if !present {
		return nil, malformed(field("quantity"), "missing")
	}
	if err != nil {
		return nil, malformed(field("quantity"), "%v", err)
	}
	unitPrice, present, err := rec.Number("unit_price", "unitPrice")
	if !present {
		return nil, malformed(field("unit_price"), "missing")
	}
	if err != nil {
		return nil, malformed(field("unit_price"), "%v", err)
	}
	vatRate := rec.Optional(0, "vat_rate", "vatRate")

	q, unit, rate := dec(quantity), dec(unitPrice), dec(vatRate)
	net := q.Mul(unit)

	total, present, err := rec.Number("total")
	if err != nil {
		return nil, malformed(field("total"), "%v", err)
	}
	if !present {
		total = float(net.Add(net.Mul(rate)).Round(2))
	}

	item := &entity.InvoiceItem{
		Id:          rec.String("id"),
		Name:        rec.String("name"),
		Description: rec.String("description"),
		Quantity:    quantity,
		Unit:        rec.String("unit"),
		UnitPrice:   unitPrice,
		VatRate:     vatRate,
		Total:       Round2(total),
	}
	item.UnitPriceInclVat = rec.Optional(float(unit.Add(unit.Mul(rate)).Round(2)), "unit_price_incl_vat", "unitPriceInclVat")
	item.TotalExclVat = rec.Optional(float(net.Round(2)), "total_excl_vat", "totalExclVat")
	item.VatAmount = rec.Optional(float(dec(item.Total).Sub(dec(item.TotalExclVat))), "vat_amount", "vatAmount")
	item.TotalInclVat = rec.Optional(item.Total, "total_incl_vat", "totalInclVat")
	return item, nil
}

func convertPayment(i int, rec Record, currency string) (*entity.InvoicePayment, error) {
	date, _, err := rec.Date("date")
	if err != nil {
		return nil, malformed(fmt.Sprintf("payments[%d].date", i), "%v", err)
	}
	p := &entity.InvoicePayment{
		Id:        rec.String("id"),
		Method:    entity.PaymentMethod(rec.String("method")),
		Amount:    rec.Optional(0, "amount"),
		Currency:  rec.String("currency"),
		Date:      date,
		Status:    entity.PaymentStatus(rec.String("status")),
		Reference: rec.String("reference"),
		Note:      rec.String("note"),
	}
	if p.Currency == "" {
		p.Currency = currency
	}
	if p.Status == "" {
		p.Status = entity.PaymentSucceeded
	}
	return p, nil
}
