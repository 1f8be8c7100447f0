package invoice

import (
	"ywbilling/entity"
	"ywbilling/lib/clock"
)

// ToRecord flattens an invoice into the persisted row shape read by Convert
func ToRecord(inv *entity.Invoice) Record {
	rec := Record{
		"id":                   inv.Id,
		"invoice_number":       inv.InvoiceNumber,
		"series":               inv.Series,
		"sequence_number":      inv.SequenceNumber,
		"status":               string(inv.Status),
		"order_id":             inv.OrderId,
		"order_number":         inv.OrderNumber,
		"document_title":       inv.DocumentTitle,
		"currency":             inv.CurrencyCode(),
		"issued_at":            clock.FormatDate(inv.IssueDate),
		"due_date":             clock.FormatDate(inv.DueDate),
		"subtotal":             inv.Subtotal,
		"vat_amount":           inv.TotalVat,
		"total":                inv.Total,
		"payment_method":       string(inv.PaymentMethod),
		"payment_reference":    inv.PaymentReference,
		"seller_bank_name":     inv.BankName,
		"seller_bank_account":  inv.BankAccount,
		"seller_swift":         inv.Swift,
		"notes":                inv.Notes,
		"terms_and_conditions": inv.TermsAndConditions,
		"created_at":           inv.CreatedAt,
		"updated_at":           inv.UpdatedAt,
	}
	if inv.PaymentDate != nil {
		rec["paid_at"] = clock.FormatDate(*inv.PaymentDate)
	}
	flattenParty(rec, "seller", inv.Seller)
	flattenParty(rec, "buyer", inv.Buyer)

	items := make([]any, 0, len(inv.Items))
	for _, item := range inv.Items {
		items = append(items, map[string]any{
			"id":                  item.Id,
			"name":                item.Name,
			"description":         item.Description,
			"quantity":            item.Quantity,
			"unit":                item.Unit,
			"unit_price":          item.UnitPrice,
			"unit_price_incl_vat": item.UnitPriceInclVat,
			"vat_rate":            item.VatRate,
			"total_excl_vat":      item.TotalExclVat,
			"vat_amount":          item.VatAmount,
			"total_incl_vat":      item.TotalInclVat,
			"total":               item.Total,
		})
	}
	rec["items"] = items

	if len(inv.Payments) > 0 {
		payments := make([]any, 0, len(inv.Payments))
		for _, p := range inv.Payments {
			payments = append(payments, map[string]any{
				"id":        p.Id,
				"method":    string(p.Method),
				"amount":    p.Amount,
				"currency":  p.Currency,
				"date":      clock.FormatDate(p.Date),
				"status":    string(p.Status),
				"reference": p.Reference,
				"note":      p.Note,
			})
		}
		rec["payments"] = payments
	}
	return rec
}

func flattenParty(rec Record, prefix string, a entity.InvoiceAddress) {
	rec[prefix+"_name"] = a.Name
	rec[prefix+"_company_name"] = a.CompanyName
	rec[prefix+"_company_code"] = a.CompanyCode
	rec[prefix+"_vat_code"] = a.VatCode
	rec[prefix+"_address"] = a.Address
	rec[prefix+"_city"] = a.City
	rec[prefix+"_postal_code"] = a.PostalCode
	rec[prefix+"_country"] = a.Country
	rec[prefix+"_phone"] = a.Phone
	rec[prefix+"_email"] = a.Email
}
