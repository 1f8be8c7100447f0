package invoice

import (
	"testing"
	"time"
	"ywbilling/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() Record {
	return Record{
		"id":             "inv-1",
		"invoice_number": "YW-0003",
		"buyer_name":     "Petras Petraitis",
		"buyer_address":  "Laisvės al. 1",
		"buyer_city":     "Kaunas",
		"buyer_country":  "LT",
		"buyer_email":    "petras@example.lt",
		"seller_name":    "UAB YAKIWOOD",
		"items": []any{
			map[string]any{"name": "Board", "quantity": "2", "unit_price": 50, "vat_rate": 0.21, "total": "121.00"},
			map[string]any{"name": "Oil", "quantity": 1, "unitPrice": "10", "vat_rate": "n/a"},
		},
		"subtotal":   "110.00",
		"vat_amount": 21,
		"total":      131.0,
		"status":     "paid",
		"issued_at":  "2025-02-01T10:15:00Z",
		"paid_at":    "2025-02-02",
	}
}

func TestConvert(t *testing.T) {
	inv, err := Convert(sampleRecord())
	require.NoError(t, err)

	assert.Equal(t, "inv-1", inv.Id)
	assert.Equal(t, "YW-0003", inv.InvoiceNumber)
	assert.Equal(t, "YW", inv.Series)
	assert.Equal(t, 3, inv.SequenceNumber)
	assert.Equal(t, entity.InvoicePaid, inv.Status)
	assert.Equal(t, "EUR", inv.Currency)
	assert.Equal(t, "Petras Petraitis", inv.Buyer.Name)
	assert.Equal(t, "Kaunas", inv.Buyer.City)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), inv.IssueDate)
	assert.Equal(t, time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC), inv.DueDate)
	require.NotNil(t, inv.PaymentDate)
	assert.Equal(t, time.Date(2025, 2, 2, 0, 0, 0, 0, time.UTC), *inv.PaymentDate)

	require.Len(t, inv.Items, 2)
	assert.Equal(t, 2.0, inv.Items[0].Quantity)
	assert.Equal(t, 121.0, inv.Items[0].Total)
	// optional modifier falls back to 0, derived total follows
	assert.Equal(t, 0.0, inv.Items[1].VatRate)
	assert.Equal(t, 10.0, inv.Items[1].Total)
	assert.Equal(t, 131.0, inv.Total)
}

func TestConvertNestedParties(t *testing.T) {
	rec := sampleRecord()
	delete(rec, "buyer_name")
	rec["buyer"] = map[string]any{"name": "Nested Buyer", "company_name": "UAB Nested"}
	inv, err := Convert(rec)
	require.NoError(t, err)
	assert.Equal(t, "Nested Buyer", inv.Buyer.Name)
	assert.Equal(t, "UAB Nested", inv.Buyer.DisplayName())
}

func TestConvertItemsAsJSONText(t *testing.T) {
	rec := sampleRecord()
	rec["items"] = `[{"name":"Board","quantity":1,"unit_price":100,"vat_rate":0.21},{"name":"Oil","quantity":1,"unit_price":10}]`
	inv, err := Convert(rec)
	require.NoError(t, err)
	assert.Len(t, inv.Items, 2)
	assert.Equal(t, 121.0, inv.Items[0].Total)
}

func TestConvertSeriesAndSequence(t *testing.T) {
	rec := sampleRecord()
	delete(rec, "invoice_number")
	rec["series"] = "YW"
	rec["sequence_number"] = 42
	inv, err := Convert(rec)
	require.NoError(t, err)
	assert.Equal(t, "YW-0042", inv.InvoiceNumber)
}

func TestConvertErrors(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(Record)
		field string
	}{
		{"missing buyer", func(r Record) { delete(r, "buyer_name") }, "buyer_name"},
		{"blank buyer", func(r Record) { r["buyer_name"] = "  " }, "buyer_name"},
		{"no items", func(r Record) { r["items"] = []any{} }, "items"},
		{"items not a list", func(r Record) { r["items"] = 5 }, "items"},
		{"no number", func(r Record) { delete(r, "invoice_number") }, "invoice_number"},
		{"bad number", func(r Record) { r["invoice_number"] = "draft" }, "invoice_number"},
		{"missing issue date", func(r Record) { delete(r, "issued_at") }, "issued_at"},
		{"non-numeric total", func(r Record) { r["total"] = "abc" }, "total"},
		{"missing subtotal", func(r Record) { delete(r, "subtotal") }, "subtotal"},
		{"NaN vat", func(r Record) { r["vat_amount"] = "NaN" }, "vat_amount"},
		{"unreconciled total", func(r Record) { r["total"] = 140 }, "total"},
		{"line totals drift", func(r Record) {
			items := []any{}
			for i := 0; i < 6; i++ {
				items = append(items, map[string]any{"name": "Peg", "quantity": 1, "unit_price": 1.005, "total": 1.01})
			}
			r["items"] = items
			r["subtotal"], r["vat_amount"], r["total"] = 6.03, 0, 6.03
		}, "items"},
		{"non-numeric quantity", func(r Record) {
			r["items"] = []any{map[string]any{"name": "x", "quantity": "two", "unit_price": 1}}
		}, "items[0].quantity"},
		{"non-numeric line total", func(r Record) {
			r["items"] = []any{map[string]any{"name": "x", "quantity": 1, "unit_price": 1, "total": "?"}}
		}, "items[0].total"},
		{"unknown status", func(r Record) { r["status"] = "refunded" }, "status"},
		{"bad due date", func(r Record) { r["due_date"] = "tomorrow" }, "due_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := sampleRecord()
			tt.edit(rec)
			_, err := Convert(rec)
			var mre *MalformedRecordError
			require.ErrorAs(t, err, &mre)
			assert.Equal(t, tt.field, mre.Field)
		})
	}
}

func TestConvertFirstFailureWins(t *testing.T) {
	rec := sampleRecord()
	delete(rec, "buyer_name")
	delete(rec, "items")
	delete(rec, "invoice_number")
	_, err := Convert(rec)
	var mre *MalformedRecordError
	require.ErrorAs(t, err, &mre)
	assert.Equal(t, "buyer_name", mre.Field)
}

func TestToRecordRoundTrip(t *testing.T) {
	now := time.Date(2025, 4, 2, 12, 0, 0, 0, time.UTC)
	req := &entity.GenerateRequest{
		Buyer: entity.InvoiceAddress{Name: "Round Trip", CompanyName: "UAB RT", Country: "LT"},
		Items: []*entity.GenerateItem{
			{Name: "Board", Quantity: 3, UnitPrice: 123.456},
			{Name: "Oil", Quantity: 2, UnitPrice: 12.1, VatRate: 0.21},
		},
		Notes: "thanks",
	}
	built, err := Build(req, entity.DefaultInvoiceSettings(), 9, now)
	require.NoError(t, err)

	inv, err := Convert(ToRecord(built))
	require.NoError(t, err)
	assert.Equal(t, built.InvoiceNumber, inv.InvoiceNumber)
	assert.Equal(t, built.Buyer, inv.Buyer)
	assert.Equal(t, built.Seller, inv.Seller)
	assert.Equal(t, built.Items, inv.Items)
	assert.Equal(t, built.Total, inv.Total)
	assert.Equal(t, built.IssueDate, inv.IssueDate)
	assert.Equal(t, built.DueDate, inv.DueDate)
	assert.Equal(t, built.Swift, inv.Swift)
	assert.Equal(t, "thanks", inv.Notes)
	assert.Equal(t, now, inv.CreatedAt)
}
