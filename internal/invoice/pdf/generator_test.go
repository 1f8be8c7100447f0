package pdf

import (
	"bytes"
	"fmt"
	"math"
	"testing"
	"time"
	"ywbilling/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInvoice(items int) *entity.Invoice {
	inv := &entity.Invoice{
		Id:            "inv-1",
		InvoiceNumber: "YW-0007",
		Series:        "YW",
		Status:        entity.InvoiceIssued,
		Currency:      "EUR",
		IssueDate:     time.Date(2025, 5, 6, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC),
		Seller:        entity.DefaultInvoiceSettings().Seller,
		Buyer: entity.InvoiceAddress{
			Name:    "Žygimantas Ąžuolas",
			Address: "Šilo g. 12",
			City:    "Vilnius",
			Country: "LT",
			Email:   "zygis@example.lt",
		},
		BankName:           "Swedbank",
		BankAccount:        "LT00 0000 0000 0000 0000",
		Swift:              "HABALT22",
		Notes:              "Ačiū, kad perkate.",
		TermsAndConditions: "Apmokėjimas per 14 dienų.",
	}
	for i := 0; i < items; i++ {
		rate := 0.21
		if i%2 == 1 {
			rate = 0.09
		}
		inv.Items = append(inv.Items, &entity.InvoiceItem{
			Id:           fmt.Sprintf("item-%d", i+1),
			Name:         fmt.Sprintf("Degintos medienos lenta Nr. %d", i+1),
			Quantity:     2,
			Unit:         "m²",
			UnitPrice:    10,
			VatRate:      rate,
			TotalExclVat: 20,
			VatAmount:    20 * rate,
			Total:        20 * (1 + rate),
		})
		inv.Subtotal += 20
		inv.TotalVat += 20 * rate
	}
	inv.Total = inv.Subtotal + inv.TotalVat
	return inv
}

func TestGenerateDeterministic(t *testing.T) {
	g := newTestGenerator(t, Options{})
	inv := sampleInvoice(3)

	first, err := g.Generate(inv, LocaleLT)
	require.NoError(t, err)
	second, err := g.Generate(inv, LocaleLT)
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(first, []byte("%PDF-")))
	assert.Equal(t, first, second)

	english, err := g.Generate(inv, LocaleEN)
	require.NoError(t, err)
	assert.NotEqual(t, first, english)
}

func TestGeneratePaginates(t *testing.T) {
	g := newTestGenerator(t, Options{})
	short, err := g.Generate(sampleInvoice(2), LocaleEN)
	require.NoError(t, err)
	long, err := g.Generate(sampleInvoice(120), LocaleEN)
	require.NoError(t, err)

	assert.Equal(t, 1, bytes.Count(short, []byte("/Type /Page\n")))
	assert.Greater(t, bytes.Count(long, []byte("/Type /Page\n")), 2)
}

func TestGenerateEmptyInvoice(t *testing.T) {
	g := newTestGenerator(t, Options{})
	inv := sampleInvoice(0)
	_, err := g.Generate(inv, LocaleLT)
	var empty *EmptyInvoiceError
	require.ErrorAs(t, err, &empty)
	assert.Equal(t, "YW-0007", empty.InvoiceNumber)

	_, err = g.Generate(nil, LocaleLT)
	require.ErrorAs(t, err, &empty)
}

func TestGenerateInvalidAmount(t *testing.T) {
	g := newTestGenerator(t, Options{})

	inv := sampleInvoice(2)
	inv.Items[1].UnitPrice = math.NaN()
	_, err := g.Generate(inv, LocaleLT)
	var invalid *InvalidAmountError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "items[1].unit_price", invalid.Field)

	inv = sampleInvoice(1)
	inv.Total = math.Inf(1)
	_, err = g.Generate(inv, LocaleLT)
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "total", invalid.Field)
}

func TestGenerateTooManyItems(t *testing.T) {
	g := newTestGenerator(t, Options{MaxItems: 5})
	_, err := g.Generate(sampleInvoice(6), LocaleLT)
	var tooMany *TooManyItemsError
	require.ErrorAs(t, err, &tooMany)
	assert.Equal(t, 6, tooMany.Count)
	assert.Equal(t, 5, tooMany.Max)
}

func TestGenerateUnknownPageSize(t *testing.T) {
	_, err := NewGenerator(Options{PageSize: "B99"})
	var pageErr *PageSizeError
	require.ErrorAs(t, err, &pageErr)
	assert.Equal(t, "B99", pageErr.PageSize)

	// fpdf refusing the format surfaces as an error, never a panic
	g := &Generator{opts: Options{PageSize: "B99", Margin: DefaultMargin, MaxItems: DefaultMaxItems}}
	assert.NotPanics(t, func() {
		_, err = g.Generate(sampleInvoice(1), LocaleLT)
	})
	require.Error(t, err)
}

func TestNewGeneratorPageSizes(t *testing.T) {
	for _, size := range []string{"", "A4", "a5", "Letter"} {
		_, err := NewGenerator(Options{PageSize: size})
		assert.NoError(t, err, size)
	}
}

func newTestGenerator(t *testing.T, opts Options) *Generator {
	t.Helper()
	g, err := NewGenerator(opts)
	require.NoError(t, err)
	return g
}

func TestVatByRate(t *testing.T) {
	inv := sampleInvoice(4)
	d, err := newDocument(newTestGenerator(t, Options{}).opts, inv, LocaleLT)
	require.NoError(t, err)
	rates, sums := d.vatByRate()
	require.Equal(t, []float64{0.09, 0.21}, rates)
	assert.Equal(t, 3.6, sums[0.09])
	assert.Equal(t, 8.4, sums[0.21])
}
