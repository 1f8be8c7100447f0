package pdf

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"ywbilling/entity"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

const (
	DefaultPageSize = "A4"
	DefaultMargin   = 15.0
	DefaultMaxItems = 500
	DefaultBrand    = "YAKIWOOD"

	fontFamily   = "Helvetica"
	headerHeight = 28.0
	footerSpace  = 12.0
	maxRowLines  = 12
)

// Options are the layout constants of a rendered invoice
type Options struct {
	PageSize string
	Margin   float64
	MaxItems int
	Brand    string
}

// Generator renders invoices to PDF. The same invoice and locale always
// produce the same bytes.
type Generator struct {
	opts Options
}

// page formats known to fpdf that fit the layout
var pageSizes = map[string]bool{"a3": true, "a4": true, "a5": true, "letter": true, "legal": true}

func NewGenerator(opts Options) (*Generator, error) {
	if opts.PageSize == "" {
		opts.PageSize = DefaultPageSize
	}
	if !pageSizes[strings.ToLower(opts.PageSize)] {
		return nil, &PageSizeError{PageSize: opts.PageSize}
	}
	if opts.Margin <= 0 {
		opts.Margin = DefaultMargin
	}
	if opts.MaxItems <= 0 {
		opts.MaxItems = DefaultMaxItems
	}
	if opts.Brand == "" {
		opts.Brand = DefaultBrand
	}
	return &Generator{opts: opts}, nil
}

func (g *Generator) Generate(inv *entity.Invoice, locale Locale) ([]byte, error) {
	if err := g.check(inv); err != nil {
		return nil, err
	}
	d, err := newDocument(g.opts, inv, locale)
	if err != nil {
		return nil, err
	}
	if err = d.render(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}

	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *Generator) check(inv *entity.Invoice) error {
	if inv == nil || len(inv.Items) == 0 {
		number := ""
		if inv != nil {
			number = inv.InvoiceNumber
		}
		return &EmptyInvoiceError{InvoiceNumber: number}
	}
	if len(inv.Items) > g.opts.MaxItems {
		return &TooManyItemsError{Count: len(inv.Items), Max: g.opts.MaxItems}
	}
	amounts := []amount{
		{"subtotal", inv.Subtotal},
		{"total_vat", inv.TotalVat},
		{"total", inv.Total},
	}
	for i, item := range inv.Items {
		if item == nil {
			return &EmptyInvoiceError{InvoiceNumber: inv.InvoiceNumber}
		}
		prefix := fmt.Sprintf("items[%d].", i)
		amounts = append(amounts,
			amount{prefix + "quantity", item.Quantity},
			amount{prefix + "unit_price", item.UnitPrice},
			amount{prefix + "vat_rate", item.VatRate},
			amount{prefix + "total", item.Total},
		)
	}
	for _, a := range amounts {
		if math.IsNaN(a.value) || math.IsInf(a.value, 0) {
			return &InvalidAmountError{Field: a.field, Value: a.value}
		}
	}
	for i, p := range inv.Payments {
		if p != nil && (math.IsNaN(p.Amount) || math.IsInf(p.Amount, 0)) {
			return &InvalidAmountError{Field: fmt.Sprintf("payments[%d].amount", i), Value: p.Amount}
		}
	}
	return nil
}

type amount struct {
	field string
	value float64
}

type column struct {
	width float64
	align string
}

type document struct {
	pdf    *fpdf.Fpdf
	inv    *entity.Invoice
	lb     labels
	locale Locale
	brand  string
	margin float64
	pageW  float64
	pageH  float64
	y      float64
	cols   []column
}

func newDocument(opts Options, inv *entity.Invoice, locale Locale) (*document, error) {
	p := fpdf.New("P", "mm", opts.PageSize, "")
	if p.Err() {
		return nil, fmt.Errorf("new pdf: %w", p.Error())
	}
	w, h := p.GetPageSize()
	d := &document{
		pdf:    p,
		inv:    inv,
		lb:     labelsFor(locale),
		locale: locale,
		brand:  opts.Brand,
		margin: opts.Margin,
		pageW:  w,
		pageH:  h,
	}
	content := w - 2*opts.Margin
	for _, part := range []struct {
		share float64
		align string
	}{{0.44, "L"}, {0.11, "R"}, {0.08, "L"}, {0.14, "R"}, {0.08, "R"}, {0.15, "R"}} {
		d.cols = append(d.cols, column{width: content * part.share, align: part.align})
	}

	// document metadata carries the issue date only
	stamp := inv.IssueDate
	if stamp.IsZero() {
		stamp = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	p.SetCreationDate(stamp)
	p.SetModificationDate(stamp)
	p.SetCatalogSort(true)
	p.SetCompression(true)
	p.SetTitle(d.lb.invoiceTitle+" "+inv.InvoiceNumber, true)
	p.SetAuthor(inv.Seller.DisplayName(), true)
	p.SetCreator(opts.Brand, true)
	p.SetMargins(opts.Margin, opts.Margin, opts.Margin)
	p.SetAutoPageBreak(false, 0)
	p.AliasNbPages("")
	p.SetFooterFunc(d.pageFooter)
	return d, nil
}

// render stops at the first section that leaves fpdf in an error state
func (d *document) render() error {
	for _, section := range []func(){d.pdf.AddPage, d.header, d.parties, d.items, d.totals, d.footer} {
		section()
		if d.pdf.Err() {
			return d.pdf.Error()
		}
	}
	return nil
}

func (d *document) contentWidth() float64 {
	return d.pageW - 2*d.margin
}

func (d *document) limit() float64 {
	return d.pageH - d.margin - footerSpace
}

func (d *document) newPage() {
	d.pdf.AddPage()
	d.y = d.margin
}

// ensure starts a new page when h does not fit on the current one
func (d *document) ensure(h float64) bool {
	if d.y+h <= d.limit() {
		return false
	}
	d.newPage()
	return true
}

func (d *document) text(x, y float64, s string) {
	d.pdf.Text(x, y, encodeText(s))
}

func (d *document) textRight(x, y float64, s string) {
	enc := encodeText(s)
	d.pdf.Text(x-d.pdf.GetStringWidth(enc), y, enc)
}

func (d *document) pageFooter() {
	p := d.pdf
	p.SetFont(fontFamily, "", 7)
	p.SetTextColor(120, 120, 120)
	p.SetXY(d.margin, d.pageH-d.margin+3)
	line := fmt.Sprintf(d.lb.page, p.PageNo(), "{nb}")
	p.CellFormat(d.contentWidth(), 4, encodeText(line), "", 0, "R", false, 0, "")
	p.SetTextColor(0, 0, 0)
}

func (d *document) header() {
	p := d.pdf
	p.SetFillColor(22, 22, 22)
	p.Rect(0, 0, d.pageW, headerHeight, "F")

	p.SetTextColor(255, 255, 255)
	p.SetFont(fontFamily, "", 26)
	d.text(d.margin, 18, d.brand)

	title := d.inv.DocumentTitle
	if title == "" {
		title = d.lb.headerFallback
	}
	p.SetFont(fontFamily, "", 9)
	d.textRight(d.pageW-d.margin, 18, title)

	p.SetTextColor(0, 0, 0)
	p.SetFont(fontFamily, "B", 16)
	d.text(d.margin, headerHeight+17, d.lb.invoiceTitle)
	d.y = headerHeight + 27
}

func (d *document) partyLines(a entity.InvoiceAddress, withLabel bool) []string {
	name := a.DisplayName()
	if name == "" {
		name = "-"
	}
	lines := []string{name}
	if a.CompanyName != "" && a.Name != "" && a.Name != a.CompanyName {
		lines = append(lines, a.Name)
	}
	if a.CompanyCode != "" {
		lines = append(lines, d.lb.companyCode+" "+a.CompanyCode)
	}
	if a.VatCode != "" {
		lines = append(lines, d.lb.vatCode+" "+a.VatCode)
	}
	address := a.Address
	if address == "" {
		address = "-"
	}
	if withLabel {
		address = d.lb.address + " " + address
	}
	lines = append(lines, address)
	if city := strings.TrimSpace(a.PostalCode + " " + a.City); city != "" {
		lines = append(lines, city)
	}
	country := countryName(a.Country)
	if country == "" {
		country = "-"
	}
	lines = append(lines, country)
	if a.Email != "" {
		lines = append(lines, d.lb.email+" "+a.Email)
	}
	if a.Phone != "" {
		lines = append(lines, d.lb.phone+" "+a.Phone)
	}
	return lines
}

func (d *document) parties() {
	p := d.pdf
	content := d.contentWidth()
	xs := []float64{d.margin, d.margin + content*0.39, d.margin + content*0.67}
	widths := []float64{content*0.39 - 3, content*0.28 - 3, content * 0.33}

	orderNo := d.inv.OrderNumber
	if orderNo == "" {
		orderNo = d.inv.InvoiceNumber
	}
	docLines := []string{
		d.lb.seriesNumber + " " + d.inv.InvoiceNumber,
		d.lb.issueDate + " " + formatDate(d.inv.IssueDate, d.locale),
		d.lb.dueDate + " " + formatDate(d.inv.DueDate, d.locale),
		d.lb.orderNumber + " " + orderNo,
	}
	columns := [][]string{
		d.partyLines(d.inv.Seller, true),
		d.partyLines(d.inv.Buyer, false),
		docLines,
	}
	headings := []string{d.lb.seller, d.lb.buyer, d.lb.document}

	const lineH = 4.0
	top := d.y
	bottom := top
	for i, lines := range columns {
		p.SetFont(fontFamily, "B", 8.5)
		d.text(xs[i], top, headings[i])
		p.SetFont(fontFamily, "", 8.2)
		y := top + 7
		for _, line := range lines {
			for _, part := range splitText(p, line, widths[i]) {
				p.Text(xs[i], y, part)
				y += lineH
			}
		}
		if y > bottom {
			bottom = y
		}
	}
	d.y = math.Max(bottom+6, headerHeight+67)
}

func (d *document) tableHeader() {
	p := d.pdf
	p.SetFont(fontFamily, "B", 9)
	p.SetFillColor(245, 245, 245)
	x := d.margin
	for i, col := range d.cols {
		p.SetXY(x, d.y)
		p.CellFormat(col.width, 8, encodeText(d.lb.columns[i]), "", 0, col.align, true, 0, "")
		x += col.width
	}
	d.y += 8
	p.SetFont(fontFamily, "", 9)
}

func (d *document) items() {
	p := d.pdf
	const (
		lineH = 4.5
		pad   = 1.5
	)
	d.tableHeader()
	p.SetDrawColor(220, 220, 220)
	currency := d.inv.CurrencyCode()
	for _, item := range d.inv.Items {
		name := item.Name
		if strings.TrimSpace(name) == "" {
			name = "-"
		}
		lines := splitText(p, name, d.cols[0].width-2)
		if item.Description != "" {
			lines = append(lines, splitText(p, item.Description, d.cols[0].width-2)...)
		}
		if len(lines) > maxRowLines {
			lines = lines[:maxRowLines]
		}
		rowH := float64(len(lines))*lineH + 2*pad
		if d.ensure(rowH) {
			d.tableHeader()
		}

		unit := item.Unit
		if unit == "" {
			unit = "vnt"
		}
		net := item.TotalExclVat
		if net == 0 && item.Quantity != 0 && item.UnitPrice != 0 {
			net = decimalRound(item.Quantity * item.UnitPrice)
		}
		cells := []string{
			"",
			formatQuantity(item.Quantity, d.locale),
			unit,
			formatMoney(item.UnitPrice, currency, d.locale),
			formatRate(item.VatRate, d.locale),
			formatMoney(net, currency, d.locale),
		}

		x := d.margin
		for i, line := range lines {
			p.SetXY(x, d.y+pad+float64(i)*lineH)
			p.CellFormat(d.cols[0].width, lineH, line, "", 0, "L", false, 0, "")
		}
		x += d.cols[0].width
		for i := 1; i < len(d.cols); i++ {
			p.SetXY(x, d.y+pad)
			p.CellFormat(d.cols[i].width, lineH, encodeText(cells[i]), "", 0, d.cols[i].align, false, 0, "")
			x += d.cols[i].width
		}
		d.y += rowH
		p.Line(d.margin, d.y, d.margin+d.contentWidth(), d.y)
	}
}

// vatByRate sums unrounded line VAT per distinct rate, ascending by rate
func (d *document) vatByRate() ([]float64, map[float64]float64) {
	sums := make(map[float64]decimal.Decimal)
	for _, item := range d.inv.Items {
		line := decimal.NewFromFloat(item.Quantity).
			Mul(decimal.NewFromFloat(item.UnitPrice)).
			Mul(decimal.NewFromFloat(item.VatRate))
		sums[item.VatRate] = sums[item.VatRate].Add(line)
	}
	rates := make([]float64, 0, len(sums))
	out := make(map[float64]float64, len(sums))
	for rate, sum := range sums {
		rates = append(rates, rate)
		out[rate], _ = sum.Round(2).Float64()
	}
	sort.Float64s(rates)
	return rates, out
}

func (d *document) totals() {
	p := d.pdf
	currency := d.inv.CurrencyCode()
	rates, vat := d.vatByRate()

	type row struct {
		label string
		value float64
		bold  bool
		gap   bool
	}
	rows := []row{{label: d.lb.subtotal, value: d.inv.Subtotal}}
	for _, rate := range rates {
		rows = append(rows, row{label: fmt.Sprintf(d.lb.vatRate, formatRate(rate, d.locale)), value: vat[rate]})
	}
	if len(rates) > 1 {
		rows = append(rows, row{label: d.lb.vatAmount, value: d.inv.TotalVat})
	}
	rows = append(rows,
		row{label: d.lb.totalInclVat, value: d.inv.Total, bold: true},
		row{label: d.lb.advancePaid, value: d.inv.AdvancePaid(), gap: true},
		row{label: d.lb.remainingDue, value: d.inv.RemainingDue(), bold: true},
	)

	const lineH = 6.0
	d.y += 10
	if d.ensure(float64(len(rows))*lineH + 4) {
		d.y += 4
	}
	right := d.pageW - d.margin
	labelX := right - 55
	for _, r := range rows {
		if r.gap {
			d.y += 4
		}
		style := ""
		if r.bold {
			style = "B"
		}
		p.SetFont(fontFamily, style, 9)
		d.textRight(labelX, d.y, r.label)
		d.textRight(right, d.y, formatMoney(r.value, currency, d.locale))
		d.y += lineH
	}
}

func (d *document) footer() {
	p := d.pdf
	const lineH = 4.0
	width := d.contentWidth()

	section := func(title string, lines []string) {
		if len(lines) == 0 {
			return
		}
		d.y += 4
		d.ensure(2 * lineH)
		p.SetFont(fontFamily, "B", 8.5)
		d.text(d.margin, d.y, title)
		d.y += lineH + 1
		p.SetFont(fontFamily, "", 8)
		for _, line := range lines {
			for _, part := range splitText(p, line, width) {
				if d.ensure(lineH) {
					p.SetFont(fontFamily, "", 8)
				}
				p.Text(d.margin, d.y, part)
				d.y += lineH
			}
		}
	}

	d.y += 4
	var bank []string
	if d.inv.BankName != "" {
		bank = append(bank, d.lb.bank+" "+d.inv.BankName)
	}
	if d.inv.BankAccount != "" {
		bank = append(bank, d.lb.account+" "+d.inv.BankAccount)
	}
	if d.inv.Swift != "" {
		bank = append(bank, d.lb.swift+" "+d.inv.Swift)
	}
	section(d.lb.bankDetails, bank)
	section(d.lb.notes, nonEmpty(d.inv.Notes))
	section(d.lb.terms, nonEmpty(d.inv.TermsAndConditions))
}

func nonEmpty(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func decimalRound(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
