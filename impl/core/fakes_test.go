package core

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"
	"ywbilling/entity"
	"ywbilling/internal/invoice/pdf"
	"ywbilling/internal/paysera"

	"github.com/stripe/stripe-go/v76"
)

type fakeInvoices struct {
	mu       sync.Mutex
	seq      map[string]int
	invoices map[string]*entity.Invoice
	saveErr  error
}

func newFakeInvoices(list ...*entity.Invoice) *fakeInvoices {
	f := &fakeInvoices{seq: map[string]int{}, invoices: map[string]*entity.Invoice{}}
	for _, inv := range list {
		f.invoices[inv.Id] = inv
	}
	return f
}

func (f *fakeInvoices) NextSequence(_ context.Context, series string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq[series]++
	return f.seq[series], nil
}

func (f *fakeInvoices) SaveInvoice(_ context.Context, inv *entity.Invoice) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invoices[inv.Id] = inv
	return nil
}

func (f *fakeInvoices) GetInvoice(_ context.Context, id string) (*entity.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.invoices {
		if inv.Id == id || inv.InvoiceNumber == id {
			return inv, nil
		}
	}
	return nil, nil
}

func (f *fakeInvoices) InvoiceByOrder(_ context.Context, orderId string) (*entity.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.invoices {
		if inv.OrderId == orderId {
			return inv, nil
		}
	}
	return nil, nil
}

func (f *fakeInvoices) InvoicesDue(_ context.Context, before time.Time) ([]*entity.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var list []*entity.Invoice
	for _, inv := range f.invoices {
		if inv.Status == entity.InvoiceIssued && inv.DueDate.Before(before) {
			list = append(list, inv)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].InvoiceNumber < list[j].InvoiceNumber })
	return list, nil
}

func (f *fakeInvoices) InvoicesByEmail(_ context.Context, email string) ([]*entity.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var list []*entity.Invoice
	for _, inv := range f.invoices {
		if inv.Buyer.Email == email {
			list = append(list, inv)
		}
	}
	return list, nil
}

func (f *fakeInvoices) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.invoices)
}

type fakeOrders struct {
	mu      sync.Mutex
	orders  map[string]*entity.Order
	notes   map[string][]string
	stripe  map[string]string
	loadErr error
}

func newFakeOrders(list ...*entity.Order) *fakeOrders {
	f := &fakeOrders{orders: map[string]*entity.Order{}, notes: map[string][]string{}, stripe: map[string]string{}}
	for _, o := range list {
		f.orders[o.Id] = o
	}
	return f
}

func (f *fakeOrders) Order(_ context.Context, id string) (*entity.Order, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, nil
	}
	c := *o
	return &c, nil
}

func (f *fakeOrders) OrdersByEmail(_ context.Context, email string) ([]*entity.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := make([]*entity.Order, 0)
	for _, o := range f.orders {
		if o.CustomerEmail == email {
			list = append(list, o)
		}
	}
	return list, nil
}

func (f *fakeOrders) CreateOrder(_ context.Context, order *entity.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if order.Id == "" {
		order.Id = "created-1"
	}
	c := *order
	f.orders[order.Id] = &c
	return nil
}

func (f *fakeOrders) MarkPaid(_ context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return errors.New("no such order")
	}
	o.Status = entity.OrderProcessing
	o.PaymentStatus = entity.OrderPaymentPaid
	o.PaidAt = &at
	return nil
}

func (f *fakeOrders) AppendNote(_ context.Context, id, line string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes[id] = append(f.notes[id], line)
	return nil
}

func (f *fakeOrders) SetInvoice(_ context.Context, id, invoiceId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.orders[id]; ok {
		o.InvoiceId = invoiceId
	}
	return nil
}

func (f *fakeOrders) SetStripePayment(_ context.Context, id, sessionId, paymentIntent string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stripe[id] = sessionId + "/" + paymentIntent
	return nil
}

func (f *fakeOrders) get(id string) *entity.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orders[id]
}

type fakeStripe struct {
	session *stripe.CheckoutSession
	err     error
	links   int
}

func (f *fakeStripe) ParseEvent(payload []byte, header string) (*stripe.Event, error) {
	if header != "valid" {
		return nil, errors.New("signature mismatch")
	}
	return &stripe.Event{ID: "evt_1", Type: stripe.EventTypeCheckoutSessionCompleted}, nil
}

func (f *fakeStripe) CheckoutSession(_ *stripe.Event) (*stripe.CheckoutSession, error) {
	return f.session, f.err
}

func (f *fakeStripe) PayOrder(order *entity.Order) (*entity.PaymentLink, error) {
	f.links++
	return &entity.PaymentLink{OrderId: order.Id, Amount: paysera.Cents(order.Total), Link: "https://checkout.stripe.com/c/pay/cs_1"}, nil
}

type fakeRenderer struct {
	locale pdf.Locale
}

func (f *fakeRenderer) Generate(inv *entity.Invoice, locale pdf.Locale) ([]byte, error) {
	f.locale = locale
	return []byte("%PDF-" + inv.InvoiceNumber), nil
}

var testNow = time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC)

func newTestCore(invoices *fakeInvoices, orders *fakeOrders) (*Core, *fakeRenderer) {
	renderer := &fakeRenderer{}
	c := New(entity.DefaultInvoiceSettings(), renderer, slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.now = func() time.Time { return testNow }
	if invoices != nil {
		c.SetInvoiceStore(invoices)
	}
	if orders != nil {
		c.SetOrderStore(orders)
	}
	c.SetPaysera(paysera.New(paysera.Config{
		ProjectId:    "123",
		SignPassword: "secret",
		SiteURL:      "https://yakiwood.lt",
	}))
	return c, renderer
}

func pendingOrder() *entity.Order {
	return &entity.Order{
		Id:            "order-1",
		OrderNumber:   "YW-ORD-1",
		CustomerEmail: "jonas@example.com",
		CustomerName:  "Jonas Jonaitis",
		Items: []*entity.OrderItem{
			{Id: "p1", Name: "Shou sugi ban board", Quantity: 2, BasePrice: 60.5},
		},
		Subtotal:      100,
		VatAmount:     21,
		Total:         121,
		Currency:      "EUR",
		Status:        entity.OrderPending,
		PaymentStatus: entity.OrderPaymentPending,
	}
}
