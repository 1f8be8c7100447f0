package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"ywbilling/entity"
	"ywbilling/internal/invoice/pdf"
	"ywbilling/internal/paysera"
	"ywbilling/lib/sl"

	"github.com/stripe/stripe-go/v76"
)

type AuthService interface {
	UserByToken(token string) (*entity.User, error)
}

// InvoiceStore is implemented by internal/database
type InvoiceStore interface {
	NextSequence(ctx context.Context, series string) (int, error)
	SaveInvoice(ctx context.Context, inv *entity.Invoice) error
	GetInvoice(ctx context.Context, id string) (*entity.Invoice, error)
	InvoiceByOrder(ctx context.Context, orderId string) (*entity.Invoice, error)
	InvoicesDue(ctx context.Context, before time.Time) ([]*entity.Invoice, error)
	InvoicesByEmail(ctx context.Context, email string) ([]*entity.Invoice, error)
}

// OrderStore is implemented by internal/orders
type OrderStore interface {
	Order(ctx context.Context, id string) (*entity.Order, error)
	OrdersByEmail(ctx context.Context, email string) ([]*entity.Order, error)
	CreateOrder(ctx context.Context, order *entity.Order) error
	MarkPaid(ctx context.Context, id string, at time.Time) error
	AppendNote(ctx context.Context, id, line string) error
	SetInvoice(ctx context.Context, id, invoiceId string) error
	SetStripePayment(ctx context.Context, id, sessionId, paymentIntent string) error
}

type StripeService interface {
	ParseEvent(payload []byte, header string) (*stripe.Event, error)
	CheckoutSession(evt *stripe.Event) (*stripe.CheckoutSession, error)
	PayOrder(order *entity.Order) (*entity.PaymentLink, error)
}

type Renderer interface {
	Generate(inv *entity.Invoice, locale pdf.Locale) ([]byte, error)
}

type Core struct {
	auth     AuthService
	invoices InvoiceStore
	orders   OrderStore
	paysera  *paysera.Checkout
	stripe   StripeService
	renderer Renderer
	settings *entity.InvoiceSettings
	locale   pdf.Locale
	loc      *time.Location
	now      func() time.Time
	log      *slog.Logger
}

func New(settings *entity.InvoiceSettings, renderer Renderer, log *slog.Logger) *Core {
	if settings == nil {
		settings = entity.DefaultInvoiceSettings()
	}
	return &Core{
		settings: settings,
		renderer: renderer,
		locale:   pdf.LocaleLT,
		loc:      time.UTC,
		now:      time.Now,
		log:      log.With(sl.Module("core")),
	}
}

func (c *Core) SetAuthService(auth AuthService) {
	c.auth = auth
}

func (c *Core) SetInvoiceStore(store InvoiceStore) {
	c.invoices = store
}

func (c *Core) SetOrderStore(store OrderStore) {
	c.orders = store
}

func (c *Core) SetPaysera(checkout *paysera.Checkout) {
	c.paysera = checkout
}

func (c *Core) SetStripe(service StripeService) {
	c.stripe = service
}

func (c *Core) SetLocale(locale pdf.Locale) {
	c.locale = locale
}

func (c *Core) SetLocation(loc *time.Location) {
	if loc != nil {
		c.loc = loc
	}
}

// today is the current moment in the business time zone
func (c *Core) today() time.Time {
	return c.now().In(c.loc)
}

func (c *Core) AuthenticateByToken(token string) (*entity.User, error) {
	if c.auth == nil {
		return nil, fmt.Errorf("auth service not connected")
	}
	return c.auth.UserByToken(token)
}
