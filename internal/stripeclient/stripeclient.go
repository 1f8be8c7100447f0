package stripeclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"ywbilling/entity"
	"ywbilling/internal/config"
	"ywbilling/lib/sl"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

const (
	metadataOrderId = "order_id"
	metadataItems   = "items"
)

var (
	ErrNotConfigured = errors.New("stripe is not configured")
	ErrNoSignature   = errors.New("no stripe signature provided")
)

type StripeClient struct {
	sc            *client.API
	apiKey        string
	webhookSecret string
	successUrl    string
	cancelUrl     string
	log           *slog.Logger
}

func New(conf *config.Config, logger *slog.Logger) *StripeClient {
	sc := &client.API{}
	sc.Init(conf.Stripe.APIKey, nil)
	log := logger.With(sl.Module("stripe"))
	log.With(
		sl.Secret("api_key", conf.Stripe.APIKey),
		sl.Secret("webhook_secret", conf.Stripe.WebhookSecret),
	).Debug("stripe client")
	return &StripeClient{
		sc:            sc,
		apiKey:        conf.Stripe.APIKey,
		webhookSecret: conf.Stripe.WebhookSecret,
		successUrl:    conf.Stripe.SuccessURL,
		cancelUrl:     conf.Stripe.CancelURL,
		log:           log,
	}
}

func (s *StripeClient) Configured() bool {
	return s.webhookSecret != "" && s.apiKey != ""
}

// ParseEvent verifies the Stripe-Signature header and decodes the event
func (s *StripeClient) ParseEvent(payload []byte, header string) (*stripe.Event, error) {
	if s.webhookSecret == "" {
		return nil, ErrNotConfigured
	}
	if header == "" {
		return nil, ErrNoSignature
	}
	evt, err := webhook.ConstructEventWithOptions(payload, header, s.webhookSecret, webhook.ConstructEventOptions{
		Tolerance:                webhook.DefaultTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("verify event: %w", err)
	}
	return &evt, nil
}

// CheckoutSession reads the session of a checkout event; line items are
// fetched from the API when possible, the event copy is used otherwise
func (s *StripeClient) CheckoutSession(evt *stripe.Event) (*stripe.CheckoutSession, error) {
	if evt.Data == nil {
		return nil, fmt.Errorf("event %s has no data", evt.ID)
	}
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(evt.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	if s.apiKey == "" || sess.ID == "" {
		return &sess, nil
	}
	full, err := s.sc.CheckoutSessions.Get(sess.ID, &stripe.CheckoutSessionParams{
		Expand: []*string{
			stripe.String("line_items"),
		},
	})
	if err != nil {
		s.log.With(
			slog.String("session_id", sess.ID),
			sl.Err(s.parseErr(err)),
		).Warn("get session from stripe")
		return &sess, nil
	}
	return full, nil
}

// PayOrder creates a hosted checkout session for the order gross amounts
func (s *StripeClient) PayOrder(order *entity.Order) (*entity.PaymentLink, error) {
	if s.apiKey == "" {
		return nil, ErrNotConfigured
	}
	if s.successUrl == "" {
		return nil, fmt.Errorf("missing success url")
	}
	if order.CustomerEmail == "" {
		return nil, fmt.Errorf("missing email address")
	}
	log := s.log.With(
		slog.String("order_id", order.Id),
		sl.Money("total", order.Total),
		slog.String("currency", order.CurrencyCode()),
	)

	params := s.sessionParams(order)
	cs, err := s.sc.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout session: %w", s.parseErr(err))
	}

	log.With(slog.String("session_id", cs.ID)).Info("payment link created")
	return &entity.PaymentLink{
		OrderId: order.Id,
		Amount:  cs.AmountTotal,
		Link:    cs.URL,
	}, nil
}

func (s *StripeClient) sessionParams(order *entity.Order) *stripe.CheckoutSessionParams {
	currency := strings.ToLower(order.CurrencyCode())
	var lineItems []*stripe.CheckoutSessionLineItemParams
	for _, item := range order.Items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
				UnitAmount: stripe.Int64(cents(item.BasePrice)),
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}
	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:     lineItems,
		Metadata:      map[string]string{metadataOrderId: order.Id},
		SuccessURL:    stripe.String(s.successUrl),
		CustomerEmail: stripe.String(strings.TrimSpace(order.CustomerEmail)),
	}
	if s.cancelUrl != "" {
		params.CancelURL = stripe.String(s.cancelUrl)
	}
	return params
}

// SessionOrderId is the storefront order the session was created for
func SessionOrderId(sess *stripe.CheckoutSession) string {
	if sess.Metadata == nil {
		return ""
	}
	if id := sess.Metadata[metadataOrderId]; id != "" {
		return id
	}
	return sess.Metadata["orderId"]
}

// OrderFromSession builds a storefront order for a session that was not
// started from one; cart items travel in the session metadata
func OrderFromSession(sess *stripe.CheckoutSession, now time.Time) (*entity.Order, error) {
	email := sess.CustomerEmail
	name := "Guest"
	order := &entity.Order{
		OrderNumber:   "ST-" + strings.TrimPrefix(sess.ID, "cs_"),
		Total:         major(sess.AmountTotal),
		Subtotal:      major(sess.AmountSubtotal),
		Currency:      strings.ToUpper(string(sess.Currency)),
		Status:        entity.OrderPending,
		PaymentStatus: entity.OrderPaymentPending,
		CreatedAt:     now,
	}
	if d := sess.CustomerDetails; d != nil {
		if d.Email != "" {
			email = d.Email
		}
		if d.Name != "" {
			name = d.Name
		}
		order.CustomerPhone = d.Phone
		if a := d.Address; a != nil {
			order.CustomerAddress = strings.TrimSpace(strings.Join(nonEmpty(a.Line1, a.PostalCode, a.City), ", "))
			order.CustomerCountry = a.Country
		}
	}
	if email == "" {
		return nil, fmt.Errorf("no customer email found in session %s", sess.ID)
	}
	order.CustomerEmail = email
	order.CustomerName = name
	if sess.TotalDetails != nil {
		order.VatAmount = major(sess.TotalDetails.AmountTax)
	}
	if order.Currency == "" {
		order.Currency = entity.DefaultCurrency
	}
	if raw := sess.Metadata[metadataItems]; raw != "" {
		items, err := entity.ParseOrderItems([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("session %s items: %w", sess.ID, err)
		}
		order.Items = items
	}
	return order, nil
}

// PaymentIntentId is empty when the session carries no intent
func PaymentIntentId(sess *stripe.CheckoutSession) string {
	if sess.PaymentIntent == nil {
		return ""
	}
	return sess.PaymentIntent.ID
}

func cents(amount float64) int64 {
	return decimal.NewFromFloat(amount).Shift(2).Round(0).IntPart()
}

func major(amount int64) float64 {
	return decimal.New(amount, -2).InexactFloat64()
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
