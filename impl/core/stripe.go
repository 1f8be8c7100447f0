package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"ywbilling/entity"
	"ywbilling/internal/paysera"
	"ywbilling/internal/stripeclient"
	"ywbilling/lib/sl"

	"github.com/stripe/stripe-go/v76"
)

func (c *Core) StripeInit(ctx context.Context, orderId string) (*entity.PaymentLink, error) {
	if c.stripe == nil {
		return nil, notConfigured("stripe")
	}
	order, err := c.orderForPayment(ctx, strings.TrimSpace(orderId))
	if err != nil {
		return nil, err
	}
	return c.stripe.PayOrder(order)
}

// StripeWebhook verifies and handles a webhook delivery
func (c *Core) StripeWebhook(ctx context.Context, payload []byte, header string) error {
	if c.stripe == nil || c.orders == nil {
		return notConfigured("stripe")
	}
	evt, err := c.stripe.ParseEvent(payload, header)
	if err != nil {
		return &BadRequestError{Reason: err.Error()}
	}
	return c.StripeEvent(ctx, evt)
}

func (c *Core) StripeEvent(ctx context.Context, evt *stripe.Event) error {
	log := c.log.With(
		slog.String("event_id", evt.ID),
		slog.String("event_type", string(evt.Type)),
	)
	switch evt.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		return c.stripeCheckoutCompleted(ctx, evt, log)
	case stripe.EventTypePaymentIntentPaymentFailed:
		log.With(sl.Topic(entity.TopicPayment)).Warn("stripe payment failed")
	default:
		log.Debug("stripe event ignored")
	}
	return nil
}

func (c *Core) stripeCheckoutCompleted(ctx context.Context, evt *stripe.Event, log *slog.Logger) error {
	sess, err := c.stripe.CheckoutSession(evt)
	if err != nil {
		return err
	}
	log = log.With(
		slog.String("session_id", sess.ID),
		slog.Int64("amount", sess.AmountTotal),
		slog.String("currency", string(sess.Currency)),
	)
	if sess.PaymentStatus != "" && sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		log.With(slog.String("payment_status", string(sess.PaymentStatus))).Info("stripe session not paid yet")
		return nil
	}

	var order *entity.Order
	if orderId := stripeclient.SessionOrderId(sess); orderId != "" {
		order, err = c.orders.Order(ctx, orderId)
		if err != nil {
			return fmt.Errorf("load order: %w", err)
		}
		if order == nil {
			log.With(slog.String("order_id", orderId)).Error("stripe session: order not found")
			return nil
		}
	} else {
		order, err = stripeclient.OrderFromSession(sess, c.today())
		if err != nil {
			return &BadRequestError{Reason: err.Error()}
		}
		if err = c.orders.CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		log.With(slog.String("order_id", order.Id)).Info("order created from stripe session")
	}

	if sess.Currency != "" && !strings.EqualFold(string(sess.Currency), order.CurrencyCode()) {
		log.With(
			slog.String("order_currency", order.CurrencyCode()),
			sl.Topic(entity.TopicPayment),
		).Error("stripe currency mismatch")
		return nil
	}
	if sess.AmountTotal > 0 && !centsMatch(sess.AmountTotal, paysera.Cents(order.Total)) {
		log.With(
			sl.Money("order_total", order.Total),
			sl.Topic(entity.TopicPayment),
		).Error("stripe amount mismatch")
		return nil
	}
	if !order.IsPaid() {
		if err = c.orders.SetStripePayment(ctx, order.Id, sess.ID, stripeclient.PaymentIntentId(sess)); err != nil {
			log.With(sl.Err(err)).Warn("save stripe payment ids")
		}
	}
	return c.settle(ctx, order, settlement{
		method:      entity.PaymentStripe,
		invoiceNote: fmt.Sprintf("Order %s. Paid via Stripe.", order.OrderNumber),
	})
}
