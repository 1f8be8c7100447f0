package core

import (
	"context"
	"fmt"
	"log/slog"
	"ywbilling/entity"
	"ywbilling/internal/invoice"
	"ywbilling/lib/sl"
)

// settlement is a confirmed provider payment for a storefront order
type settlement struct {
	method      entity.PaymentMethod
	orderNote   string
	invoiceNote string
}

// settle marks the order paid and issues its invoice; invoice failures are
// logged and do not undo the payment. A repeated callback for a paid order
// only issues the invoice if it is still missing.
func (c *Core) settle(ctx context.Context, order *entity.Order, s settlement) error {
	log := c.log.With(
		slog.String("order_id", order.Id),
		slog.String("order_number", order.OrderNumber),
		sl.Money("total", order.Total),
	)
	if !order.IsPaid() {
		if err := c.orders.MarkPaid(ctx, order.Id, c.today()); err != nil {
			return fmt.Errorf("mark order paid: %w", err)
		}
		log.With(
			slog.String("method", string(s.method)),
			sl.Topic(entity.TopicPayment),
		).Info("order paid")

		if s.orderNote != "" {
			if err := c.orders.AppendNote(ctx, order.Id, s.orderNote); err != nil {
				log.With(sl.Err(err)).Warn("append order note")
			}
		}
	}

	inv, err := c.issueForOrder(ctx, order, s)
	if err != nil {
		log.With(
			sl.Err(err),
			sl.Topic(entity.TopicError),
		).Error("issue invoice for paid order")
		return nil
	}
	if inv != nil {
		log.With(
			slog.String("number", inv.InvoiceNumber),
			sl.Money("invoice_total", inv.Total),
			sl.Topic(entity.TopicInvoice),
		).Info("invoice issued for order")
	}
	return nil
}

// issueForOrder returns nil when the order already has an invoice
func (c *Core) issueForOrder(ctx context.Context, order *entity.Order, s settlement) (*entity.Invoice, error) {
	if c.invoices == nil {
		return nil, notConfigured("invoice store")
	}
	existing, err := c.invoices.InvoiceByOrder(ctx, order.Id)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, nil
	}
	seq, err := c.invoices.NextSequence(ctx, c.settings.Series)
	if err != nil {
		return nil, err
	}
	inv, err := invoice.FromOrder(order, c.settings, seq, c.today(), s.method, s.invoiceNote)
	if err != nil {
		return nil, err
	}
	if err = c.invoices.SaveInvoice(ctx, inv); err != nil {
		return nil, fmt.Errorf("save invoice: %w", err)
	}
	if err = c.orders.SetInvoice(ctx, order.Id, inv.Id); err != nil {
		c.log.With(
			slog.String("order_id", order.Id),
			sl.Err(err),
		).Warn("link invoice to order")
	}
	return inv, nil
}

// orderForPayment loads an unpaid order that a provider link can be made for
func (c *Core) orderForPayment(ctx context.Context, orderId string) (*entity.Order, error) {
	if c.orders == nil {
		return nil, notConfigured("orders")
	}
	if orderId == "" {
		return nil, &BadRequestError{Reason: "missing order id"}
	}
	order, err := c.orders.Order(ctx, orderId)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, &NotFoundError{Kind: "order", Id: orderId}
	}
	if order.IsPaid() {
		return nil, &ConflictError{Reason: fmt.Sprintf("order %s is already paid", orderId)}
	}
	return order, nil
}
