package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"ywbilling/entity"
	"ywbilling/internal/paysera"
	"ywbilling/lib/sl"
)

const ackOK = "OK"

func (c *Core) PayseraInit(ctx context.Context, orderId string) (*entity.PaymentLink, error) {
	if c.paysera == nil || !c.paysera.Configured() {
		return nil, notConfigured("paysera")
	}
	order, err := c.orderForPayment(ctx, strings.TrimSpace(orderId))
	if err != nil {
		return nil, err
	}
	link, amount, err := c.paysera.PaymentURL(order)
	if err != nil {
		if errors.Is(err, paysera.ErrInvalidAmount) {
			return nil, &BadRequestError{Reason: "invalid order amount"}
		}
		return nil, err
	}
	c.log.With(
		slog.String("order_id", order.Id),
		slog.Int64("amount", amount),
	).Debug("paysera payment link")
	return &entity.PaymentLink{
		OrderId: order.Id,
		Amount:  amount,
		Link:    link,
	}, nil
}

// PayseraCallback returns the plain text reply and its status code. Every
// verified callback is acknowledged with OK so the provider stops retrying;
// only a paid callback matching an unpaid order settles it.
func (c *Core) PayseraCallback(ctx context.Context, data, ss1 string) (string, int) {
	if c.paysera == nil || !c.paysera.Configured() || c.orders == nil {
		return "Service not configured", http.StatusServiceUnavailable
	}
	cb, err := c.paysera.ParseCallback(data, ss1)
	if err != nil {
		c.log.With(sl.Err(err)).Warn("paysera callback rejected")
		switch {
		case errors.Is(err, paysera.ErrNotConfigured):
			return "Service not configured", http.StatusServiceUnavailable
		case errors.Is(err, paysera.ErrMissingData):
			return "Missing data", http.StatusBadRequest
		case errors.Is(err, paysera.ErrMissingSignature):
			return "Missing signature", http.StatusBadRequest
		case errors.Is(err, paysera.ErrInvalidSignature):
			return "Invalid signature", http.StatusBadRequest
		}
		return "Bad data", http.StatusBadRequest
	}

	log := c.log.With(
		slog.String("order_id", cb.OrderId),
		slog.String("status", cb.Status),
		slog.Bool("test", cb.Test),
		slog.String("request_id", cb.RequestId),
	)
	if !cb.Paid() {
		log.Debug("paysera callback not paid")
		return ackOK, http.StatusOK
	}
	if cb.Test && !c.paysera.AllowTestPayments() {
		log.Warn("paysera test callback ignored")
		return ackOK, http.StatusOK
	}
	if cb.OrderId == "" {
		return ackOK, http.StatusOK
	}

	order, err := c.orders.Order(ctx, cb.OrderId)
	if err != nil {
		log.With(sl.Err(err)).Error("paysera callback: load order")
		return "Internal error", http.StatusInternalServerError
	}
	if order == nil {
		log.Error("paysera callback: order not found")
		return ackOK, http.StatusOK
	}
	if cb.Currency != "" && cb.Currency != strings.ToUpper(order.CurrencyCode()) {
		log.With(
			slog.String("pay_currency", cb.Currency),
			slog.String("order_currency", order.CurrencyCode()),
			sl.Topic(entity.TopicPayment),
		).Error("paysera currency mismatch")
		return ackOK, http.StatusOK
	}
	if cb.HasAmount && !centsMatch(cb.Amount, paysera.Cents(order.Total)) {
		log.With(
			slog.Int64("pay_amount", cb.Amount),
			sl.Money("order_total", order.Total),
			sl.Topic(entity.TopicPayment),
		).Error("paysera amount mismatch")
		return ackOK, http.StatusOK
	}
	err = c.settle(ctx, order, settlement{
		method:      entity.PaymentBankTransfer,
		orderNote:   payseraNote(cb),
		invoiceNote: fmt.Sprintf("Order %s. Paid via Paysera.", order.OrderNumber),
	})
	if err != nil {
		log.With(sl.Err(err)).Error("paysera settlement")
		return "Internal error", http.StatusInternalServerError
	}
	return ackOK, http.StatusOK
}

func payseraNote(cb *paysera.Callback) string {
	note := "Paysera mokėjimas"
	if cb.RequestId != "" {
		note += " requestid=" + cb.RequestId
	}
	if cb.Payment != "" {
		note += " payment=" + cb.Payment
	}
	return note
}

// centsMatch allows one minor unit of rounding difference
func centsMatch(a, b int64) bool {
	d := a - b
	return d >= -1 && d <= 1
}
