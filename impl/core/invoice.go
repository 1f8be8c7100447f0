package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"ywbilling/entity"
	"ywbilling/internal/invoice"
	"ywbilling/internal/invoice/pdf"
	"ywbilling/lib/clock"
	"ywbilling/lib/sl"
)

// InvoicePDF renders a stored invoice; customers get only their own invoices
func (c *Core) InvoicePDF(ctx context.Context, id, locale string, user *entity.User) ([]byte, string, error) {
	if c.invoices == nil || c.renderer == nil {
		return nil, "", notConfigured("invoice store")
	}
	inv, err := c.invoices.GetInvoice(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if inv == nil {
		return nil, "", &NotFoundError{Kind: "invoice", Id: id}
	}
	if err = canRead(user, inv); err != nil {
		return nil, "", err
	}

	data, err := c.renderer.Generate(inv, pdf.ParseLocale(locale, c.locale))
	if err != nil {
		return nil, "", err
	}
	return data, invoice.Filename(inv.InvoiceNumber), nil
}

func canRead(user *entity.User, inv *entity.Invoice) error {
	if user == nil {
		return &ForbiddenError{Reason: "no user"}
	}
	if user.IsAdmin() {
		return nil
	}
	if user.Email == "" || !strings.EqualFold(strings.TrimSpace(user.Email), strings.TrimSpace(inv.Buyer.Email)) {
		return &ForbiddenError{Reason: "invoice belongs to another customer"}
	}
	return nil
}

func (c *Core) GenerateInvoice(ctx context.Context, req *entity.GenerateRequest) (*entity.Invoice, error) {
	if c.invoices == nil {
		return nil, notConfigured("invoice store")
	}
	seq, err := c.invoices.NextSequence(ctx, c.settings.Series)
	if err != nil {
		return nil, err
	}
	inv, err := invoice.Build(req, c.settings, seq, c.today())
	if err != nil {
		return nil, err
	}
	if err = c.invoices.SaveInvoice(ctx, inv); err != nil {
		return nil, fmt.Errorf("save invoice: %w", err)
	}
	c.log.With(
		slog.String("number", inv.InvoiceNumber),
		slog.String("buyer", inv.Buyer.DisplayName()),
		sl.Money("total", inv.Total),
		sl.Topic(entity.TopicInvoice),
	).Info("invoice issued")
	return inv, nil
}

func (c *Core) ChangeInvoiceStatus(ctx context.Context, id string, status entity.InvoiceStatus) (*entity.Invoice, error) {
	if c.invoices == nil {
		return nil, notConfigured("invoice store")
	}
	inv, err := c.invoices.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, &NotFoundError{Kind: "invoice", Id: id}
	}
	next, err := inv.Transition(status, c.today())
	if err != nil {
		return nil, err
	}
	if err = c.invoices.SaveInvoice(ctx, next); err != nil {
		return nil, fmt.Errorf("save invoice: %w", err)
	}
	c.log.With(
		slog.String("number", next.InvoiceNumber),
		slog.String("from", string(inv.Status)),
		slog.String("to", string(next.Status)),
		sl.Topic(entity.TopicInvoice),
	).Info("invoice status changed")
	return next, nil
}

// AccountInvoices lists invoices issued to the user's email
func (c *Core) AccountInvoices(ctx context.Context, user *entity.User) ([]*entity.Invoice, error) {
	if c.invoices == nil {
		return nil, notConfigured("invoice store")
	}
	if user == nil || user.Email == "" {
		return nil, &ForbiddenError{Reason: "user has no email"}
	}
	return c.invoices.InvoicesByEmail(ctx, user.Email)
}

// MarkOverdue moves issued invoices past their due date to overdue
func (c *Core) MarkOverdue(ctx context.Context) (int, error) {
	if c.invoices == nil {
		return 0, notConfigured("invoice store")
	}
	now := c.today()
	due, err := c.invoices.InvoicesDue(ctx, clock.Date(now))
	if err != nil {
		return 0, err
	}
	var errs []error
	count := 0
	for _, inv := range due {
		next, err := inv.Transition(entity.InvoiceOverdue, now)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err = c.invoices.SaveInvoice(ctx, next); err != nil {
			errs = append(errs, fmt.Errorf("save %s: %w", inv.InvoiceNumber, err))
			continue
		}
		count++
		c.log.With(
			slog.String("number", next.InvoiceNumber),
			slog.String("due_date", clock.FormatDate(next.DueDate)),
			sl.Money("total", next.Total),
			sl.Topic(entity.TopicInvoice),
		).Info("invoice overdue")
	}
	return count, errors.Join(errs...)
}
