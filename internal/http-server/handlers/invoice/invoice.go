package invoice

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"ywbilling/entity"
	"ywbilling/internal/http-server/handlers/errors"
	"ywbilling/lib/api/cont"
	"ywbilling/lib/api/response"
	"ywbilling/lib/sl"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	InvoicePDF(ctx context.Context, id, locale string, user *entity.User) ([]byte, string, error)
	GenerateInvoice(ctx context.Context, req *entity.GenerateRequest) (*entity.Invoice, error)
	ChangeInvoiceStatus(ctx context.Context, id string, status entity.InvoiceStatus) (*entity.Invoice, error)
	AccountInvoices(ctx context.Context, user *entity.User) ([]*entity.Invoice, error)
}

func requestLog(log *slog.Logger, r *http.Request) *slog.Logger {
	return log.With(
		sl.Module("http.handlers.invoice"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

func List(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLog(log, r)

		if handler == nil {
			logger.Error("invoice service not available")
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error(response.CodeUnavailable, "Invoice service not available"))
			return
		}

		list, err := handler.AccountInvoices(r.Context(), cont.User(r.Context()))
		if err != nil {
			errors.Respond(w, r, logger, err)
			return
		}
		logger.With(slog.Int("count", len(list))).Debug("invoices listed")

		render.JSON(w, r, response.Ok(list))
	}
}

// Download streams the rendered invoice document
func Download(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		invoiceId := chi.URLParam(r, "id")
		locale := r.URL.Query().Get("locale")
		logger := requestLog(log, r).With(
			slog.String("invoice_id", invoiceId),
			slog.String("locale", locale),
		)

		if handler == nil {
			logger.Error("invoice service not available")
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error(response.CodeUnavailable, "Invoice service not available"))
			return
		}

		data, filename, err := handler.InvoicePDF(r.Context(), invoiceId, locale, cont.User(r.Context()))
		if err != nil {
			errors.Respond(w, r, logger, err)
			return
		}

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.WriteHeader(http.StatusOK)
		if _, err = w.Write(data); err != nil {
			logger.Error("write document", sl.Err(err))
		}
	}
}

func Generate(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLog(log, r)

		if handler == nil {
			logger.Error("invoice service not available")
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error(response.CodeUnavailable, "Invoice service not available"))
			return
		}

		var req entity.GenerateRequest
		if err := render.Bind(r, &req); err != nil {
			logger.Warn("bind request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(response.CodeBadRequest, fmt.Sprintf("Invalid request: %v", err)))
			return
		}
		logger = logger.With(
			slog.String("buyer", req.Buyer.DisplayName()),
			slog.Int("items_count", len(req.Items)),
		)

		inv, err := handler.GenerateInvoice(r.Context(), &req)
		if err != nil {
			errors.Respond(w, r, logger, err)
			return
		}
		logger.With(slog.String("number", inv.InvoiceNumber)).Debug("invoice generated")

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.Ok(inv))
	}
}

func ChangeStatus(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		invoiceId := chi.URLParam(r, "id")
		logger := requestLog(log, r).With(slog.String("invoice_id", invoiceId))

		if handler == nil {
			logger.Error("invoice service not available")
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error(response.CodeUnavailable, "Invoice service not available"))
			return
		}

		var change entity.StatusChange
		if err := render.Bind(r, &change); err != nil {
			logger.Warn("bind request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(response.CodeBadRequest, fmt.Sprintf("Invalid request: %v", err)))
			return
		}

		inv, err := handler.ChangeInvoiceStatus(r.Context(), invoiceId, change.Status)
		if err != nil {
			errors.Respond(w, r, logger.With(slog.String("status", string(change.Status))), err)
			return
		}

		render.JSON(w, r, response.Ok(inv))
	}
}
