package errors

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"ywbilling/entity"
	"ywbilling/impl/auth"
	"ywbilling/impl/core"
	"ywbilling/internal/invoice"
	"ywbilling/internal/invoice/pdf"
	"ywbilling/lib/api/response"
	"ywbilling/lib/sl"

	"github.com/go-chi/render"
)

// Status maps a service error to a response code, the envelope error code
// and the message shown to the client
func Status(err error) (int, response.Code, string) {
	var (
		malformed *invoice.MalformedRecordError
		empty     *pdf.EmptyInvoiceError
		amount    *pdf.InvalidAmountError
		tooMany   *pdf.TooManyItemsError
		notFound  *core.NotFoundError
		forbidden *core.ForbiddenError
		conflict  *core.ConflictError
		badReq    *core.BadRequestError
		trans     *entity.TransitionError
	)
	switch {
	case stderrors.As(err, &malformed):
		return http.StatusUnprocessableEntity, response.CodeMalformedRecord, err.Error()
	case stderrors.As(err, &empty),
		stderrors.As(err, &amount),
		stderrors.As(err, &tooMany):
		return http.StatusUnprocessableEntity, response.CodeNotRenderable, err.Error()
	case stderrors.As(err, &notFound):
		return http.StatusNotFound, response.CodeNotFound, err.Error()
	case stderrors.As(err, &forbidden):
		return http.StatusForbidden, response.CodeForbidden, "Access denied"
	case stderrors.As(err, &conflict), stderrors.As(err, &trans):
		return http.StatusConflict, response.CodeConflict, err.Error()
	case stderrors.As(err, &badReq):
		return http.StatusBadRequest, response.CodeBadRequest, err.Error()
	case stderrors.Is(err, auth.ErrUnknownToken):
		return http.StatusUnauthorized, response.CodeUnauthorized, "Unauthorized"
	case stderrors.Is(err, core.ErrNotConfigured):
		return http.StatusServiceUnavailable, response.CodeUnavailable, "Service not configured"
	case stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, response.CodeTimeout, "Request timed out"
	}
	return http.StatusInternalServerError, response.CodeInternal, "Internal error"
}

// Respond writes the error envelope; server side failures are logged as errors
func Respond(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status, code, message := Status(err)
	if status >= http.StatusInternalServerError {
		log.With(sl.Err(err)).Error("request failed")
	} else {
		log.With(
			sl.Err(err),
			slog.Int("status", status),
			slog.String("code", string(code)),
		).Warn("request rejected")
	}
	render.Status(r, status)
	render.JSON(w, r, response.Error(code, message))
}
