package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"ywbilling/entity"
	"ywbilling/impl/core"
	"ywbilling/internal/invoice"
	"ywbilling/internal/invoice/pdf"
	"ywbilling/lib/api/response"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
		code response.Code
	}{
		{"malformed record", &invoice.MalformedRecordError{Field: "buyer.name", Reason: "missing"}, http.StatusUnprocessableEntity, response.CodeMalformedRecord},
		{"pdf empty", &pdf.EmptyInvoiceError{}, http.StatusUnprocessableEntity, response.CodeNotRenderable},
		{"pdf too many items", fmt.Errorf("render: %w", &pdf.TooManyItemsError{Count: 500, Max: 200}), http.StatusUnprocessableEntity, response.CodeNotRenderable},
		{"not found", &core.NotFoundError{Kind: "invoice", Id: "x"}, http.StatusNotFound, response.CodeNotFound},
		{"forbidden", &core.ForbiddenError{Reason: "other customer"}, http.StatusForbidden, response.CodeForbidden},
		{"conflict", &core.ConflictError{Reason: "already paid"}, http.StatusConflict, response.CodeConflict},
		{"transition", &entity.TransitionError{From: entity.InvoicePaid, To: entity.InvoiceDraft}, http.StatusConflict, response.CodeConflict},
		{"bad request", &core.BadRequestError{Reason: "missing order id"}, http.StatusBadRequest, response.CodeBadRequest},
		{"not configured", fmt.Errorf("paysera: %w", core.ErrNotConfigured), http.StatusServiceUnavailable, response.CodeUnavailable},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout, response.CodeTimeout},
		{"other", fmt.Errorf("socket closed"), http.StatusInternalServerError, response.CodeInternal},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, code, message := Status(tc.err)
			assert.Equal(t, tc.want, status)
			assert.Equal(t, tc.code, code)
			assert.NotEmpty(t, message)
		})
	}
}

func TestRespondWritesCode(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/invoices/inv-9/pdf", nil)

	Respond(rec, req, log, fmt.Errorf("load: %w", &core.NotFoundError{Kind: "invoice", Id: "inv-9"}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body response.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.False(t, body.Success)
	assert.Equal(t, response.CodeNotFound, body.Code)
	assert.Contains(t, body.StatusMessage, "inv-9")
}
