package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"ywbilling/entity"
	"ywbilling/impl/core"
	"ywbilling/internal/invoice"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHandler struct {
	callbackData string
	callbackSig  string
	webhookErr   error
	pdfErr       error
	generated    *entity.GenerateRequest
}

func (f *fakeHandler) AuthenticateByToken(token string) (*entity.User, error) {
	switch token {
	case "admin-token":
		return &entity.User{Username: "admin", Role: entity.RoleAdmin}, nil
	case "customer-token":
		return &entity.User{Username: "jonas", Email: "jonas@example.com", Role: entity.RoleCustomer}, nil
	}
	return nil, errors.New("unknown token")
}

func (f *fakeHandler) InvoicePDF(_ context.Context, id, _ string, _ *entity.User) ([]byte, string, error) {
	if f.pdfErr != nil {
		return nil, "", f.pdfErr
	}
	return []byte("%PDF-1.3"), invoice.Filename(id), nil
}

func (f *fakeHandler) GenerateInvoice(_ context.Context, req *entity.GenerateRequest) (*entity.Invoice, error) {
	f.generated = req
	return &entity.Invoice{Id: "inv-1", InvoiceNumber: "YW-0001", Buyer: req.Buyer}, nil
}

func (f *fakeHandler) ChangeInvoiceStatus(_ context.Context, id string, status entity.InvoiceStatus) (*entity.Invoice, error) {
	if status == entity.InvoiceDraft {
		return nil, &entity.TransitionError{From: entity.InvoicePaid, To: status}
	}
	return &entity.Invoice{Id: id, Status: status}, nil
}

func (f *fakeHandler) AccountInvoices(_ context.Context, _ *entity.User) ([]*entity.Invoice, error) {
	return []*entity.Invoice{{Id: "inv-1"}}, nil
}

func (f *fakeHandler) AccountOrders(_ context.Context, _ *entity.User) ([]*entity.Order, error) {
	return []*entity.Order{{Id: "order-1"}}, nil
}

func (f *fakeHandler) PayseraInit(_ context.Context, orderId string) (*entity.PaymentLink, error) {
	if orderId == "missing" {
		return nil, &core.NotFoundError{Kind: "order", Id: orderId}
	}
	return &entity.PaymentLink{OrderId: orderId, Amount: 12100, Link: "https://www.paysera.com/pay/?data=x&sign=y"}, nil
}

func (f *fakeHandler) PayseraCallback(_ context.Context, data, ss1 string) (string, int) {
	f.callbackData, f.callbackSig = data, ss1
	if ss1 == "" {
		return "Missing signature", http.StatusBadRequest
	}
	return "OK", http.StatusOK
}

func (f *fakeHandler) StripeInit(_ context.Context, _ string) (*entity.PaymentLink, error) {
	return nil, core.ErrNotConfigured
}

func (f *fakeHandler) StripeWebhook(_ context.Context, _ []byte, _ string) error {
	return f.webhookErr
}

func newTestRouter(f *fakeHandler) http.Handler {
	return NewRouter(slog.New(slog.NewTextHandler(io.Discard, nil)), f)
}

func do(t *testing.T, h http.Handler, method, target, token, contentType string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestInvoiceDownload(t *testing.T) {
	h := newTestRouter(&fakeHandler{})
	rec := do(t, h, http.MethodGet, "/v1/invoices/YW-0007/pdf?locale=en", "customer-token", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="invoice_YW-0007.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.3", rec.Body.String())

	rec = do(t, h, http.MethodGet, "/v1/invoices/YW-0007/pdf", "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInvoiceDownloadErrors(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&core.NotFoundError{Kind: "invoice", Id: "x"}, http.StatusNotFound},
		{&core.ForbiddenError{Reason: "other"}, http.StatusForbidden},
		{&invoice.MalformedRecordError{Field: "items", Reason: "no line items"}, http.StatusUnprocessableEntity},
	}
	for _, tc := range tests {
		h := newTestRouter(&fakeHandler{pdfErr: tc.err})
		rec := do(t, h, http.MethodGet, "/v1/invoices/x/pdf", "admin-token", "", nil)
		assert.Equal(t, tc.want, rec.Code, tc.err.Error())

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, false, body["success"])
	}
}

func TestGenerateInvoice(t *testing.T) {
	f := &fakeHandler{}
	h := newTestRouter(f)
	payload := `{"buyer":{"name":"UAB Pirkėjas","email":"buy@example.com"},"items":[{"name":"Board","quantity":2,"unit_price":50,"vat_rate":0.21}]}`

	rec := do(t, h, http.MethodPost, "/v1/invoices", "customer-token", "application/json", strings.NewReader(payload))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Nil(t, f.generated)

	rec = do(t, h, http.MethodPost, "/v1/invoices", "admin-token", "application/json", strings.NewReader(payload))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, f.generated)
	assert.Equal(t, "UAB Pirkėjas", f.generated.Buyer.Name)

	rec = do(t, h, http.MethodPost, "/v1/invoices", "admin-token", "application/json", strings.NewReader(`{"buyer":{"name":"A"},"items":[]}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChangeStatus(t *testing.T) {
	h := newTestRouter(&fakeHandler{})
	rec := do(t, h, http.MethodPost, "/v1/invoices/inv-1/status", "admin-token", "application/json", strings.NewReader(`{"status":"paid"}`))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/invoices/inv-1/status", "admin-token", "application/json", strings.NewReader(`{"status":"draft"}`))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/invoices/inv-1/status", "admin-token", "application/json", strings.NewReader(`{"status":"lost"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPaymentInit(t *testing.T) {
	h := newTestRouter(&fakeHandler{})
	rec := do(t, h, http.MethodPost, "/v1/paysera/init", "customer-token", "application/json", strings.NewReader(`{"order_id":"order-1"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"amount":12100`)

	rec = do(t, h, http.MethodPost, "/v1/paysera/init", "customer-token", "application/json", strings.NewReader(`{"order_id":"missing"}`))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/paysera/init", "customer-token", "application/json", strings.NewReader(`{}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/stripe/init", "customer-token", "application/json", strings.NewReader(`{"order_id":"order-1"}`))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPayseraCallbackSources(t *testing.T) {
	form := url.Values{"data": {"form-data"}, "ss1": {"form-sig"}}.Encode()
	tests := []struct {
		name        string
		method      string
		target      string
		contentType string
		body        string
		wantCode    int
		wantData    string
		wantSig     string
	}{
		{"query", http.MethodGet, "/webhook/paysera?data=q-data&ss1=q-sig", "", "", http.StatusOK, "q-data", "q-sig"},
		{"form", http.MethodPost, "/webhook/paysera", "application/x-www-form-urlencoded", form, http.StatusOK, "form-data", "form-sig"},
		{"json", http.MethodPost, "/webhook/paysera", "application/json", `{"data":"j-data","ss1":"j-sig"}`, http.StatusOK, "j-data", "j-sig"},
		{"json falls back to query", http.MethodPost, "/webhook/paysera?ss1=q-sig", "application/json", `{"data":"j-data"}`, http.StatusOK, "j-data", "q-sig"},
		{"missing signature", http.MethodGet, "/webhook/paysera?data=q-data", "", "", http.StatusBadRequest, "q-data", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := &fakeHandler{}
			rec := do(t, newTestRouter(f), tc.method, tc.target, "", tc.contentType, strings.NewReader(tc.body))
			assert.Equal(t, tc.wantCode, rec.Code)
			assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
			assert.Equal(t, tc.wantData, f.callbackData)
			assert.Equal(t, tc.wantSig, f.callbackSig)
		})
	}
}

func TestPayseraCallbackUnsupported(t *testing.T) {
	f := &fakeHandler{}
	rec := do(t, newTestRouter(f), http.MethodPost, "/webhook/paysera", "", "text/xml", strings.NewReader("<data/>"))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Equal(t, "Unsupported content type", rec.Body.String())

	rec = do(t, newTestRouter(f), http.MethodPost, "/webhook/paysera", "", "application/json", strings.NewReader("{"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStripeWebhook(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{&core.BadRequestError{Reason: "signature"}, http.StatusBadRequest},
		{errors.New("mysql gone"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		rec := do(t, newTestRouter(&fakeHandler{webhookErr: tc.err}), http.MethodPost, "/webhook/stripe", "", "application/json", strings.NewReader("{}"))
		assert.Equal(t, tc.want, rec.Code)
	}
}

func TestRoutingErrors(t *testing.T) {
	h := newTestRouter(&fakeHandler{})
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/nowhere", "", "", nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodDelete, "/webhook/stripe", "", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/v1/orders", "customer-token", "", nil).Code)
}
