package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"ywbilling/entity"
	"ywbilling/internal/http-server/handlers/errors"
	"ywbilling/lib/api/response"
	"ywbilling/lib/sl"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

const maxCallbackSize = 64 << 10

type Core interface {
	PayseraInit(ctx context.Context, orderId string) (*entity.PaymentLink, error)
	PayseraCallback(ctx context.Context, data, ss1 string) (string, int)
	StripeInit(ctx context.Context, orderId string) (*entity.PaymentLink, error)
}

// PayseraInit returns the provider payment page link for an order
func PayseraInit(log *slog.Logger, handler Core) http.HandlerFunc {
	return initHandler(log, "paysera", handler, Core.PayseraInit)
}

func StripeInit(log *slog.Logger, handler Core) http.HandlerFunc {
	return initHandler(log, "stripe", handler, Core.StripeInit)
}

type payFunc func(handler Core, ctx context.Context, orderId string) (*entity.PaymentLink, error)

func initHandler(log *slog.Logger, provider string, handler Core, pay payFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.payment"),
			slog.String("provider", provider),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			logger.Error("payment service not available")
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error(response.CodeUnavailable, "Payment service not available"))
			return
		}

		var req entity.PaymentInit
		if err := render.Bind(r, &req); err != nil {
			logger.Warn("bind request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(response.CodeBadRequest, fmt.Sprintf("Invalid request: %v", err)))
			return
		}
		logger = logger.With(slog.String("order_id", req.OrderId))

		link, err := pay(handler, r.Context(), req.OrderId)
		if err != nil {
			errors.Respond(w, r, logger, err)
			return
		}
		logger.With(slog.Int64("amount", link.Amount)).Debug("payment link created")

		render.JSON(w, r, response.Ok(link))
	}
}

// PayseraCallback takes data and ss1 from the query, a form body or a JSON
// body and replies in plain text as the provider expects
func PayseraCallback(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.paysera"),
			slog.String("method", r.Method),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			replyText(w, r, http.StatusServiceUnavailable, "Service not configured")
			return
		}

		data, ss1, reply, status := callbackFields(w, r)
		if reply != "" {
			logger.With(slog.String("content_type", r.Header.Get("Content-Type"))).Warn("paysera callback: " + reply)
			replyText(w, r, status, reply)
			return
		}

		text, code := handler.PayseraCallback(r.Context(), data, ss1)
		logger.With(
			slog.Int("status", code),
			slog.String("reply", text),
		).Debug("paysera callback")
		replyText(w, r, code, text)
	}
}

// callbackFields returns a non-empty reply when the request cannot be read
func callbackFields(w http.ResponseWriter, r *http.Request) (data, ss1, reply string, status int) {
	query := r.URL.Query()
	data, ss1 = query.Get("data"), query.Get("ss1")
	if r.Method != http.MethodPost {
		return data, ss1, "", http.StatusOK
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxCallbackSize)
	mediaType := ""
	if ct := r.Header.Get("Content-Type"); ct != "" {
		var err error
		if mediaType, _, err = mime.ParseMediaType(ct); err != nil {
			return "", "", "Unsupported content type", http.StatusUnsupportedMediaType
		}
	}

	switch mediaType {
	case "", "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return "", "", "Bad request", http.StatusBadRequest
		}
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxCallbackSize); err != nil {
			return "", "", "Bad request", http.StatusBadRequest
		}
	case "application/json":
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			return "", "", "Bad request", http.StatusBadRequest
		}
		var body struct {
			Data string `json:"data"`
			Ss1  string `json:"ss1"`
		}
		if len(strings.TrimSpace(string(raw))) > 0 {
			if err = json.Unmarshal(raw, &body); err != nil {
				return "", "", "Bad request", http.StatusBadRequest
			}
		}
		return first(body.Data, data), first(body.Ss1, ss1), "", http.StatusOK
	default:
		return "", "", "Unsupported content type", http.StatusUnsupportedMediaType
	}
	return first(r.PostForm.Get("data"), data), first(r.PostForm.Get("ss1"), ss1), "", http.StatusOK
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func replyText(w http.ResponseWriter, r *http.Request, status int, text string) {
	render.Status(r, status)
	render.PlainText(w, r, text)
}
