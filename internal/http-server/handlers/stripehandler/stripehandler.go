package stripehandler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"ywbilling/impl/core"
	"ywbilling/lib/sl"

	"github.com/go-chi/chi/v5/middleware"
)

// stripe caps webhook payloads well below this
const maxPayloadSize = 512 << 10

type Core interface {
	StripeWebhook(ctx context.Context, payload []byte, header string) error
}

// Event acknowledges a verified delivery with 200; failures other than a bad
// request answer 500 so the delivery is retried
func Event(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.With(
			sl.Module("http.handlers.stripe"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			http.Error(w, "not configured", http.StatusServiceUnavailable)
			return
		}

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadSize))
		if err != nil {
			log.With(sl.Err(err)).Error("read request body")
			http.Error(w, "read", http.StatusBadRequest)
			return
		}

		err = handler.StripeWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
		if err != nil {
			var bad *core.BadRequestError
			switch {
			case errors.As(err, &bad):
				log.With(sl.Err(err)).Warn("stripe webhook rejected")
				http.Error(w, "bad request", http.StatusBadRequest)
			case errors.Is(err, core.ErrNotConfigured):
				http.Error(w, "not configured", http.StatusServiceUnavailable)
			default:
				log.With(sl.Err(err)).Error("stripe webhook")
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}
