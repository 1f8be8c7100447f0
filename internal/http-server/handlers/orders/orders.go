package orders

import (
	"context"
	"log/slog"
	"net/http"
	"ywbilling/entity"
	"ywbilling/internal/http-server/handlers/errors"
	"ywbilling/lib/api/cont"
	"ywbilling/lib/api/response"
	"ywbilling/lib/sl"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	AccountOrders(ctx context.Context, user *entity.User) ([]*entity.Order, error)
}

func List(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.orders"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			logger.Error("orders service not available")
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error(response.CodeUnavailable, "Orders service not available"))
			return
		}

		list, err := handler.AccountOrders(r.Context(), cont.User(r.Context()))
		if err != nil {
			errors.Respond(w, r, logger, err)
			return
		}

		render.JSON(w, r, response.Ok(list))
	}
}
