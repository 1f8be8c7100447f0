package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
	"ywbilling/internal/config"
	"ywbilling/internal/http-server/handlers/errors"
	"ywbilling/internal/http-server/handlers/invoice"
	"ywbilling/internal/http-server/handlers/orders"
	"ywbilling/internal/http-server/handlers/payment"
	"ywbilling/internal/http-server/handlers/stripehandler"
	"ywbilling/internal/http-server/middleware/authenticate"
	"ywbilling/internal/http-server/middleware/timeout"
	"ywbilling/lib/sl"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	authenticate.Authenticate
	invoice.Core
	orders.Core
	payment.Core
	stripehandler.Core
}

func NewRouter(log *slog.Logger, handler Handler) http.Handler {
	router := chi.NewRouter()
	router.Use(timeout.Timeout(30 * time.Second))
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Route("/v1", func(v1 chi.Router) {
		v1.Use(authenticate.New(log, handler))
		v1.Route("/invoices", func(inv chi.Router) {
			inv.Get("/", invoice.List(log, handler))
			inv.Get("/{id}/pdf", invoice.Download(log, handler))
			inv.With(authenticate.AdminOnly).Post("/", invoice.Generate(log, handler))
			inv.With(authenticate.AdminOnly).Post("/{id}/status", invoice.ChangeStatus(log, handler))
		})
		v1.Get("/orders", orders.List(log, handler))
		v1.Post("/paysera/init", payment.PayseraInit(log, handler))
		v1.Post("/stripe/init", payment.StripeInit(log, handler))
	})
	router.Route("/webhook", func(wh chi.Router) {
		wh.Get("/paysera", payment.PayseraCallback(log, handler))
		wh.Post("/paysera", payment.PayseraCallback(log, handler))
		wh.Post("/stripe", stripehandler.Event(log, handler))
	})
	return router
}

func New(conf *config.Config, log *slog.Logger, handler Handler) *Server {
	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:      NewRouter(log, handler),
		ErrorLog:     httpLog,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 40 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return &server
}

// Start blocks until the server is shut down
func (s *Server) Start() error {
	serverAddress := fmt.Sprintf("%s:%s", s.conf.Listen.BindIp, s.conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}
	s.log.Info("starting api server", slog.String("address", serverAddress))
	return s.httpServer.Serve(listener)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
