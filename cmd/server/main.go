package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
	"ywbilling/bot"
	"ywbilling/impl/auth"
	"ywbilling/impl/core"
	"ywbilling/internal/config"
	"ywbilling/internal/database"
	"ywbilling/internal/http-server/api"
	"ywbilling/internal/invoice/pdf"
	"ywbilling/internal/orders"
	"ywbilling/internal/paysera"
	"ywbilling/internal/scheduler"
	"ywbilling/internal/stripeclient"
	"ywbilling/lib/logger"
	"ywbilling/lib/sl"
)

const logFileName = "ywbilling.log"

func main() {
	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	log := logger.SetupLogger(conf.Env, filepath.Join(*logPath, logFileName))
	log.Info("starting ywbilling", slog.String("config", *configPath), slog.String("env", conf.Env))

	loc, err := time.LoadLocation(conf.Location)
	if err != nil {
		log.With(sl.Err(err), slog.String("location", conf.Location)).Warn("unknown location, using UTC")
		loc = time.UTC
	}

	mongo := database.NewMongoClient(conf, log)
	if mongo == nil {
		log.Warn("mongo is disabled, invoices and api users are not available")
	}

	if conf.Telegram.Enabled && mongo != nil {
		tgBot, e := bot.NewTgBot(conf.Telegram.ApiKey, conf.Telegram.AllowedIds, mongo, log)
		if e != nil {
			log.With(sl.Err(e)).Error("telegram bot")
		} else {
			if e = tgBot.Start(); e != nil {
				log.With(sl.Err(e)).Error("telegram bot start")
			} else {
				defer tgBot.Stop()
				minLevel, ok := bot.ParseLevel(conf.Telegram.MinLevel)
				if !ok {
					minLevel = slog.LevelWarn
				}
				log = logger.WithTelegram(log, tgBot, minLevel)
				log.Info("telegram notifications enabled")
			}
		}
	}

	locale := pdf.ParseLocale(conf.Invoice.Locale, pdf.LocaleLT)
	renderer, err := pdf.NewGenerator(pdf.Options{
		PageSize: conf.Invoice.PageSize,
		MaxItems: conf.Invoice.MaxItems,
		Brand:    conf.Invoice.Brand,
	})
	if err != nil {
		log.With(sl.Err(err)).Error("invoice renderer")
		os.Exit(1)
	}

	handler := core.New(conf.Invoice.Settings(), renderer, log)
	handler.SetLocale(locale)
	handler.SetLocation(loc)
	if mongo != nil {
		handler.SetAuthService(auth.New(mongo))
		handler.SetInvoiceStore(mongo)
	}

	if conf.Orders.Enabled {
		db, e := orders.NewSQLClient(conf)
		if e != nil {
			log.With(sl.Err(e)).Error("orders database")
		} else {
			defer db.Close()
			handler.SetOrderStore(db)
			log.With(slog.String("database", conf.Orders.Database)).Info("orders database connected")
		}
	}

	handler.SetPaysera(paysera.New(paysera.Config{
		ProjectId:         conf.Paysera.ProjectId,
		SignPassword:      conf.Paysera.SignPassword,
		Version:           conf.Paysera.Version,
		Test:              conf.Paysera.Test,
		AllowTestPayments: conf.Paysera.AllowTestPayments,
		SiteURL:           conf.Paysera.SiteURL,
		PayURL:            conf.Paysera.PayURL,
		Lang:              conf.Paysera.Lang,
	}))

	if sc := stripeclient.New(conf, log); sc.Configured() {
		handler.SetStripe(sc)
	} else {
		log.Info("stripe is not configured")
	}

	if conf.Scheduler.Enabled && mongo != nil {
		sched := scheduler.New(conf.Scheduler, handler, loc, log)
		if e := sched.Start(); e != nil {
			log.With(sl.Err(e)).Error("scheduler")
		} else {
			defer sched.Stop()
		}
	}

	server := api.New(conf, log, handler)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if e := server.Shutdown(ctx); e != nil {
			log.With(sl.Err(e)).Error("server shutdown")
		}
	}()

	if err = server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.With(sl.Err(err)).Error("server stopped")
	}
	log.Info("service stopped")
}
