package logger

import (
	"io"
	"log"
	"log/slog"
	"os"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

// SetupLogger writes to stdout locally and to the log file elsewhere
func SetupLogger(env, logPath string) *slog.Logger {
	var out io.Writer = os.Stdout
	level := slog.LevelDebug

	switch env {
	case envLocal:
	case envDev, envProd:
		logFile, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatal("error opening log file: ", err)
		}
		log.Printf("env: %s; log file: %s", env, logPath)
		out = logFile
		if env == envProd {
			level = slog.LevelInfo
		}
	default:
		log.Fatal("invalid environment: ", env)
	}

	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
}

// WithTelegram forwards records at or above minLevel to the sender
func WithTelegram(logger *slog.Logger, sender Sender, minLevel slog.Level) *slog.Logger {
	return slog.New(NewTelegramHandler(logger.Handler(), sender, minLevel))
}
