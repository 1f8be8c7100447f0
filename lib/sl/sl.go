package sl

import (
	"fmt"
	"log/slog"
)

func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Secret keeps only the first 4 characters of the value,
// used for passwords and tokens in logs
func Secret(key, value string) slog.Attr {
	r := "***"
	if len(value) > 4 {
		r = fmt.Sprintf("%s***", value[0:4])
	}
	if value == "" {
		r = "?"
	}
	return slog.Attr{
		Key:   key,
		Value: slog.StringValue(r),
	}
}

func Module(mod string) slog.Attr {
	return slog.Attr{
		Key:   "mod",
		Value: slog.StringValue(mod),
	}
}

// Money logs an amount with two decimals, the way it is shown on documents
func Money(key string, amount float64) slog.Attr {
	return slog.String(key, fmt.Sprintf("%.2f", amount))
}

// TopicKey tags a record with a notification topic
const TopicKey = "tg_topic"

func Topic(topic string) slog.Attr {
	return slog.String(TopicKey, topic)
}
