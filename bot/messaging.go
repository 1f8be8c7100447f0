package bot

import (
	"log/slog"
	"ywbilling/entity"
)

// maxMessageLength is the Telegram limit for one text message
const maxMessageLength = 4096

func (t *TgBot) SendMessage(msg string) {
	t.SendMessageWithLevel(msg, t.minLogLevel)
}

// SendMessageWithLevel infers the topic from the level
func (t *TgBot) SendMessageWithLevel(msg string, level slog.Level) {
	topic := entity.TopicSystem
	if level >= slog.LevelError {
		topic = entity.TopicError
	}
	t.SendMessageWithTopic(msg, level, topic)
}

func (t *TgBot) SendMessageWithTopic(msg string, level slog.Level, topic string) {
	for _, id := range t.recipients(level, topic) {
		for _, part := range splitMessage(msg, maxMessageLength) {
			t.plainResponse(id, part)
		}
	}
}

// recipients are enabled users whose level and topics match
func (t *TgBot) recipients(level slog.Level, topic string) []int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var ids []int64
	for id, user := range t.users {
		if !user.TelegramEnabled {
			continue
		}
		if int(level) < user.LogLevel {
			continue
		}
		if !user.HasTopic(topic) {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
