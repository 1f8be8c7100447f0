package bot

import (
	"fmt"
	"log/slog"
	"strings"
	"ywbilling/entity"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
)

const topicNone = "none"

func (t *TgBot) start(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if t.db == nil {
		return nil
	}
	chatId := ctx.EffectiveUser.Id
	if !t.isAllowed(chatId) {
		t.log.With(
			slog.Int64("id", chatId),
			slog.String("username", ctx.EffectiveUser.Username),
		).Warn("telegram user not allowed")
		t.plainResponse(chatId, "You are not allowed to receive notifications\\.")
		return nil
	}

	level := int(t.minLogLevel)
	if user := t.findUser(chatId); user != nil {
		level = user.LogLevel
	}
	err := t.db.SetTelegramEnabled(chatId, ctx.EffectiveUser.Username, true, level)
	if err != nil {
		t.reportError(chatId, "/start", err)
		return nil
	}
	t.plainResponse(chatId, "Notifications ENABLED")
	t.loadUsers()
	return nil
}

func (t *TgBot) stop(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if t.db == nil {
		return nil
	}
	chatId := ctx.EffectiveUser.Id
	user := t.findUser(chatId)
	if user == nil {
		return nil
	}

	err := t.db.SetTelegramEnabled(chatId, user.TelegramUsername, false, user.LogLevel)
	if err != nil {
		t.reportError(chatId, "/stop", err)
		return nil
	}
	t.plainResponse(chatId, "Notifications DISABLED")
	t.loadUsers()
	return nil
}

func (t *TgBot) level(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if t.db == nil {
		return nil
	}
	chatId := ctx.EffectiveUser.Id
	user := t.findUser(chatId)
	if user == nil {
		t.plainResponse(chatId, "Use /start first\\.")
		return nil
	}

	args := strings.Fields(ctx.EffectiveMessage.Text)
	if len(args) < 2 {
		currentLevel := slog.Level(user.LogLevel).String()
		t.plainResponse(chatId, fmt.Sprintf("Your current log level: %s\nAvailable levels: debug, info, warn, error", Sanitize(currentLevel)))
		return nil
	}

	level, ok := ParseLevel(args[1])
	if !ok {
		t.plainResponse(chatId, fmt.Sprintf("Invalid level: %s\nAvailable levels: debug, info, warn, error", Sanitize(args[1])))
		return nil
	}

	err := t.db.SetTelegramEnabled(chatId, user.TelegramUsername, true, int(level))
	if err != nil {
		t.reportError(chatId, "/level", err)
		return nil
	}
	t.plainResponse(chatId, fmt.Sprintf("Log level set to: %s", Sanitize(level.String())))
	t.loadUsers()
	return nil
}

func (t *TgBot) topics(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	user := t.findUser(chatId)
	if user == nil {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("*Available topics:*\n")
	for _, topic := range entity.AllTopics() {
		marker := "  "
		if user.HasTopic(topic) {
			marker = "\\+ "
		}
		sb.WriteString(fmt.Sprintf("%s`%s`\n", marker, topic))
	}
	if len(user.Topics) == 0 {
		sb.WriteString("\nYou are subscribed to *all* topics\\.")
	}
	sb.WriteString("\nUse `/subscribe <topic>` or `/unsubscribe <topic>`")
	t.plainResponse(chatId, sb.String())
	return nil
}

func (t *TgBot) subscribe(_ *tgbotapi.Bot, ctx *ext.Context) error {
	return t.changeTopics(ctx, "/subscribe", addTopic)
}

func (t *TgBot) unsubscribe(_ *tgbotapi.Bot, ctx *ext.Context) error {
	return t.changeTopics(ctx, "/unsubscribe", removeTopic)
}

func (t *TgBot) changeTopics(ctx *ext.Context, command string, change func([]string, string) []string) error {
	if t.db == nil {
		return nil
	}
	chatId := ctx.EffectiveUser.Id
	user := t.findUser(chatId)
	if user == nil {
		return nil
	}

	args := strings.Fields(ctx.EffectiveMessage.Text)
	if len(args) < 2 {
		t.plainResponse(chatId, fmt.Sprintf("Usage: `%s <topic|all>`\nAvailable topics: %s",
			command, Sanitize(strings.Join(entity.AllTopics(), ", "))))
		return nil
	}
	topic := strings.ToLower(args[1])
	if topic != "all" && !entity.IsValidTopic(topic) {
		t.plainResponse(chatId, "Invalid topic: `"+Sanitize(topic)+"`")
		return nil
	}

	if err := t.db.SetTelegramTopics(chatId, change(user.Topics, topic)); err != nil {
		t.reportError(chatId, command, err)
		return nil
	}
	t.plainResponse(chatId, "Done: `"+Sanitize(command+" "+topic)+"`")
	t.loadUsers()
	return nil
}

// addTopic returns nil for all topics
func addTopic(current []string, topic string) []string {
	if topic == "all" || len(current) == 0 {
		return nil
	}
	topics := make([]string, 0, len(current)+1)
	for _, ct := range current {
		if ct != topicNone && ct != topic {
			topics = append(topics, ct)
		}
	}
	return append(topics, topic)
}

// removeTopic keeps a sentinel entry so the list never means all topics
func removeTopic(current []string, topic string) []string {
	if topic == "all" {
		return []string{topicNone}
	}
	if len(current) == 0 {
		current = entity.AllTopics()
	}
	topics := make([]string, 0, len(current))
	for _, ct := range current {
		if ct != topic {
			topics = append(topics, ct)
		}
	}
	if len(topics) == 0 {
		return []string{topicNone}
	}
	return topics
}

func (t *TgBot) status(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	user := t.findUser(chatId)
	if user == nil {
		t.plainResponse(chatId, "Use /start first\\.")
		return nil
	}

	topics := "all"
	if len(user.Topics) > 0 {
		topics = strings.Join(user.Topics, ", ")
	}
	enabled := "yes"
	if !user.TelegramEnabled {
		enabled = "no"
	}

	msg := fmt.Sprintf(
		"*Your Settings*\n"+
			"Enabled: `%s`\n"+
			"Log level: `%s`\n"+
			"Topics: `%s`",
		enabled,
		Sanitize(slog.Level(user.LogLevel).String()),
		Sanitize(topics),
	)
	t.plainResponse(chatId, msg)
	return nil
}

func (t *TgBot) help(_ *tgbotapi.Bot, ctx *ext.Context) error {
	var sb strings.Builder
	sb.WriteString("*Available Commands*\n\n")
	sb.WriteString("`/start` \\- Enable notifications\n")
	sb.WriteString("`/stop` \\- Disable notifications\n")
	sb.WriteString("`/level <debug|info|warn|error>` \\- Set log level\n")
	sb.WriteString("`/topics` \\- View topic subscriptions\n")
	sb.WriteString("`/subscribe <topic|all>` \\- Subscribe to topic\n")
	sb.WriteString("`/unsubscribe <topic|all>` \\- Unsubscribe from topic\n")
	sb.WriteString("`/status` \\- Show your settings\n")
	t.plainResponse(ctx.EffectiveUser.Id, sb.String())
	return nil
}
