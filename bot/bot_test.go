package bot

import (
	"io"
	"log/slog"
	"sort"
	"strings"
	"testing"
	"ywbilling/entity"

	"github.com/stretchr/testify/assert"
)

func newTestBot(users ...*entity.User) *TgBot {
	t := &TgBot{
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		users:   make(map[int64]*entity.User),
		allowed: map[int64]bool{100: true},
	}
	t.setUsers(users)
	return t
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "YW\\-0007 paid \\(121\\.00\\)", Sanitize("YW-0007 paid (121.00)"))
	assert.Equal(t, "plain", Sanitize("plain"))
}

func TestParseLevel(t *testing.T) {
	level, ok := ParseLevel(" WARN ")
	assert.True(t, ok)
	assert.Equal(t, slog.LevelWarn, level)

	_, ok = ParseLevel("verbose")
	assert.False(t, ok)
}

func TestSplitMessage(t *testing.T) {
	text := strings.Repeat("a", 6) + "\n" + strings.Repeat("b", 6)
	parts := splitMessage(text, 10)
	assert.Equal(t, []string{"aaaaaa\n", "bbbbbb"}, parts)
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))
}

func TestRecipients(t *testing.T) {
	b := newTestBot(
		&entity.User{TelegramId: 1, TelegramEnabled: true, LogLevel: int(slog.LevelInfo)},
		&entity.User{TelegramId: 2, TelegramEnabled: true, LogLevel: int(slog.LevelError)},
		&entity.User{TelegramId: 3, TelegramEnabled: false},
		&entity.User{TelegramId: 4, TelegramEnabled: true, Topics: []string{entity.TopicPayment}},
	)

	ids := b.recipients(slog.LevelInfo, entity.TopicInvoice)
	assert.Equal(t, []int64{1}, ids)

	ids = b.recipients(slog.LevelError, entity.TopicPayment)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	assert.Equal(t, []int64{1, 2, 4}, ids)
}

func TestIsAllowed(t *testing.T) {
	b := newTestBot(&entity.User{TelegramId: 5})
	assert.True(t, b.isAllowed(100))
	assert.True(t, b.isAllowed(5))
	assert.False(t, b.isAllowed(6))
}

func TestTopicChanges(t *testing.T) {
	assert.Nil(t, addTopic(nil, entity.TopicPayment))
	assert.Nil(t, addTopic([]string{entity.TopicError}, "all"))
	assert.Equal(t, []string{entity.TopicPayment}, addTopic([]string{topicNone}, entity.TopicPayment))

	assert.Equal(t, []string{topicNone}, removeTopic(nil, "all"))
	assert.Equal(t,
		[]string{entity.TopicPayment, entity.TopicError, entity.TopicSystem},
		removeTopic(nil, entity.TopicInvoice))
	assert.Equal(t, []string{topicNone}, removeTopic([]string{entity.TopicError}, entity.TopicError))
}
