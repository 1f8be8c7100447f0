// Package bot sends service notifications to Telegram subscribers.
//
// Subscribers register with /start when their telegram id is listed in the
// configuration, then tune the minimum log level and topics they receive.
package bot

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
	"ywbilling/entity"
	"ywbilling/lib/sl"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
)

// Database is implemented by internal/database
type Database interface {
	GetAllTelegramUsers() ([]*entity.User, error)
	SetTelegramEnabled(id int64, username string, isActive bool, logLevel int) error
	SetTelegramTopics(id int64, topics []string) error
}

type TgBot struct {
	log         *slog.Logger
	api         *tgbotapi.Bot
	db          Database
	mu          sync.RWMutex
	users       map[int64]*entity.User
	allowed     map[int64]bool
	minLogLevel slog.Level
	updater     *ext.Updater
}

func NewTgBot(apiKey string, allowedIds []int64, db Database, log *slog.Logger) (*TgBot, error) {
	tgBot := &TgBot{
		log:         log.With(sl.Module("tgbot")),
		db:          db,
		minLogLevel: slog.LevelInfo,
		users:       make(map[int64]*entity.User),
		allowed:     make(map[int64]bool, len(allowedIds)),
	}
	for _, id := range allowedIds {
		tgBot.allowed[id] = true
	}

	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	tgBot.api = api

	return tgBot, nil
}

func (t *TgBot) Start() error {
	t.loadUsers()

	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(b *tgbotapi.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			t.log.Error("handling update:", sl.Err(err))
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})
	t.updater = ext.NewUpdater(dispatcher, nil)

	dispatcher.AddHandler(handlers.NewCommand("start", t.start))
	dispatcher.AddHandler(handlers.NewCommand("stop", t.stop))
	dispatcher.AddHandler(handlers.NewCommand("level", t.level))
	dispatcher.AddHandler(handlers.NewCommand("topics", t.topics))
	dispatcher.AddHandler(handlers.NewCommand("subscribe", t.subscribe))
	dispatcher.AddHandler(handlers.NewCommand("unsubscribe", t.unsubscribe))
	dispatcher.AddHandler(handlers.NewCommand("status", t.status))
	dispatcher.AddHandler(handlers.NewCommand("help", t.help))

	err := t.updater.StartPolling(t.api, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &tgbotapi.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &tgbotapi.RequestOpts{
				Timeout: time.Second * 10,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start polling: %w", err)
	}

	t.updater.Idle()
	return nil
}

func (t *TgBot) Stop() {
	if t.updater != nil {
		t.log.Info("stopping telegram bot")
		t.updater.Stop()
	}
}

// loadUsers refreshes the subscriber cache after every change
func (t *TgBot) loadUsers() {
	if t.db == nil {
		return
	}
	users, err := t.db.GetAllTelegramUsers()
	if err != nil {
		t.log.Error("loading users", sl.Err(err))
		return
	}
	t.setUsers(users)
}

func (t *TgBot) setUsers(users []*entity.User) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.users = make(map[int64]*entity.User, len(users))
	active := 0
	for _, user := range users {
		t.users[user.TelegramId] = user
		if user.TelegramEnabled {
			active++
		}
	}
	t.log.With(
		slog.Int("count", len(t.users)),
		slog.Int("active", active),
	).Debug("loaded users")
}

func (t *TgBot) findUser(id int64) *entity.User {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.users[id]
}

// isAllowed lets in configured ids and users registered earlier
func (t *TgBot) isAllowed(id int64) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.allowed[id] {
		return true
	}
	_, ok := t.users[id]
	return ok
}
