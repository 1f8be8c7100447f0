package entity

import (
	"net/http"
	"ywbilling/lib/validate"
)

type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleAdmin    UserRole = "admin"
)

// User is an API client authenticated by a bearer token. Users with a
// telegram id also receive notifications.
type User struct {
	Username         string   `json:"username" bson:"username" validate:"required"`
	Name             string   `json:"name" bson:"name" validate:"omitempty"`
	Email            string   `json:"email" bson:"email" validate:"omitempty,email"`
	Token            string   `json:"token" bson:"token" validate:"required,min=1"`
	Role             UserRole `json:"role" bson:"role"`
	TelegramId       int64    `json:"telegram_id,omitempty" bson:"telegram_id,omitempty"`
	TelegramUsername string   `json:"telegram_username,omitempty" bson:"telegram_username,omitempty"`
	TelegramEnabled  bool     `json:"telegram_enabled,omitempty" bson:"telegram_enabled"`
	LogLevel         int      `json:"log_level,omitempty" bson:"log_level"`
	Topics           []string `json:"topics,omitempty" bson:"topics,omitempty"`
}

func (u *User) Bind(_ *http.Request) error {
	return validate.Struct(u)
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasTopic reports whether the user receives the topic; no topics means all
func (u *User) HasTopic(topic string) bool {
	if len(u.Topics) == 0 {
		return true
	}
	for _, t := range u.Topics {
		if t == topic {
			return true
		}
	}
	return false
}
