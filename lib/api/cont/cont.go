// Package cont carries the authenticated account through a request context.
package cont

import (
	"context"
	"ywbilling/entity"
)

type userKey struct{}

// WithUser stores a copy of user; a nil user leaves ctx unchanged
func WithUser(ctx context.Context, user *entity.User) context.Context {
	if user == nil {
		return ctx
	}
	u := *user
	return context.WithValue(ctx, userKey{}, &u)
}

// User returns the authenticated user or nil when the request
// did not pass the authenticate middleware
func User(ctx context.Context) *entity.User {
	user, _ := ctx.Value(userKey{}).(*entity.User)
	return user
}

// IsAdmin reports whether the request belongs to an admin account
func IsAdmin(ctx context.Context) bool {
	user := User(ctx)
	return user != nil && user.IsAdmin()
}
