package core

import (
	"context"
	"ywbilling/entity"
)

// AccountOrders lists the storefront orders placed with the user's email
func (c *Core) AccountOrders(ctx context.Context, user *entity.User) ([]*entity.Order, error) {
	if c.orders == nil {
		return nil, notConfigured("orders")
	}
	if user == nil || user.Email == "" {
		return nil, &ForbiddenError{Reason: "user has no email"}
	}
	return c.orders.OrdersByEmail(ctx, user.Email)
}
