package cont

import (
	"context"
	"testing"
	"ywbilling/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRoundTrip(t *testing.T) {
	user := &entity.User{Username: "jonas", Email: "jonas@example.com", Role: entity.RoleCustomer}
	ctx := WithUser(context.Background(), user)
	user.Email = "changed@example.com"

	got := User(ctx)
	require.NotNil(t, got)
	assert.Equal(t, "jonas@example.com", got.Email)
	assert.False(t, IsAdmin(ctx))
}

func TestUserMissing(t *testing.T) {
	ctx := WithUser(context.Background(), nil)
	assert.Nil(t, User(ctx))
	assert.False(t, IsAdmin(ctx))
}

func TestIsAdmin(t *testing.T) {
	ctx := WithUser(context.Background(), &entity.User{Username: "ops", Role: entity.RoleAdmin})
	assert.True(t, IsAdmin(ctx))
}
