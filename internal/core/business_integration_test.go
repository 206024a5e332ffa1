package core_test

import (
	"context"
	"testing"

	"stockbook/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusiness_SaveIsUpsert(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()
	svc := core.NewBusinessService(env.pool)

	_, err := svc.GetBusiness(ctx, env.ownerID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	in := core.BusinessInput{
		Name: "Corner Shop", Type: "Retail", Address: "2 High St", Phone: "555-0100", Email: "owner@corner.test",
	}
	first, err := svc.SaveBusiness(ctx, env.ownerID, in)
	require.NoError(t, err)

	in.VATNumber = "GB123"
	second, err := svc.SaveBusiness(ctx, env.ownerID, in)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "GB123", second.VATNumber)

	got, err := svc.GetBusiness(ctx, env.ownerID)
	require.NoError(t, err)
	assert.Equal(t, "Corner Shop", got.Name)

	in.Email = "not-an-email"
	_, err = svc.SaveBusiness(ctx, env.ownerID, in)
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestUsers_CreateAndAuthenticate(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()
	users := core.NewUserService(env.pool)

	u, err := users.CreateUser(ctx, "alice", "alice@test.local", "correct-horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct-horse", u.PasswordHash)

	got, err := users.Authenticate(ctx, "alice", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = users.Authenticate(ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, core.ErrUnauthorized)
	_, err = users.Authenticate(ctx, "nobody", "correct-horse")
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	_, err = users.CreateUser(ctx, "alice", "", "another-password")
	assert.ErrorIs(t, err, core.ErrValidation)
	_, err = users.CreateUser(ctx, "bob", "", "short")
	assert.ErrorIs(t, err, core.ErrValidation)
}
