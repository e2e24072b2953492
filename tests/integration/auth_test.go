package integration

import (
	"context"
	"sync"
	"testing"

	"github.com/marko/tradelog-api/internal/oauth"
	"github.com/marko/tradelog-api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_Integration_ResolveOAuth_CreateNew(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	svc := services.NewUserService(tdb.DB)
	ctx := context.Background()

	info := &oauth.UserInfo{
		Email:     "newuser@example.com",
		Name:      "New User",
		AvatarURL: "https://example.com/avatar.png",
		ID:        "github-12345",
		Provider:  "github",
	}

	user, err := svc.ResolveOAuth(ctx, info)

	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, info.Email, user.Email)
	assert.Equal(t, info.Name, user.DisplayName)
	require.NotNil(t, user.ExternalID)
	assert.Equal(t, info.ID, *user.ExternalID)
	assert.True(t, user.IsActive)
	assert.NotNil(t, user.LastLoginAt)
}

func TestUserService_Integration_ResolveOAuth_ReuseExisting(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	svc := services.NewUserService(tdb.DB)
	ctx := context.Background()

	info := &oauth.UserInfo{
		Email:    "existinguser@example.com",
		Name:     "Existing User",
		ID:       "github-99999",
		Provider: "github",
	}

	user1, err := svc.ResolveOAuth(ctx, info)
	require.NoError(t, err)

	user2, err := svc.ResolveOAuth(ctx, info)
	require.NoError(t, err)

	assert.Equal(t, user1.ID, user2.ID)

	var count int
	err = tdb.DB.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUserService_Integration_ResolveOAuth_LinksPasswordAccount(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	svc := services.NewUserService(tdb.DB)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "linked@example.com", "Linked", "hunter2hunter2")
	require.NoError(t, err)

	// Same email arrives from a provider with different casing.
	info := &oauth.UserInfo{
		Email:    "Linked@Example.COM",
		Name:     "Linked",
		ID:       "github-77777",
		Provider: "github",
	}

	user, err := svc.ResolveOAuth(ctx, info)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	require.NotNil(t, user.ExternalID)
	assert.Equal(t, info.ID, *user.ExternalID)

	// Both credentials now reach the same account.
	byPassword, err := svc.VerifyPassword(ctx, "linked@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, byPassword.ID)

	var count int
	err = tdb.DB.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUserService_Integration_ResolveOAuth_ConcurrentFirstLogin(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	svc := services.NewUserService(tdb.DB)
	ctx := context.Background()

	info := &oauth.UserInfo{
		Email:    "raced@example.com",
		Name:     "Raced",
		ID:       "github-race",
		Provider: "github",
	}

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.ResolveOAuth(ctx, info)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "resolution %d failed", i)
	}

	// All racers must have converged on a single row.
	var count int
	err := tdb.DB.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM users WHERE external_id = $1", info.ID).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUserService_Integration_Register_DuplicateEmail(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	svc := services.NewUserService(tdb.DB)
	ctx := context.Background()

	_, err := svc.Register(ctx, "taken@example.com", "First", "hunter2hunter2")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Taken@Example.com", "Second", "hunter2hunter2")
	assert.ErrorIs(t, err, services.ErrConflict)
}

func TestUserService_Integration_RegisterThenLogin(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	svc := services.NewUserService(tdb.DB)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "trader@example.com", "Trader", "hunter2hunter2")
	require.NoError(t, err)

	user, err := svc.VerifyPassword(ctx, "trader@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	_, err = svc.VerifyPassword(ctx, "trader@example.com", "wrong-password")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestUserService_Integration_DeactivationCutsAccess(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	svc := services.NewUserService(tdb.DB)
	ctx := context.Background()

	info := &oauth.UserInfo{
		Email:    "revoked@example.com",
		Name:     "Revoked",
		ID:       "github-revoked",
		Provider: "github",
	}
	user, err := svc.ResolveOAuth(ctx, info)
	require.NoError(t, err)

	_, err = svc.SetActive(ctx, user.ID, false)
	require.NoError(t, err)

	_, err = svc.ResolveOAuth(ctx, info)
	assert.ErrorIs(t, err, services.ErrRevokedIdentity)

	// Reactivation restores the same account.
	_, err = svc.SetActive(ctx, user.ID, true)
	require.NoError(t, err)

	restored, err := svc.ResolveOAuth(ctx, info)
	require.NoError(t, err)
	assert.Equal(t, user.ID, restored.ID)
}
