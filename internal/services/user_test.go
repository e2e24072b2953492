package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/marko/tradelog-api/internal/database"
	"github.com/marko/tradelog-api/internal/models"
	"github.com/marko/tradelog-api/internal/oauth"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func setupUserService(t *testing.T) (*UserService, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	db := &database.DB{Pool: mock}
	return NewUserService(db), mock
}

var userTestColumns = []string{
	"id", "email", "display_name", "avatar_url", "external_id", "password_hash",
	"role", "is_active", "last_login_at", "created_at", "updated_at",
}

func userRows(u *models.User) *pgxmock.Rows {
	return pgxmock.NewRows(userTestColumns).AddRow(
		u.ID, u.Email, u.DisplayName, u.AvatarURL, u.ExternalID, u.PasswordHash,
		u.Role, u.IsActive, u.LastLoginAt, u.CreatedAt, u.UpdatedAt,
	)
}

func activeUser() *models.User {
	now := time.Now()
	return &models.User{
		ID:          uuid.New(),
		Email:       "trader@example.com",
		DisplayName: "Trader",
		Role:        models.RoleUser,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func uniqueViolation() *pgconn.PgError {
	return &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
}

func TestNormalizeEmail(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"Trader@Example.COM", "trader@example.com"},
		{"  trader@example.com  ", "trader@example.com"},
		{"trader@example.com", "trader@example.com"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, NormalizeEmail(tc.in))
	}
}

func TestUserService_ResolveOAuth_CreateNew(t *testing.T) {
	svc, mock := setupUserService(t)
	ctx := context.Background()
	info := &oauth.UserInfo{
		Email:     "New@Example.com",
		Name:      "New User",
		AvatarURL: "https://example.com/avatar.png",
		ID:        "gh-123",
		Provider:  "github",
	}
	created := activeUser()
	created.Email = "new@example.com"
	created.DisplayName = info.Name
	created.ExternalID = &info.ID

	mock.ExpectQuery(`SELECT .+ FROM users WHERE external_id`).
		WithArgs(info.ID).
		WillReturnError(pgx.ErrNoRows)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE email`).
		WithArgs("new@example.com").
		WillReturnError(pgx.ErrNoRows)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("new@example.com", info.Name, &info.AvatarURL, info.ID, models.RoleUser).
		WillReturnRows(userRows(created))

	user, err := svc.ResolveOAuth(ctx, info)

	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.Equal(t, "new@example.com", user.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_ResolveOAuth_ReuseLinked(t *testing.T) {
	svc, mock := setupUserService(t)
	ctx := context.Background()
	info := &oauth.UserInfo{Email: "trader@example.com", ID: "gh-456", Provider: "github"}
	existing := activeUser()
	existing.ExternalID = &info.ID

	mock.ExpectQuery(`SELECT .+ FROM users WHERE external_id`).
		WithArgs(info.ID).
		WillReturnRows(userRows(existing))

	mock.ExpectExec(`UPDATE users SET last_login_at`).
		WithArgs(existing.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	user, err := svc.ResolveOAuth(ctx, info)

	require.NoError(t, err)
	assert.Equal(t, existing.ID, user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_ResolveOAuth_LinksByEmail(t *testing.T) {
	svc, mock := setupUserService(t)
	ctx := context.Background()
	info := &oauth.UserInfo{
		Email:     "trader@example.com",
		Name:      "Trader",
		AvatarURL: "https://example.com/new.png",
		ID:        "gh-789",
		Provider:  "github",
	}
	hash := "some-bcrypt-hash"
	existing := activeUser()
	existing.PasswordHash = &hash

	linked := *existing
	linked.ExternalID = &info.ID
	linked.AvatarURL = &info.AvatarURL

	mock.ExpectQuery(`SELECT .+ FROM users WHERE external_id`).
		WithArgs(info.ID).
		WillReturnError(pgx.ErrNoRows)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE email`).
		WithArgs(existing.Email).
		WillReturnRows(userRows(existing))

	mock.ExpectQuery(`UPDATE users SET external_id`).
		WithArgs(info.ID, &info.AvatarURL, existing.ID).
		WillReturnRows(userRows(&linked))

	user, err := svc.ResolveOAuth(ctx, info)

	require.NoError(t, err)
	assert.Equal(t, existing.ID, user.ID)
	require.NotNil(t, user.ExternalID)
	assert.Equal(t, info.ID, *user.ExternalID)
	require.NotNil(t, user.PasswordHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_ResolveOAuth_RetriesAfterCreateRace(t *testing.T) {
	svc, mock := setupUserService(t)
	ctx := context.Background()
	info := &oauth.UserInfo{Email: "raced@example.com", Name: "Raced", ID: "gh-race", Provider: "github"}
	winner := activeUser()
	winner.Email = "raced@example.com"
	winner.ExternalID = &info.ID

	// First attempt loses the insert race to a concurrent resolution.
	mock.ExpectQuery(`SELECT .+ FROM users WHERE external_id`).
		WithArgs(info.ID).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`SELECT .+ FROM users WHERE email`).
		WithArgs(winner.Email).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(winner.Email, info.Name, pgxmock.AnyArg(), info.ID, models.RoleUser).
		WillReturnError(uniqueViolation())

	// Second attempt finds the row the winner created.
	mock.ExpectQuery(`SELECT .+ FROM users WHERE external_id`).
		WithArgs(info.ID).
		WillReturnRows(userRows(winner))
	mock.ExpectExec(`UPDATE users SET last_login_at`).
		WithArgs(winner.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	user, err := svc.ResolveOAuth(ctx, info)

	require.NoError(t, err)
	assert.Equal(t, winner.ID, user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_ResolveOAuth_RevokedIdentity(t *testing.T) {
	svc, mock := setupUserService(t)
	ctx := context.Background()
	info := &oauth.UserInfo{Email: "trader@example.com", ID: "gh-off", Provider: "github"}
	existing := activeUser()
	existing.ExternalID = &info.ID
	existing.IsActive = false

	mock.ExpectQuery(`SELECT .+ FROM users WHERE external_id`).
		WithArgs(info.ID).
		WillReturnRows(userRows(existing))

	_, err := svc.ResolveOAuth(ctx, info)

	assert.ErrorIs(t, err, ErrRevokedIdentity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_ResolveOAuth_NoEmail(t *testing.T) {
	svc, _ := setupUserService(t)

	_, err := svc.ResolveOAuth(context.Background(), &oauth.UserInfo{ID: "gh-1", Provider: "github"})

	assert.Error(t, err)
}

func TestUserService_VerifyPassword_Success(t *testing.T) {
	svc, mock := setupUserService(t)
	ctx := context.Background()

	hashBytes, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	hash := string(hashBytes)

	existing := activeUser()
	existing.PasswordHash = &hash

	mock.ExpectQuery(`SELECT .+ FROM users WHERE email`).
		WithArgs(existing.Email).
		WillReturnRows(userRows(existing))

	user, err := svc.VerifyPassword(ctx, "Trader@Example.com", "correct-horse")

	require.NoError(t, err)
	assert.Equal(t, existing.ID, user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_VerifyPassword_WrongPassword(t *testing.T) {
	svc, mock := setupUserService(t)

	hashBytes, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	hash := string(hashBytes)

	existing := activeUser()
	existing.PasswordHash = &hash

	mock.ExpectQuery(`SELECT .+ FROM users WHERE email`).
		WithArgs(existing.Email).
		WillReturnRows(userRows(existing))

	_, err = svc.VerifyPassword(context.Background(), existing.Email, "wrong-password")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserService_VerifyPassword_UnknownEmail(t *testing.T) {
	svc, mock := setupUserService(t)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE email`).
		WithArgs("nobody@example.com").
		WillReturnError(pgx.ErrNoRows)

	_, err := svc.VerifyPassword(context.Background(), "nobody@example.com", "whatever")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserService_VerifyPassword_OAuthOnlyAccount(t *testing.T) {
	svc, mock := setupUserService(t)
	externalID := "gh-123"
	existing := activeUser()
	existing.ExternalID = &externalID

	mock.ExpectQuery(`SELECT .+ FROM users WHERE email`).
		WithArgs(existing.Email).
		WillReturnRows(userRows(existing))

	_, err := svc.VerifyPassword(context.Background(), existing.Email, "whatever")

	// Same failure as a wrong password, nothing leaks about the account shape.
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserService_VerifyPassword_DeactivatedAccount(t *testing.T) {
	svc, mock := setupUserService(t)

	hashBytes, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	hash := string(hashBytes)

	existing := activeUser()
	existing.PasswordHash = &hash
	existing.IsActive = false

	mock.ExpectQuery(`SELECT .+ FROM users WHERE email`).
		WithArgs(existing.Email).
		WillReturnRows(userRows(existing))

	_, err = svc.VerifyPassword(context.Background(), existing.Email, "correct-horse")

	assert.ErrorIs(t, err, ErrRevokedIdentity)
}

func TestUserService_Register_Success(t *testing.T) {
	svc, mock := setupUserService(t)
	created := activeUser()

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(created.Email, created.DisplayName, pgxmock.AnyArg(), models.RoleUser).
		WillReturnRows(userRows(created))

	user, err := svc.Register(context.Background(), "Trader@Example.com", "Trader", "hunter2hunter2")

	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.True(t, user.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_Register_DuplicateEmail(t *testing.T) {
	svc, mock := setupUserService(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("taken@example.com", "Trader", pgxmock.AnyArg(), models.RoleUser).
		WillReturnError(uniqueViolation())

	_, err := svc.Register(context.Background(), "taken@example.com", "Trader", "hunter2hunter2")

	assert.ErrorIs(t, err, ErrConflict)
}

func TestUserService_GetByID_NotFound(t *testing.T) {
	svc, mock := setupUserService(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM users WHERE id`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := svc.GetByID(context.Background(), id)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserService_UpdateProfile(t *testing.T) {
	svc, mock := setupUserService(t)
	updated := activeUser()
	updated.DisplayName = "Renamed"

	mock.ExpectQuery(`UPDATE users SET display_name`).
		WithArgs("Renamed", updated.ID).
		WillReturnRows(userRows(updated))

	user, err := svc.UpdateProfile(context.Background(), updated.ID, "Renamed")

	require.NoError(t, err)
	assert.Equal(t, "Renamed", user.DisplayName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_SetActive(t *testing.T) {
	svc, mock := setupUserService(t)
	updated := activeUser()
	updated.IsActive = false

	mock.ExpectQuery(`UPDATE users SET is_active`).
		WithArgs(false, updated.ID).
		WillReturnRows(userRows(updated))

	user, err := svc.SetActive(context.Background(), updated.ID, false)

	require.NoError(t, err)
	assert.False(t, user.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_List(t *testing.T) {
	svc, mock := setupUserService(t)
	first := activeUser()
	second := activeUser()
	second.Email = "second@example.com"

	rows := pgxmock.NewRows(userTestColumns).
		AddRow(first.ID, first.Email, first.DisplayName, first.AvatarURL, first.ExternalID,
			first.PasswordHash, first.Role, first.IsActive, first.LastLoginAt, first.CreatedAt, first.UpdatedAt).
		AddRow(second.ID, second.Email, second.DisplayName, second.AvatarURL, second.ExternalID,
			second.PasswordHash, second.Role, second.IsActive, second.LastLoginAt, second.CreatedAt, second.UpdatedAt)

	mock.ExpectQuery(`SELECT .+ FROM users ORDER BY created_at`).
		WillReturnRows(rows)

	users, err := svc.List(context.Background())

	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, first.Email, users[0].Email)
	assert.Equal(t, second.Email, users[1].Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}
