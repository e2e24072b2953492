package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/marko/tradelog-api/internal/database"
	"github.com/marko/tradelog-api/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

// NewFixtures creates a new fixtures factory
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// UserOption configures a test user
type UserOption func(*models.User)

// WithEmail sets the user's email
func WithEmail(email string) UserOption {
	return func(u *models.User) {
		u.Email = email
	}
}

// WithDisplayName sets the user's display name
func WithDisplayName(name string) UserOption {
	return func(u *models.User) {
		u.DisplayName = name
	}
}

// WithPassword stores a bcrypt hash of the given password
func WithPassword(t *testing.T, password string) UserOption {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	h := string(hash)
	return func(u *models.User) {
		u.PasswordHash = &h
	}
}

// WithExternalID links the user to an OAuth identity
func WithExternalID(externalID string) UserOption {
	return func(u *models.User) {
		u.ExternalID = &externalID
	}
}

// WithRole sets the user's role
func WithRole(role string) UserOption {
	return func(u *models.User) {
		u.Role = role
	}
}

// Deactivated marks the account inactive
func Deactivated() UserOption {
	return func(u *models.User) {
		u.IsActive = false
	}
}

// CreateUser creates a test user with default values
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	f.counter++

	user := &models.User{
		Email:       fmt.Sprintf("user%d@example.com", f.counter),
		DisplayName: fmt.Sprintf("Test User %d", f.counter),
		Role:        models.RoleUser,
		IsActive:    true,
	}

	for _, opt := range opts {
		opt(user)
	}

	if user.PasswordHash == nil && user.ExternalID == nil {
		externalID := fmt.Sprintf("ext-%d", f.counter)
		user.ExternalID = &externalID
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, display_name, avatar_url, external_id, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, user.Email, user.DisplayName, user.AvatarURL, user.ExternalID,
		user.PasswordHash, user.Role, user.IsActive).Scan(
		&user.ID, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user
}

// CreateStrategy creates a test strategy owned by the given user
func (f *Fixtures) CreateStrategy(t *testing.T, ownerID uuid.UUID, name string) *models.Strategy {
	t.Helper()

	strategy := &models.Strategy{
		UserID: ownerID,
		Name:   name,
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO strategies (user_id, name)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`, ownerID, name).Scan(&strategy.ID, &strategy.CreatedAt, &strategy.UpdatedAt)
	if err != nil {
		t.Fatalf("failed to create strategy: %v", err)
	}

	return strategy
}

// CreateTrade creates a test trade owned by the given user
func (f *Fixtures) CreateTrade(t *testing.T, ownerID uuid.UUID, symbol string) *models.Trade {
	t.Helper()

	trade := &models.Trade{
		UserID:     ownerID,
		Symbol:     symbol,
		Side:       models.SideLong,
		Quantity:   10,
		EntryPrice: 100,
		OpenedAt:   time.Now().Add(-time.Hour),
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO trades (user_id, symbol, side, quantity, entry_price, opened_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, ownerID, trade.Symbol, trade.Side, trade.Quantity, trade.EntryPrice, trade.OpenedAt).Scan(
		&trade.ID, &trade.CreatedAt, &trade.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create trade: %v", err)
	}

	return trade
}

// CreateTag creates a test tag owned by the given user
func (f *Fixtures) CreateTag(t *testing.T, ownerID uuid.UUID, name string) *models.Tag {
	t.Helper()

	tag := &models.Tag{
		UserID: ownerID,
		Name:   name,
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO tags (user_id, name)
		VALUES ($1, $2)
		RETURNING id, created_at
	`, ownerID, name).Scan(&tag.ID, &tag.CreatedAt)
	if err != nil {
		t.Fatalf("failed to create tag: %v", err)
	}

	return tag
}
