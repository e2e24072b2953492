package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/marko/tradelog-api/internal/database"
	"github.com/marko/tradelog-api/internal/models"
	"github.com/marko/tradelog-api/internal/oauth"
	"golang.org/x/crypto/bcrypt"
)

const userColumns = `id, email, display_name, avatar_url, external_id, password_hash, role, is_active, last_login_at, created_at, updated_at`

// dummyHash is compared against when no stored hash exists, so a login
// attempt for an unknown email costs the same as a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("tradelog-dummy-password"), bcrypt.DefaultCost)

type UserService struct {
	db *database.DB
}

func NewUserService(db *database.DB) *UserService {
	return &UserService{db: db}
}

// NormalizeEmail lowercases and trims an email so the unique index only ever
// sees one canonical form per address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ResolveOAuth maps a provider profile onto exactly one user record:
// reuse the account already linked to the external id, otherwise link the
// external id onto the account owning the email, otherwise create a fresh
// account. A unique violation means a concurrent resolution won the race,
// in which case we retry the lookup path instead of failing.
func (s *UserService) ResolveOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error) {
	email := NormalizeEmail(info.Email)
	if email == "" {
		return nil, fmt.Errorf("oauth profile has no email")
	}

	for attempt := 0; attempt < 2; attempt++ {
		user, err := s.getBy(ctx, "external_id", info.ID)
		if err == nil {
			return s.loginLinked(ctx, user)
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("failed to look up user by external id: %w", err)
		}

		user, err = s.getBy(ctx, "email", email)
		if err == nil {
			linked, linkErr := s.link(ctx, user, info)
			if database.IsUniqueViolation(linkErr) {
				continue
			}
			return linked, linkErr
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("failed to look up user by email: %w", err)
		}

		user, err = s.createFromOAuth(ctx, info, email)
		if err == nil {
			return user, nil
		}
		if database.IsUniqueViolation(err) {
			continue
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return nil, fmt.Errorf("failed to resolve oauth identity for %s", email)
}

func (s *UserService) loginLinked(ctx context.Context, user *models.User) (*models.User, error) {
	if !user.IsActive {
		return nil, ErrRevokedIdentity
	}
	if err := s.TouchLastLogin(ctx, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

// link attaches the external identity to an existing password account with
// the same email. Role and active flag are left untouched.
func (s *UserService) link(ctx context.Context, user *models.User, info *oauth.UserInfo) (*models.User, error) {
	if !user.IsActive {
		return nil, ErrRevokedIdentity
	}

	var linked models.User
	err := s.db.Pool.QueryRow(ctx, `
		UPDATE users SET external_id = $1, avatar_url = $2, last_login_at = NOW(), updated_at = NOW()
		WHERE id = $3
		RETURNING `+userColumns+`
	`, info.ID, nullableString(info.AvatarURL), user.ID).Scan(scanTargets(&linked)...)
	if err != nil {
		return nil, err
	}
	return &linked, nil
}

func (s *UserService) createFromOAuth(ctx context.Context, info *oauth.UserInfo, email string) (*models.User, error) {
	var user models.User
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, display_name, avatar_url, external_id, role, is_active, last_login_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, NOW())
		RETURNING `+userColumns+`
	`, email, info.Name, nullableString(info.AvatarURL), info.ID, models.RoleUser).Scan(scanTargets(&user)...)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// VerifyPassword checks an email/password pair. Unknown emails, OAuth-only
// accounts and wrong passwords are indistinguishable to the caller.
func (s *UserService) VerifyPassword(ctx context.Context, email, plaintext string) (*models.User, error) {
	user, err := s.getBy(ctx, "email", NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(plaintext))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user by email: %w", err)
	}

	if user.PasswordHash == nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(plaintext))
		return nil, ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(plaintext)) != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrRevokedIdentity
	}

	return user, nil
}

// Register creates a password account. Duplicate emails come back as ErrConflict.
func (s *UserService) Register(ctx context.Context, email, displayName, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var user models.User
	err = s.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, display_name, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING `+userColumns+`
	`, NormalizeEmail(email), displayName, string(hash), models.RoleUser).Scan(scanTargets(&user)...)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.getBy(ctx, "id", id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up user by id: %w", err)
	}
	return user, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.getBy(ctx, "email", NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up user by email: %w", err)
	}
	return user, nil
}

func (s *UserService) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.Pool.Exec(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// UpdateProfile changes the fields a user may edit about themselves.
func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, displayName string) (*models.User, error) {
	var user models.User
	err := s.db.Pool.QueryRow(ctx, `
		UPDATE users SET display_name = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+userColumns+`
	`, displayName, id).Scan(scanTargets(&user)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return &user, nil
}

// SetActive flips the account gate. Admin-only; inactive users fail token
// verification on their next request.
func (s *UserService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.User, error) {
	var user models.User
	err := s.db.Pool.QueryRow(ctx, `
		UPDATE users SET is_active = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+userColumns+`
	`, active, id).Scan(scanTargets(&user)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return &user, nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.Pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(scanTargets(&user)...); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *UserService) getBy(ctx context.Context, column string, value any) (*models.User, error) {
	var user models.User
	err := s.db.Pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, value,
	).Scan(scanTargets(&user)...)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func scanTargets(u *models.User) []any {
	return []any{
		&u.ID, &u.Email, &u.DisplayName, &u.AvatarURL, &u.ExternalID,
		&u.PasswordHash, &u.Role, &u.IsActive, &u.LastLoginAt,
		&u.CreatedAt, &u.UpdatedAt,
	}
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
