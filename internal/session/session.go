// Package session holds the cookie-backed sessions used by the browser
// OAuth flow. A session stores nothing but the user id; the full record is
// re-resolved from the store on every request, so deactivated or deleted
// users are cut off immediately.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/marko/tradelog-api/internal/models"
)

const CookieName = "tradelog_session"

var ErrInvalidSession = fmt.Errorf("invalid session")

// UserResolver loads the user a session points at.
type UserResolver interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type entry struct {
	userID    uuid.UUID
	expiresAt time.Time
}

type Bridge struct {
	users    UserResolver
	ttl      time.Duration
	sessions sync.Map
}

func NewBridge(users UserResolver, ttl time.Duration) *Bridge {
	b := &Bridge{users: users, ttl: ttl}
	go b.cleanupExpired()
	return b
}

// Serialize creates a session for the user and returns its opaque id.
func (b *Bridge) Serialize(user *models.User) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	sid := base64.URLEncoding.EncodeToString(raw)

	b.sessions.Store(sid, entry{
		userID:    user.ID,
		expiresAt: time.Now().Add(b.ttl),
	})
	return sid, nil
}

// Deserialize resolves a session id back to a live user. Unknown, expired,
// or dangling sessions (user gone or deactivated) are invalid; callers must
// treat that as "re-authenticate", never as an anonymous pass-through.
func (b *Bridge) Deserialize(ctx context.Context, sid string) (*models.User, error) {
	value, ok := b.sessions.Load(sid)
	if !ok {
		return nil, ErrInvalidSession
	}

	e, ok := value.(entry)
	if !ok || time.Now().After(e.expiresAt) {
		b.sessions.Delete(sid)
		return nil, ErrInvalidSession
	}

	user, err := b.users.GetByID(ctx, e.userID)
	if err != nil || !user.IsActive {
		b.sessions.Delete(sid)
		return nil, ErrInvalidSession
	}

	return user, nil
}

// Revoke drops a session; the cookie holder is logged out.
func (b *Bridge) Revoke(sid string) {
	b.sessions.Delete(sid)
}

func (b *Bridge) TTL() time.Duration {
	return b.ttl
}

func (b *Bridge) cleanupExpired() {
	ticker := time.NewTicker(1 * time.Minute)
	for range ticker.C {
		now := time.Now()
		b.sessions.Range(func(key, value interface{}) bool {
			if e, ok := value.(entry); ok && now.After(e.expiresAt) {
				b.sessions.Delete(key)
			}
			return true
		})
	}
}
