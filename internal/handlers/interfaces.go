package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/marko/tradelog-api/internal/models"
	"github.com/marko/tradelog-api/internal/oauth"
	"github.com/marko/tradelog-api/internal/services"
)

// UserServiceInterface defines the methods used by handlers from UserService
type UserServiceInterface interface {
	ResolveOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error)
	VerifyPassword(ctx context.Context, email, plaintext string) (*models.User, error)
	Register(ctx context.Context, email, displayName, password string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID) error
	UpdateProfile(ctx context.Context, id uuid.UUID, displayName string) (*models.User, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

// JWTServiceInterface defines the methods used by handlers from JWTService
type JWTServiceInterface interface {
	Issue(userID uuid.UUID) (string, error)
	Verify(tokenString string) (uuid.UUID, error)
	AccessExpiry() time.Duration
}

// SessionBridgeInterface defines the methods used by handlers from the session bridge
type SessionBridgeInterface interface {
	Serialize(user *models.User) (string, error)
	Deserialize(ctx context.Context, sid string) (*models.User, error)
	Revoke(sid string)
	TTL() time.Duration
}

// TradeServiceInterface defines the methods used by handlers from TradeService
type TradeServiceInterface interface {
	Create(ctx context.Context, ownerID uuid.UUID, in services.TradeInput) (*models.Trade, error)
	GetByID(ctx context.Context, tradeID, ownerID uuid.UUID) (*models.Trade, error)
	List(ctx context.Context, ownerID uuid.UUID, symbol string) ([]models.Trade, error)
	Update(ctx context.Context, tradeID, ownerID uuid.UUID, in services.TradeInput) (*models.Trade, error)
	Delete(ctx context.Context, tradeID, ownerID uuid.UUID) error
	TagTrade(ctx context.Context, tradeID, tagID, ownerID uuid.UUID) error
	UntagTrade(ctx context.Context, tradeID, tagID, ownerID uuid.UUID) error
}

// StrategyServiceInterface defines the methods used by handlers from StrategyService
type StrategyServiceInterface interface {
	Create(ctx context.Context, ownerID uuid.UUID, name string, description *string) (*models.Strategy, error)
	GetByID(ctx context.Context, strategyID, ownerID uuid.UUID) (*models.Strategy, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]models.Strategy, error)
	Update(ctx context.Context, strategyID, ownerID uuid.UUID, name string, description *string) (*models.Strategy, error)
	Delete(ctx context.Context, strategyID, ownerID uuid.UUID) error
}

// TagServiceInterface defines the methods used by handlers from TagService
type TagServiceInterface interface {
	Create(ctx context.Context, ownerID uuid.UUID, name string) (*models.Tag, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]models.Tag, error)
	Delete(ctx context.Context, tagID, ownerID uuid.UUID) error
}
