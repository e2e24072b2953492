package testutil

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/marko/tradelog-api/internal/models"
	"github.com/marko/tradelog-api/internal/oauth"
	"github.com/marko/tradelog-api/internal/services"
	"github.com/stretchr/testify/mock"
)

// MockUserService mocks the UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) ResolveOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error) {
	args := m.Called(ctx, info)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) VerifyPassword(ctx context.Context, email, plaintext string) (*models.User, error) {
	args := m.Called(ctx, email, plaintext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Register(ctx context.Context, email, displayName, password string) (*models.User, error) {
	args := m.Called(ctx, email, displayName, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, id uuid.UUID, displayName string) (*models.User, error) {
	args := m.Called(ctx, id, displayName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.User, error) {
	args := m.Called(ctx, id, active)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) List(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

// MockJWTService mocks the JWTService
type MockJWTService struct {
	mock.Mock
}

func (m *MockJWTService) Issue(userID uuid.UUID) (string, error) {
	args := m.Called(userID)
	return args.String(0), args.Error(1)
}

func (m *MockJWTService) Verify(tokenString string) (uuid.UUID, error) {
	args := m.Called(tokenString)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockJWTService) AccessExpiry() time.Duration {
	args := m.Called()
	return args.Get(0).(time.Duration)
}

// MockSessionBridge mocks the session bridge
type MockSessionBridge struct {
	mock.Mock
}

func (m *MockSessionBridge) Serialize(user *models.User) (string, error) {
	args := m.Called(user)
	return args.String(0), args.Error(1)
}

func (m *MockSessionBridge) Deserialize(ctx context.Context, sid string) (*models.User, error) {
	args := m.Called(ctx, sid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockSessionBridge) Revoke(sid string) {
	m.Called(sid)
}

func (m *MockSessionBridge) TTL() time.Duration {
	args := m.Called()
	return args.Get(0).(time.Duration)
}

// MockTradeService mocks the TradeService
type MockTradeService struct {
	mock.Mock
}

func (m *MockTradeService) Create(ctx context.Context, ownerID uuid.UUID, in services.TradeInput) (*models.Trade, error) {
	args := m.Called(ctx, ownerID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trade), args.Error(1)
}

func (m *MockTradeService) GetByID(ctx context.Context, tradeID, ownerID uuid.UUID) (*models.Trade, error) {
	args := m.Called(ctx, tradeID, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trade), args.Error(1)
}

func (m *MockTradeService) List(ctx context.Context, ownerID uuid.UUID, symbol string) ([]models.Trade, error) {
	args := m.Called(ctx, ownerID, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Trade), args.Error(1)
}

func (m *MockTradeService) Update(ctx context.Context, tradeID, ownerID uuid.UUID, in services.TradeInput) (*models.Trade, error) {
	args := m.Called(ctx, tradeID, ownerID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trade), args.Error(1)
}

func (m *MockTradeService) Delete(ctx context.Context, tradeID, ownerID uuid.UUID) error {
	args := m.Called(ctx, tradeID, ownerID)
	return args.Error(0)
}

func (m *MockTradeService) TagTrade(ctx context.Context, tradeID, tagID, ownerID uuid.UUID) error {
	args := m.Called(ctx, tradeID, tagID, ownerID)
	return args.Error(0)
}

func (m *MockTradeService) UntagTrade(ctx context.Context, tradeID, tagID, ownerID uuid.UUID) error {
	args := m.Called(ctx, tradeID, tagID, ownerID)
	return args.Error(0)
}

// MockStrategyService mocks the StrategyService
type MockStrategyService struct {
	mock.Mock
}

func (m *MockStrategyService) Create(ctx context.Context, ownerID uuid.UUID, name string, description *string) (*models.Strategy, error) {
	args := m.Called(ctx, ownerID, name, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Strategy), args.Error(1)
}

func (m *MockStrategyService) GetByID(ctx context.Context, strategyID, ownerID uuid.UUID) (*models.Strategy, error) {
	args := m.Called(ctx, strategyID, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Strategy), args.Error(1)
}

func (m *MockStrategyService) List(ctx context.Context, ownerID uuid.UUID) ([]models.Strategy, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Strategy), args.Error(1)
}

func (m *MockStrategyService) Update(ctx context.Context, strategyID, ownerID uuid.UUID, name string, description *string) (*models.Strategy, error) {
	args := m.Called(ctx, strategyID, ownerID, name, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Strategy), args.Error(1)
}

func (m *MockStrategyService) Delete(ctx context.Context, strategyID, ownerID uuid.UUID) error {
	args := m.Called(ctx, strategyID, ownerID)
	return args.Error(0)
}

// MockTagService mocks the TagService
type MockTagService struct {
	mock.Mock
}

func (m *MockTagService) Create(ctx context.Context, ownerID uuid.UUID, name string) (*models.Tag, error) {
	args := m.Called(ctx, ownerID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tag), args.Error(1)
}

func (m *MockTagService) List(ctx context.Context, ownerID uuid.UUID) ([]models.Tag, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Tag), args.Error(1)
}

func (m *MockTagService) Delete(ctx context.Context, tagID, ownerID uuid.UUID) error {
	args := m.Called(ctx, tagID, ownerID)
	return args.Error(0)
}

// MockOAuthProvider mocks an oauth.Provider
type MockOAuthProvider struct {
	mock.Mock
}

func (m *MockOAuthProvider) GetConsentURL(state string) string {
	args := m.Called(state)
	return args.String(0)
}

func (m *MockOAuthProvider) ExchangeCode(ctx context.Context, code string) (*oauth.UserInfo, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauth.UserInfo), args.Error(1)
}

func (m *MockOAuthProvider) Name() string {
	args := m.Called()
	return args.String(0)
}
