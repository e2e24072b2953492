package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/marko/tradelog-api/internal/database"
	"github.com/marko/tradelog-api/internal/models"
)

const tradeColumns = `id, user_id, strategy_id, symbol, side, quantity, entry_price, exit_price, opened_at, closed_at, notes, created_at, updated_at`

type TradeService struct {
	db *database.DB
}

func NewTradeService(db *database.DB) *TradeService {
	return &TradeService{db: db}
}

type TradeInput struct {
	Symbol     string
	Side       string
	Quantity   float64
	EntryPrice float64
	ExitPrice  *float64
	OpenedAt   time.Time
	ClosedAt   *time.Time
	StrategyID *uuid.UUID
	Notes      *string
}

// Create stamps the trade with the owner decided by the authorization layer,
// never with a client-supplied user id.
func (s *TradeService) Create(ctx context.Context, ownerID uuid.UUID, in TradeInput) (*models.Trade, error) {
	var trade models.Trade
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO trades (user_id, strategy_id, symbol, side, quantity, entry_price, exit_price, opened_at, closed_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+tradeColumns+`
	`, ownerID, in.StrategyID, in.Symbol, in.Side, in.Quantity, in.EntryPrice,
		in.ExitPrice, in.OpenedAt, in.ClosedAt, in.Notes).Scan(tradeScanTargets(&trade)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create trade: %w", err)
	}
	return &trade, nil
}

// GetByID is scoped to the owner; a trade belonging to someone else is
// indistinguishable from a missing one.
func (s *TradeService) GetByID(ctx context.Context, tradeID, ownerID uuid.UUID) (*models.Trade, error) {
	var trade models.Trade
	err := s.db.Pool.QueryRow(ctx,
		`SELECT `+tradeColumns+` FROM trades WHERE id = $1 AND user_id = $2`,
		tradeID, ownerID).Scan(tradeScanTargets(&trade)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}
	return &trade, nil
}

func (s *TradeService) List(ctx context.Context, ownerID uuid.UUID, symbol string) ([]models.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE user_id = $1`
	args := []any{ownerID}
	if symbol != "" {
		query += ` AND symbol = $2`
		args = append(args, symbol)
	}
	query += ` ORDER BY opened_at DESC`

	rows, err := s.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		var trade models.Trade
		if err := rows.Scan(tradeScanTargets(&trade)...); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, trade)
	}
	return trades, rows.Err()
}

func (s *TradeService) Update(ctx context.Context, tradeID, ownerID uuid.UUID, in TradeInput) (*models.Trade, error) {
	var trade models.Trade
	err := s.db.Pool.QueryRow(ctx, `
		UPDATE trades
		SET strategy_id = $1, symbol = $2, side = $3, quantity = $4, entry_price = $5,
		    exit_price = $6, opened_at = $7, closed_at = $8, notes = $9, updated_at = NOW()
		WHERE id = $10 AND user_id = $11
		RETURNING `+tradeColumns+`
	`, in.StrategyID, in.Symbol, in.Side, in.Quantity, in.EntryPrice,
		in.ExitPrice, in.OpenedAt, in.ClosedAt, in.Notes, tradeID, ownerID).Scan(tradeScanTargets(&trade)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update trade: %w", err)
	}
	return &trade, nil
}

func (s *TradeService) Delete(ctx context.Context, tradeID, ownerID uuid.UUID) error {
	result, err := s.db.Pool.Exec(ctx,
		`DELETE FROM trades WHERE id = $1 AND user_id = $2`, tradeID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete trade: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TagTrade attaches an existing tag. Both rows are owner-checked before the
// join row is written.
func (s *TradeService) TagTrade(ctx context.Context, tradeID, tagID, ownerID uuid.UUID) error {
	result, err := s.db.Pool.Exec(ctx, `
		INSERT INTO trade_tags (trade_id, tag_id)
		SELECT t.id, g.id FROM trades t, tags g
		WHERE t.id = $1 AND t.user_id = $3 AND g.id = $2 AND g.user_id = $3
		ON CONFLICT DO NOTHING
	`, tradeID, tagID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to tag trade: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *TradeService) UntagTrade(ctx context.Context, tradeID, tagID, ownerID uuid.UUID) error {
	_, err := s.db.Pool.Exec(ctx, `
		DELETE FROM trade_tags tt
		USING trades t
		WHERE tt.trade_id = t.id AND tt.trade_id = $1 AND tt.tag_id = $2 AND t.user_id = $3
	`, tradeID, tagID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to untag trade: %w", err)
	}
	return nil
}

func tradeScanTargets(t *models.Trade) []any {
	return []any{
		&t.ID, &t.UserID, &t.StrategyID, &t.Symbol, &t.Side, &t.Quantity,
		&t.EntryPrice, &t.ExitPrice, &t.OpenedAt, &t.ClosedAt, &t.Notes,
		&t.CreatedAt, &t.UpdatedAt,
	}
}
