package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/marko/tradelog-api/internal/database"
	"github.com/marko/tradelog-api/internal/models"
)

const strategyColumns = `id, user_id, name, description, created_at, updated_at`

type StrategyService struct {
	db *database.DB
}

func NewStrategyService(db *database.DB) *StrategyService {
	return &StrategyService{db: db}
}

func (s *StrategyService) Create(ctx context.Context, ownerID uuid.UUID, name string, description *string) (*models.Strategy, error) {
	var strategy models.Strategy
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO strategies (user_id, name, description)
		VALUES ($1, $2, $3)
		RETURNING `+strategyColumns+`
	`, ownerID, name, description).Scan(strategyScanTargets(&strategy)...)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to create strategy: %w", err)
	}
	return &strategy, nil
}

func (s *StrategyService) GetByID(ctx context.Context, strategyID, ownerID uuid.UUID) (*models.Strategy, error) {
	var strategy models.Strategy
	err := s.db.Pool.QueryRow(ctx,
		`SELECT `+strategyColumns+` FROM strategies WHERE id = $1 AND user_id = $2`,
		strategyID, ownerID).Scan(strategyScanTargets(&strategy)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get strategy: %w", err)
	}
	return &strategy, nil
}

func (s *StrategyService) List(ctx context.Context, ownerID uuid.UUID) ([]models.Strategy, error) {
	rows, err := s.db.Pool.Query(ctx,
		`SELECT `+strategyColumns+` FROM strategies WHERE user_id = $1 ORDER BY name`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list strategies: %w", err)
	}
	defer rows.Close()

	var strategies []models.Strategy
	for rows.Next() {
		var strategy models.Strategy
		if err := rows.Scan(strategyScanTargets(&strategy)...); err != nil {
			return nil, fmt.Errorf("failed to scan strategy: %w", err)
		}
		strategies = append(strategies, strategy)
	}
	return strategies, rows.Err()
}

func (s *StrategyService) Update(ctx context.Context, strategyID, ownerID uuid.UUID, name string, description *string) (*models.Strategy, error) {
	var strategy models.Strategy
	err := s.db.Pool.QueryRow(ctx, `
		UPDATE strategies SET name = $1, description = $2, updated_at = NOW()
		WHERE id = $3 AND user_id = $4
		RETURNING `+strategyColumns+`
	`, name, description, strategyID, ownerID).Scan(strategyScanTargets(&strategy)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if database.IsUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to update strategy: %w", err)
	}
	return &strategy, nil
}

func (s *StrategyService) Delete(ctx context.Context, strategyID, ownerID uuid.UUID) error {
	result, err := s.db.Pool.Exec(ctx,
		`DELETE FROM strategies WHERE id = $1 AND user_id = $2`, strategyID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete strategy: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func strategyScanTargets(s *models.Strategy) []any {
	return []any{&s.ID, &s.UserID, &s.Name, &s.Description, &s.CreatedAt, &s.UpdatedAt}
}
