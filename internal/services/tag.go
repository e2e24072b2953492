package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/marko/tradelog-api/internal/database"
	"github.com/marko/tradelog-api/internal/models"
)

type TagService struct {
	db *database.DB
}

func NewTagService(db *database.DB) *TagService {
	return &TagService{db: db}
}

func (s *TagService) Create(ctx context.Context, ownerID uuid.UUID, name string) (*models.Tag, error) {
	var tag models.Tag
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO tags (user_id, name)
		VALUES ($1, $2)
		RETURNING id, user_id, name, created_at
	`, ownerID, name).Scan(&tag.ID, &tag.UserID, &tag.Name, &tag.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}
	return &tag, nil
}

func (s *TagService) List(ctx context.Context, ownerID uuid.UUID) ([]models.Tag, error) {
	rows, err := s.db.Pool.Query(ctx,
		`SELECT id, user_id, name, created_at FROM tags WHERE user_id = $1 ORDER BY name`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var tag models.Tag
		if err := rows.Scan(&tag.ID, &tag.UserID, &tag.Name, &tag.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func (s *TagService) Delete(ctx context.Context, tagID, ownerID uuid.UUID) error {
	result, err := s.db.Pool.Exec(ctx,
		`DELETE FROM tags WHERE id = $1 AND user_id = $2`, tagID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
