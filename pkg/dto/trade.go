package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateTradeRequest struct {
	Symbol     string     `json:"symbol"`
	Side       string     `json:"side"`
	Quantity   float64    `json:"quantity"`
	EntryPrice float64    `json:"entry_price"`
	ExitPrice  *float64   `json:"exit_price,omitempty"`
	OpenedAt   time.Time  `json:"opened_at"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`
	StrategyID *uuid.UUID `json:"strategy_id,omitempty"`
	Notes      *string    `json:"notes,omitempty"`

	// Ignored on input; the authenticated caller always owns the trade.
	UserID *uuid.UUID `json:"user_id,omitempty"`
}

type UpdateTradeRequest = CreateTradeRequest

type TagTradeRequest struct {
	TagID uuid.UUID `json:"tag_id"`
}
