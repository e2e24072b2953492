package handlers

import (
	"errors"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/marko/tradelog-api/internal/middleware"
	"github.com/marko/tradelog-api/internal/models"
	"github.com/marko/tradelog-api/internal/services"
	"github.com/marko/tradelog-api/pkg/dto"
)

type StrategyHandler struct {
	strategyService StrategyServiceInterface
}

func NewStrategyHandler(strategyService StrategyServiceInterface) *StrategyHandler {
	return &StrategyHandler{strategyService: strategyService}
}

func (h *StrategyHandler) Create(c *drift.Context) {
	ownerID := middleware.GetResourceOwner(c)
	if ownerID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.CreateStrategyRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Name == "" {
		c.BadRequest("name is required")
		return
	}

	strategy, err := h.strategyService.Create(c.Request.Context(), ownerID, req.Name, req.Description)
	if err != nil {
		if errors.Is(err, services.ErrConflict) {
			c.BadRequest("a strategy with that name already exists")
			return
		}
		c.InternalServerError("failed to create strategy")
		return
	}

	_ = c.JSON(201, strategy)
}

func (h *StrategyHandler) List(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	strategies, err := h.strategyService.List(c.Request.Context(), userID)
	if err != nil {
		c.InternalServerError("failed to list strategies")
		return
	}

	if strategies == nil {
		strategies = []models.Strategy{}
	}
	_ = c.JSON(200, strategies)
}

func (h *StrategyHandler) Get(c *drift.Context) {
	userID := middleware.GetUserID(c)
	strategyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid strategy id")
		return
	}

	strategy, err := h.strategyService.GetByID(c.Request.Context(), strategyID, userID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.NotFound("strategy not found")
			return
		}
		c.InternalServerError("failed to get strategy")
		return
	}

	_ = c.JSON(200, strategy)
}

func (h *StrategyHandler) Update(c *drift.Context) {
	userID := middleware.GetUserID(c)
	strategyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid strategy id")
		return
	}

	var req dto.UpdateStrategyRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Name == "" {
		c.BadRequest("name is required")
		return
	}

	strategy, err := h.strategyService.Update(c.Request.Context(), strategyID, userID, req.Name, req.Description)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.NotFound("strategy not found")
			return
		}
		if errors.Is(err, services.ErrConflict) {
			c.BadRequest("a strategy with that name already exists")
			return
		}
		c.InternalServerError("failed to update strategy")
		return
	}

	_ = c.JSON(200, strategy)
}

func (h *StrategyHandler) Delete(c *drift.Context) {
	userID := middleware.GetUserID(c)
	strategyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid strategy id")
		return
	}

	if err := h.strategyService.Delete(c.Request.Context(), strategyID, userID); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.NotFound("strategy not found")
			return
		}
		c.InternalServerError("failed to delete strategy")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "strategy deleted"})
}
