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

type TradeHandler struct {
	tradeService TradeServiceInterface
}

func NewTradeHandler(tradeService TradeServiceInterface) *TradeHandler {
	return &TradeHandler{tradeService: tradeService}
}

func (h *TradeHandler) Create(c *drift.Context) {
	// Owner comes from the ownership middleware, never from the payload.
	ownerID := middleware.GetResourceOwner(c)
	if ownerID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.CreateTradeRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	input, err := tradeInput(&req)
	if err != nil {
		c.BadRequest(err.Error())
		return
	}

	trade, err := h.tradeService.Create(c.Request.Context(), ownerID, input)
	if err != nil {
		c.InternalServerError("failed to create trade")
		return
	}

	_ = c.JSON(201, trade)
}

func (h *TradeHandler) List(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	trades, err := h.tradeService.List(c.Request.Context(), userID, c.QueryParam("symbol"))
	if err != nil {
		c.InternalServerError("failed to list trades")
		return
	}

	if trades == nil {
		trades = []models.Trade{}
	}
	_ = c.JSON(200, trades)
}

func (h *TradeHandler) Get(c *drift.Context) {
	userID := middleware.GetUserID(c)
	tradeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid trade id")
		return
	}

	trade, err := h.tradeService.GetByID(c.Request.Context(), tradeID, userID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.NotFound("trade not found")
			return
		}
		c.InternalServerError("failed to get trade")
		return
	}

	_ = c.JSON(200, trade)
}

func (h *TradeHandler) Update(c *drift.Context) {
	userID := middleware.GetUserID(c)
	tradeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid trade id")
		return
	}

	var req dto.UpdateTradeRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	input, err := tradeInput(&req)
	if err != nil {
		c.BadRequest(err.Error())
		return
	}

	trade, err := h.tradeService.Update(c.Request.Context(), tradeID, userID, input)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.NotFound("trade not found")
			return
		}
		c.InternalServerError("failed to update trade")
		return
	}

	_ = c.JSON(200, trade)
}

func (h *TradeHandler) Delete(c *drift.Context) {
	userID := middleware.GetUserID(c)
	tradeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid trade id")
		return
	}

	if err := h.tradeService.Delete(c.Request.Context(), tradeID, userID); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.NotFound("trade not found")
			return
		}
		c.InternalServerError("failed to delete trade")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "trade deleted"})
}

func (h *TradeHandler) Tag(c *drift.Context) {
	userID := middleware.GetUserID(c)
	tradeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid trade id")
		return
	}

	var req dto.TagTradeRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if err := h.tradeService.TagTrade(c.Request.Context(), tradeID, req.TagID, userID); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.NotFound("trade or tag not found")
			return
		}
		c.InternalServerError("failed to tag trade")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "trade tagged"})
}

func (h *TradeHandler) Untag(c *drift.Context) {
	userID := middleware.GetUserID(c)
	tradeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid trade id")
		return
	}
	tagID, err := uuid.Parse(c.Param("tagId"))
	if err != nil {
		c.BadRequest("invalid tag id")
		return
	}

	if err := h.tradeService.UntagTrade(c.Request.Context(), tradeID, tagID, userID); err != nil {
		c.InternalServerError("failed to untag trade")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "trade untagged"})
}

func tradeInput(req *dto.CreateTradeRequest) (services.TradeInput, error) {
	if req.Symbol == "" {
		return services.TradeInput{}, errors.New("symbol is required")
	}
	if req.Side != models.SideLong && req.Side != models.SideShort {
		return services.TradeInput{}, errors.New("side must be long or short")
	}
	if req.Quantity <= 0 {
		return services.TradeInput{}, errors.New("quantity must be positive")
	}
	if req.OpenedAt.IsZero() {
		return services.TradeInput{}, errors.New("opened_at is required")
	}

	return services.TradeInput{
		Symbol:     req.Symbol,
		Side:       req.Side,
		Quantity:   req.Quantity,
		EntryPrice: req.EntryPrice,
		ExitPrice:  req.ExitPrice,
		OpenedAt:   req.OpenedAt,
		ClosedAt:   req.ClosedAt,
		StrategyID: req.StrategyID,
		Notes:      req.Notes,
	}, nil
}
