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

type TagHandler struct {
	tagService TagServiceInterface
}

func NewTagHandler(tagService TagServiceInterface) *TagHandler {
	return &TagHandler{tagService: tagService}
}

func (h *TagHandler) Create(c *drift.Context) {
	ownerID := middleware.GetResourceOwner(c)
	if ownerID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.CreateTagRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Name == "" {
		c.BadRequest("name is required")
		return
	}

	tag, err := h.tagService.Create(c.Request.Context(), ownerID, req.Name)
	if err != nil {
		if errors.Is(err, services.ErrConflict) {
			c.BadRequest("a tag with that name already exists")
			return
		}
		c.InternalServerError("failed to create tag")
		return
	}

	_ = c.JSON(201, tag)
}

func (h *TagHandler) List(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	tags, err := h.tagService.List(c.Request.Context(), userID)
	if err != nil {
		c.InternalServerError("failed to list tags")
		return
	}

	if tags == nil {
		tags = []models.Tag{}
	}
	_ = c.JSON(200, tags)
}

func (h *TagHandler) Delete(c *drift.Context) {
	userID := middleware.GetUserID(c)
	tagID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid tag id")
		return
	}

	if err := h.tagService.Delete(c.Request.Context(), tagID, userID); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.NotFound("tag not found")
			return
		}
		c.InternalServerError("failed to delete tag")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "tag deleted"})
}
