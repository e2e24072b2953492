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

type UserHandler struct {
	userService UserServiceInterface
}

func NewUserHandler(userService UserServiceInterface) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) GetMe(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.NotFound("user not found")
		return
	}

	_ = c.JSON(200, userResponse(user))
}

// UpdateMe only accepts profile fields. Role and active flag are not
// bindable here or anywhere else in the client-facing surface.
func (h *UserHandler) UpdateMe(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.UpdateUserRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.DisplayName == "" {
		c.BadRequest("display_name is required")
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, req.DisplayName)
	if err != nil {
		c.InternalServerError("failed to update profile")
		return
	}

	_ = c.JSON(200, userResponse(user))
}

// ListUsers is reachable only behind RequireRole(admin).
func (h *UserHandler) ListUsers(c *drift.Context) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		c.InternalServerError("failed to list users")
		return
	}

	responses := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, userResponse(&users[i]))
	}

	_ = c.JSON(200, responses)
}

// SetUserActive is the administrative gate on an account. Deactivation takes
// effect on the target's very next request.
func (h *UserHandler) SetUserActive(c *drift.Context) {
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid user id")
		return
	}

	var req dto.SetUserActiveRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if targetID == middleware.GetUserID(c) && !req.IsActive {
		c.BadRequest("cannot deactivate your own account")
		return
	}

	user, err := h.userService.SetActive(c.Request.Context(), targetID, req.IsActive)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.NotFound("user not found")
			return
		}
		c.InternalServerError("failed to update user")
		return
	}

	_ = c.JSON(200, userResponse(user))
}

func userResponse(user *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarURL,
		Role:        user.Role,
		IsActive:    user.IsActive,
		LastLoginAt: user.LastLoginAt,
	}
}
