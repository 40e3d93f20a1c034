package handler

import (
	"github.com/budget/backend/internal/domain/identity"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserHandler handles user identity endpoints
type UserHandler struct {
	BaseHandler
	userRepo identity.UserRepository
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo identity.UserRepository) *UserHandler {
	return &UserHandler{userRepo: userRepo}
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID         string  `json:"id"`
	Email      string  `json:"email"`
	FullName   string  `json:"full_name"`
	DivisionID *string `json:"division_id,omitempty"`
}

func toUserResponse(user *identity.User) UserResponse {
	resp := UserResponse{
		ID:       user.ID.String(),
		Email:    user.Email,
		FullName: user.FullName(),
	}
	if user.DivisionID != nil {
		divisionID := user.DivisionID.String()
		resp.DivisionID = &divisionID
	}
	return resp
}

// GetMe returns the authenticated user's profile
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	user, err := h.userRepo.FindByID(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toUserResponse(user))
}

// GetByID returns a user's profile, used to display requestor and reviewer names
func (h *UserHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid user ID")
		return
	}

	user, err := h.userRepo.FindByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toUserResponse(user))
}
