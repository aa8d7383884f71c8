package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ecofuel/fleet-auth/internal/core/domain"
	"github.com/ecofuel/fleet-auth/internal/core/ports"
)

// UserHandler handles HTTP requests for account administration.
type UserHandler struct {
	users ports.UserService
}

func NewUserHandler(users ports.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type userResponse struct {
	ID         uint     `json:"id"`
	Username   string   `json:"username"`
	Email      string   `json:"email"`
	FullName   string   `json:"full_name"`
	Active     bool     `json:"active"`
	LastAccess string   `json:"last_access,omitempty"`
	Roles      []string `json:"roles"`
}

type userListResponse struct {
	Success bool           `json:"success"`
	Users   []userResponse `json:"users"`
}

type statusRequest struct {
	Active *bool `json:"active" validate:"required"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func toUserResponse(u *domain.User) userResponse {
	resp := userResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName(),
		Active:   u.Active,
		Roles:    u.RoleNames(),
	}
	if !u.LastAccess.IsZero() {
		resp.LastAccess = u.LastAccess.Format(time.RFC3339)
	}
	return resp
}

// List returns every registered account.
//
// @Summary      List all users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userListResponse
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.users.List(c.Request().Context())
	if err != nil {
		return err
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return c.JSON(http.StatusOK, userListResponse{Success: true, Users: out})
}

// ListByRole returns the accounts holding the role in the path.
//
// @Summary      List users by role
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Role ID"
// @Success      200  {object}  userListResponse
// @Failure      404  {object}  messageResponse
// @Router       /users/roles/{id} [get]
func (h *UserHandler) ListByRole(c echo.Context) error {
	roleID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid role id"})
	}

	users, err := h.users.ListByRole(c.Request().Context(), roleID)
	if err != nil {
		if errors.Is(err, domain.ErrRoleNotFound) {
			return c.JSON(http.StatusNotFound, messageResponse{Message: "role not found"})
		}
		return err
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return c.JSON(http.StatusOK, userListResponse{Success: true, Users: out})
}

// ChangeStatus activates or deactivates the account in the path.
//
// @Summary      Change a user's active status
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int            true  "User ID"
// @Param        body  body      statusRequest  true  "Desired status"
// @Success      200   {object}  messageResponse
// @Failure      404   {object}  messageResponse
// @Router       /users/{id}/status [patch]
func (h *UserHandler) ChangeStatus(c echo.Context) error {
	userID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid user id"})
	}

	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: err.Error()})
	}

	if err := h.users.ChangeStatus(c.Request().Context(), userID, *req.Active); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, messageResponse{Message: "user not found"})
		}
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: "status updated"})
}

// Deactivate disables the account in the path. Tokens already issued for
// the account stop working on their next request.
//
// @Summary      Deactivate a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  messageResponse
// @Failure      404  {object}  messageResponse
// @Router       /users/{id} [delete]
func (h *UserHandler) Deactivate(c echo.Context) error {
	userID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid user id"})
	}

	if err := h.users.Deactivate(c.Request().Context(), userID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, messageResponse{Message: "user not found"})
		}
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: "user deactivated"})
}

func pathID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}
