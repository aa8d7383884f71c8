package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ecofuel/fleet-auth/internal/core/domain"
	"github.com/ecofuel/fleet-auth/internal/core/ports"
)

// AuthHandler handles HTTP requests for login and account registration.
type AuthHandler struct {
	auth   ports.AuthService
	issuer ports.TokenIssuer
}

func NewAuthHandler(auth ports.AuthService, issuer ports.TokenIssuer) *AuthHandler {
	return &AuthHandler{auth: auth, issuer: issuer}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	RoleID    uint   `json:"role_id" validate:"required,gt=0"`
}

type authResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

// Login authenticates with email and password and returns a signed token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  authResponse
// @Failure      401   {object}  authResponse
// @Failure      429   {object}  authResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, authResponse{Message: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, authResponse{Message: err.Error()})
	}

	user, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			return c.JSON(http.StatusUnauthorized, authResponse{Message: "invalid email or password"})
		case errors.Is(err, domain.ErrAccountInactive):
			return c.JSON(http.StatusForbidden, authResponse{Message: "user account is deactivated"})
		case errors.Is(err, domain.ErrLoginThrottled):
			return c.JSON(http.StatusTooManyRequests, authResponse{Message: "too many failed attempts, try again later"})
		}
		return err
	}

	token, err := h.issuer.Issue(user)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, authResponse{Success: true, Message: "login successful", Token: token})
}

// Register creates a new account with the requested role.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  authResponse
// @Failure      409   {object}  authResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, authResponse{Message: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, authResponse{Message: err.Error()})
	}

	err := h.auth.Register(c.Request().Context(), ports.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		RoleID:    req.RoleID,
	})
	if err != nil {
		var ve domain.ValidationError
		switch {
		case errors.Is(err, domain.ErrEmailTaken):
			return c.JSON(http.StatusConflict, authResponse{Message: "email is already registered"})
		case errors.Is(err, domain.ErrUsernameTaken):
			return c.JSON(http.StatusConflict, authResponse{Message: "username is already taken"})
		case errors.Is(err, domain.ErrPasswordTooShort):
			return c.JSON(http.StatusBadRequest, authResponse{Message: "password must be at least 8 characters"})
		case errors.Is(err, domain.ErrInvalidRole):
			return c.JSON(http.StatusBadRequest, authResponse{Message: "the requested role does not exist"})
		case errors.As(err, &ve):
			return c.JSON(http.StatusBadRequest, authResponse{Message: ve.Error()})
		}
		return err
	}

	return c.JSON(http.StatusCreated, authResponse{Success: true, Message: "user registered"})
}
