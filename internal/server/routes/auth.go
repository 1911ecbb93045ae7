package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/inkgraph/backend/internal/db"
	"github.com/inkgraph/backend/internal/server/middleware"
)

// RegisterHandler creates a new account.
func RegisterHandler(c echo.Context) error {
	type registerBody struct {
		Username string `json:"username" validate:"required,min=3,max=64"`
		Password string `json:"password" validate:"required,min=8,max=128"`
	}

	type registerResponse struct {
		Message string   `json:"message"`
		User    *db.User `json:"user,omitempty"`
	}

	cc := c.(*middleware.AppContext)
	if cc.App.Users == nil {
		return c.JSON(http.StatusServiceUnavailable, registerResponse{
			Message: "Accounts are not configured",
		})
	}

	data := new(registerBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, registerResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, registerResponse{
			Message: "Invalid request body",
		})
	}

	user, err := cc.App.Users.CreateUser(c.Request().Context(), data.Username, data.Password)
	if err != nil {
		if errors.Is(err, db.ErrUserExists) {
			return c.JSON(http.StatusConflict, registerResponse{
				Message: "Username already taken",
			})
		}
		return c.JSON(http.StatusInternalServerError, registerResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, registerResponse{
		Message: "User created successfully",
		User:    &user,
	})
}

// LoginHandler verifies credentials and issues a bearer token.
func LoginHandler(c echo.Context) error {
	type loginBody struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	type loginResponse struct {
		Message string   `json:"message"`
		Token   string   `json:"token,omitempty"`
		User    *db.User `json:"user,omitempty"`
	}

	cc := c.(*middleware.AppContext)
	if cc.App.Users == nil {
		return c.JSON(http.StatusServiceUnavailable, loginResponse{
			Message: "Accounts are not configured",
		})
	}

	data := new(loginBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, loginResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, loginResponse{
			Message: "Invalid request body",
		})
	}

	user, err := cc.App.Users.Authenticate(c.Request().Context(), data.Username, data.Password)
	if err != nil {
		if errors.Is(err, db.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, loginResponse{
				Message: "Invalid credentials",
			})
		}
		return c.JSON(http.StatusInternalServerError, loginResponse{
			Message: "Internal server error",
		})
	}

	token, err := middleware.IssueToken(cc.App.JWTSecret, user.ID, user.Username)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, loginResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, loginResponse{
		Message: "Login successful",
		Token:   token,
		User:    &user,
	})
}

// MeHandler returns the account behind the current bearer token.
func MeHandler(c echo.Context) error {
	type meResponse struct {
		Message string   `json:"message"`
		User    *db.User `json:"user,omitempty"`
	}

	cc := c.(*middleware.AppContext)
	if cc.User == nil {
		return c.JSON(http.StatusUnauthorized, meResponse{
			Message: "Not logged in",
		})
	}
	if cc.App.Users == nil {
		return c.JSON(http.StatusServiceUnavailable, meResponse{
			Message: "Accounts are not configured",
		})
	}

	user, err := cc.App.Users.GetUser(c.Request().Context(), cc.User.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, meResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, meResponse{
		Message: "OK",
		User:    &user,
	})
}
