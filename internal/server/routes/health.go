package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/inkgraph/backend/internal/server/middleware"
)

// HealthHandler reports service liveness and which optional backends are
// configured, without exposing any credential material.
func HealthHandler(c echo.Context) error {
	type healthResponse struct {
		Status        string `json:"status"`
		Accounts      bool   `json:"accounts"`
		ModelProvider string `json:"model_provider"`
	}

	cc := c.(*middleware.AppContext)

	return c.JSON(http.StatusOK, healthResponse{
		Status:        "ok",
		Accounts:      cc.App.Users != nil,
		ModelProvider: cc.App.ModelProvider,
	})
}
