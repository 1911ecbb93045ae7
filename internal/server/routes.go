package server

import (
	"github.com/labstack/echo/v4"

	"github.com/inkgraph/backend/internal/server/middleware"
	"github.com/inkgraph/backend/internal/server/routes"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", routes.HealthHandler)

	// Account routes
	e.POST("/api/auth/register", routes.RegisterHandler)
	e.POST("/api/auth/login", routes.LoginHandler)

	// Processing routes
	apiRoutes := e.Group("/api", middleware.AuthMiddleware)
	apiRoutes.GET("/auth/me", routes.MeHandler)
	apiRoutes.POST("/process", routes.ProcessHandler)
}
