package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/inkgraph/backend/internal/db"
	"github.com/inkgraph/backend/pkg/pipeline"
)

// AppUser is the authenticated account attached to a request, nil for
// anonymous requests when login is optional.
type AppUser struct {
	UserID   int64
	Username string
}

// App bundles the shared application dependencies handed to every request.
type App struct {
	Users       *db.UserStore
	Coordinator *pipeline.Coordinator
	JWTSecret   []byte
	// ModelProvider names the configured structuring backend, "none" when
	// the pipeline runs on heuristics alone.
	ModelProvider string
	// RequireLogin rejects unauthenticated processing requests when set.
	RequireLogin bool
}

// AppContext extends the echo context with the application dependencies and
// the authenticated user.
type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return next(&AppContext{Context: c, App: app})
		}
	}
}
