package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/inkgraph/backend/internal/db"
	mid "github.com/inkgraph/backend/internal/server/middleware"
	"github.com/inkgraph/backend/internal/util"
	"github.com/inkgraph/backend/pkg/ai"
	"github.com/inkgraph/backend/pkg/ai/gemini"
	"github.com/inkgraph/backend/pkg/ai/openai"
	"github.com/inkgraph/backend/pkg/extract"
	"github.com/inkgraph/backend/pkg/logger"
	"github.com/inkgraph/backend/pkg/ocr/tesseract"
	"github.com/inkgraph/backend/pkg/ocr/vision"
	"github.com/inkgraph/backend/pkg/pipeline"
	"github.com/inkgraph/backend/pkg/structure"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

func Init() {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := newAIClient()
	extractor := extract.New(vision.New(), tesseract.New())
	coordinator := pipeline.New(extractor, structure.New(client))

	provider := "none"
	if client != nil {
		provider = client.Provider()
	}

	app := &mid.App{
		Coordinator:   coordinator,
		JWTSecret:     []byte(util.GetEnvString("JWT_SECRET", "insecure-dev-secret")),
		ModelProvider: provider,
		RequireLogin:  util.GetEnvBool("REQUIRE_LOGIN", false),
	}

	if databaseURL := util.GetEnv("DATABASE_URL"); databaseURL != "" {
		if err := db.Migrate(databaseURL, util.GetEnvString("MIGRATIONS_DIR", "migrations")); err != nil {
			logger.Fatal("Failed to run migrations", "err", err)
		}
		pool, err := db.Connect(ctx, databaseURL)
		if err != nil {
			logger.Fatal("Failed to connect to database", "err", err)
		}
		defer pool.Close()
		app.Users = db.NewUserStore(pool)
	} else {
		logger.Warn("DATABASE_URL not set, accounts disabled")
	}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(echomw.CORS())
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.BodyLimit("256M"))

	RegisterRoutes(e)

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}

// newAIClient picks the structuring backend from the environment. Without
// any configured key the pipeline runs on heuristics alone.
func newAIClient() ai.Client {
	switch util.GetEnvString("AI_PROVIDER", "gemini") {
	case "openai":
		client, err := openai.New(openai.Params{
			APIKey:  util.GetEnv("OPENAI_API_KEY"),
			BaseURL: util.GetEnv("OPENAI_BASE_URL"),
			Model:   util.GetEnv("OPENAI_MODEL"),
		})
		if err != nil {
			logger.Warn("OpenAI client unavailable, falling back to heuristics", "err", err)
			return nil
		}
		return client
	default:
		if util.GetEnv("GEMINI_API_KEY") == "" {
			logger.Warn("GEMINI_API_KEY not set, falling back to heuristics")
			return nil
		}
		return gemini.New(gemini.Params{
			APIKey: util.GetEnv("GEMINI_API_KEY"),
			Model:  util.GetEnv("GEMINI_MODEL"),
		})
	}
}
