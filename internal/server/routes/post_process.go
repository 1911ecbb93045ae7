package routes

import (
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/inkgraph/backend/internal/server/middleware"
	"github.com/inkgraph/backend/pkg/extract"
	"github.com/inkgraph/backend/pkg/logger"
	"github.com/inkgraph/backend/pkg/pipeline"
)

const (
	// maxUploadFiles bounds the documents accepted per request.
	maxUploadFiles = 10
	// maxUploadBytes bounds one uploaded document.
	maxUploadBytes = 25 << 20
)

// ProcessHandler accepts uploaded documents as multipart form data under the
// "files" field and runs them through the processing pipeline.
func ProcessHandler(c echo.Context) error {
	type errorResponse struct {
		Message string `json:"message"`
	}

	cc := c.(*middleware.AppContext)

	form, err := c.MultipartForm()
	if err != nil || len(form.File["files"]) == 0 {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Message: "No files provided",
		})
	}
	headers := form.File["files"]
	if len(headers) > maxUploadFiles {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Message: "Too many files",
		})
	}

	files := make([]extract.File, 0, len(headers))
	for _, header := range headers {
		if header.Size > maxUploadBytes {
			return c.JSON(http.StatusBadRequest, errorResponse{
				Message: "File too large: " + header.Filename,
			})
		}
		src, err := header.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{
				Message: "Unreadable file: " + header.Filename,
			})
		}
		data, err := io.ReadAll(io.LimitReader(src, maxUploadBytes+1))
		src.Close()
		if err != nil || int64(len(data)) > maxUploadBytes {
			return c.JSON(http.StatusBadRequest, errorResponse{
				Message: "Unreadable file: " + header.Filename,
			})
		}
		files = append(files, extract.File{Name: header.Filename, Data: data})
	}

	opts := pipeline.Options{
		Language:     c.FormValue("language"),
		Engine:       c.FormValue("engine"),
		SummaryLevel: c.FormValue("summary_level"),
	}
	if topK := c.FormValue("top_k"); topK != "" {
		parsed, err := strconv.Atoi(topK)
		if err != nil || parsed < 1 || parsed > 50 {
			return c.JSON(http.StatusBadRequest, errorResponse{
				Message: "Invalid top_k",
			})
		}
		opts.TopK = parsed
	}
	if cc.User != nil {
		opts.User = cc.User.Username
	}

	response, err := cc.App.Coordinator.Process(c.Request().Context(), files, opts)
	if err != nil {
		logger.Error("Processing request failed", "files", len(files), "err", err)
		return c.JSON(http.StatusUnprocessableEntity, errorResponse{
			Message: err.Error(),
		})
	}
	return c.JSON(http.StatusOK, response)
}
