package api

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/mmynk/fintrack/internal/apperr"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

type errorMapping struct {
	status int
	title  string
}

var kindMappings = map[apperr.Kind]errorMapping{
	apperr.KindNotFound:        {fiber.StatusNotFound, "Not Found"},
	apperr.KindInvalidState:    {fiber.StatusBadRequest, "Invalid State"},
	apperr.KindForbidden:       {fiber.StatusForbidden, "Forbidden"},
	apperr.KindBadRequest:      {fiber.StatusBadRequest, "Bad Request"},
	apperr.KindConflict:        {fiber.StatusConflict, "Conflict"},
	apperr.KindPersistence:     {fiber.StatusBadGateway, "Persistence Error"},
	apperr.KindUnauthenticated: {fiber.StatusUnauthorized, "Unauthenticated"},
}

// StatusFor returns the HTTP status for an error kind.
func StatusFor(kind apperr.Kind) int {
	if m, ok := kindMappings[kind]; ok {
		return m.status
	}
	return fiber.StatusInternalServerError
}

// errorHandler renders apperr kinds, fiber errors and anything else as an
// ErrorResponse. Causes are logged, never returned.
func errorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, body := classify(err)
		if status >= fiber.StatusInternalServerError {
			logger.Error("Request failed",
				"method", c.Method(),
				"path", c.Path(),
				"status", status,
				"error", err,
			)
		}
		return c.Status(status).JSON(body)
	}
}

func classify(err error) (int, ErrorResponse) {
	if kind := apperr.KindOf(err); kind != "" {
		m, ok := kindMappings[kind]
		if !ok {
			m = errorMapping{fiber.StatusInternalServerError, "Internal Error"}
		}
		return m.status, ErrorResponse{
			Code:    string(kind),
			Title:   m.title,
			Message: apperr.MessageOf(err),
		}
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		title := utils.StatusMessage(fe.Code)
		return fe.Code, ErrorResponse{
			Code:    strings.ToLower(strings.ReplaceAll(title, " ", "_")),
			Title:   title,
			Message: fe.Message,
		}
	}

	return fiber.StatusInternalServerError, ErrorResponse{
		Code:    "internal_error",
		Title:   "Internal Error",
		Message: "internal server error",
	}
}
