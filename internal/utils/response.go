package utils

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/jam-build-admindb/internal/types"
)

func SuccessResponse(c *fiber.Ctx, data interface{}, status int) error {
	return c.Status(status).JSON(data)
}

func ErrorResponse(c *fiber.Ctx, message string, status int, errorType string) error {
	return c.Status(status).JSON(ErrorResponseStruct{
		Status:    status,
		Message:   message,
		Ok:        false,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		URL:       c.OriginalURL(),
		Type:      errorType,
		Retryable: status == fiber.StatusServiceUnavailable,
	})
}

// ErrorFrom renders any error returned by a service. CustomErrors keep their
// status and type; fiber errors keep their status; anything else is a 500.
func ErrorFrom(c *fiber.Ctx, err error) error {
	var ce *types.CustomError
	if errors.As(err, &ce) {
		return ErrorResponse(c, ce.Message, ce.Code, ce.Type)
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return ErrorResponse(c, fe.Message, fe.Code, "http")
	}
	return ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "unknown")
}

func NotFoundResponse(c *fiber.Ctx, message string) error {
	return ErrorResponse(c, message, fiber.StatusNotFound, "notFound")
}

// MutationSuccessResponse acknowledges a write that returns no record.
func MutationSuccessResponse(c *fiber.Ctx, id string) error {
	return c.Status(fiber.StatusOK).JSON(SuccessResponseStruct{
		Message:   "Success",
		Ok:        true,
		ID:        id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

type ErrorResponseStruct struct {
	Status    int    `json:"status"`
	Message   string `json:"message"`
	Ok        bool   `json:"ok"`
	Timestamp string `json:"timestamp"`
	URL       string `json:"url"`
	Type      string `json:"type,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

type SuccessResponseStruct struct {
	Message   string `json:"message"`
	Ok        bool   `json:"ok"`
	ID        string `json:"id,omitempty"`
	Timestamp string `json:"timestamp"`
}
