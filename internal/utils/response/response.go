package response

import (
	stderrors "errors"

	domainerrors "payguard/internal/errors"

	"github.com/gofiber/fiber/v2"
)

func Success(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(fiber.Map{
		"message": message,
		"data":    data,
	})
}

func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

func ServerError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, message)
}

func Unauthorized(c *fiber.Ctx) error {
	return Error(c, fiber.StatusUnauthorized, "Unauthorized")
}

// DomainError maps a typed domain error onto an HTTP response carrying the
// error code. Unknown errors become a plain 500.
func DomainError(c *fiber.Ctx, err error) error {
	var derr *domainerrors.DomainError
	if !stderrors.As(err, &derr) {
		return ServerError(c, err.Error())
	}

	status := fiber.StatusUnprocessableEntity
	switch derr.Code {
	case "VALIDATION_FAILED":
		status = fiber.StatusBadRequest
	case "REQUEST_NOT_FOUND", "RISK_SCORE_NOT_FOUND":
		status = fiber.StatusNotFound
	case "IDEMPOTENCY_CONFLICT", "NOT_REVIEWABLE", "ILLEGAL_TRANSITION":
		status = fiber.StatusConflict
	case "EMERGENCY_HALT":
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
		"code":  derr.Code,
	})
}
