package serverutils

import (
	"errors"
	"log"

	"reconcile-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into JSON error
// responses. Classified application errors keep their message; anything
// unclassified becomes a 500 with a generic message.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code, message := resolveError(err)
		if code >= fiber.StatusInternalServerError {
			log.Printf("[ERROR] %s %s: %v", ctx.Method(), ctx.Path(), err)
		}
		return ctx.Status(code).JSON(ErrorResponse(code, message))
	}
}

func resolveError(err error) (int, string) {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, fiberErr.Message
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return fiber.StatusBadRequest, validationErr.Error()
	}

	switch apperror.KindOf(err) {
	case apperror.KindValidation:
		return fiber.StatusBadRequest, err.Error()
	case apperror.KindNotFound:
		return fiber.StatusNotFound, err.Error()
	case apperror.KindForbidden:
		return fiber.StatusForbidden, err.Error()
	case apperror.KindConflict:
		return fiber.StatusConflict, err.Error()
	case apperror.KindCollaborator:
		if apperror.IsRetryable(err) {
			return fiber.StatusServiceUnavailable, err.Error()
		}
		return fiber.StatusBadGateway, err.Error()
	}

	return fiber.StatusInternalServerError, "Internal server error"
}
