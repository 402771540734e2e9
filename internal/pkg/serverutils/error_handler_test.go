package serverutils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"reconcile-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHandlerMiddlewareMapsKinds(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"validation", apperror.Validation("bad ids", apperror.ErrNeedsNotOwned), fiber.StatusBadRequest},
		{"not found", apperror.NotFound("session", "x"), fiber.StatusNotFound},
		{"forbidden", apperror.Forbidden("forbidden", apperror.ErrNotSessionMember), fiber.StatusForbidden},
		{"conflict", apperror.Conflict("raced"), fiber.StatusConflict},
		{"retryable collaborator", apperror.Collaborator("extraction failed", errors.New("timeout"), true), fiber.StatusServiceUnavailable},
		{"fatal collaborator", apperror.Collaborator("bad output", nil, false), fiber.StatusBadGateway},
		{"fiber error", fiber.NewError(fiber.StatusTeapot, "teapot"), fiber.StatusTeapot},
		{"request validation", &ValidationError{Fields: map[string]string{"Email": "is required"}}, fiber.StatusBadRequest},
		{"unclassified", errors.New("boom"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(ErrorHandlerMiddleware())
			app.Get("/", func(ctx *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, resp.StatusCode)

			raw, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			var body BaseResponse[any]
			require.NoError(t, json.Unmarshal(raw, &body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantCode, body.Code)
		})
	}
}

func TestUnclassifiedErrorHidesDetails(t *testing.T) {
	code, msg := resolveError(errors.New("pq: connection refused"))
	assert.Equal(t, fiber.StatusInternalServerError, code)
	assert.Equal(t, "Internal server error", msg)
}

func TestValidateRequest(t *testing.T) {
	type req struct {
		Email string `json:"email" validate:"required,email"`
	}

	err := ValidateRequest(req{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "is required", verr.Fields["Email"])

	assert.NoError(t, ValidateRequest(req{Email: "a@b.co"}))
}
