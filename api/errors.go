package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/xraph/vesting"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Reason string `json:"reason"`
	Error  string `json:"error"`
}

// badRequest marks a malformed request body or query.
type badRequest struct {
	err error
}

func (e badRequest) Error() string { return e.err.Error() }
func (e badRequest) Unwrap() error { return e.err }

// StatusOf maps a vault error to an HTTP status.
func StatusOf(err error) int {
	var fe *fiber.Error
	var br badRequest
	var ve vesting.ValidationError
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.As(err, &br), errors.As(err, &ve):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return fiber.StatusUnauthorized
	case vesting.IsAuthError(err):
		return fiber.StatusForbidden
	case errors.Is(err, vesting.ErrAccountNotFound), errors.Is(err, vesting.ErrClaimNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, vesting.ErrNotInitialized),
		errors.Is(err, vesting.ErrAlreadyInitialized),
		errors.Is(err, vesting.ErrScheduleStillActive),
		errors.Is(err, vesting.ErrUnclaimedRemainderExists),
		errors.Is(err, vesting.ErrUnsupportedMode):
		return fiber.StatusConflict
	case errors.Is(err, vesting.ErrInsufficientLiquidity),
		errors.Is(err, vesting.ErrMissingBeneficiaryTag),
		errors.Is(err, vesting.ErrAmountTooSmall),
		errors.Is(err, vesting.ErrAmountIncorrect):
		return fiber.StatusUnprocessableEntity
	case vesting.IsRetryable(err):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

func reasonOf(err error) string {
	var br badRequest
	var fe *fiber.Error
	switch {
	case errors.As(err, &br):
		return vesting.ReasonInvalidInput
	case errors.Is(err, ErrUnauthenticated):
		return vesting.ErrNotAuthorized.Reason
	case errors.As(err, &fe):
		return vesting.ReasonInvalidInput
	}
	return vesting.Reason(err)
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status := StatusOf(err)
	resp := ErrorResponse{Reason: reasonOf(err), Error: err.Error()}

	if status >= fiber.StatusInternalServerError {
		s.logger.Error("api request failed",
			"method", c.Method(),
			"path", c.Path(),
			"error", err,
		)
		if !vesting.IsRetryable(err) {
			resp.Error = "internal server error"
		}
	}
	return c.Status(status).JSON(resp)
}
