package vesting

import (
	"errors"
	"fmt"

	"github.com/xraph/vesting/pool"
	"github.com/xraph/vesting/store"
	"github.com/xraph/vesting/types"
)

// Sentinel errors. Each carries a stable reason string (see Reason).
var (
	ErrNotAuthorized            = types.NewReasonError("ERR_NOT_ALLOWED", "caller is not authorized")
	ErrAccountNotFound          = types.NewReasonError("ERR_ACCOUNT_NOT_EXIST", "account has no vesting schedule")
	ErrScheduleStillActive      = types.NewReasonError("ERR_ACCOUNT_IN_SESSION", "schedule is still active")
	ErrUnclaimedRemainderExists = types.NewReasonError("ERR_ACCOUNT_NEED_CLAIM", "schedule has an unclaimed remainder")
	ErrInsufficientLiquidity    = pool.ErrInsufficientLiquidity
	ErrIllegalFundingSource     = types.NewReasonError("ERR_ILLEGAL_TOKEN", "deposit from an unexpected token")
	ErrMissingBeneficiaryTag    = types.NewReasonError("ERR_MISSING_ACCOUNT_ID", "deposit is missing the beneficiary tag")
	ErrAmountTooSmall           = types.NewReasonError("ERR_AMOUNT_TOO_SMALL", "deposit does not cover the outstanding entitlement")
	ErrAmountIncorrect          = types.NewReasonError("ERR_AMOUNT_INCORRECT", "deposit amount is incorrect")

	ErrNotInitialized     = types.NewReasonError("ERR_NOT_INITIALIZED", "vault is not initialized")
	ErrAlreadyInitialized = types.NewReasonError("ERR_ALREADY_INITIALIZED", "vault is already initialized")
	ErrUnsupportedMode    = types.NewReasonError("ERR_UNSUPPORTED_MODE", "operation is not available in this funding mode")
	ErrClaimNotFound      = types.NewReasonError("ERR_CLAIM_NOT_EXIST", "no in-flight claim with this id")
	ErrTransferNotIssued  = types.NewReasonError("ERR_TRANSFER_NOT_ISSUED", "transfer could not be issued and was rolled back")
)

// Reason strings for failures that are not sentinels.
const (
	ReasonInvalidInput = "ERR_INVALID_INPUT"
	ReasonInternal     = "ERR_INTERNAL"
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("vesting: validation failed for %s: %s", e.Field, e.Message)
}

// Reason returns the machine-readable reason for err, or "" for nil.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	if reason, ok := types.ReasonOf(err); ok {
		return reason
	}
	var ve ValidationError
	if errors.As(err, &ve) {
		return ReasonInvalidInput
	}
	return ReasonInternal
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrClaimNotFound) ||
		errors.Is(err, ErrNotInitialized)
}

// IsAuthError returns true if the caller was not allowed to make the call.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrNotAuthorized) ||
		errors.Is(err, ErrIllegalFundingSource)
}

// IsRetryable returns true if the error is temporary and the call can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransferNotIssued) ||
		errors.Is(err, store.ErrConflict)
}
