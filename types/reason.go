package types

import "errors"

// ReasonError is a domain failure carrying a stable, machine-readable reason
// string alongside its human-readable message.
type ReasonError struct {
	Reason  string
	Message string
}

// NewReasonError returns a *ReasonError usable as a sentinel value.
func NewReasonError(reason, message string) *ReasonError {
	return &ReasonError{Reason: reason, Message: message}
}

func (e *ReasonError) Error() string {
	return "vesting: " + e.Message
}

// ReasonOf returns the reason string of the first *ReasonError in err's chain.
func ReasonOf(err error) (string, bool) {
	var re *ReasonError
	if errors.As(err, &re) {
		return re.Reason, true
	}
	return "", false
}
