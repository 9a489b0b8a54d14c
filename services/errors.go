package services

import (
	"errors"
	"fmt"
)

// Error taxonomy for the core. Ledger and state-machine errors abort the
// enclosing transaction; soft outcomes (assignment, delivery) are Warnings,
// not errors, and never roll back the financial operation they accompany.

type ValidationError struct {
	Msg string
}

func (e ValidationError) Error() string {
	if e.Msg == "" {
		return "validation error"
	}
	return e.Msg
}

type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

type UnauthorizedError struct {
	Msg string
}

func (e UnauthorizedError) Error() string {
	if e.Msg == "" {
		return "unauthorized"
	}
	return e.Msg
}

type InsufficientBalanceError struct {
	Need int64
	Have int64
}

func (e InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient tokens: need %d, have %d", e.Need, e.Have)
}

type StateTransitionError struct {
	From string
	To   string
}

func (e StateTransitionError) Error() string {
	return fmt.Sprintf("invalid state transition %s -> %s", e.From, e.To)
}

type OTPReason string

const (
	OTPNoActiveChallenge OTPReason = "no_active_challenge"
	OTPExpired           OTPReason = "expired"
	OTPTooManyAttempts   OTPReason = "too_many_attempts"
	OTPCodeMismatch      OTPReason = "code_mismatch"
)

type OTPError struct {
	Reason OTPReason
}

func (e OTPError) Error() string {
	switch e.Reason {
	case OTPNoActiveChallenge:
		return "no valid OTP found, please request a new one"
	case OTPExpired:
		return "OTP has expired, please request a new one"
	case OTPTooManyAttempts:
		return "too many attempts, please request a new OTP"
	case OTPCodeMismatch:
		return "invalid OTP code"
	}
	return "OTP verification failed"
}

// ErrOTPRequired rejects a gated transition attempted without a code.
var ErrOTPRequired = errors.New("OTP verification required to start service")

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsUnauthorized(err error) bool {
	var target UnauthorizedError
	return errors.As(err, &target)
}

func IsInsufficientBalance(err error) bool {
	var target InsufficientBalanceError
	return errors.As(err, &target)
}

func IsStateTransition(err error) bool {
	var target StateTransitionError
	return errors.As(err, &target)
}

func IsOTP(err error) bool {
	var target OTPError
	return errors.As(err, &target)
}

// Warning is a soft failure reported alongside a successful primary result.
// Callers decide whether to log or surface it; it is never an error.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	WarnAssignmentUnavailable = "assignment_unavailable"
	WarnDeliveryFailure       = "delivery_failure"
)
