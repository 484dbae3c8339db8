package errors

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Common error types that can be used across the application
var (
	ErrNotFound         = new(ErrCodeNotFound, "resource not found")
	ErrAlreadyExists    = new(ErrCodeAlreadyExists, "resource already exists")
	ErrVersionConflict  = new(ErrCodeVersionConflict, "version conflict")
	ErrValidation       = new(ErrCodeValidation, "validation error")
	ErrInvalidOperation = new(ErrCodeInvalidOperation, "invalid operation")
	ErrDatabase         = new(ErrCodeDatabase, "database error")
	ErrSystem           = new(ErrCodeSystemError, "system error")

	// Billing calculation failures. All of them are local validation
	// failures the caller recovers from by correcting the request.
	ErrInvalidEffectiveDate    = new(ErrCodeInvalidEffectiveDate, "effective date outside billing period")
	ErrSamePlan                = new(ErrCodeSamePlan, "new plan is the current plan")
	ErrCurrencyMismatch        = new(ErrCodeCurrencyMismatch, "currency mismatch")
	ErrSubscriptionNotEligible = new(ErrCodeSubscriptionNotEligible, "subscription not eligible")
	ErrPeriodMismatch          = new(ErrCodePeriodMismatch, "usage snapshot period mismatch")

	// maps errors to http status codes
	statusCodeMap = map[error]int{
		ErrDatabase:                http.StatusInternalServerError,
		ErrNotFound:                http.StatusNotFound,
		ErrAlreadyExists:           http.StatusConflict,
		ErrVersionConflict:         http.StatusConflict,
		ErrValidation:              http.StatusBadRequest,
		ErrInvalidOperation:        http.StatusBadRequest,
		ErrSystem:                  http.StatusInternalServerError,
		ErrInvalidEffectiveDate:    http.StatusBadRequest,
		ErrSamePlan:                http.StatusBadRequest,
		ErrCurrencyMismatch:        http.StatusBadRequest,
		ErrSubscriptionNotEligible: http.StatusUnprocessableEntity,
		ErrPeriodMismatch:          http.StatusConflict,
	}
)

const (
	ErrCodeSystemError      = "system_error"
	ErrCodeNotFound         = "not_found"
	ErrCodeAlreadyExists    = "already_exists"
	ErrCodeVersionConflict  = "version_conflict"
	ErrCodeValidation       = "validation_error"
	ErrCodeInvalidOperation = "invalid_operation"
	ErrCodeDatabase         = "database_error"

	ErrCodeInvalidEffectiveDate    = "invalid_effective_date"
	ErrCodeSamePlan                = "same_plan"
	ErrCodeCurrencyMismatch        = "currency_mismatch"
	ErrCodeSubscriptionNotEligible = "subscription_not_eligible"
	ErrCodePeriodMismatch          = "period_mismatch"
)

// InternalError represents a domain error
type InternalError struct {
	Code    string // Machine-readable error code
	Message string // Human-readable error message
	Op      string // Logical operation name
	Err     error  // Underlying error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.DisplayError()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) DisplayError() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is implements error matching for wrapped errors
func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}

	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}

	return e.Code == t.Code
}

func new(code string, message string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: message,
	}
}

// Is reports whether err carries the target mark anywhere in its chain
func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsInvalidOperation checks if an error is an invalid operation error
func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}

// IsBillingRejection reports whether err is one of the calculation
// rejections returned by the billing engines.
func IsBillingRejection(err error) bool {
	return errors.Is(err, ErrInvalidEffectiveDate) ||
		errors.Is(err, ErrSamePlan) ||
		errors.Is(err, ErrCurrencyMismatch) ||
		errors.Is(err, ErrSubscriptionNotEligible) ||
		errors.Is(err, ErrPeriodMismatch)
}

func HTTPStatusFromErr(err error) int {
	for e, status := range statusCodeMap {
		if errors.Is(err, e) {
			return status
		}
	}
	return http.StatusInternalServerError
}
