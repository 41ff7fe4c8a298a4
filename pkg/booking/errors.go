package booking

import (
	"errors"
	"fmt"
	"strings"
)

// Domain-level error values returned by the booking service.
var (
	ErrUnknownReservation          = errors.New("unknown reservation")
	ErrUnknownTable                = errors.New("unknown table")
	ErrCapacityExceeded            = errors.New("cannot accommodate group size")
	ErrTimeSlotUnavailable         = errors.New("time slot unavailable")
	ErrWindowTooLong               = errors.New("reservation must not exceed 6 hours")
	ErrWindowCrossesDays           = errors.New("reservation must start and end on the same day")
	ErrWindowTooFarAhead           = errors.New("reservation must not be more than two weeks ahead")
	ErrStartDatePassed             = errors.New("reservation start date has already passed")
	ErrNotPending                  = errors.New("reservation must be pending")
	ErrNotConfirmed                = errors.New("reservation must be confirmed")
	ErrNotInService                = errors.New("reservation must be in service")
	ErrMissingManager              = errors.New("table department has no assigned manager")
	ErrMissingNotificationSettings = errors.New("requester has no notification settings")
	ErrForbidden                   = errors.New("actor not permitted")
	ErrNotDeleted                  = errors.New("reservation is not deleted")
	ErrRestoreConflict             = errors.New("restore conflicts with an existing reservation")
	ErrInvalidWindow               = errors.New("invalid reservation window")
	ErrInvalidUserID               = errors.New("invalid user id")
	ErrInvalidTableID              = errors.New("invalid table id")
	ErrInvalidDepartmentID         = errors.New("invalid department id")
	ErrInvalidReservationID        = errors.New("invalid reservation id")
	ErrInvalidTableNumber          = errors.New("invalid table number")
	ErrInvalidGuestCount           = errors.New("invalid guest count")
	ErrInvalidReason               = errors.New("invalid reason")
	ErrInvalidStatus               = errors.New("invalid reservation status")
	ErrInvalidChannel              = errors.New("invalid notification channel")
	ErrInvalidServiceConfig        = errors.New("invalid service config")
)

// ConflictError reports a failed availability check together with the table
// numbers that were occupied during the requested window. It matches
// ErrTimeSlotUnavailable under errors.Is so callers can branch without
// inspecting the concrete type.
type ConflictError struct {
	OccupiedTables []TableNumber
}

// Error returns the formatted error message.
func (conflictError ConflictError) Error() string {
	if len(conflictError.OccupiedTables) == 0 {
		return ErrTimeSlotUnavailable.Error()
	}
	numbers := make([]string, 0, len(conflictError.OccupiedTables))
	for _, number := range conflictError.OccupiedTables {
		numbers = append(numbers, number.String())
	}
	return fmt.Sprintf("%s: tables %s occupied", ErrTimeSlotUnavailable.Error(), strings.Join(numbers, ", "))
}

// Is reports equivalence with ErrTimeSlotUnavailable.
func (conflictError ConflictError) Is(target error) bool {
	return target == ErrTimeSlotUnavailable
}

// OperationError wraps a failure with a stable operation code.
type OperationError struct {
	operation string
	subject   string
	code      string
	err       error
}

// Error returns the formatted error message.
func (operationError OperationError) Error() string {
	return fmt.Sprintf("%s.%s.%s: %v", operationError.operation, operationError.subject, operationError.code, operationError.err)
}

// Unwrap returns the underlying error.
func (operationError OperationError) Unwrap() error {
	return operationError.err
}

// Operation returns the operation segment.
func (operationError OperationError) Operation() string {
	return operationError.operation
}

// Subject returns the subject segment.
func (operationError OperationError) Subject() string {
	return operationError.subject
}

// Code returns the stable error code segment.
func (operationError OperationError) Code() string {
	return operationError.code
}

// WrapError wraps an error with operation, subject, and code metadata.
func WrapError(operation string, subject string, code string, err error) error {
	if err == nil {
		return nil
	}
	return OperationError{
		operation: operation,
		subject:   subject,
		code:      code,
		err:       err,
	}
}
