package users

import (
	"errors"
	"fmt"
)

// UserError represents errors related to user operations
type UserError struct {
	Type    string
	UserID  string
	Message string
	Cause   error
}

func (e *UserError) Error() string {
	subject := ""
	if e.UserID != "" {
		subject = " for user " + e.UserID
	}
	if e.Cause != nil {
		return fmt.Sprintf("user error [%s]%s: %s (caused by: %v)", e.Type, subject, e.Message, e.Cause)
	}
	return fmt.Sprintf("user error [%s]%s: %s", e.Type, subject, e.Message)
}

func (e *UserError) Unwrap() error {
	return e.Cause
}

// User error types
const (
	UserErrorTypeNotFound         = "not_found"
	UserErrorTypeInvalidID        = "invalid_id"
	UserErrorTypeValidationFailed = "validation_failed"
	UserErrorTypeStorageFailed    = "storage_failed"
)

// NewUserNotFoundError creates an error for when a user is not found
func NewUserNotFoundError(userID string) *UserError {
	return &UserError{
		Type:    UserErrorTypeNotFound,
		UserID:  userID,
		Message: "user not found",
	}
}

// NewInvalidIDError creates an error for an identifier the store cannot resolve
func NewInvalidIDError(userID string, cause error) *UserError {
	return &UserError{
		Type:    UserErrorTypeInvalidID,
		UserID:  userID,
		Message: "malformed user id",
		Cause:   cause,
	}
}

// NewUserValidationError creates an error for user validation failures
func NewUserValidationError(userID string, cause error) *UserError {
	return &UserError{
		Type:    UserErrorTypeValidationFailed,
		UserID:  userID,
		Message: "user validation failed",
		Cause:   cause,
	}
}

// NewStorageError creates an error for a failed store operation
func NewStorageError(operation, userID string, cause error) *UserError {
	return &UserError{
		Type:    UserErrorTypeStorageFailed,
		UserID:  userID,
		Message: fmt.Sprintf("storage operation %s failed", operation),
		Cause:   cause,
	}
}

// ValidationError represents errors in document validation
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s' (value: %v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ErrorType returns the UserError type found in err's chain, or
// UserErrorTypeStorageFailed for any other error.
func ErrorType(err error) string {
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.Type
	}
	return UserErrorTypeStorageFailed
}

func IsNotFound(err error) bool {
	return err != nil && ErrorType(err) == UserErrorTypeNotFound
}
