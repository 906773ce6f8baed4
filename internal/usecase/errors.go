package usecase

import "errors"

const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeDuplicateLead      = "DUPLICATE_LEAD"
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidID          = "INVALID_ID"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeEmailTaken         = "EMAIL_TAKEN"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeDatabase           = "DATABASE_ERROR"
	CodeUpstream           = "UPSTREAM_ERROR"
)

// DomainError is a caller fault. Handlers turn it into a 4xx.
type DomainError struct {
	Code    string
	Message string
	Fields  []ValidationError
	// ExistingID is set on DUPLICATE_LEAD.
	ExistingID string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// TechnicalError wraps an infrastructure failure.
type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

func newValidationError(fields []ValidationError) *DomainError {
	return &DomainError{
		Code:    CodeValidation,
		Message: "Validation error",
		Fields:  fields,
	}
}

func fieldError(field, message string) *DomainError {
	return newValidationError([]ValidationError{{Field: field, Message: message}})
}

func notFound(what string) *DomainError {
	return &DomainError{Code: CodeNotFound, Message: what + " not found"}
}

func dbError(msg string, err error) *TechnicalError {
	return &TechnicalError{Code: CodeDatabase, Message: msg, Err: err}
}
