package errdefs

import "errors"

type ErrorType int

const (
	ErrTypeNotBSD ErrorType = iota
	ErrTypePermissionDenied
	ErrTypePrerequisiteMissing
	ErrTypeNetworkUnavailable
	ErrTypePackageInstall
	ErrTypeServiceOperation
	ErrTypeGroupOperation
	ErrTypeFileOperation
	ErrTypeInvalidUserInput
	ErrTypeTimedOut
	ErrTypeConcurrentRun
	ErrTypeGeneric
)

type CustomError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *CustomError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *CustomError) Unwrap() error {
	return e.Cause
}

func NewCustomError(errType ErrorType, message string) error {
	return &CustomError{
		Type:    errType,
		Message: message,
	}
}

func WrapCustomError(errType ErrorType, message string, cause error) error {
	return &CustomError{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// IsType reports whether err is (or wraps) a CustomError of the given type.
func IsType(err error, errType ErrorType) bool {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Type == errType
	}
	return false
}

var ErrConcurrentRun = NewCustomError(ErrTypeConcurrentRun, "another provisioning run already holds the lock")
