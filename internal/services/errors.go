// Package services provides the business logic layer between handlers and the
// forecasting core: group training, prediction, online updates and reports.
package services

import "errors"

// Error codes carried by ServiceError.
const (
	CodeInsufficientData    = "INSUFFICIENT_DATA"
	CodeModelFailed         = "MODEL_FAILED"
	CodeGroupNotFound       = "GROUP_NOT_FOUND"
	CodeInvalidHorizon      = "INVALID_HORIZON"
	CodeInvalidMethod       = "INVALID_METHOD"
	CodeInvalidObservations = "INVALID_OBSERVATIONS"
	CodeConflict            = "CONFLICT"
)

// ServiceError represents a service layer error
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// NewServiceError creates a new ServiceError
func NewServiceError(code, message string) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
	}
}

// NewServiceErrorWithDetails creates a new ServiceError with details
func NewServiceErrorWithDetails(code, message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// ErrorCode returns the code of the first ServiceError in err's chain, or "".
func ErrorCode(err error) string {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
