package schema

import "fmt"

// Error codes for structured error reporting.
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	ErrCodeUnknownAlgorithm  = "UNKNOWN_ALGORITHM"
	ErrCodeParse             = "PARSE_ERROR"
	ErrCodeRender            = "RENDER_ERROR"
	ErrCodeEvaluation        = "EVALUATION_ERROR"
	ErrCodeStore             = "STORE_ERROR"
)

// DiagramError is the structured error type for all diagram operations.
type DiagramError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	ElementID string         `json:"element_id,omitempty"`
	Cause     error          `json:"-"`
}

func (e *DiagramError) Error() string {
	if e.ElementID != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.ElementID, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *DiagramError) Unwrap() error {
	return e.Cause
}

// NewError creates a new DiagramError.
func NewError(code, message string) *DiagramError {
	return &DiagramError{Code: code, Message: message}
}

// NewErrorf creates a new DiagramError with a formatted message.
func NewErrorf(code, format string, args ...any) *DiagramError {
	return &DiagramError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithElement attaches the node or edge ID the error refers to.
func (e *DiagramError) WithElement(id string) *DiagramError {
	e.ElementID = id
	return e
}

// WithCause attaches an underlying cause.
func (e *DiagramError) WithCause(err error) *DiagramError {
	e.Cause = err
	return e
}

// WithDetails attaches key-value details.
func (e *DiagramError) WithDetails(details map[string]any) *DiagramError {
	e.Details = details
	return e
}
