package template

import (
	"errors"
	"fmt"
)

// TemplateError describes a problem found while loading or scanning a document template
type TemplateError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Context string    `json:"context,omitempty"`
	Part    string    `json:"part,omitempty"`
	Err     error     `json:"-"`
}

// ErrorType represents the categories of template errors
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeInvalidArchive
	ErrorTypeUnsupportedFormat
	ErrorTypeNoParts
	ErrorTypeMalformedPart
	ErrorTypeUnreadablePage
	ErrorTypeInvalidFormFields
	ErrorTypeTooLarge
)

// ErrorSeverity indicates whether an error stops extraction
type ErrorSeverity int

const (
	SeverityWarning ErrorSeverity = iota
	SeverityError
)

// Error implements the error interface
func (e *TemplateError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Type.String(), e.Message)
	if e.Part != "" {
		msg += fmt.Sprintf(" (part %s)", e.Part)
	}
	if e.Context != "" {
		msg += ": " + e.Context
	}
	return msg
}

// Unwrap exposes the underlying cause
func (e *TemplateError) Unwrap() error {
	return e.Err
}

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeInvalidArchive:
		return "INVALID_ARCHIVE"
	case ErrorTypeUnsupportedFormat:
		return "UNSUPPORTED_FORMAT"
	case ErrorTypeNoParts:
		return "NO_PARTS"
	case ErrorTypeMalformedPart:
		return "MALFORMED_PART"
	case ErrorTypeUnreadablePage:
		return "UNREADABLE_PAGE"
	case ErrorTypeInvalidFormFields:
		return "INVALID_FORM_FIELDS"
	case ErrorTypeTooLarge:
		return "TOO_LARGE"
	default:
		return "UNKNOWN"
	}
}

// GetSeverity returns the severity level for a given error type. Part level
// problems only cost the tokens of that part, so they are warnings.
func (et ErrorType) GetSeverity() ErrorSeverity {
	switch et {
	case ErrorTypeMalformedPart, ErrorTypeUnreadablePage, ErrorTypeInvalidFormFields:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// NewTemplateError creates a new template error
func NewTemplateError(errorType ErrorType, message string) *TemplateError {
	return &TemplateError{Type: errorType, Message: message}
}

// WrapError wraps an existing error with template error information
func WrapError(errorType ErrorType, err error) *TemplateError {
	return &TemplateError{Type: errorType, Message: err.Error(), Err: err}
}

// WithPart records the document part the error belongs to
func (e *TemplateError) WithPart(part string) *TemplateError {
	e.Part = part
	return e
}

// WithContext adds context information to the error
func (e *TemplateError) WithContext(context string) *TemplateError {
	e.Context = context
	return e
}

// IsValidation reports whether err is a template error that should be shown
// to the operator as a validation failure rather than an internal fault.
func IsValidation(err error) bool {
	var te *TemplateError
	if !errors.As(err, &te) {
		return false
	}
	switch te.Type {
	case ErrorTypeNoParts, ErrorTypeUnsupportedFormat, ErrorTypeInvalidArchive, ErrorTypeTooLarge:
		return true
	default:
		return false
	}
}

// ErrorCollection gathers the problems met while scanning one document
type ErrorCollection struct {
	Errors   []*TemplateError `json:"errors"`
	Warnings []*TemplateError `json:"warnings"`
}

// NewErrorCollection creates a new error collection
func NewErrorCollection() *ErrorCollection {
	return &ErrorCollection{
		Errors:   make([]*TemplateError, 0),
		Warnings: make([]*TemplateError, 0),
	}
}

// Add adds an error to the appropriate collection based on severity
func (ec *ErrorCollection) Add(err *TemplateError) {
	if err.Type.GetSeverity() == SeverityWarning {
		ec.Warnings = append(ec.Warnings, err)
		return
	}
	ec.Errors = append(ec.Errors, err)
}

// Count returns the total number of errors and warnings
func (ec *ErrorCollection) Count() (errors, warnings int) {
	return len(ec.Errors), len(ec.Warnings)
}

// Messages flattens warnings into human readable lines
func (ec *ErrorCollection) Messages() []string {
	out := make([]string, 0, len(ec.Warnings))
	for _, w := range ec.Warnings {
		out = append(out, w.Error())
	}
	return out
}

// Summary returns a text summary of all errors and warnings
func (ec *ErrorCollection) Summary() string {
	errorCount, warningCount := ec.Count()
	if errorCount == 0 && warningCount == 0 {
		return "No errors or warnings"
	}
	return fmt.Sprintf("Found %d error(s) and %d warning(s)", errorCount, warningCount)
}
