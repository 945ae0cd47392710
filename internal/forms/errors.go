package forms

import "errors"

var (
	// ErrSessionNotFound is returned for unknown or closed session ids
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionClosed is returned once the service has shut down; results
	// of operations still in flight are discarded
	ErrSessionClosed = errors.New("service is shut down")
	// ErrFileTooLarge is returned for templates above the size limit
	ErrFileTooLarge = errors.New("template exceeds maximum file size")
)
