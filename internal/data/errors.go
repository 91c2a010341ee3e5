// File: internal/data/errors.go
package data

import "errors"

var (
	ErrRecordNotFound    = errors.New("record not found")
	ErrLoggingDisabled   = errors.New("conversation logging is not configured")
	ErrUnsupportedDriver = errors.New("unsupported log store driver")
)
