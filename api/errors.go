// File: api/errors.go
// Author: momentics <momentics@gmail.com>
//
// Common error values shared across the library.

package api

import "fmt"

var (
	ErrInvalidArgument   = fmt.Errorf("invalid argument")
	ErrResourceExhausted = fmt.Errorf("resource exhausted")
	ErrFdOutOfRange      = fmt.Errorf("fd out of range")
	ErrFdInUse           = fmt.Errorf("fd already registered")
	ErrNotInitialized    = fmt.Errorf("poller not initialized")
	ErrNotSupported      = fmt.Errorf("operation not supported")
)
