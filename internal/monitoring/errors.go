package monitoring

import (
	"errors"
	"fmt"
)

// ConnectivityError reports that a backend could not be reached.
// The pre-send filter matches on it with errors.As.
type ConnectivityError struct {
	Backend Backend
	Err     error
}

// NewConnectivityError wraps err as a connectivity failure of backend.
func NewConnectivityError(backend Backend, err error) *ConnectivityError {
	return &ConnectivityError{Backend: backend, Err: err}
}

func (e *ConnectivityError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: connection error", e.Backend)
	}
	return fmt.Sprintf("%s: connection error: %v", e.Backend, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// IsConnectivityError reports whether err is a connectivity failure of backend.
func IsConnectivityError(err error, backend Backend) bool {
	var ce *ConnectivityError
	return errors.As(err, &ce) && ce.Backend == backend
}
