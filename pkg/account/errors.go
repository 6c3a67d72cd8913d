package account

import (
	"errors"
	"fmt"
)

var (
	// ErrLoginRequired is returned without any network call when the
	// session holds no credential.
	ErrLoginRequired = errors.New("please login")
	// ErrNotConnected means the platform has not been linked. It is an
	// expected state, not a failure.
	ErrNotConnected = errors.New("account not connected")
	// ErrUnauthenticated means the backend rejected the session. The local
	// credential has been forgotten.
	ErrUnauthenticated = errors.New("session expired, please login again")
)

// TransientFetchError is any other non-2xx answer. Nothing retries it.
type TransientFetchError struct {
	Platform string
	Status   int
	Message  string
}

func (e *TransientFetchError) Error() string {
	return fmt.Sprintf("%s: backend returned %d: %s", e.Platform, e.Status, e.Message)
}
