package classify

import "errors"

// InvalidArgumentError marks a malformed call into the gateway. It is a
// caller bug: nothing was sent to any backend and the call must not be
// retried as-is.
type InvalidArgumentError struct {
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return "classify: invalid argument: " + e.Reason
}

// BackendError reports a remote or on-device classification failure. The
// pipeline responds fail-open: affected tiles are shown, never hidden.
type BackendError struct {
	Message string
	Err     error
}

func (e *BackendError) Error() string {
	if e.Message != "" {
		return "classification backend: " + e.Message
	}
	if e.Err != nil {
		return "classification backend: " + e.Err.Error()
	}
	return "classification backend error"
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// ErrBackendUnavailable indicates the on-device model is not ready to serve.
// It surfaces wrapped in a BackendError so call sites handle it like any
// other backend failure.
var ErrBackendUnavailable = errors.New("model not available")
