package api

import (
	"errors"
	"fmt"
)

// ErrNoBridgeFound is returned when discovery locates no bridge
var ErrNoBridgeFound = errors.New("no bridge found")

// Error codes the bridge reports in the "type" field of an error object
const (
	ErrorCodeUnauthorizedUser      = 1
	ErrorCodeInvalidJSON           = 2
	ErrorCodeResourceNotAvailable  = 3
	ErrorCodeMethodNotAvailable    = 4
	ErrorCodeMissingParameters     = 5
	ErrorCodeParameterNotAvailable = 6
	ErrorCodeInvalidValue          = 7
	ErrorCodeParameterNotModified  = 8
	ErrorCodeInternalError         = 901
	ErrorCodeLinkButtonNotPressed  = 101
	ErrorCodeDeviceIsOff           = 201
)

// ValidationError reports a caller-supplied argument rejected before any
// request was sent
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// TransportError reports a request that could not complete, or completed
// with a non-2xx HTTP status
type TransportError struct {
	Method     string
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError reports a response that is not JSON or not shaped the way
// the endpoint answers
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return "decode response: " + e.Reason
	}
	return fmt.Sprintf("decode response: %s: %v", e.Reason, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// BridgeError is an error the bridge embedded in an otherwise successful
// response
type BridgeError struct {
	// Resource or parameter the bridge rejected (e.g., "/lights/1/state/bri")
	Address     string
	Description string
	Code        int
}

func (e *BridgeError) Error() string {
	if e.Address == "" {
		return fmt.Sprintf("bridge error %d: %s", e.Code, e.Description)
	}
	return fmt.Sprintf("bridge error %d at %s: %s", e.Code, e.Address, e.Description)
}

// IsBridgeError reports whether err is a BridgeError carrying code
func IsBridgeError(err error, code int) bool {
	var be *BridgeError
	return errors.As(err, &be) && be.Code == code
}

// IsRetryable reports whether repeating the call may succeed. Only
// transport failures qualify; everything else needs a different input or
// indicates a protocol mismatch.
func IsRetryable(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
