// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package qualys

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks.
var (
	// ErrNotImplemented is wrapped by UnsupportedActionError.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnexpectedResponse is wrapped by APIErrors built for a response
	// whose root element is neither the expected envelope nor SIMPLE_RETURN.
	ErrUnexpectedResponse = errors.New("unexpected response")

	ErrMissingCredentials = errors.New("username and password are required")
	ErrUnknownPlatform    = errors.New("unknown platform")
	ErrUnknownEndpoint    = errors.New("unknown endpoint")
)

// APIError is a vendor-reported failure: the API answered, but with an error
// or informational SIMPLE_RETURN instead of the requested resource.
type APIError struct {
	// Code is the vendor's RESPONSE/CODE, or 0 when the response had none.
	Code int

	// Message is the vendor's RESPONSE/TEXT, unaltered.
	Message string

	// StatusCode is the HTTP status when the failure arrived on a non-2xx
	// response, else 0.
	StatusCode int

	Err error
}

// Error returns the vendor message verbatim.
func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != 0 {
		return fmt.Sprintf("qualys API error %d", e.Code)
	}
	return "qualys API error"
}

func (e *APIError) Unwrap() error { return e.Err }

// UnsupportedActionError reports an action outside a resource's vocabulary.
type UnsupportedActionError struct {
	Resource string
	Action   string
}

func (e *UnsupportedActionError) Error() string {
	return fmt.Sprintf("%s: action %q is %v", e.Resource, e.Action, ErrNotImplemented)
}

func (e *UnsupportedActionError) Unwrap() error { return ErrNotImplemented }
