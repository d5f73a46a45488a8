package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared by services and handlers. Services wrap them so the
// HTTP layer can pick a status code without knowing about the providers.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrInvalidState   = errors.New("invalid state")
	ErrRateLimited    = errors.New("too many requests")
	ErrMalformedToken = errors.New("access token is malformed, please check your WhatsApp API credentials")
)

// ConfigurationError reports a missing or obviously malformed credential. It is
// detected before any request leaves the process.
type ConfigurationError struct {
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return "configuration validation failed: " + strings.Join(e.Problems, ", ")
}

// RemoteAPIError is a non-2xx answer from the messaging or geocoding provider.
// Message carries the provider's text verbatim.
type RemoteAPIError struct {
	Service    string
	StatusCode int
	Message    string
	Type       string
	Code       int

	// Err is set when the remote answer maps onto a known sentinel.
	Err error
}

func (e *RemoteAPIError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *RemoteAPIError) Unwrap() error {
	return e.Err
}

// NetworkError means no response was received at all.
type NetworkError struct {
	Service string
	Err     error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Service, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
