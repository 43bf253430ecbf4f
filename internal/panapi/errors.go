package panapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeConnectionFailed indicates the manager could not be reached
	// (refused, DNS failure, unreachable host or network)
	ErrTypeConnectionFailed ErrorType = iota
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeHTTPStatus indicates a non-2xx HTTP status code
	ErrTypeHTTPStatus
	// ErrTypeTransport indicates any other transport-level failure
	ErrTypeTransport
	// ErrTypeParse indicates a malformed (non well-formed) response body
	ErrTypeParse
	// ErrTypeAPI indicates the manager answered with status="error"
	ErrTypeAPI
	// ErrTypeAuth is the API error sub-kind for rejected credentials
	ErrTypeAuth
	// ErrTypeNoJob indicates a job-generating command returned no job ID
	ErrTypeNoJob
	// ErrTypeIndeterminate indicates a job status that could not be read
	ErrTypeIndeterminate
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeConnectionFailed:
		return "Connection Failed"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeHTTPStatus:
		return "HTTP Error"
	case ErrTypeTransport:
		return "Transport Error"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeAPI:
		return "API Error"
	case ErrTypeAuth:
		return "Authentication Failed"
	case ErrTypeNoJob:
		return "No Job Returned"
	case ErrTypeIndeterminate:
		return "Indeterminate"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// ParseErrorType maps a configuration name ("auth", "api", ...) to an ErrorType
func ParseErrorType(name string) (ErrorType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "auth", "authentication", "authentication_failed":
		return ErrTypeAuth, nil
	case "api", "":
		return ErrTypeAPI, nil
	default:
		return 0, fmt.Errorf("unknown error type %q (expected \"auth\" or \"api\")", name)
	}
}

// Error represents an error that occurred while talking to the manager
type Error struct {
	Type       ErrorType // Category of error
	Message    string    // Human-readable error message
	StatusCode int       // HTTP status code (if applicable)
	Target     string    // Target device serial (if any)
	Err        error     // Underlying error (if any)
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError analyzes a transport error and returns a typed Error
func ClassifyNetworkError(err error, target string) *Error {
	if err == nil {
		return nil
	}

	if os.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{
			Type:    ErrTypeTimeout,
			Message: "Request timed out",
			Target:  target,
			Err:     err,
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &Error{
			Type:    ErrTypeConnectionFailed,
			Message: fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Target:  target,
			Err:     err,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch {
		case errors.Is(opErr.Err, syscall.ECONNREFUSED):
			return &Error{Type: ErrTypeConnectionFailed, Message: "Manager refused connection", Target: target, Err: err}
		case errors.Is(opErr.Err, syscall.EHOSTUNREACH):
			return &Error{Type: ErrTypeConnectionFailed, Message: "Host unreachable", Target: target, Err: err}
		case errors.Is(opErr.Err, syscall.ENETUNREACH):
			return &Error{Type: ErrTypeConnectionFailed, Message: "Network unreachable", Target: target, Err: err}
		case opErr.Op == "dial":
			return &Error{Type: ErrTypeConnectionFailed, Message: "Failed to connect", Target: target, Err: err}
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil && urlErr.Err != err {
		return ClassifyNetworkError(urlErr.Err, target)
	}

	return &Error{
		Type:    ErrTypeTransport,
		Message: "Transport error occurred",
		Target:  target,
		Err:     err,
	}
}

// NewNetworkError creates a transport error with automatic classification
func NewNetworkError(message string, target string, err error) *Error {
	classified := ClassifyNetworkError(err, target)
	if classified == nil {
		return &Error{Type: ErrTypeTransport, Message: message, Target: target}
	}
	if classified.Type == ErrTypeTransport {
		classified.Message = message
	}
	return classified
}

// NewHTTPError creates an HTTP status error
func NewHTTPError(statusCode int, target string) *Error {
	return &Error{
		Type:       ErrTypeHTTPStatus,
		Message:    fmt.Sprintf("unexpected status %d %s", statusCode, http.StatusText(statusCode)),
		StatusCode: statusCode,
		Target:     target,
	}
}

// NewParseError creates a parsing error
func NewParseError(message string, err error) *Error {
	return &Error{
		Type:    ErrTypeParse,
		Message: message,
		Err:     err,
	}
}

// NewAPIError creates an API error of the given type (ErrTypeAPI or ErrTypeAuth)
func NewAPIError(typ ErrorType, message string) *Error {
	return &Error{
		Type:    typ,
		Message: message,
	}
}

// NewNoJobError creates the error reported when a job-generating command
// returns no job identifier
func NewNoJobError(operation string) *Error {
	return &Error{
		Type:    ErrTypeNoJob,
		Message: fmt.Sprintf("command '%s' did not return a job ID", operation),
	}
}

// NewIndeterminateError creates the error reported when a job status cannot be read
func NewIndeterminateError(message string, err error) *Error {
	return &Error{
		Type:    ErrTypeIndeterminate,
		Message: message,
		Err:     err,
	}
}

// TypeOf returns the ErrorType of err, and whether err is an *Error
func TypeOf(err error) (ErrorType, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Type, true
	}
	return 0, false
}

func isType(err error, types ...ErrorType) bool {
	t, ok := TypeOf(err)
	if !ok {
		return false
	}
	for _, want := range types {
		if t == want {
			return true
		}
	}
	return false
}

// IsTransportError checks if an error happened at the transport layer
func IsTransportError(err error) bool {
	return isType(err, ErrTypeConnectionFailed, ErrTypeTimeout, ErrTypeHTTPStatus, ErrTypeTransport)
}

// IsTimeout checks if an error is a request timeout
func IsTimeout(err error) bool {
	return isType(err, ErrTypeTimeout)
}

// IsAPIError checks if an error was reported by the manager (including auth failures)
func IsAPIError(err error) bool {
	return isType(err, ErrTypeAPI, ErrTypeAuth)
}

// IsAuthError checks if an error is an authentication failure. HTTP 401 and
// 403 responses count as authentication failures.
func IsAuthError(err error) bool {
	if isType(err, ErrTypeAuth) {
		return true
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Type == ErrTypeHTTPStatus {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
	}
	return false
}

// IsParseError checks if an error is a parse error
func IsParseError(err error) bool {
	return isType(err, ErrTypeParse)
}

// IsNoJobError checks if an error is a missing job ID error
func IsNoJobError(err error) bool {
	return isType(err, ErrTypeNoJob)
}

// ShortMessage returns a concise, user-friendly error message
func ShortMessage(err error) string {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return err.Error()
	}

	switch apiErr.Type {
	case ErrTypeTimeout:
		return "Timeout: the request timed out"
	case ErrTypeConnectionFailed:
		return "Connection Error: " + apiErr.Message
	case ErrTypeHTTPStatus:
		if IsAuthError(apiErr) {
			return fmt.Sprintf("HTTP %d %s - check your username and password",
				apiErr.StatusCode, http.StatusText(apiErr.StatusCode))
		}
		return fmt.Sprintf("HTTP Error: %d %s", apiErr.StatusCode, http.StatusText(apiErr.StatusCode))
	case ErrTypeAuth:
		return "Authentication failed - check your username and password"
	case ErrTypeAPI:
		return "API Error: " + apiErr.Message
	case ErrTypeParse:
		return "Failed to parse manager response"
	case ErrTypeNoJob, ErrTypeIndeterminate, ErrTypeTransport:
		return apiErr.Message
	default:
		return apiErr.Message
	}
}

// TroubleshootingHint returns user-friendly troubleshooting advice for an error
func TroubleshootingHint(err error) []string {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return nil
	}

	switch {
	case IsAuthError(apiErr):
		return []string{
			"Check the username and password",
			"Verify the account has XML API permissions on the manager",
			"Set FWFLEET_PASSWORD to avoid typing mistakes at the prompt",
		}
	case apiErr.Type == ErrTypeTimeout:
		return []string{
			"The manager did not respond in time",
			"Try increasing --timeout",
			"Check that the manager is not overloaded",
		}
	case apiErr.Type == ErrTypeConnectionFailed:
		return []string{
			"Verify the manager address (--manager)",
			"Check that HTTPS (port 443) is reachable from this host",
			"Use the IP address instead of the hostname if DNS fails",
		}
	case apiErr.Type == ErrTypeHTTPStatus && apiErr.StatusCode >= 500:
		return []string{
			fmt.Sprintf("The manager returned HTTP %d", apiErr.StatusCode),
			"Check the manager's system logs",
		}
	case apiErr.Type == ErrTypeParse:
		return []string{
			"The manager returned a body that is not valid XML",
			"Verify --manager points at the management interface, not a proxy",
		}
	case apiErr.Type == ErrTypeNoJob:
		return []string{
			"The manager accepted the command but did not enqueue a job",
			"Check the device's job list on the manager",
		}
	default:
		return nil
	}
}
