package gateway

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

// ErrorType represents the category of a gateway failure
type ErrorType int

const (
	// ErrTypeValidation indicates field-level input problems caught locally
	ErrTypeValidation ErrorType = iota
	// ErrTypeMissingImage indicates a submission without a selected image
	ErrTypeMissingImage
	// ErrTypeTimeout indicates the request exceeded its time budget
	ErrTypeTimeout
	// ErrTypeInvalidInput indicates the endpoint rejected the request (HTTP 400)
	ErrTypeInvalidInput
	// ErrTypeServer indicates the endpoint failed internally (HTTP 500)
	ErrTypeServer
	// ErrTypeTransport indicates any other network or status failure
	ErrTypeTransport
	// ErrTypeMalformedResponse indicates a body that could not be understood
	ErrTypeMalformedResponse
	// ErrTypeImage indicates the selected image could not be read or is too large
	ErrTypeImage
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeValidation:
		return "Validation Error"
	case ErrTypeMissingImage:
		return "Missing Image"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeInvalidInput:
		return "Invalid Input"
	case ErrTypeServer:
		return "Server Error"
	case ErrTypeTransport:
		return "Transport Error"
	case ErrTypeMalformedResponse:
		return "Malformed Response"
	case ErrTypeImage:
		return "Image Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// GatewayError is returned by every Client operation that fails
type GatewayError struct {
	Type       ErrorType // Category of error
	Message    string    // Human-readable error message
	StatusCode int       // HTTP status code (if applicable)
	Endpoint   string    // Endpoint path (e.g. "savedata.php")
	Err        error     // Underlying error (if any)
}

// Error implements the error interface
func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *GatewayError) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError turns a transport failure into a Timeout or Transport error
func ClassifyNetworkError(err error, endpoint string) *GatewayError {
	if err == nil {
		return nil
	}

	if os.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return &GatewayError{
			Type:     ErrTypeTimeout,
			Message:  "request timed out",
			Endpoint: endpoint,
			Err:      err,
		}
	}

	message := "network error occurred"

	var dnsErr *net.DNSError
	var opErr *net.OpError
	switch {
	case errors.Is(err, context.Canceled):
		message = "request was cancelled"
	case errors.As(err, &dnsErr):
		message = fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name)
	case errors.Is(err, syscall.ECONNREFUSED):
		message = "connection refused"
	case errors.Is(err, syscall.ECONNRESET):
		message = "connection reset"
	case errors.As(err, &opErr):
		message = fmt.Sprintf("network %s failed", opErr.Op)
	}

	// url.Error wraps everything http.Client returns; keep the inner cause
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}

	return &GatewayError{
		Type:     ErrTypeTransport,
		Message:  message,
		Endpoint: endpoint,
		Err:      err,
	}
}

// NewStatusError maps a non-200 HTTP status onto the taxonomy
func NewStatusError(statusCode int, endpoint string, body []byte) *GatewayError {
	detail := strings.TrimSpace(string(body))
	if len(detail) > 200 {
		detail = detail[:200] + "..."
	}

	message := fmt.Sprintf("unexpected status code: %d", statusCode)
	if detail != "" {
		message = fmt.Sprintf("%s: %s", message, detail)
	}

	errType := ErrTypeTransport
	switch statusCode {
	case http.StatusBadRequest:
		errType = ErrTypeInvalidInput
	case http.StatusInternalServerError:
		errType = ErrTypeServer
	}

	return &GatewayError{
		Type:       errType,
		Message:    message,
		StatusCode: statusCode,
		Endpoint:   endpoint,
	}
}

// NewMissingImageError reports a submission attempted without an image
func NewMissingImageError() *GatewayError {
	return &GatewayError{
		Type:     ErrTypeMissingImage,
		Message:  "no image selected",
		Endpoint: SaveDataPath,
	}
}

// NewInvalidInputError reports a request rejected before it was sent
func NewInvalidInputError(endpoint, message string) *GatewayError {
	return &GatewayError{
		Type:     ErrTypeInvalidInput,
		Message:  message,
		Endpoint: endpoint,
	}
}

// NewImageError reports an image that could not be attached. Nothing was sent.
func NewImageError(message string, err error) *GatewayError {
	return &GatewayError{
		Type:     ErrTypeImage,
		Message:  message,
		Endpoint: SaveDataPath,
		Err:      err,
	}
}

// NewValidationError reports a form that failed local validation
func NewValidationError(message string) *GatewayError {
	return &GatewayError{
		Type:    ErrTypeValidation,
		Message: message,
	}
}

// NewMalformedResponseError reports a body that could not be decoded
func NewMalformedResponseError(endpoint string, err error) *GatewayError {
	return &GatewayError{
		Type:     ErrTypeMalformedResponse,
		Message:  "response could not be decoded",
		Endpoint: endpoint,
		Err:      err,
	}
}

// TypeOf returns the category of err, or ErrTypeTransport for foreign errors
func TypeOf(err error) ErrorType {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Type
	}
	return ErrTypeTransport
}

func isType(err error, t ErrorType) bool {
	var gwErr *GatewayError
	return errors.As(err, &gwErr) && gwErr.Type == t
}

// IsTimeout checks if an error is a timeout
func IsTimeout(err error) bool { return isType(err, ErrTypeTimeout) }

// IsMissingImage checks if an error is a missing image precondition failure
func IsMissingImage(err error) bool { return isType(err, ErrTypeMissingImage) }

// IsInvalidInput checks if an error is an HTTP 400 rejection
func IsInvalidInput(err error) bool { return isType(err, ErrTypeInvalidInput) }

// IsServerError checks if an error is an HTTP 500 failure
func IsServerError(err error) bool { return isType(err, ErrTypeServer) }

// IsTransportError checks if an error is a generic transport failure
func IsTransportError(err error) bool { return isType(err, ErrTypeTransport) }

// IsMalformedResponse checks if an error is a decoding failure
func IsMalformedResponse(err error) bool { return isType(err, ErrTypeMalformedResponse) }

// IsImageError checks if an error is an unreadable or oversized image
func IsImageError(err error) bool { return isType(err, ErrTypeImage) }

// UserMessage returns a concise, actionable message for display
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		return "Something went wrong. Please try again."
	}

	switch gwErr.Type {
	case ErrTypeValidation:
		return "Please correct the highlighted fields."
	case ErrTypeMissingImage:
		return "Please select an image to upload."
	case ErrTypeTimeout:
		return "The server did not respond in time. Please try again."
	case ErrTypeInvalidInput:
		return "The server rejected the submitted details. Please check them and try again."
	case ErrTypeServer:
		return "The server encountered an error. Please try again later."
	case ErrTypeMalformedResponse:
		return "The server sent an unexpected response. Please try again."
	case ErrTypeImage:
		return "The selected image could not be used. Please choose another image."
	default:
		if gwErr.StatusCode != 0 {
			return fmt.Sprintf("Request failed (HTTP %d). Please try again.", gwErr.StatusCode)
		}
		return "Network error. Check your connection and try again."
	}
}

// Hint returns multi-line troubleshooting advice for an error
func Hint(err error) string {
	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		return "An unexpected error occurred. Please try again."
	}

	switch gwErr.Type {
	case ErrTypeTimeout:
		return strings.Join([]string{
			"The endpoint did not respond in time.",
			"Troubleshooting:",
			"  • Check your network connection",
			"  • Try again with a larger --timeout (max 15s)",
			"  • If you are using a proxy, check that it is running",
		}, "\n")

	case ErrTypeTransport:
		if gwErr.StatusCode != 0 {
			return fmt.Sprintf("The endpoint returned HTTP %d. Check the base URL.", gwErr.StatusCode)
		}
		return strings.Join([]string{
			"Network communication failed.",
			"Troubleshooting:",
			"  • Check your network connection",
			"  • Verify the base URL (gallery config show)",
			"  • Try routing through the local proxy with --proxy",
		}, "\n")

	case ErrTypeServer:
		return strings.Join([]string{
			"The endpoint failed while handling the request.",
			"This is a server-side issue; retrying later usually helps.",
		}, "\n")

	case ErrTypeInvalidInput:
		return "The endpoint rejected the request. Check the submitted fields and image."

	case ErrTypeMissingImage:
		return "Select an image with --image (a file path or URL) before submitting."

	case ErrTypeImage:
		return strings.Join([]string{
			"The image was not uploaded: " + gwErr.Message + ".",
			"Troubleshooting:",
			"  • Check that --image points to a readable file, not a directory",
			"  • Remote images must be at most 20 MiB",
		}, "\n")

	case ErrTypeValidation:
		return "The form values are invalid. Check the error message for details."

	default:
		return "An error occurred. Please check the error message for details."
	}
}
