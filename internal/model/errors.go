package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
// Use errors.Is() to check against these.
var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrAmbiguous      = errors.New("ambiguous or not found")
	ErrNotFound       = errors.New("not found")
	ErrEmptyCart      = errors.New("empty cart")
	ErrCheckoutFailed = errors.New("checkout failed")
	ErrUpstreamError  = errors.New("upstream error")
	ErrRateLimited    = errors.New("rate limited")
)

// APIError represents a structured error for API responses.
// Implements error interface and supports unwrapping.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"` // HTTP status, not serialized
	Err        error  `json:"-"` // Wrapped error, not serialized
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewInvalidInputError creates a 400 error for malformed identifiers,
// quantities, or payment methods.
func NewInvalidInputError(field, reason string) *APIError {
	return &APIError{
		Code:       "invalid_input",
		Message:    fmt.Sprintf("invalid %s: %s", field, reason),
		StatusCode: 400,
		Err:        ErrInvalidInput,
	}
}

// NewAmbiguousError creates an error when free-text resolution did not yield
// exactly one product. Zero matches reads as not found (404), more than one
// as a conflict the caller must disambiguate (409).
func NewAmbiguousError(query string, matches int) *APIError {
	status := 409
	msg := fmt.Sprintf("%d products match %q, pick one from the suggestions", matches, query)
	if matches == 0 {
		status = 404
		msg = fmt.Sprintf("no product matches %q", query)
	}
	return &APIError{
		Code:       "ambiguous_product",
		Message:    msg,
		StatusCode: status,
		Err:        ErrAmbiguous,
	}
}

// NewProductNotFoundError creates a 404 error for a resolved identifier that
// does not exist on the backend.
func NewProductNotFoundError(productID int64) *APIError {
	return &APIError{
		Code:       "product_not_found",
		Message:    fmt.Sprintf("product %d not found", productID),
		StatusCode: 404,
		Err:        ErrNotFound,
	}
}

// NewNotFoundError creates a 404 error for missing resources.
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Code:       "not_found",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: 404,
		Err:        ErrNotFound,
	}
}

// NewEmptyCartError creates a 400 error for a submission with no lines.
func NewEmptyCartError() *APIError {
	return &APIError{
		Code:       "empty_cart",
		Message:    "cart has no items",
		StatusCode: 400,
		Err:        ErrEmptyCart,
	}
}

// NewCheckoutFailedError creates an error for a failed submission.
// The detail is the backend-provided message when available.
func NewCheckoutFailedError(detail string, err error) *APIError {
	if detail == "" {
		detail = "checkout could not be completed"
	}
	wrapped := ErrCheckoutFailed
	if err != nil {
		wrapped = fmt.Errorf("%w: %v", ErrCheckoutFailed, err)
	}
	return &APIError{
		Code:       "checkout_failed",
		Message:    detail,
		StatusCode: 502,
		Err:        wrapped,
	}
}

// NewUpstreamError creates a 502 error for backend failures.
func NewUpstreamError(service string, err error) *APIError {
	return &APIError{
		Code:       "upstream_error",
		Message:    fmt.Sprintf("%s request failed", service),
		StatusCode: 502,
		Err:        fmt.Errorf("%w: %v", ErrUpstreamError, err),
	}
}

// NewRateLimitError creates a 429 error for rate limiting.
func NewRateLimitError(service string) *APIError {
	return &APIError{
		Code:       "rate_limited",
		Message:    fmt.Sprintf("%s rate limit exceeded, please retry later", service),
		StatusCode: 429,
		Err:        ErrRateLimited,
	}
}

// NewInternalError creates a 500 error for unexpected failures.
func NewInternalError(err error) *APIError {
	return &APIError{
		Code:       "internal_error",
		Message:    "an internal error occurred",
		StatusCode: 500,
		Err:        err,
	}
}
