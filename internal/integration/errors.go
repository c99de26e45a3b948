package integration

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/nhle/itsm-sync/internal/model"
)

// IntegrationDisabledError is returned when the requested integration is
// absent from the configuration or has enabled=false. Callers should
// treat it as a skip rather than a failure.
type IntegrationDisabledError struct {
	Type model.IntegrationType
}

func (e *IntegrationDisabledError) Error() string {
	return fmt.Sprintf("integration %s is not enabled", e.Type)
}

// UnknownIntegrationTypeError indicates a caller-side configuration bug:
// the requested type is not one the core knows how to talk to.
type UnknownIntegrationTypeError struct {
	Type string
}

func (e *UnknownIntegrationTypeError) Error() string {
	return fmt.Sprintf("unknown integration type: %s", e.Type)
}

// ExternalAPIError wraps any transport failure talking to an external
// tracker: a non-2xx response, a network error, or an undecodable body.
type ExternalAPIError struct {
	System    model.IntegrationType
	Operation string

	// Target is the item the call addressed (id, key or container).
	Target string

	// StatusCode is zero when no HTTP response was received.
	StatusCode int

	// Message is the error text reported by the external system.
	Message string

	Err error
}

func (e *ExternalAPIError) Error() string {
	msg := fmt.Sprintf("%s %s", e.System, e.Operation)
	if e.Target != "" {
		msg += " " + e.Target
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": HTTP %d", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExternalAPIError) Unwrap() error {
	return e.Err
}

// InvalidExternalIDError is returned when an external id cannot be
// coerced to the shape the target system needs (a positive integer for
// Azure DevOps work items and GitHub issues).
type InvalidExternalIDError struct {
	Type model.IntegrationType
	ID   string
	Err  error
}

func (e *InvalidExternalIDError) Error() string {
	return fmt.Sprintf("invalid %s external id %q: %v", e.Type, e.ID, e.Err)
}

func (e *InvalidExternalIDError) Unwrap() error {
	return e.Err
}

// MissingSettingError reports a required integration setting that is
// absent or empty.
type MissingSettingError struct {
	Type model.IntegrationType
	Key  string
}

func (e *MissingSettingError) Error() string {
	return fmt.Sprintf("integration %s: missing required setting %q", e.Type, e.Key)
}

// IsDisabled reports whether err (or any error in its chain) is an
// IntegrationDisabledError.
func IsDisabled(err error) bool {
	var target *IntegrationDisabledError
	return errors.As(err, &target)
}

// IsUnknownType reports whether err is an UnknownIntegrationTypeError.
func IsUnknownType(err error) bool {
	var target *UnknownIntegrationTypeError
	return errors.As(err, &target)
}

// IsExternalAPIError reports whether err is an ExternalAPIError.
func IsExternalAPIError(err error) bool {
	var target *ExternalAPIError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is a 404 from an external system.
func IsNotFound(err error) bool {
	var target *ExternalAPIError
	return errors.As(err, &target) && target.StatusCode == http.StatusNotFound
}

// IsAuthError reports whether err is a 401 or 403 from an external system.
func IsAuthError(err error) bool {
	var target *ExternalAPIError
	if !errors.As(err, &target) {
		return false
	}
	return target.StatusCode == http.StatusUnauthorized ||
		target.StatusCode == http.StatusForbidden
}
