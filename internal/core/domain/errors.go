package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotConfigured indicates a required collaborator was not provided.
	ErrNotConfigured = errors.New("not configured")

	// ErrRunInProgress indicates a delta run is already executing.
	ErrRunInProgress = errors.New("run in progress")

	// Provider Errors.

	// ErrNoImageData indicates the enhancement response carried no image.
	ErrNoImageData = errors.New("no image data returned")

	// ErrInvalidCursor indicates a stored cursor could not be decoded.
	ErrInvalidCursor = errors.New("invalid cursor")

	// ErrRateLimited indicates the provider rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// Webhook Errors.

	// ErrInvalidSignature indicates a webhook body failed signature verification.
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// ConfigurationError reports a missing or unsupported configuration value.
// It is raised before any remote call is attempted.
type ConfigurationError struct {
	// Key names the setting, e.g. OUTPUT_FORMAT.
	Key string

	// Value is the offending value after normalisation.
	Value string

	// Supported lists accepted values for allow-list violations.
	Supported []string

	// Reason is a free-form explanation used when Supported is empty.
	Reason string
}

func (e *ConfigurationError) Error() string {
	if len(e.Supported) > 0 {
		return fmt.Sprintf("Invalid %s=%q. Supported values: %s.",
			e.Key, e.Value, strings.Join(e.Supported, ", "))
	}
	if e.Reason != "" {
		return fmt.Sprintf("invalid configuration %s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("invalid configuration %s", e.Key)
}

// NewMissingConfigError returns a ConfigurationError for an unset required value.
func NewMissingConfigError(key, reason string) *ConfigurationError {
	return &ConfigurationError{Key: key, Reason: reason}
}

// IsConfigurationError reports whether err is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// TransportError wraps a failed remote call (list, download, upload, transform).
type TransportError struct {
	// Op is the remote operation, e.g. "download".
	Op string

	// Path is the remote path involved, if any.
	Path string

	// Diagnostic holds provider detail collapsed by the adapter.
	Diagnostic Diagnostic

	Err error
}

func (e *TransportError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	b.WriteString(": ")
	if !e.Diagnostic.IsZero() {
		b.WriteString(e.Diagnostic.String())
	} else if e.Err != nil {
		b.WriteString(e.Err.Error())
	} else {
		b.WriteString("unknown error")
	}
	return b.String()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ScanError is fatal to a run: the listing itself failed.
// The cursor stays at its last persisted value.
type ScanError struct {
	// Page is the 1-based page number that failed.
	Page int

	Err error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan failed on page %d: %v", e.Page, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// IsScanError reports whether err is or wraps a ScanError.
func IsScanError(err error) bool {
	var scanErr *ScanError
	return errors.As(err, &scanErr)
}

// JobError is a per-file failure. It is contained at the job boundary
// and only ever counted and logged.
type JobError struct {
	// Path is the input path of the failed job.
	Path string

	// Stage is one of "download", "enhance", "upload" or "panic".
	Stage string

	Err error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("job %s failed at %s: %v", e.Path, e.Stage, e.Err)
}

func (e *JobError) Unwrap() error {
	return e.Err
}
