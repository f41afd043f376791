package review

import (
	"errors"
	"fmt"
	"strings"
)

// Stable error codes recorded in status entries and returned to callers.
const (
	CodeValidation = "validation_error"
	CodeBackend    = "backend_error"
	CodeUpstream   = "upstream_error"
	CodeCache      = "cache_error"
	CodeScan       = "scan_error"
	CodeNotFound   = "not_found"
)

// coded is satisfied by every error in the taxonomy.
type coded interface {
	error
	Code() string
}

// CodeOf returns the stable code carried by err, or "" when err carries none.
func CodeOf(err error) string {
	var c coded
	if errors.As(err, &c) {
		return c.Code()
	}
	return ""
}

// ValidationError rejects bad input before any work is queued.
type ValidationError struct {
	Reason string
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string { return "invalid request: " + e.Reason }
func (e *ValidationError) Code() string  { return CodeValidation }

// BackendError marks a single backend's failure. It is recovered locally:
// aggregation proceeds with the remaining backends.
type BackendError struct {
	Backend string
	Err     error
}

func NewBackendError(backend string, err error) *BackendError {
	return &BackendError{Backend: backend, Err: err}
}

func (e *BackendError) Error() string { return fmt.Sprintf("backend %s: %v", e.Backend, e.Err) }
func (e *BackendError) Code() string  { return CodeBackend }
func (e *BackendError) Unwrap() error { return e.Err }

// UpstreamError means every backend failed and no result could be produced.
type UpstreamError struct {
	Errs []error
}

func NewUpstreamError(errs ...error) *UpstreamError {
	return &UpstreamError{Errs: errs}
}

func (e *UpstreamError) Error() string {
	if len(e.Errs) == 0 {
		return "all backends failed"
	}
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return "all backends failed: " + strings.Join(msgs, "; ")
}

func (e *UpstreamError) Code() string    { return CodeUpstream }
func (e *UpstreamError) Unwrap() []error { return e.Errs }

// CacheError is advisory. It is logged at the call site and never surfaced
// to the caller; the system still produces a correct, uncached result.
type CacheError struct {
	Op  string
	Err error
}

func NewCacheError(op string, err error) *CacheError {
	return &CacheError{Op: op, Err: err}
}

func (e *CacheError) Error() string { return fmt.Sprintf("cache %s: %v", e.Op, e.Err) }
func (e *CacheError) Code() string  { return CodeCache }
func (e *CacheError) Unwrap() error { return e.Err }

// ScanError marks one secret pattern's failure. The pattern is skipped and
// scanning continues with the rest.
type ScanError struct {
	Pattern string
	Err     error
}

func NewScanError(pattern string, err error) *ScanError {
	return &ScanError{Pattern: pattern, Err: err}
}

func (e *ScanError) Error() string { return fmt.Sprintf("scan pattern %s: %v", e.Pattern, e.Err) }
func (e *ScanError) Code() string  { return CodeScan }
func (e *ScanError) Unwrap() error { return e.Err }

// NotFoundError reports an unknown status or cache id.
type NotFoundError struct {
	ID string
}

func NewNotFoundError(id string) *NotFoundError { return &NotFoundError{ID: id} }

func (e *NotFoundError) Error() string { return fmt.Sprintf("%q not found", e.ID) }
func (e *NotFoundError) Code() string  { return CodeNotFound }
