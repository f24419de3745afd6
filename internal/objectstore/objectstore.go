// Package objectstore defines the content-addressed object store used to hold
// published metadata and mirrored ownership records.
//
// Objects are immutable and addressed by CID. Every upload also yields a
// provider file handle, which is what groups reference.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"time"
)

//go:generate mockgen -source=objectstore.go -destination=mocks/mocks.go -package=mocks Store

// Store is the object store contract. Implementations must be safe for
// concurrent use and must honour ctx deadlines on every call.
type Store interface {
	// Upload stores body under a display name and returns its CID and file handle.
	// Identical bytes always yield the same CID.
	Upload(ctx context.Context, name string, body []byte) (Upload, error)
	// CreateGroup creates a named group. Names are not deduplicated.
	CreateGroup(ctx context.Context, name string) (Group, error)
	// AddFilesToGroup attaches file handles to a group.
	AddFilesToGroup(ctx context.Context, groupID string, fileHandles []string) ([]AddResult, error)
	// ListGroupFiles returns every file attached to a group.
	ListGroupFiles(ctx context.Context, groupID string) ([]File, error)
}

// Upload is the result of storing one object.
type Upload struct {
	CID        string
	FileHandle string
	Name       string
	Size       int64
	CreatedAt  time.Time
}

// Group is a named collection of file handles.
type Group struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// AddResult reports the outcome of attaching one file handle.
type AddResult struct {
	FileHandle string
	Status     string
}

// File is one object as listed within a group.
type File struct {
	FileHandle string
	Name       string
	CID        string
	SizeBytes  int64
	GroupID    string
	CreatedAt  time.Time
}

const (
	StatusOK = "OK"
)

// ErrorCategory normalizes provider failures.
type ErrorCategory string

const (
	ErrorTimeout        ErrorCategory = "timeout"
	ErrorBadData        ErrorCategory = "bad_data"
	ErrorAuthentication ErrorCategory = "authentication"
	ErrorOutage         ErrorCategory = "provider_outage"
	ErrorNotFound       ErrorCategory = "not_found"
	ErrorRateLimited    ErrorCategory = "rate_limited"
	ErrorCircuitOpen    ErrorCategory = "circuit_open"
	ErrorInternal       ErrorCategory = "internal"
)

// Error wraps an object store failure with the operation that failed.
type Error struct {
	Category  ErrorCategory
	Op        string
	Message   string
	Err       error
	Retryable bool
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("objectstore %s [%s]: %s: %v", e.Op, e.Category, e.Message, e.Err)
	}
	return fmt.Sprintf("objectstore %s [%s]: %s", e.Op, e.Category, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a categorized error. Timeouts, outages, rate limits and an
// open circuit are retryable.
func NewError(category ErrorCategory, op, message string, err error) *Error {
	retryable := category == ErrorTimeout ||
		category == ErrorOutage ||
		category == ErrorRateLimited ||
		category == ErrorCircuitOpen
	return &Error{
		Category:  category,
		Op:        op,
		Message:   message,
		Err:       err,
		Retryable: retryable,
	}
}

// IsRetryable reports whether err is a retryable object store failure.
func IsRetryable(err error) bool {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Retryable
	}
	return false
}

// CategoryOf extracts the category of err, defaulting to ErrorInternal.
func CategoryOf(err error) ErrorCategory {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Category
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTimeout
	}
	return ErrorInternal
}

// Operation names, used in errors, logs and metrics.
const (
	OpUpload      = "upload"
	OpCreateGroup = "create_group"
	OpAddFiles    = "add_files"
	OpListFiles   = "list_files"
)
