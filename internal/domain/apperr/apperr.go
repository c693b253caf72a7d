// Package apperr defines the error kinds shared across stores, the sync
// engine, and the HTTP layer. Handlers map these to status codes; everything
// below the HTTP layer wraps them with fmt.Errorf and %w.
package apperr

import "errors"

var (
	// ErrNotFound covers absent records and ownership failures. Ownership
	// misses are deliberately reported as NotFound rather than
	// PermissionDenied so that existence is not disclosed.
	ErrNotFound = errors.New("not found")

	// ErrInvalidOperation is returned for type mismatches, e.g. reading the
	// content of a folder, or moving a folder into its own subtree.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrPermissionDenied is returned for writes to read-only files.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrConflict is returned for duplicate paths or project names.
	ErrConflict = errors.New("conflict")

	// ErrAuthRequired means no remote-store credential is on record.
	ErrAuthRequired = errors.New("authentication required")

	// ErrAuthExpired means the remote-store credential expired and no
	// refresh path exists.
	ErrAuthExpired = errors.New("authentication expired")

	// ErrRemoteUnavailable wraps transient remote-store failures. It is never
	// surfaced from a content write; reads degrade to cached content instead.
	ErrRemoteUnavailable = errors.New("remote store unavailable")
)

// IsAuth reports whether err is a credential problem of either kind.
func IsAuth(err error) bool {
	return errors.Is(err, ErrAuthRequired) || errors.Is(err, ErrAuthExpired)
}
