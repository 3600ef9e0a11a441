// Package devsyncerr defines the error kinds shared by every handler and
// filesystem primitive in devsync, so the scheduler and orchestrator only
// ever need to branch on Kind rather than parse messages.
package devsyncerr

import "fmt"

// Kind is one of the six error categories devsync ever surfaces to a caller.
type Kind string

const (
	Io         Kind = "io"
	Permission Kind = "permission"
	Vcs        Kind = "vcs"
	Classify   Kind = "classify"
	Config     Kind = "config"
	Aborted    Kind = "aborted"
)

// Error wraps an underlying failure with the kind and path it occurred at.
type Error struct {
	Kind   Kind
	Path   string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Path, e.Detail)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Path)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error of the given kind for path, wrapping err.
func New(kind Kind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}

// Newf builds an Error of the given kind for path with a formatted detail
// message instead of a wrapped error.
func Newf(kind Kind, path string, format string, args ...any) *Error {
	return &Error{Kind: kind, Path: path, Detail: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind from err if it (or something it wraps) is an
// *Error; ok is false otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if ok := asError(err, &e); ok {
		return e.Kind, true
	}
	return "", false
}

func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
