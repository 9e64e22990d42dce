// errors.go - descriptive errors for fio
//
// (c) 2024 Sudhi Herle <sudhi@herle.net>
//
// Licensing Terms: GPLv2
//
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package fsx

import (
	"errors"
	"fmt"
)

// errAny returns true if the target error 'err' matches
// any in the list 'errs'; and returns false otherwise
func errAny(err error, errs ...error) bool {
	for _, e := range errs {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// CopyError represents the errors returned by
// CopyFile and CopyFd
type CopyError struct {
	Op  string
	Src string
	Dst string
	Err error
}

// Error returns a string representation of CopyError
func (e *CopyError) Error() string {
	return fmt.Sprintf("copyfile: %s '%s' '%s': %s",
		e.Op, e.Src, e.Dst, e.Err.Error())
}

// Unwrap returns the underlying wrapped error
func (e *CopyError) Unwrap() error {
	return e.Err
}

var _ error = &CopyError{}

// NotFoundError is returned when an operation is given a path that
// does not exist. It is a distinct kind from HashError/WalkError/etc.
// so callers can retry or skip with errors.As.
type NotFoundError struct {
	Op   string
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s: not found: %s", e.Op, e.Path, e.Err.Error())
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

var _ error = &NotFoundError{}

// WalkError represents a fatal traversal failure: an invalid root,
// or (when Join'd) the aggregate of per-entry errors collected during
// a walk.
type WalkError struct {
	Op   string
	Path string
	Err  error
}

func (e *WalkError) Error() string {
	return fmt.Sprintf("walk: %s %s: %s", e.Op, e.Path, e.Err.Error())
}

func (e *WalkError) Unwrap() error {
	return e.Err
}

var _ error = &WalkError{}

// HashError represents a hashing failure: an unsupported algorithm,
// or an I/O error while reading the file's contents.
type HashError struct {
	Op   string
	Path string
	Err  error
}

func (e *HashError) Error() string {
	return fmt.Sprintf("hash: %s %s: %s", e.Op, e.Path, e.Err.Error())
}

func (e *HashError) Unwrap() error {
	return e.Err
}

var _ error = &HashError{}

// WatchError represents a watch-engine failure: an invalid root at
// construction, loss of the OS event subscription, or ready-queue
// overflow.
type WatchError struct {
	Op   string
	Path string
	Err  error
}

func (e *WatchError) Error() string {
	return fmt.Sprintf("watch: %s %s: %s", e.Op, e.Path, e.Err.Error())
}

func (e *WatchError) Unwrap() error {
	return e.Err
}

var _ error = &WatchError{}

// CancelledError is returned by long-running calls that honored a
// caller-supplied cancellation (context.Context) before completing.
type CancelledError struct {
	Op string
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("%s: cancelled", e.Op)
}

var _ error = &CancelledError{}

// ErrCancelled is the sentinel compared against with errors.Is; all
// CancelledError instances wrap it.
var ErrCancelled = errors.New("fsx: operation cancelled")

func (e *CancelledError) Unwrap() error {
	return ErrCancelled
}
