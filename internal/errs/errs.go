// Package errs defines the error kinds shared by every stage of a conversion.
//
// Stages wrap one of these sentinels with fmt.Errorf("%w") next to where the
// failure happens; callers classify with errors.Is.
package errs

import "errors"

var (
	// ErrInputNotFound means the source presentation or image directory is absent.
	ErrInputNotFound = errors.New("input not found")

	// ErrEmptyImageSet means there are no slide images to package.
	ErrEmptyImageSet = errors.New("no slide images")

	// ErrExternalToolUnavailable means the slide renderer could not be invoked.
	ErrExternalToolUnavailable = errors.New("external tool unavailable")

	// ErrValidation means a template, config value or image failed a shape check.
	ErrValidation = errors.New("validation failed")

	// ErrIO means reading an image or writing the archive failed.
	ErrIO = errors.New("i/o failure")
)
