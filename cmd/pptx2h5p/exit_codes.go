package main

import (
	"context"
	"errors"

	"github.com/ivlev/pptx2h5p/internal/errs"
)

// Exit codes. 0 is success, 1 anything unclassified.
const (
	ExitSuccess     = 0
	ExitGeneral     = 1
	ExitUsage       = 2 // bad flags, config or template
	ExitIO          = 3 // missing input, unreadable image, unwritable archive
	ExitNoImages    = 4
	ExitTool        = 5 // renderer could not run
	ExitInterrupted = 130
)

// exitCodeFor classifies err with errors.Is, so every stage must wrap with %w.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.Is(err, errs.ErrExternalToolUnavailable):
		return ExitTool
	case errors.Is(err, errs.ErrEmptyImageSet):
		return ExitNoImages
	case errors.Is(err, errs.ErrInputNotFound), errors.Is(err, errs.ErrIO):
		return ExitIO
	case errors.Is(err, errs.ErrValidation), errors.Is(err, errUsage):
		return ExitUsage
	default:
		return ExitGeneral
	}
}
