package service

import "errors"

// Typed failures surfaced to callers. Degraded conditions (too few
// outcomes, no keyword overlap, no signature match) are not errors and
// resolve to neutral defaults instead.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrPatternNotFound = errors.New("pattern not found")
	ErrArchiveNotFound = errors.New("archived pattern not found")
)
