package oracleworker

import "github.com/pkg/errors"

// Permanent data-insufficiency conditions. These are distinguishable
// from transient failures so callers can surface an actionable message
// instead of a generic error. Checked with errors.Is.
var (
	// ErrPersonalInfoMissing means the user has no personal-info row.
	ErrPersonalInfoMissing = errors.New("user personal info not found")

	// ErrAstrologyDataMissing means a generator that requires a natal
	// chart ran for a user without one and without enough birth data
	// to compute it.
	ErrAstrologyDataMissing = errors.New("user astrology data not found")
)
