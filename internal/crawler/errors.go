package crawler

import "errors"

// Crawl errors.
var (
	// ErrNavigationNotFound is returned when the root page has no element
	// with the configured navigation container id.
	ErrNavigationNotFound = errors.New("navigation container not found")

	// ErrUnexpectedStatus is returned when a page responds with a non-2xx status.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrInvalidSelector is returned when a configured CSS selector cannot be compiled.
	ErrInvalidSelector = errors.New("invalid selector")

	// ErrEmptyClassMarker is returned when the snippet class marker has no classes.
	ErrEmptyClassMarker = errors.New("empty class marker")

	// ErrNoUserAgents is returned when the identity pool is empty.
	ErrNoUserAgents = errors.New("user agent pool is empty")

	// ErrUnknownStrategy is returned for an unknown identity selection strategy.
	ErrUnknownStrategy = errors.New("unknown user agent strategy")
)
