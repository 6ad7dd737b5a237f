package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so that callers can use
// errors.Is() to tell which setting is wrong.
var (
	// ErrInvalidRootURL is returned when the root listing URL is empty,
	// unparsable, or not an absolute http(s) URL.
	ErrInvalidRootURL = errors.New("invalid root URL: must be an absolute http or https URL")

	// ErrInvalidDelay is returned when the politeness delay range is negative
	// or when the minimum is larger than the maximum.
	ErrInvalidDelay = errors.New("invalid delay range: need 0 <= min <= max")

	// ErrNoUserAgents is returned when the client identity pool is empty.
	ErrNoUserAgents = errors.New("no user agents configured")

	// ErrInvalidUserAgentStrategy is returned for an unknown selection strategy.
	ErrInvalidUserAgentStrategy = errors.New("invalid user agent strategy: must be \"random\" or \"rotate\"")

	// ErrInvalidTimeout is returned when the fetch timeout is negative.
	// Zero is valid and disables the client timeout.
	ErrInvalidTimeout = errors.New("invalid timeout: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 to fall back to the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrNoOutputFile is returned when the dataset output path is empty.
	ErrNoOutputFile = errors.New("no output file specified")

	// ErrNoSnippetClass is returned when the snippet class marker is empty.
	ErrNoSnippetClass = errors.New("no snippet class marker configured")

	// ErrNoNavigation is returned when the navigation container id or the
	// link selector is empty.
	ErrNoNavigation = errors.New("navigation container id and link selector are required")
)
