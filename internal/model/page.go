package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Page is a fetched category or listing page.
// It keeps the response metadata next to the body so that the history
// database can record what was seen without re-reading the body.
type Page struct {
	// URL is the absolute URL that was requested.
	URL string `json:"url"`

	// Referer is the Referer header sent with the request.
	Referer string `json:"referer,omitempty"`

	// UserAgent is the client identity sent with the request.
	UserAgent string `json:"user_agent,omitempty"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// ContentType is the MIME type of the response.
	ContentType string `json:"content_type"`

	// Body is the response body, limited to the configured max body size.
	Body []byte `json:"-"`

	// Hash is the SHA-256 hash of Body.
	Hash string `json:"hash"`
}

// ComputeHash calculates and sets the SHA-256 hash of the page body.
// This should be called after setting the Body field.
func (p *Page) ComputeHash() {
	if len(p.Body) == 0 {
		p.Hash = ""
		return
	}

	hash := sha256.Sum256(p.Body)
	p.Hash = hex.EncodeToString(hash[:])
}

// IsHTML returns true if the page content type indicates HTML.
// An empty content type is treated as HTML because some servers omit it.
func (p *Page) IsHTML() bool {
	ct := strings.ToLower(p.ContentType)
	return ct == "" ||
		strings.HasPrefix(ct, "text/html") ||
		strings.HasPrefix(ct, "application/xhtml+xml")
}

// Text returns the body as a string.
func (p *Page) Text() string {
	return string(p.Body)
}
