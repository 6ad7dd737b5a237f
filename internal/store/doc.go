// Package store persists the snippet dataset as a JSON file.
//
// The file is a JSON array of {"category", "sql"} records. It is loaded once
// at the start of a crawl and fully rewritten after every category, so an
// interrupted run loses at most the category it was working on. The set of
// category names present in the file is the resume state.
package store
