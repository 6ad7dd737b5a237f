// Package model defines the data structures shared by the crawler, the
// store, the history database and the reports.
//
// This package contains the following main types:
//   - Category: a named documentation page found on the root page
//   - Page: a fetched page with its response metadata
//   - Snippet and Dataset: the persisted, append-only snippet records
//   - Summary: per-category counts computed from a Dataset
//   - Run and FetchRecord: entries of the crawl history
//
// Keeping the types in their own package lets crawler, store, database and
// report share them without import cycles.
package model
