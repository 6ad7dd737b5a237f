// Package database keeps the crawl history in a SQLite file.
//
// Every crawl run and every category page fetched during a run is
// recorded, so the history command can show when a category was fetched,
// with which identity and referer, and how many snippets it produced.
// The JSON store remains the source of truth for resuming; the history is
// informational only.
//
// The database uses modernc.org/sqlite, a CGO-free driver, and lives in a
// single file.
package database
