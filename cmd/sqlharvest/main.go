// Package main provides the entry point for the sqlharvest CLI.
//
// sqlharvest crawls the category pages of a documentation site, extracts
// the highlighted SQL examples and accumulates them in a JSON file. Runs
// are resumable: categories already in the file are never fetched again.
//
// Usage:
//
//	sqlharvest crawl
//	sqlharvest stats
//
// See --help for all available options.
package main

// main is the entry point for sqlharvest.
func main() {
	Execute()
}
