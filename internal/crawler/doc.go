// Package crawler fetches and parses the pages of a documentation site.
//
// # Components
//
//   - Fetcher: HTTP GET with a client identity and a Referer header
//   - UserAgentPicker: selects client identities from an immutable pool
//   - Discoverer: reads the ordered category links from the root page
//   - Extractor: pulls normalized, deduplicated snippets out of a page
//   - RobotsGate: optional robots.txt check for category pages
//
// HTML is parsed with goquery (selection) on top of golang.org/x/net/html
// (node walking for text extraction).
//
// # Usage
//
//	picker, _ := crawler.NewUserAgentPicker(agents, crawler.StrategyRandom)
//	fetcher := crawler.NewFetcher(picker)
//	extractor, _ := crawler.NewExtractor("w3-code notranslate sqlHigh")
//	page, err := fetcher.Fetch(ctx, "https://www.w3schools.com/sql/sql_select.asp", referer)
//	snippets, err := extractor.Extract(page.Body, "SELECT")
package crawler
