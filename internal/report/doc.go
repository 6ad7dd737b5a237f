// Package report renders dataset summaries and crawl history.
//
// Three formats are supported: plain text for the terminal, JSON for
// scripts, and Markdown (with a Mermaid pie chart of the category
// distribution) for sharing.
package report
