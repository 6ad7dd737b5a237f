// Package pipeline runs the resumable crawl loop.
//
// The Orchestrator discovers the category pages, loads the persisted
// dataset, and then visits every category not yet in the dataset, one at
// a time: wait a random politeness delay, fetch the page, extract its
// snippets, append them and rewrite the store. Because the store is
// rewritten after every category, an interrupted run is resumed by simply
// running it again.
//
// Collaborators are small interfaces so tests can replace the network,
// the clock and the store.
package pipeline
