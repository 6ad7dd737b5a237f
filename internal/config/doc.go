// Package config provides configuration structures and utilities for sqlharvest.
// It defines the crawl target, politeness settings, client identity pool and
// output locations, and loads overrides from a YAML configuration file.
package config
