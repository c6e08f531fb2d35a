// Package prometheus publishes guardian engine metrics through a
// prometheus.Collector. Register it on any registry, or mount
// [Collector.Handler] for a standalone scrape endpoint.
package prometheus
