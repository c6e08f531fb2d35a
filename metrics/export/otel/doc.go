// Package otel mirrors guardian engine metrics into OpenTelemetry observable
// instruments. Callers own the MeterProvider and pass in a Meter.
//
// Histograms are exported as one cumulative gauge per bucket plus a count
// gauge, named with the same prefixes as the Prometheus exporter.
package otel
