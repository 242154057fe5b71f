// Package metrics collects request and chat metrics into a Prometheus
// registry and maintains the running aggregates served by the operator
// metrics endpoint.
package metrics
