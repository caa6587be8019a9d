// Package obsmetrics implements an HTTP service for managing named integer gauges.
//
// Callers create, update, read and delete gauges through a REST API. Every gauge
// is registered with a Prometheus registry served on a separate scrape port and,
// when an OTLP endpoint is configured, pushed to an OpenTelemetry collector.
//
// Features:
//   - REST API under /metrics for gauge management
//   - Agent registry and "kick" fan-out to registered agents
//   - Optional PostgreSQL persistence with embedded migrations
//   - Data compression using gzip
//   - Audit logging to file or HTTP endpoint
//   - Structured logging
//   - Graceful shutdown handling
//
// The server supports configuration via command-line flags and environment variables.
package obsmetrics
