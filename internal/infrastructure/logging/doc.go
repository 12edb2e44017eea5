// Package logging provides structured logging for the Gray Logic adapter.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the adapter.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering, adjustable at runtime with SetLevel
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Component("outbound").Info("published", "topic", topic)
//
// # Security
//
// Never log broker passwords or InfluxDB tokens.
package logging
