// Package logger provides structured logging for redpipe tools.
//
// This package offers one Logger interface over two backends:
//
//   - logger.go: Logger interface, configuration and the log/slog backend
//   - zap.go: go.uber.org/zap backend
//   - context.go: Context-aware logging with command/connection fields
//   - redact.go: Sensitive data redaction
//
// Features:
//
//   - JSON and text output formats
//   - Log level filtering, adjustable at runtime
//   - Automatic masking of passwords, including those inside redis URLs
//   - Context propagation
//
// Every Logger also satisfies redpipe.Logger.
package logger
