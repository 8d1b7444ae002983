package logger

import "context"

// contextKey is a type for context keys to avoid collisions.
type contextKey string

const (
	// loggerKey is the context key for the logger.
	loggerKey contextKey = "redpipe.logger"
	// commandKey is the context key for the CLI command name.
	commandKey contextKey = "redpipe.command"
	// connectionKey is the context key for the redis connection name.
	connectionKey contextKey = "redpipe.connection"
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext extracts the logger from context.
// Returns the default logger if none is set.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok {
		return l
	}
	return Default()
}

// WithCommand adds the running command name to the context.
func WithCommand(ctx context.Context, command string) context.Context {
	return context.WithValue(ctx, commandKey, command)
}

// CommandFromContext extracts the command name from context.
func CommandFromContext(ctx context.Context) string {
	if c, ok := ctx.Value(commandKey).(string); ok {
		return c
	}
	return ""
}

// WithConnection adds a redis connection name to the context.
func WithConnection(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, connectionKey, name)
}

// ConnectionFromContext extracts the connection name from context.
func ConnectionFromContext(ctx context.Context) string {
	if c, ok := ctx.Value(connectionKey).(string); ok {
		return c
	}
	return ""
}

// L is a shorthand for FromContext(ctx).WithContext(ctx).
func L(ctx context.Context) Logger {
	return FromContext(ctx).WithContext(ctx)
}

func contextFields(ctx context.Context) []any {
	var fields []any
	if cmd := CommandFromContext(ctx); cmd != "" {
		fields = append(fields, "command", cmd)
	}
	if conn := ConnectionFromContext(ctx); conn != "" {
		fields = append(fields, "connection", conn)
	}
	return fields
}
