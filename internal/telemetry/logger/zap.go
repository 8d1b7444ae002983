package logger

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// zapLevel is shared by every zap logger so SetLevel reaches them all.
var zapLevel = zap.NewAtomicLevel()

// zapLogger adapts a zap.SugaredLogger to Logger.
type zapLogger struct {
	logger *zap.SugaredLogger
}

func newZap(cfg Config, output io.Writer) (Logger, error) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.MessageKey = "msg"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	switch strings.ToLower(cfg.Format) {
	case "text", "console":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(output), zapLevel)
	var opts []zap.Option
	if cfg.AddSource {
		opts = append(opts, zap.AddCaller(), zap.AddCallerSkip(1))
	}

	return &zapLogger{logger: zap.New(core, opts...).Sugar()}, nil
}

func toZapLevel(l slog.Level) zapcore.Level {
	switch {
	case l <= slog.LevelDebug:
		return zapcore.DebugLevel
	case l <= slog.LevelInfo:
		return zapcore.InfoLevel
	case l <= slog.LevelWarn:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

func (l *zapLogger) Debug(msg string, args ...any) {
	l.logger.Debugw(msg, redactArgs(args)...)
}

func (l *zapLogger) Info(msg string, args ...any) {
	l.logger.Infow(msg, redactArgs(args)...)
}

func (l *zapLogger) Warn(msg string, args ...any) {
	l.logger.Warnw(msg, redactArgs(args)...)
}

func (l *zapLogger) Error(msg string, args ...any) {
	l.logger.Errorw(msg, redactArgs(args)...)
}

func (l *zapLogger) With(args ...any) Logger {
	return &zapLogger{logger: l.logger.With(redactArgs(args)...)}
}

// WithContext adds the command and connection names carried by ctx.
func (l *zapLogger) WithContext(ctx context.Context) Logger {
	fields := contextFields(ctx)
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}

// Sync flushes buffered zap output. It is a no-op for slog loggers.
func Sync(l Logger) error {
	if z, ok := l.(*zapLogger); ok {
		return z.logger.Sync()
	}
	return nil
}
