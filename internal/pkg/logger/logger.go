package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	SugaredLogger *zap.SugaredLogger
}

func New(mode string) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	zl, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{SugaredLogger: zl.Sugar()}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func (l *Logger) Sync() {
	if l == nil {
		return
	}
	_ = l.SugaredLogger.Sync()
}

func (l *Logger) Debug(msg string, kv ...interface{}) {
	if l == nil {
		return
	}
	l.SugaredLogger.Debugw(msg, redact(kv)...)
}

func (l *Logger) Info(msg string, kv ...interface{}) {
	if l == nil {
		return
	}
	l.SugaredLogger.Infow(msg, redact(kv)...)
}

func (l *Logger) Warn(msg string, kv ...interface{}) {
	if l == nil {
		return
	}
	l.SugaredLogger.Warnw(msg, redact(kv)...)
}

func (l *Logger) Error(msg string, kv ...interface{}) {
	if l == nil {
		return
	}
	l.SugaredLogger.Errorw(msg, redact(kv)...)
}

func (l *Logger) With(kv ...interface{}) *Logger {
	if l == nil {
		return Nop()
	}
	return &Logger{SugaredLogger: l.SugaredLogger.With(redact(kv)...)}
}

var sensitiveSuffixes = []string{"token", "secret", "password", "api_key"}

func redact(kv []interface{}) []interface{} {
	if len(kv) < 2 {
		return kv
	}
	out := make([]interface{}, len(kv))
	copy(out, kv)
	for i := 0; i+1 < len(out); i += 2 {
		key, ok := out[i].(string)
		if !ok {
			continue
		}
		k := strings.ToLower(key)
		for _, suffix := range sensitiveSuffixes {
			if strings.HasSuffix(k, suffix) {
				out[i+1] = "[REDACTED]"
				break
			}
		}
	}
	return out
}
