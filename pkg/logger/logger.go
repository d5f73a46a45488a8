package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var sugar = zap.NewNop().Sugar()

// Init builds the production logger (called once from main). Unknown levels
// fall back to info.
func Init(level string) error {
	config := zap.NewProductionConfig()

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	config.Level = zap.NewAtomicLevelAt(lvl)

	l, err := config.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}

	sugar = l.Sugar()
	return nil
}

// Set replaces the backing logger, mostly for tests.
func Set(l *zap.Logger) {
	sugar = l.WithOptions(zap.AddCallerSkip(1)).Sugar()
}

func Sync() error {
	return sugar.Sync()
}

func Infof(format string, v ...any) {
	sugar.Infof(format, v...)
}

func Warnf(format string, v ...any) {
	sugar.Warnf(format, v...)
}

func Errorf(format string, v ...any) {
	sugar.Errorf(format, v...)
}

func Debugf(format string, v ...any) {
	sugar.Debugf(format, v...)
}

func Fatalf(format string, v ...any) {
	sugar.Fatalf(format, v...)
}
