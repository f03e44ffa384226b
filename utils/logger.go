package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	loggerMu sync.RWMutex
	logger   = newDefaultLogger()
)

// newDefaultLogger пишет JSON в stdout, уровень берется из LOG_LEVEL
func newDefaultLogger() *zap.Logger {
	level := zapcore.InfoLevel
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if err := level.Set(raw); err != nil {
			level = zapcore.InfoLevel
		}
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(os.Stdout),
		level,
	)
	return zap.New(core)
}

// Logger возвращает текущий логгер приложения
func Logger() *zap.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// SetLogger подменяет логгер (в тестах используется zap.NewNop или observer)
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = l
}

// caller возвращает файл и строку вызывающего кода
func caller(skip int) zap.Field {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return zap.Skip()
	}
	return zap.String("caller", fmt.Sprintf("%s:%d", filepath.Base(file), line))
}

// LogInfo логирует информационное сообщение
func LogInfo(format string, v ...interface{}) {
	Logger().Info(fmt.Sprintf(format, v...), caller(1))
}

// LogError логирует сообщение об ошибке
func LogError(format string, v ...interface{}) {
	Logger().Error(fmt.Sprintf(format, v...), caller(1))
}

// LogDebug логирует отладочное сообщение
func LogDebug(format string, v ...interface{}) {
	Logger().Debug(fmt.Sprintf(format, v...), caller(1))
}

// LogOperation логирует операцию с метриками
func LogOperation(operation string, startTime time.Time, err error, fields ...zap.Field) {
	fields = append(fields,
		zap.String("operation", operation),
		zap.Duration("duration", time.Since(startTime)),
	)
	if err != nil {
		Logger().Error("operation failed", append(fields, zap.Error(err))...)
		return
	}
	Logger().Info("operation completed", fields...)
}
