package logger

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type contextKey string

const requestIDKey contextKey = "request_id"

var (
	// logger 是一个全局 logger 实例
	logger *zap.Logger
	once   sync.Once
)

// ParseLevel 解析日志级别，未知级别按 info 处理
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Init 初始化日志系统：控制台输出，外加 outputPath 下的 app.log 与 error.log
func Init(level string, outputPath string) {
	once.Do(func() {
		logLevel := ParseLevel(level)

		// 创建日志目录
		if outputPath != "" {
			if err := os.MkdirAll(outputPath, 0755); err != nil {
				panic("无法创建日志目录: " + err.Error())
			}
		}

		// 配置日志编码器
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

		cores := []zapcore.Core{
			zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(os.Stdout), logLevel),
		}

		if outputPath != "" {
			fileEncoder := zapcore.NewJSONEncoder(encoderConfig)
			if f := openLogFile(filepath.Join(outputPath, "app.log")); f != nil {
				cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(f), logLevel))
			}
			// 错误文件只记录错误及以上级别
			if f := openLogFile(filepath.Join(outputPath, "error.log")); f != nil {
				cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(f), zapcore.ErrorLevel))
			}
		}

		logger = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))
	})
}

func openLogFile(path string) *os.File {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil
	}
	return f
}

// SetLogger 替换全局 logger，主要用于测试
func SetLogger(l *zap.Logger) {
	logger = l
}

// L 返回全局 logger，未初始化时返回空 logger
func L() *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// Debug 记录调试信息
func Debug(msg string, fields ...zap.Field) {
	if logger != nil {
		logger.Debug(msg, fields...)
	}
}

// Info 记录一般信息
func Info(msg string, fields ...zap.Field) {
	if logger != nil {
		logger.Info(msg, fields...)
	}
}

// Warn 记录警告信息
func Warn(msg string, fields ...zap.Field) {
	if logger != nil {
		logger.Warn(msg, fields...)
	}
}

// Error 记录错误信息
func Error(msg string, fields ...zap.Field) {
	if logger != nil {
		logger.Error(msg, fields...)
	}
}

// Fatal 记录致命错误并退出程序
func Fatal(msg string, fields ...zap.Field) {
	if logger != nil {
		logger.Fatal(msg, fields...)
	}
	os.Exit(1)
}

// WithFields 返回带有字段的日志接口
func WithFields(fields ...zap.Field) *zap.Logger {
	return L().With(fields...)
}

// WithRequestID 把请求 ID 放入 context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID 从 context 取出请求 ID
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// FromContext 返回带请求 ID 字段的 logger
func FromContext(ctx context.Context) *zap.Logger {
	if id := RequestID(ctx); id != "" {
		return L().With(zap.String("request_id", id))
	}
	return L()
}

// Sync 刷新日志缓冲
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}

// Since 计算从指定时间到现在的持续时间
func Since(t time.Time) time.Duration {
	return time.Since(t)
}
