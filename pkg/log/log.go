// Package log 封装 zap 的 SugaredLogger，为整个服务提供统一的日志入口。
package log

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"aichat-go/internal/config"
)

// Init 之前是 no-op logger，测试里可以直接调用。
var sugar = zap.NewNop().Sugar()

// Init 按配置构建全局 logger。format 为 console 时输出彩色文本，否则输出 JSON；
// OutputPath 非空时额外写入 <OutputPath>/app.log。
func Init(cfg config.LogConfig) error {
	zapCfg, err := buildConfig(cfg)
	if err != nil {
		return err
	}
	logger, err := zapCfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return fmt.Errorf("build zap logger: %w", err)
	}
	sugar = logger.Sugar()
	return nil
}

// Replace 把全局 logger 换成 l，返回恢复原 logger 的函数。
func Replace(l *zap.Logger) (restore func()) {
	prev := sugar
	sugar = l.Sugar()
	return func() { sugar = prev }
}

func buildConfig(cfg config.LogConfig) (zap.Config, error) {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapCfg = zap.NewProductionConfig()
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return zapCfg, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
	}
	zapCfg.Level = level

	zapCfg.OutputPaths = []string{"stdout"}
	if cfg.OutputPath != "" {
		if err := os.MkdirAll(cfg.OutputPath, 0o755); err != nil {
			return zapCfg, fmt.Errorf("create log dir: %w", err)
		}
		zapCfg.OutputPaths = append(zapCfg.OutputPaths, filepath.Join(cfg.OutputPath, "app.log"))
	}
	return zapCfg, nil
}

func Info(msg string) {
	sugar.Info(msg)
}

func Infof(template string, args ...interface{}) {
	sugar.Infof(template, args...)
}

// Infow 记录带键值对的结构化日志。
func Infow(msg string, keysAndValues ...interface{}) {
	sugar.Infow(msg, keysAndValues...)
}

func Warnf(template string, args ...interface{}) {
	sugar.Warnf(template, args...)
}

func Warnw(msg string, keysAndValues ...interface{}) {
	sugar.Warnw(msg, keysAndValues...)
}

// Error 以 "error" 字段附带 err。
func Error(msg string, err error) {
	sugar.Errorw(msg, "error", err)
}

func Errorf(template string, args ...interface{}) {
	sugar.Errorf(template, args...)
}

func Errorw(msg string, keysAndValues ...interface{}) {
	sugar.Errorw(msg, keysAndValues...)
}

// Fatal 记录日志后退出进程。
func Fatal(msg string, err error) {
	sugar.Fatalw(msg, "error", err)
}

func Fatalf(template string, args ...interface{}) {
	sugar.Fatalf(template, args...)
}

// Sync 刷新缓冲区。
func Sync() {
	_ = sugar.Sync()
}
