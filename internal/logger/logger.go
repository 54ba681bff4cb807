// Package logger 配置全局结构化日志
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Setup 创建 JSON 输出的 slog.Logger
func Setup(w io.Writer, level slog.Level) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// SetupDefault 创建 logger 并设为全局默认
func SetupDefault(w io.Writer, level slog.Level) *slog.Logger {
	l := Setup(w, level)
	slog.SetDefault(l)
	return l
}
