// Package logging 构建服务使用的 charmbracelet/log 日志器
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Options 日志配置
type Options struct {
	Level  string // debug, info, warn, error
	Prefix string
	Output io.Writer
}

// New 创建日志器
func New(opts Options) *log.Logger {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}

	logger := log.NewWithOptions(opts.Output, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          opts.Prefix,
	})
	logger.SetLevel(parseLevel(opts.Level))
	return logger
}

// Discard 丢弃所有输出，测试与未注入日志器时使用
func Discard() *log.Logger {
	logger := log.New(io.Discard)
	logger.SetLevel(log.FatalLevel)
	return logger
}

func parseLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
