package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 服务配置
type Config struct {
	// HTTP 服务端口
	HTTPPort string
	// 最大并发数（HTTP 请求与导入任务共享）
	MaxConcurrent int
	// 请求超时时间
	RequestTimeout time.Duration
	// 连接池大小
	MaxIdleConns int
	// 每个主机的最大连接数
	MaxConnsPerHost int
	// User-Agent（导入远程页面时使用）
	UserAgent string
	// Redis URL（图片存储与净化队列，为空时关闭）
	RedisURL string
	// 文档基准地址，用于解析相对链接，也是图片地址前缀
	BaseURL string
	// 单张图片大小上限（MB）
	MaxImageSizeMB int
	// Redis 中图片的保存时长
	ImageTTL time.Duration
	// 启用 bluemonday 白名单净化
	HardenedSanitizer bool
	// 编辑器占位文本
	Placeholder string
	// 日志级别
	LogLevel string
	// 净化队列并发数
	QueueConcurrency int
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		MaxConcurrent:     getEnvInt("MAX_CONCURRENT", 100),
		RequestTimeout:    time.Duration(getEnvInt("REQUEST_TIMEOUT_MS", 15000)) * time.Millisecond,
		MaxIdleConns:      getEnvInt("MAX_IDLE_CONNS", 100),
		MaxConnsPerHost:   getEnvInt("MAX_CONNS_PER_HOST", 10),
		UserAgent:         getEnv("USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
		RedisURL:          getEnv("REDIS_URL", ""),
		BaseURL:           getEnv("BASE_URL", "http://localhost:8080"),
		MaxImageSizeMB:    getEnvInt("MAX_IMAGE_SIZE_MB", 5),
		ImageTTL:          getEnvDuration("IMAGE_TTL", 24*time.Hour),
		HardenedSanitizer: getEnvBool("HARDENED_SANITIZER", false),
		Placeholder:       getEnv("PLACEHOLDER", "Start writing..."),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		QueueConcurrency:  getEnvInt("QUEUE_CONCURRENCY", 10),
	}
}

// MaxImageBytes 图片大小上限（字节）
func (c *Config) MaxImageBytes() int64 {
	return int64(c.MaxImageSizeMB) * 1024 * 1024
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
