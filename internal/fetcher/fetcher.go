// Package fetcher 抓取远程页面，供导入功能使用
package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/newsflow/go-editor-service/internal/config"
	"github.com/newsflow/go-editor-service/internal/logging"
)

// FetchResult 抓取结果
type FetchResult struct {
	URL         string
	FinalURL    string
	HTML        string
	StatusCode  int
	ContentType string
	Strategy    string // cycletls, standard
	Duration    time.Duration
	Error       error
}

// HTTPError 非 200 响应
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d", e.StatusCode)
}

// Client 单一抓取策略
type Client interface {
	Fetch(ctx context.Context, url string) *FetchResult
}

// Fetcher 按顺序尝试各个客户端，第一个拿到非空内容的结果胜出
type Fetcher struct {
	clients []Client
	logger  *log.Logger
}

// New 创建抓取器：CycleTLS（TLS 指纹伪造）优先，标准客户端兜底
func New(cfg *config.Config, logger *log.Logger) *Fetcher {
	return NewWithClients(logger, NewCycleTLSClient(cfg), NewStandardClient(cfg))
}

// NewWithClients 使用指定的客户端创建抓取器
func NewWithClients(logger *log.Logger, clients ...Client) *Fetcher {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Fetcher{clients: clients, logger: logger}
}

// Fetch 抓取页面，所有客户端都失败时返回最后一个结果
func (f *Fetcher) Fetch(ctx context.Context, url string) *FetchResult {
	result := &FetchResult{URL: url, Error: fmt.Errorf("no fetch client configured")}
	for _, c := range f.clients {
		if err := ctx.Err(); err != nil {
			return &FetchResult{URL: url, Error: err}
		}
		result = c.Fetch(ctx, url)
		if result.Error == nil && result.HTML != "" {
			f.logger.Debug("fetched", "url", url, "strategy", result.Strategy, "status", result.StatusCode, "duration", result.Duration)
			return result
		}
		f.logger.Warn("fetch failed, trying next client", "url", url, "strategy", result.Strategy, "err", result.Error)
	}
	return result
}

// Close 释放客户端资源
func (f *Fetcher) Close() {
	for _, c := range f.clients {
		if closer, ok := c.(interface{ Close() }); ok {
			closer.Close()
		}
	}
}
