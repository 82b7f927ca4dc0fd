package fetcher

import (
	"context"
	"time"

	cycletls "github.com/Danny-Dasilva/CycleTLS/cycletls"

	"github.com/newsflow/go-editor-service/internal/config"
)

// Chrome JA3 指纹
const ChromeJA3 = "771,4865-4866-4867-49195-49199-49196-49200-52393-52392-49171-49172-156-157-47-53,0-23-65281-10-11-35-16-5-13-18-51-45-43-27-17513,29-23-24,0"

// CycleTLSClient 模拟 Chrome TLS 指纹的客户端，用于绕过简单的反爬
type CycleTLSClient struct {
	client    cycletls.CycleTLS
	userAgent string
	timeout   int
}

// NewCycleTLSClient 创建 CycleTLS 客户端
func NewCycleTLSClient(cfg *config.Config) *CycleTLSClient {
	return &CycleTLSClient{
		client:    cycletls.Init(),
		userAgent: cfg.UserAgent,
		timeout:   int(cfg.RequestTimeout.Seconds()),
	}
}

// Fetch 抓取页面
func (c *CycleTLSClient) Fetch(ctx context.Context, url string) *FetchResult {
	start := time.Now()
	result := &FetchResult{URL: url, Strategy: "cycletls"}
	defer func() { result.Duration = time.Since(start) }()

	if err := ctx.Err(); err != nil {
		result.Error = err
		return result
	}

	resp, err := c.client.Do(url, cycletls.Options{
		Ja3:       ChromeJA3,
		UserAgent: c.userAgent,
		Headers: map[string]string{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "zh-CN,zh;q=0.9,en;q=0.8",
			"Cache-Control":   "no-cache",
		},
		Timeout: c.timeout,
	}, "GET")
	if err != nil {
		result.Error = err
		return result
	}

	result.FinalURL = resp.FinalUrl
	if result.FinalURL == "" {
		result.FinalURL = url
	}
	result.StatusCode = resp.Status
	result.ContentType = resp.Headers["Content-Type"]

	if resp.Status != 200 {
		result.Error = &HTTPError{StatusCode: resp.Status}
		return result
	}
	result.HTML = resp.Body
	return result
}

// Close 关闭客户端
func (c *CycleTLSClient) Close() {
	c.client.Close()
}
