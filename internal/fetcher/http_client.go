package fetcher

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/newsflow/go-editor-service/internal/config"
)

// maxBodyBytes 单个页面读取上限
const maxBodyBytes = 10 << 20

// StandardClient 标准 HTTP 客户端（备用）
type StandardClient struct {
	client    *http.Client
	userAgent string
}

// NewStandardClient 创建标准 HTTP 客户端
func NewStandardClient(cfg *config.Config) *StandardClient {
	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxConnsPerHost,
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
	}

	return &StandardClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.RequestTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
	}
}

// Fetch 使用标准客户端抓取
func (c *StandardClient) Fetch(ctx context.Context, url string) *FetchResult {
	start := time.Now()
	result := &FetchResult{URL: url, Strategy: "standard"}
	defer func() { result.Duration = time.Since(start) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		result.Error = err
		return result
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")

	resp, err := c.client.Do(req)
	if err != nil {
		result.Error = err
		return result
	}
	defer resp.Body.Close()

	result.FinalURL = resp.Request.URL.String()
	result.StatusCode = resp.StatusCode
	result.ContentType = resp.Header.Get("Content-Type")

	if resp.StatusCode != http.StatusOK {
		result.Error = &HTTPError{StatusCode: resp.StatusCode}
		return result
	}

	// 导入只处理页面，图片、PDF 等不读取正文，由导入器按 ContentType 拒绝
	if !isMarkup(result.ContentType) {
		return result
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		result.Error = err
		return result
	}
	result.HTML = string(body)
	return result
}

// isMarkup 未声明类型或 html / xml 类型
func isMarkup(contentType string) bool {
	if contentType == "" {
		return true
	}
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "html") || strings.Contains(ct, "xml")
}
