// Package importer 把远程页面导入编辑器：抓取、正文提取、图片地址绝对化、邮箱解码、净化
package importer

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-shiori/go-readability"

	"github.com/newsflow/go-editor-service/internal/fetcher"
	"github.com/newsflow/go-editor-service/internal/linkcheck"
	"github.com/newsflow/go-editor-service/internal/logging"
	"github.com/newsflow/go-editor-service/internal/processor"
	"github.com/newsflow/go-editor-service/internal/sanitizer"
)

// Error 导入错误
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrFetchFailed Error = "fetch failed"
	ErrNotHTML     Error = "remote document is not html"
	ErrNoArticle   Error = "no readable content"
)

// Fetcher 抓取远程页面
type Fetcher interface {
	Fetch(ctx context.Context, url string) *fetcher.FetchResult
}

// Result 导入结果，HTML 已经过编辑器使用的净化器
type Result struct {
	URL         string            `json:"url"`
	Title       string            `json:"title"`
	Byline      string            `json:"byline,omitempty"`
	SiteName    string            `json:"siteName,omitempty"`
	Excerpt     string            `json:"excerpt,omitempty"`
	HTML        string            `json:"html"`
	Text        string            `json:"text"`
	Images      []processor.Image `json:"images"`
	CharCount   int               `json:"charCount"`
	ReadingTime int               `json:"readingTime"`
}

// Importer 页面导入器
type Importer struct {
	fetcher   Fetcher
	sanitizer sanitizer.Sanitizer
	images    *processor.ImageProcessor
	logger    *log.Logger
}

// New 创建导入器，s 为空时使用默认黑名单净化器
func New(f Fetcher, s sanitizer.Sanitizer, logger *log.Logger) *Importer {
	if s == nil {
		s = sanitizer.NewDenylist()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Importer{
		fetcher:   f,
		sanitizer: s,
		images:    processor.NewImageProcessor(),
		logger:    logger,
	}
}

// Import 抓取并导入页面，只接受 http / https 地址
func (i *Importer) Import(ctx context.Context, rawURL string) (*Result, error) {
	pageURL, err := linkcheck.Accept(rawURL)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(pageURL, "http://") && !strings.HasPrefix(pageURL, "https://") {
		return nil, linkcheck.ErrInvalidURL
	}

	res := i.fetcher.Fetch(ctx, pageURL)
	if res.Error != nil {
		i.logger.Warn("import fetch failed", "url", pageURL, "err", res.Error)
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, res.Error)
	}
	if res.ContentType != "" && !strings.Contains(strings.ToLower(res.ContentType), "html") {
		return nil, fmt.Errorf("%w: %s", ErrNotHTML, res.ContentType)
	}
	if res.FinalURL != "" {
		pageURL = res.FinalURL
	}

	result, err := i.FromHTML(res.HTML, pageURL)
	if err != nil {
		return nil, err
	}
	i.logger.Info("imported page", "url", pageURL, "strategy", res.Strategy, "chars", result.CharCount, "images", len(result.Images))
	return result, nil
}

// FromHTML 从已获取的页面中提取正文
func (i *Importer) FromHTML(page, pageURL string) (*Result, error) {
	base, err := url.Parse(pageURL)
	if err != nil || !base.IsAbs() {
		return nil, linkcheck.ErrInvalidURL
	}

	// 懒加载图片需在 Readability 之前处理
	page = i.images.PromoteLazyImages(page)

	article, err := readability.FromReader(strings.NewReader(page), base)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoArticle, err)
	}

	content, images := i.images.ResolveImages(article.Content, base)
	content = DecodeEmails(content)
	clean := i.sanitizer.Sanitize(content)
	text := strings.TrimSpace(sanitizer.PlainText(clean))
	if text == "" && len(images) == 0 {
		return nil, ErrNoArticle
	}
	if images == nil {
		images = []processor.Image{}
	}

	return &Result{
		URL:         pageURL,
		Title:       article.Title,
		Byline:      article.Byline,
		SiteName:    article.SiteName,
		Excerpt:     article.Excerpt,
		HTML:        clean,
		Text:        text,
		Images:      images,
		CharCount:   sanitizer.CharCount(clean),
		ReadingTime: readingTime(text),
	}, nil
}

var hanRegex = regexp.MustCompile(`\p{Han}`)

// readingTime 阅读时间（分钟），中文约 400 字/分钟，英文约 200 词/分钟
func readingTime(text string) int {
	han := len(hanRegex.FindAllString(text, -1))
	words := len(strings.Fields(text))

	minutes := float64(han)/400.0 + float64(words)/200.0
	if minutes < 1 {
		return 1
	}
	return int(minutes + 0.5)
}
