// Package processor 基于 goquery 检查与改写 HTML 中的图片
package processor

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Image 内容中的一张图片
type Image struct {
	Src    string `json:"src"`
	Alt    string `json:"alt,omitempty"`
	Inline bool   `json:"inline"` // data: 地址
	Lazy   bool   `json:"lazy,omitempty"`
}

// ImageProcessor 图片处理器
type ImageProcessor struct {
	lazyAttributes []string
}

// NewImageProcessor 创建图片处理器
func NewImageProcessor() *ImageProcessor {
	return &ImageProcessor{
		lazyAttributes: []string{
			"data-src",
			"data-lazy-src",
			"data-original",
			"data-actualsrc",
			"data-hi-res-src",
			"data-lazy",
			"data-echo",
		},
	}
}

// PromoteLazyImages 把懒加载属性中的地址提到 src 上，输入输出都是完整页面
//
// 需在 Readability 之前调用，否则没有 src 的图片会被丢弃。
func (p *ImageProcessor) PromoteLazyImages(page string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return page
	}

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		if src := p.lazySrc(s); src != "" {
			s.SetAttr("src", src)
		}
		if srcset, ok := s.Attr("data-srcset"); ok {
			s.SetAttr("srcset", srcset)
		}
	})

	out, err := doc.Html()
	if err != nil {
		return page
	}
	return out
}

// ResolveImages 将片段中图片地址按 base 绝对化，并去掉懒加载属性
func (p *ImageProcessor) ResolveImages(fragment string, base *url.URL) (string, []Image) {
	doc, err := fragmentDocument(fragment)
	if err != nil {
		return fragment, nil
	}

	var images []Image
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		img := p.describe(s)
		if img.Src == "" {
			return
		}
		if !img.Inline && base != nil {
			img.Src = resolveURL(img.Src, base)
		}
		s.SetAttr("src", img.Src)
		for _, attr := range p.lazyAttributes {
			s.RemoveAttr(attr)
		}
		images = append(images, img)
	})

	out, err := doc.Find("body").Html()
	if err != nil {
		return fragment, images
	}
	return out, images
}

// ListImages 列出片段中的图片，不修改内容
func (p *ImageProcessor) ListImages(fragment string) []Image {
	doc, err := fragmentDocument(fragment)
	if err != nil {
		return nil
	}

	images := []Image{}
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		if img := p.describe(s); img.Src != "" {
			images = append(images, img)
		}
	})
	return images
}

func (p *ImageProcessor) describe(s *goquery.Selection) Image {
	src := strings.TrimSpace(s.AttrOr("src", ""))
	lazy := false
	if src == "" {
		src = p.lazySrc(s)
		lazy = src != ""
	}
	for _, attr := range p.lazyAttributes {
		if _, ok := s.Attr(attr); ok {
			lazy = true
			break
		}
	}
	return Image{
		Src:    src,
		Alt:    s.AttrOr("alt", ""),
		Inline: strings.HasPrefix(strings.ToLower(src), "data:"),
		Lazy:   lazy,
	}
}

func (p *ImageProcessor) lazySrc(s *goquery.Selection) string {
	for _, attr := range p.lazyAttributes {
		if v, ok := s.Attr(attr); ok && v != "" {
			if strings.HasPrefix(v, "http") || strings.HasPrefix(v, "/") {
				return v
			}
		}
	}
	return ""
}

// fragmentDocument 把片段放进 body 中解析
func fragmentDocument(fragment string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader("<html><body>" + fragment + "</body></html>"))
}

func resolveURL(rawURL string, baseURL *url.URL) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return baseURL.ResolveReference(parsed).String()
}
