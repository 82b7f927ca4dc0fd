package editor

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/newsflow/go-editor-service/internal/upload"
)

// InsertLink 校验地址后在末尾插入链接，text 为空时使用地址本身
//
// 返回规范化后的地址；地址不合法时返回 linkcheck.ErrInvalidURL，内容不变。
func (e *Editor) InsertLink(raw, text string) (string, error) {
	url, err := e.opts.Resolver.Accept(raw)
	if err != nil {
		return "", err
	}
	if text == "" {
		text = url
	}

	a := &html.Node{
		Type:     html.ElementNode,
		Data:     "a",
		DataAtom: atom.A,
		Attr: []html.Attribute{
			{Key: "href", Val: url},
			{Key: "target", Val: "_blank"},
			{Key: "rel", Val: "noopener noreferrer"},
		},
	}
	a.AppendChild(&html.Node{Type: html.TextNode, Data: text})

	if err := e.appendNode(a); err != nil {
		return "", err
	}
	e.Emit(Event{Name: EventLinkInsert, URL: url, Text: text})
	return url, nil
}

// InsertImage 上传图片并在末尾插入 <img>
//
// 上传可能耗时较长，期间不持有内容锁。失败时内容不变，也不重试。
func (e *Editor) InsertImage(ctx context.Context, f upload.File) (string, error) {
	if limit := int64(e.opts.MaxImageSizeMB) * 1024 * 1024; f.Size() > limit {
		return "", fmt.Errorf("%w: max %dMB", ErrImageTooLarge, e.opts.MaxImageSizeMB)
	}
	contentType, err := upload.DetectImage(f.Data)
	if err != nil {
		return "", err
	}
	// 以嗅探结果为准
	f.ContentType = contentType

	url, err := e.opts.Uploader.Upload(ctx, f)
	if err != nil {
		e.logger.Error("image upload failed", "file", f.Name, "err", err)
		return "", fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	if url == "" {
		e.logger.Error("image upload failed", "file", f.Name, "err", upload.ErrEmptyResult)
		return "", fmt.Errorf("%w: %w", ErrUploadFailed, upload.ErrEmptyResult)
	}

	img := &html.Node{
		Type:     html.ElementNode,
		Data:     "img",
		DataAtom: atom.Img,
		Attr: []html.Attribute{
			{Key: "src", Val: url},
			{Key: "alt", Val: f.Name},
			{Key: "style", Val: "max-width:100%"},
		},
	}
	if err := e.appendNode(img); err != nil {
		return "", err
	}
	e.Emit(Event{Name: EventImageInsert, URL: url, Alt: f.Name})
	return url, nil
}

// appendNode 把节点追加到内容末尾
func (e *Editor) appendNode(n *html.Node) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	out, err := appendToFragment(e.content, n)
	if err != nil {
		return err
	}
	e.content = out
	return nil
}

// appendToFragment 以 body 为上下文解析片段，追加节点后重新序列化
func appendToFragment(fragment string, n *html.Node) (string, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return "", err
	}
	for _, c := range nodes {
		body.AppendChild(c)
	}

	doc := goquery.NewDocumentFromNode(body)
	doc.AppendNodes(n)
	return doc.Html()
}
