// Package upload 提供编辑器图片上传：注入式上传器、DataURL 回退和 Redis 图片存储
package upload

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Error 上传错误
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrEmptyFile   Error = "empty file"
	ErrNotImage    Error = "file is not an image"
	ErrNotFound    Error = "image not found"
	ErrEmptyResult Error = "uploader returned empty URL"
)

// File 待上传的文件
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size 文件字节数
func (f File) Size() int64 {
	return int64(len(f.Data))
}

// Uploader 上传文件并返回可访问的地址
//
// Upload 是编辑器中唯一的异步操作：调用方在独立 goroutine 中等待结果，
// 失败时不重试。
type Uploader interface {
	Upload(ctx context.Context, f File) (string, error)
}

// UploaderFunc 将普通函数适配为 Uploader
type UploaderFunc func(ctx context.Context, f File) (string, error)

// Upload 调用 fn(ctx, f)
func (fn UploaderFunc) Upload(ctx context.Context, f File) (string, error) {
	return fn(ctx, f)
}

// DetectImage 嗅探文件内容，非图片返回 ErrNotImage
func DetectImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyFile
	}
	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return "", ErrNotImage
	}
	return mime.String(), nil
}

// DataURL 未配置上传器时的回退：将文件内联为 data: 地址
type DataURL struct{}

// Upload 返回 data:<mime>;base64,<payload>
func (DataURL) Upload(ctx context.Context, f File) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(f.Data) == 0 {
		return "", ErrEmptyFile
	}
	contentType := f.ContentType
	if contentType == "" {
		contentType = mimetype.Detect(f.Data).String()
	}
	// mimetype 可能带参数，如 text/plain; charset=utf-8
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(f.Data), nil
}
