package editor

import (
	"github.com/charmbracelet/log"

	"github.com/newsflow/go-editor-service/internal/linkcheck"
	"github.com/newsflow/go-editor-service/internal/sanitizer"
	"github.com/newsflow/go-editor-service/internal/upload"
)

// Separator 工具栏分隔符
const Separator = "separator"

// DefaultToolbar 默认工具栏
var DefaultToolbar = []string{
	"bold", "italic", "underline", Separator,
	"h1", "h2", "p", Separator,
	"ul", "ol", "blockquote", Separator,
	"link", "image", Separator,
	"undo", "redo", "clear", "export",
}

// Options 编辑器选项，零值字段使用默认值
type Options struct {
	Toolbar        []string
	Placeholder    string
	Sanitizer      sanitizer.Sanitizer
	Uploader       upload.Uploader // 为空时内联为 data: 地址
	Resolver       *linkcheck.Resolver
	InitialHTML    string
	MaxImageSizeMB int
	Logger         *log.Logger
}

func (o Options) withDefaults() Options {
	if len(o.Toolbar) == 0 {
		o.Toolbar = DefaultToolbar
	}
	if o.Placeholder == "" {
		o.Placeholder = "Start writing..."
	}
	if o.Sanitizer == nil {
		o.Sanitizer = sanitizer.NewDenylist()
	}
	if o.Uploader == nil {
		o.Uploader = upload.DataURL{}
	}
	if o.Resolver == nil {
		o.Resolver = &linkcheck.Resolver{}
	}
	if o.MaxImageSizeMB <= 0 {
		o.MaxImageSizeMB = 5
	}
	return o
}
