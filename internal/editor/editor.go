// Package editor 富文本编辑器的服务端模型
//
// 浏览器中的可编辑区域负责光标、选区与原生编辑命令；Editor 保存内容，
// 负责粘贴净化、链接与图片插入、事件广播以及插件钩子。
package editor

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/newsflow/go-editor-service/internal/logging"
	"github.com/newsflow/go-editor-service/internal/sanitizer"
)

// emptyContent 清空后的内容
const emptyContent = "<p></p>"

// Editor 一个编辑器实例，可被多个 goroutine 同时使用
type Editor struct {
	id     string
	opts   Options
	logger *log.Logger

	mu        sync.RWMutex
	content   string
	destroyed bool

	listeners listeners

	pluginsMu sync.Mutex
	plugins   []Plugin
}

// New 创建编辑器，InitialHTML 经过净化后作为初始内容
func New(opts Options) *Editor {
	opts = opts.withDefaults()

	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	id := uuid.New().String()
	e := &Editor{
		id:     id,
		opts:   opts,
		logger: logger.With("editor", id),
	}
	if opts.InitialHTML != "" {
		e.content = opts.Sanitizer.Sanitize(opts.InitialHTML)
	}
	return e
}

// ID 编辑器 ID
func (e *Editor) ID() string {
	return e.id
}

// Placeholder 占位文本
func (e *Editor) Placeholder() string {
	return e.opts.Placeholder
}

// Toolbar 工具栏命令列表
func (e *Editor) Toolbar() []string {
	return e.opts.Toolbar
}

// GetHTML 返回净化后的内容
func (e *Editor) GetHTML() string {
	e.mu.RLock()
	content := e.content
	e.mu.RUnlock()
	return e.opts.Sanitizer.Sanitize(content)
}

// SetHTML 直接替换内容，读取时才净化
func (e *Editor) SetHTML(html string) {
	e.mu.Lock()
	e.content = html
	e.mu.Unlock()
}

// GetText 纯文本内容
func (e *Editor) GetText() string {
	return sanitizer.PlainText(e.GetHTML())
}

// CharCount 去除首尾空白后的字符数
func (e *Editor) CharCount() int {
	return sanitizer.CharCount(e.GetHTML())
}

// CountLabel 字数提示，如 "12 characters"
func (e *Editor) CountLabel() string {
	return fmt.Sprintf("%d characters", e.CharCount())
}

// Clear 清空为一个空段落
func (e *Editor) Clear() {
	e.mu.Lock()
	e.content = emptyContent
	e.mu.Unlock()
	e.Emit(Event{Name: EventClear})
}

// Export 广播 export 事件并返回当前 HTML
func (e *Editor) Export() string {
	html := e.GetHTML()
	e.Emit(Event{Name: EventExport, HTML: html})
	return html
}

// Input 浏览器编辑内容后同步过来，替换内容并广播 input 事件
func (e *Editor) Input(html string) {
	e.SetHTML(html)
	e.changed()
}

// Snapshot 当前状态
func (e *Editor) Snapshot() Snapshot {
	html := e.GetHTML()
	return Snapshot{
		EditorID:  e.id,
		HTML:      html,
		Text:      sanitizer.PlainText(html),
		CharCount: sanitizer.CharCount(html),
	}
}

// Destroy 调用 destroy 钩子、广播 destroy 事件，之后清空监听器与插件
//
// 返回销毁前的 HTML；重复调用返回空字符串。
func (e *Editor) Destroy() string {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return ""
	}
	e.destroyed = true
	e.mu.Unlock()

	snap := e.Snapshot()
	e.callHook(HookDestroy, snap)
	e.Emit(Event{Name: EventDestroy, HTML: snap.HTML})

	e.listeners.reset()
	e.pluginsMu.Lock()
	e.plugins = nil
	e.pluginsMu.Unlock()

	e.logger.Debug("editor destroyed", "chars", snap.CharCount)
	return snap.HTML
}

// Destroyed 是否已销毁
func (e *Editor) Destroyed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.destroyed
}

// changed 内容变化后广播 input 事件
func (e *Editor) changed() {
	html := e.GetHTML()
	e.Emit(Event{Name: EventInput, HTML: html, Text: sanitizer.PlainText(html)})
}
