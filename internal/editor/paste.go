package editor

// Clipboard 粘贴事件携带的剪贴板内容
type Clipboard struct {
	HTML string `json:"html"`
	Text string `json:"text"`
}

// Choose 优先使用 HTML，HTML 为空时使用纯文本
func (c Clipboard) Choose() (string, bool) {
	if c.HTML != "" {
		return c.HTML, true
	}
	if c.Text != "" {
		return c.Text, true
	}
	return "", false
}

// Paste 净化剪贴板内容并追加到末尾，返回实际插入的片段
//
// 纯文本同样经过净化器，与 HTML 走相同路径。
func (e *Editor) Paste(c Clipboard) (string, error) {
	content, ok := c.Choose()
	if !ok {
		return "", ErrEmptyClipboard
	}

	sanitized := e.opts.Sanitizer.Sanitize(content)

	e.mu.Lock()
	e.content += sanitized
	e.mu.Unlock()

	e.logger.Debug("paste", "html", c.HTML != "", "bytes", len(sanitized))
	e.changed()
	return sanitized, nil
}
