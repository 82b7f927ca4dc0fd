package sanitizer

import (
	"html"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Hardened 白名单净化器：先执行黑名单规则，再经过 bluemonday UGC 策略
//
// 需要显式开启（HARDENED_SANITIZER=true），默认行为保持黑名单语义。
type Hardened struct {
	deny   *Denylist
	policy *bluemonday.Policy
}

// NewHardened 创建白名单净化器
func NewHardened() *Hardened {
	policy := bluemonday.UGCPolicy()

	// 链接
	policy.AllowURLSchemes("http", "https", "mailto")
	policy.RequireNoReferrerOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)

	// 编辑器插入的图片带 max-width:100%
	policy.AllowStyles("max-width").Matching(regexp.MustCompile(`^100%$`)).OnElements("img")

	return &Hardened{deny: NewDenylist(), policy: policy}
}

// Sanitize 净化 HTML
func (h *Hardened) Sanitize(fragment string) string {
	return h.policy.Sanitize(h.deny.Sanitize(fragment))
}

var (
	strictPolicy *bluemonday.Policy
	strictOnce   sync.Once
)

// PlainText 去除全部标签，返回解码后的纯文本（script / style 内容不计入）
func PlainText(fragment string) string {
	strictOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return html.UnescapeString(strictPolicy.Sanitize(fragment))
}

// CharCount 按字符（rune）统计去除首尾空白后的纯文本长度
func CharCount(fragment string) int {
	return len([]rune(strings.TrimSpace(PlainText(fragment))))
}
