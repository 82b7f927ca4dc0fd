package sanitizer

import (
	"strings"
)

// Sanitizer HTML 净化器
type Sanitizer interface {
	Sanitize(html string) string
}

// Func 将普通函数适配为 Sanitizer
type Func func(html string) string

// Sanitize 调用 f(html)
func (f Func) Sanitize(html string) string {
	return f(html)
}

// Denylist 黑名单净化器
//
// 只移除已知危险的结构，其余标签、属性、文本原样保留。
// 这是最低限度的防护：style 属性和 data: URL 不做处理，
// 只检查不带命名空间的 href / src，svg 中的 xlink:href 原样保留。
// 不能作为唯一的安全防线，服务端存储前仍需白名单净化（见 Hardened）。
type Denylist struct {
	deniedTags    map[string]bool
	handlerPrefix string
	urlAttrs      map[string]bool
	deniedSchemes []string
}

// NewDenylist 创建默认黑名单净化器
//
// 规则：
//  1. 删除 <script>、<style> 及其整个子树（任意嵌套深度）
//  2. 删除所有以 on 开头的属性（onclick、onerror ... 以及未来新增的事件属性）
//  3. href / src 去空白、转小写后以 javascript: 开头时删除该属性（保留元素）
func NewDenylist() *Denylist {
	return &Denylist{
		deniedTags:    map[string]bool{"script": true, "style": true},
		handlerPrefix: "on",
		urlAttrs:      map[string]bool{"href": true, "src": true},
		deniedSchemes: []string{"javascript:"},
	}
}

// Sanitize 净化 HTML 片段
//
// 任何输入都不会失败：无法解析的内容按惰性文本输出。
// 结果是幂等的：Sanitize(Sanitize(x)) == Sanitize(x)。
func (d *Denylist) Sanitize(fragment string) string {
	if fragment == "" {
		return ""
	}
	root, err := Parse(fragment)
	if err != nil {
		return escapeText(fragment)
	}
	return Render(d.Filter(root))
}

// Filter 返回过滤后的新树，输入树不被修改
func (d *Denylist) Filter(n *Node) *Node {
	if n.Type == ElementNode && d.deniedTags[strings.ToLower(n.Data)] {
		return nil
	}

	out := &Node{Type: n.Type, Data: n.Data, Namespace: n.Namespace}
	if n.Type == ElementNode {
		out.Attrs = d.filterAttrs(n.Attrs)
	}
	for _, c := range n.Children {
		if fc := d.Filter(c); fc != nil {
			out.Children = append(out.Children, fc)
		}
	}
	return out
}

func (d *Denylist) filterAttrs(attrs []Attr) []Attr {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]Attr, 0, len(attrs))
	for _, a := range attrs {
		name := strings.ToLower(a.Name())
		if strings.HasPrefix(name, d.handlerPrefix) {
			continue
		}
		if d.urlAttrs[name] && d.deniedURL(a.Val) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func (d *Denylist) deniedURL(val string) bool {
	v := strings.ToLower(strings.TrimSpace(val))
	for _, scheme := range d.deniedSchemes {
		if strings.HasPrefix(v, scheme) {
			return true
		}
	}
	return false
}

// 默认净化器实例
var defaultDenylist = NewDenylist()

// Sanitize 使用默认黑名单净化器净化 HTML
func Sanitize(fragment string) string {
	return defaultDenylist.Sanitize(fragment)
}
