package sanitizer

import (
	"strings"
)

// voidElements 无内容、无结束标签的 HTML 元素
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "keygen": true, "link": true,
	"meta": true, "param": true, "source": true, "track": true, "wbr": true,
}

// rawTextElements 子文本按原样输出、不做实体转义的元素
var rawTextElements = map[string]bool{
	"iframe": true, "noembed": true, "noframes": true, "noscript": true,
	"plaintext": true, "script": true, "style": true, "xmp": true,
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\u00a0", "&nbsp;")
	attrEscaper = strings.NewReplacer("&", "&amp;", `"`, "&quot;", "\u00a0", "&nbsp;")
)

// Render 将元素树序列化为 HTML 字符串
//
// 输出格式与浏览器 innerHTML 一致：空元素不带自闭合斜杠（<img>），
// 文本只转义 & < > 和不换行空格，属性值统一使用双引号。
// <plaintext> 没有结束标签，其后的内容不再输出。
func Render(n *Node) string {
	var sb strings.Builder
	render(&sb, n, false)
	return sb.String()
}

// render 返回 true 表示遇到 <plaintext>，调用方应停止输出
func render(sb *strings.Builder, n *Node, literal bool) bool {
	switch n.Type {
	case TextNode:
		if literal {
			sb.WriteString(n.Data)
		} else {
			textEscaper.WriteString(sb, n.Data)
		}
		return false
	case CommentNode:
		sb.WriteString("<!--")
		escapeComment(sb, n.Data)
		sb.WriteString("-->")
		return false
	case FragmentNode:
		for _, c := range n.Children {
			if render(sb, c, false) {
				return true
			}
		}
		return false
	}

	sb.WriteByte('<')
	sb.WriteString(n.Data)
	for _, a := range n.Attrs {
		sb.WriteByte(' ')
		sb.WriteString(a.Name())
		sb.WriteString(`="`)
		attrEscaper.WriteString(sb, a.Val)
		sb.WriteByte('"')
	}
	sb.WriteByte('>')

	html := n.Namespace == ""
	if html && voidElements[n.Data] {
		return false
	}

	// 解析器会吞掉 <pre> 等元素开头的第一个换行，序列化时补回
	if html && (n.Data == "pre" || n.Data == "listing" || n.Data == "textarea") && len(n.Children) > 0 {
		if first := n.Children[0]; first.Type == TextNode && strings.HasPrefix(first.Data, "\n") {
			sb.WriteByte('\n')
		}
	}

	childLiteral := html && rawTextElements[n.Data]
	for _, c := range n.Children {
		if render(sb, c, childLiteral) {
			return true
		}
	}

	// <plaintext> 之后的一切都会被解析为文本
	if html && n.Data == "plaintext" {
		return true
	}

	sb.WriteString("</")
	sb.WriteString(n.Data)
	sb.WriteByte('>')
	return false
}

// escapeComment 转义注释内容，使其重新解析后得到相同的注释
//
// 解析器会对注释内容做实体解码，所以 & 需要转义；
// 开头的 > 以及紧跟 - 或 ! 的 > 会提前结束注释。
func escapeComment(sb *strings.Builder, s string) {
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '&':
			sb.WriteString("&amp;")
		case '>':
			if i == 0 || s[i-1] == '-' || s[i-1] == '!' {
				sb.WriteString("&gt;")
			} else {
				sb.WriteByte(c)
			}
		default:
			sb.WriteByte(c)
		}
	}
}

// escapeText 将任意字符串作为惰性文本输出
func escapeText(s string) string {
	return textEscaper.Replace(s)
}
