package importer

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Cloudflare Email Protection 会把页面中的邮箱替换为十六进制编码：
//
//	<a href="/cdn-cgi/l/email-protection#0b66...">联系我们</a>
//	<a href="/cdn-cgi/l/email-protection" data-cfemail="83fa...">[email&#160;protected]</a>
//	<span class="__cf_email__" data-cfemail="83fa...">[email&#160;protected]</span>
//
// 编码的第一个字节是 XOR 密钥，其余每个字节与密钥异或得到原字符。
// 浏览器里由 Cloudflare 的脚本解码，静态导入时需要自己还原。

const emailProtectionPath = "/cdn-cgi/l/email-protection"

// DecodeEmails 还原片段中被 Cloudflare 混淆的邮箱
//
// 带 data-cfemail 的元素替换为邮箱文本（外层保护链接一并替换），
// 地址中带编码的保护链接改写为 mailto:。
func DecodeEmails(fragment string) string {
	if !strings.Contains(fragment, emailProtectionPath) && !strings.Contains(fragment, "data-cfemail") {
		return fragment
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body>" + fragment + "</body></html>"))
	if err != nil {
		return fragment
	}

	doc.Find("[data-cfemail]").Each(func(_ int, s *goquery.Selection) {
		email := decodeEmail(s.AttrOr("data-cfemail", ""))
		if email == "" {
			return
		}
		target := s
		if link := s.Closest("a"); link.Length() > 0 && isProtectionLink(link) {
			target = link
		}
		target.ReplaceWithNodes(&html.Node{Type: html.TextNode, Data: email})
	})

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := s.AttrOr("href", "")
		i := strings.Index(href, emailProtectionPath+"#")
		if i < 0 {
			return
		}
		if email := decodeEmail(href[i+len(emailProtectionPath)+1:]); email != "" {
			s.SetAttr("href", "mailto:"+email)
		}
	})

	out, err := doc.Find("body").Html()
	if err != nil {
		return fragment
	}
	return out
}

func isProtectionLink(s *goquery.Selection) bool {
	return strings.Contains(s.AttrOr("href", ""), emailProtectionPath)
}

// decodeEmail 解码单个编码，格式不对时返回空字符串
func decodeEmail(encoded string) string {
	if len(encoded) < 4 || len(encoded)%2 != 0 {
		return ""
	}

	key, err := strconv.ParseUint(encoded[:2], 16, 8)
	if err != nil {
		return ""
	}

	var sb strings.Builder
	for i := 2; i < len(encoded); i += 2 {
		b, err := strconv.ParseUint(encoded[i:i+2], 16, 8)
		if err != nil {
			return ""
		}
		sb.WriteByte(byte(b ^ key))
	}
	return sb.String()
}
