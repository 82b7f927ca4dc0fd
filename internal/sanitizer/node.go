package sanitizer

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// NodeType 节点类型
type NodeType int

const (
	// FragmentNode 隐式根容器，对应片段解析时的 <body> 上下文
	FragmentNode NodeType = iota
	ElementNode
	TextNode
	CommentNode
)

// Attr 元素属性。Namespace 仅出现在外部内容（svg / math）中，如 xlink:href
type Attr struct {
	Namespace string
	Key       string
	Val       string
}

// Name 返回带命名空间前缀的属性名
func (a Attr) Name() string {
	if a.Namespace == "" {
		return a.Key
	}
	return a.Namespace + ":" + a.Key
}

// Node 解析后的概念元素树节点
//
// Parse 返回后节点不再被修改：所有过滤都构造新节点，原树保持不变。
type Node struct {
	Type      NodeType
	Data      string // 元素为标签名，文本/注释为内容
	Namespace string // "" 表示 HTML，其余为 "svg" / "math"
	Attrs     []Attr
	Children  []*Node
}

// Attr 按名称（大小写不敏感）查找属性
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if strings.EqualFold(a.Name(), name) {
			return a.Val, true
		}
	}
	return "", false
}

// bodyContext 片段解析上下文，与浏览器 innerHTML 赋值到 <div> 的行为一致
var bodyContext = &html.Node{
	Type:     html.ElementNode,
	Data:     "body",
	DataAtom: atom.Body,
}

// Parse 将 HTML 片段解析为以 FragmentNode 为根的元素树
//
// 解析遵循 HTML5 容错规则：未闭合标签自动闭合，孤立的结束标签被忽略。
func Parse(fragment string) (*Node, error) {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), bodyContext)
	if err != nil {
		return nil, err
	}

	root := &Node{Type: FragmentNode}
	for _, n := range nodes {
		if c := convert(n); c != nil {
			root.Children = append(root.Children, c)
		}
	}
	return root, nil
}

// convert 将 x/net/html 节点转换为不可变树节点，丢弃 doctype 等片段中无意义的节点
func convert(n *html.Node) *Node {
	var out *Node
	switch n.Type {
	case html.ElementNode:
		out = &Node{Type: ElementNode, Data: n.Data, Namespace: n.Namespace}
		if len(n.Attr) > 0 {
			out.Attrs = make([]Attr, 0, len(n.Attr))
			for _, a := range n.Attr {
				out.Attrs = append(out.Attrs, Attr{Namespace: a.Namespace, Key: a.Key, Val: a.Val})
			}
		}
	case html.TextNode:
		return &Node{Type: TextNode, Data: n.Data}
	case html.CommentNode:
		return &Node{Type: CommentNode, Data: n.Data}
	default:
		return nil
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if cc := convert(c); cc != nil {
			out.Children = append(out.Children, cc)
		}
	}
	return out
}
