// Package linkcheck 校验用户插入的链接地址
package linkcheck

import (
	"net/url"
	"strings"
)

// Error 链接校验错误
type Error string

func (e Error) Error() string {
	return string(e)
}

// ErrInvalidURL 地址无法解析或协议不被允许
const ErrInvalidURL Error = "invalid URL"

// allowedSchemes 允许插入的协议
var allowedSchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"mailto": true,
}

// Resolver 以文档地址为基准解析链接
//
// Base 为空时相当于 about:blank：相对地址无法解析，一律拒绝。
type Resolver struct {
	Base *url.URL
}

// NewResolver 创建解析器，base 为空字符串时不设置基准地址
func NewResolver(base string) (*Resolver, error) {
	if base == "" {
		return &Resolver{}, nil
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() {
		return nil, ErrInvalidURL
	}
	return &Resolver{Base: u}, nil
}

// Accept 解析 raw 并返回绝对地址；协议不是 http / https / mailto 时返回 ErrInvalidURL
func (r *Resolver) Accept(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidURL
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", ErrInvalidURL
	}

	if !u.IsAbs() {
		if r.Base == nil {
			return "", ErrInvalidURL
		}
		u = r.Base.ResolveReference(u)
	}

	if !allowedSchemes[strings.ToLower(u.Scheme)] {
		return "", ErrInvalidURL
	}
	// http(s) 必须带主机名
	if u.Scheme != "mailto" && u.Host == "" {
		return "", ErrInvalidURL
	}
	return u.String(), nil
}

// 默认解析器，无基准地址
var defaultResolver = &Resolver{}

// Accept 使用无基准地址的解析器校验链接
func Accept(raw string) (string, error) {
	return defaultResolver.Accept(raw)
}
