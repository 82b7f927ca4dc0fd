package sanitizer

import (
	"strings"
	"testing"
)

func TestHardened_Sanitize(t *testing.T) {
	h := NewHardened()

	tests := []struct {
		name      string
		input     string
		contains  []string
		forbidden []string
	}{
		{
			name:      "保留基础格式",
			input:     `<p><b>bold</b> <i>italic</i></p>`,
			contains:  []string{"<p>", "<b>bold</b>", "<i>italic</i>"},
			forbidden: nil,
		},
		{
			name:      "移除 style 属性",
			input:     `<p style="position:fixed">x</p>`,
			contains:  []string{"x"},
			forbidden: []string{"position"},
		},
		{
			name:      "移除 data URL",
			input:     `<img src="data:text/html;base64,PHNjcmlwdD4=" alt="a">`,
			forbidden: []string{"data:"},
		},
		{
			name:      "移除 iframe",
			input:     `<iframe src="https://evil.example"></iframe><b>ok</b>`,
			contains:  []string{"<b>ok</b>"},
			forbidden: []string{"iframe"},
		},
		{
			name:      "黑名单规则仍然生效",
			input:     `<a href="javascript:alert(1)" onclick="x">c</a><script>y</script>`,
			forbidden: []string{"javascript", "onclick", "script"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := h.Sanitize(tt.input)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("Sanitize(%q) = %q, missing %q", tt.input, got, want)
				}
			}
			for _, bad := range tt.forbidden {
				if strings.Contains(got, bad) {
					t.Errorf("Sanitize(%q) = %q, should not contain %q", tt.input, got, bad)
				}
			}
		})
	}
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`<p>Hello <b>world</b></p>`, "Hello world"},
		{`a &amp; b`, "a & b"},
		{`<script>hidden()</script>shown`, "shown"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := PlainText(tt.input); got != tt.expected {
			t.Errorf("PlainText(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestCharCount(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"", 0},
		{"<p></p>", 0},
		{"<p>  abc  </p>", 3},
		{"<p>你好</p>", 2},
	}

	for _, tt := range tests {
		if got := CharCount(tt.input); got != tt.expected {
			t.Errorf("CharCount(%q) = %d, want %d", tt.input, got, tt.expected)
		}
	}
}
