package session

import (
	"encoding/json"

	"github.com/newsflow/go-editor-service/internal/editor"
)

// 浏览器发来的消息类型
const (
	TypeInput   = "input"
	TypePaste   = "paste"
	TypeExec    = "exec"
	TypeToolbar = "toolbar"
	TypeLink    = "link"
	TypeImage   = "image"
	TypeImport  = "import"
	TypeGetHTML = "getHTML"
)

// 发往浏览器的消息类型
const (
	TypeInit   = "init"
	TypeEvent  = "event"
	TypeState  = "state"
	TypePrompt = "prompt"
	TypeError  = "error"
)

// Message 会话消息信封
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type inputData struct {
	HTML string `json:"html"`
}

type execData struct {
	Command string `json:"command"`
	Value   string `json:"value,omitempty"`
}

type linkData struct {
	URL  string `json:"url"`
	Text string `json:"text,omitempty"`
}

type imageData struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType,omitempty"`
	Data        []byte `json:"data"` // base64
}

type importData struct {
	URL string `json:"url"`
}

// InitData 连接建立后发送的编辑器配置
type InitData struct {
	ID          string          `json:"id"`
	Placeholder string          `json:"placeholder"`
	Toolbar     []editor.Button `json:"toolbar"`
	HTML        string          `json:"html"`
	Count       string          `json:"count"`
}

// StateData 内容变化后的状态
type StateData struct {
	HTML  string `json:"html"`
	Text  string `json:"text"`
	Count string `json:"count"`
}

// PromptData 请浏览器打开输入框（链接、图片）
type PromptData struct {
	Command string `json:"command"`
}

// ErrorData 单次操作失败
type ErrorData struct {
	Op    string `json:"op"`
	Error string `json:"error"`
}

func encode(typ string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: typ, Data: data})
}
