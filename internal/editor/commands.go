package editor

// Command 交给浏览器原生编辑命令执行的指令
type Command struct {
	Name  string `json:"command"`
	Value string `json:"value,omitempty"`
}

// NormalizeCommand 把工具栏上的简写转换为浏览器编辑命令
func NormalizeCommand(name, value string) Command {
	switch name {
	case "h1", "h2", "p", "blockquote":
		return Command{Name: "formatBlock", Value: name}
	case "ul":
		return Command{Name: "insertUnorderedList"}
	case "ol":
		return Command{Name: "insertOrderedList"}
	}
	return Command{Name: name, Value: value}
}

// builtinCommands 浏览器可直接执行的工具栏命令
var builtinCommands = map[string]bool{
	"bold": true, "italic": true, "underline": true,
	"h1": true, "h2": true, "p": true, "blockquote": true,
	"ul": true, "ol": true,
	"undo": true, "redo": true,
}

// IsBuiltin 是否是内置编辑命令
func IsBuiltin(name string) bool {
	return builtinCommands[name]
}

// Button 工具栏按钮描述
type Button struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

var buttonTitles = map[string]string{
	"bold":       "Bold (Ctrl/Cmd+B)",
	"italic":     "Italic (Ctrl/Cmd+I)",
	"underline":  "Underline (Ctrl/Cmd+U)",
	"h1":         "Heading 1",
	"h2":         "Heading 2",
	"p":          "Paragraph",
	"ul":         "Bulleted list",
	"ol":         "Numbered list",
	"blockquote": "Blockquote",
	"link":       "Insert link",
	"image":      "Insert image",
	"undo":       "Undo",
	"redo":       "Redo",
	"clear":      "Clear content",
	"export":     "Export HTML",
}

// Buttons 按工具栏顺序返回按钮，分隔符保留为 ID=separator 的项
func (e *Editor) Buttons() []Button {
	buttons := make([]Button, 0, len(e.opts.Toolbar))
	for _, item := range e.opts.Toolbar {
		title, ok := buttonTitles[item]
		if !ok {
			// 自定义命令，由插件处理
			title = item
		}
		if item == Separator {
			title = ""
		}
		buttons = append(buttons, Button{ID: item, Title: title})
	}
	return buttons
}

// Exec 规范化命令并广播 exec 事件，由浏览器执行
func (e *Editor) Exec(name, value string) Command {
	cmd := NormalizeCommand(name, value)
	e.Emit(Event{Name: EventExec, Command: cmd.Name, Value: cmd.Value})
	return cmd
}

// Custom 处理非内置的工具栏命令：广播 command 事件并调用插件 command 钩子
func (e *Editor) Custom(name string) {
	snap := e.Snapshot()
	snap.Command = name
	e.Emit(Event{Name: EventCommand, Command: name})
	e.callHook(HookCommand, snap)
}
