package editor

// 插件钩子名
const (
	HookInit    = "init"
	HookCommand = "command"
	HookDestroy = "destroy"
)

// Snapshot 调用钩子时的编辑器状态
type Snapshot struct {
	EditorID  string
	HTML      string
	Text      string
	CharCount int
	Command   string // 仅 command 钩子
}

// HookFunc 插件钩子
type HookFunc func(Snapshot)

// Plugin 按名称注册的钩子集合
type Plugin struct {
	Name  string
	Hooks map[string]HookFunc
}

// RegisterPlugin 注册插件并立即调用其 init 钩子
func (e *Editor) RegisterPlugin(p Plugin) {
	e.pluginsMu.Lock()
	e.plugins = append(e.plugins, p)
	e.pluginsMu.Unlock()

	if fn, ok := p.Hooks[HookInit]; ok {
		snap := e.Snapshot()
		e.safeCall("plugin", p.Name+"."+HookInit, func() { fn(snap) })
	}
}

// callHook 调用所有插件的同名钩子
func (e *Editor) callHook(hook string, snap Snapshot) {
	e.pluginsMu.Lock()
	plugins := make([]Plugin, len(e.plugins))
	copy(plugins, e.plugins)
	e.pluginsMu.Unlock()

	for _, p := range plugins {
		fn, ok := p.Hooks[hook]
		if !ok {
			continue
		}
		e.safeCall("plugin", p.Name+"."+hook, func() { fn(snap) })
	}
}
