package editor

import (
	"sync"

	"github.com/google/uuid"
)

// 编辑器事件名
const (
	EventInput       = "input"
	EventExec        = "exec"
	EventCommand     = "command"
	EventLinkInsert  = "linkInsert"
	EventImageInsert = "imageInsert"
	EventClear       = "clear"
	EventExport      = "export"
	EventDestroy     = "destroy"
)

// Event 事件负载，未用到的字段为空
type Event struct {
	Name    string `json:"name"`
	HTML    string `json:"html,omitempty"`
	Text    string `json:"text,omitempty"`
	URL     string `json:"url,omitempty"`
	Alt     string `json:"alt,omitempty"`
	Command string `json:"command,omitempty"`
	Value   string `json:"value,omitempty"`
}

// Listener 事件监听函数
type Listener func(Event)

type listenerEntry struct {
	id string
	fn Listener
}

// listeners 按事件名保存监听器，ID 用于取消订阅
type listeners struct {
	mu sync.Mutex
	m  map[string][]listenerEntry
}

func (l *listeners) add(name string, fn Listener) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.m == nil {
		l.m = make(map[string][]listenerEntry)
	}
	id := uuid.New().String()
	l.m[name] = append(l.m[name], listenerEntry{id: id, fn: fn})
	return id
}

func (l *listeners) remove(name, id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entries := l.m[name]
	kept := entries[:0]
	for _, e := range entries {
		if e.id != id {
			kept = append(kept, e)
		}
	}
	l.m[name] = kept
}

func (l *listeners) get(name string) []Listener {
	l.mu.Lock()
	defer l.mu.Unlock()
	fns := make([]Listener, 0, len(l.m[name]))
	for _, e := range l.m[name] {
		fns = append(fns, e.fn)
	}
	return fns
}

func (l *listeners) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.m = nil
}

// On 订阅事件，返回的 ID 传给 Off 取消订阅
func (e *Editor) On(name string, fn Listener) string {
	return e.listeners.add(name, fn)
}

// Off 取消订阅
func (e *Editor) Off(name, id string) {
	e.listeners.remove(name, id)
}

// Emit 依次调用监听器；单个监听器 panic 只记录日志，不影响其他监听器
func (e *Editor) Emit(ev Event) {
	for _, fn := range e.listeners.get(ev.Name) {
		e.safeCall("listener", ev.Name, func() { fn(ev) })
	}
}

func (e *Editor) safeCall(kind, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("editor callback panicked", "kind", kind, "name", name, "panic", r)
		}
	}()
	fn()
}
