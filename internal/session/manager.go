package session

import (
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/newsflow/go-editor-service/internal/editor"
	"github.com/newsflow/go-editor-service/internal/logging"
)

// Error 会话错误
type Error string

func (e Error) Error() string {
	return string(e)
}

const errImportDisabled Error = "import is not enabled"

func unknownType(typ string) Error {
	return Error("unknown message type: " + typ)
}

// Config 会话配置
type Config struct {
	// 每个会话创建编辑器时调用
	EditorOptions func() editor.Options
	Importer      Importer
	// 上传 / 导入的超时时间
	TaskTimeout time.Duration
	Logger      *log.Logger
}

// Manager 管理所有在线会话
type Manager struct {
	cfg      Config
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager 创建会话管理器
func NewManager(cfg Config) *Manager {
	if cfg.EditorOptions == nil {
		cfg.EditorOptions = func() editor.Options { return editor.Options{} }
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	return &Manager{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		sessions: make(map[string]*Session),
	}
}

// ServeHTTP 升级连接并运行会话，直到连接关闭
func (m *Manager) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade 已经写回错误响应
		m.cfg.Logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	opts := m.cfg.EditorOptions()
	if opts.Logger == nil {
		opts.Logger = m.cfg.Logger
	}
	ed := editor.New(opts)

	s := &Session{
		id:         ed.ID(),
		conn:       conn,
		editor:     ed,
		importer:   m.cfg.Importer,
		logger:     m.cfg.Logger.With("session", ed.ID()),
		timeout:    m.cfg.TaskTimeout,
		send:       make(chan []byte, 64),
		done:       make(chan struct{}),
		writerDone: make(chan struct{}),
	}

	m.add(s)
	defer m.remove(s.id)

	s.logger.Info("session opened", "remote", r.RemoteAddr)
	s.run(r.Context())
	s.logger.Info("session closed")
}

// Get 按 ID 查找会话
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Len 在线会话数
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// CloseAll 关闭所有连接，各会话随后自行清理
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		s.conn.Close()
	}
}

func (m *Manager) add(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.id] = s
}

func (m *Manager) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}
