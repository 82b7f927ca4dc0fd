// Package session 通过 websocket 把浏览器中的编辑区域绑定到服务端 Editor
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/newsflow/go-editor-service/internal/editor"
	"github.com/newsflow/go-editor-service/internal/importer"
	"github.com/newsflow/go-editor-service/internal/upload"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 16 << 20 // 图片以 base64 传输
)

// Importer 导入远程页面
type Importer interface {
	Import(ctx context.Context, url string) (*importer.Result, error)
}

// Session 一个 websocket 连接对应一个编辑器
type Session struct {
	id       string
	conn     *websocket.Conn
	editor   *editor.Editor
	importer Importer
	logger   *log.Logger
	timeout  time.Duration

	send       chan []byte
	done       chan struct{}
	writerDone chan struct{}
	tasks      sync.WaitGroup
}

// ID 会话 ID，与编辑器 ID 相同
func (s *Session) ID() string {
	return s.id
}

// Editor 会话绑定的编辑器
func (s *Session) Editor() *editor.Editor {
	return s.editor
}

var forwardedEvents = []string{
	editor.EventInput,
	editor.EventExec,
	editor.EventCommand,
	editor.EventLinkInsert,
	editor.EventImageInsert,
	editor.EventClear,
	editor.EventExport,
	editor.EventDestroy,
}

// run 阻塞直到连接关闭
func (s *Session) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)

	for _, name := range forwardedEvents {
		s.editor.On(name, func(ev editor.Event) {
			s.write(TypeEvent, ev)
		})
	}

	go s.writeLoop()

	s.write(TypeInit, InitData{
		ID:          s.id,
		Placeholder: s.editor.Placeholder(),
		Toolbar:     s.editor.Buttons(),
		HTML:        s.editor.GetHTML(),
		Count:       s.editor.CountLabel(),
	})

	s.readLoop(ctx)

	// 等待进行中的上传 / 导入结束再销毁编辑器
	cancel()
	s.tasks.Wait()
	s.editor.Destroy()
	close(s.done)
	<-s.writerDone
}

func (s *Session) readLoop(ctx context.Context) {
	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read failed", "err", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.fail("decode", err)
			continue
		}
		s.dispatch(ctx, msg)
	}
}

// writeLoop 唯一的写协程，gorilla/websocket 不支持并发写
func (s *Session) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
		close(s.writerDone)
	}()

	for {
		select {
		case msg := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.logger.Warn("websocket write failed", "err", err)
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			// 先发完队列中的消息
			for {
				select {
				case msg := <-s.send:
					s.conn.SetWriteDeadline(time.Now().Add(writeWait))
					if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
						return
					}
				default:
					s.conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
						time.Now().Add(writeWait))
					return
				}
			}
		}
	}
}

func (s *Session) write(typ string, v any) {
	msg, err := encode(typ, v)
	if err != nil {
		s.logger.Error("encode message failed", "type", typ, "err", err)
		return
	}
	select {
	case s.send <- msg:
	case <-s.writerDone:
	}
}

func (s *Session) fail(op string, err error) {
	s.logger.Debug("operation failed", "op", op, "err", err)
	s.write(TypeError, ErrorData{Op: op, Error: err.Error()})
}

func (s *Session) state() {
	html := s.editor.GetHTML()
	s.write(TypeState, StateData{
		HTML:  html,
		Text:  s.editor.GetText(),
		Count: s.editor.CountLabel(),
	})
}

func (s *Session) dispatch(ctx context.Context, msg Message) {
	switch msg.Type {
	case TypeInput:
		var d inputData
		if s.decode(msg, &d) {
			s.editor.Input(d.HTML)
			s.state()
		}

	case TypePaste:
		var c editor.Clipboard
		if !s.decode(msg, &c) {
			return
		}
		if _, err := s.editor.Paste(c); err != nil {
			s.fail(msg.Type, err)
			return
		}
		s.state()

	case TypeExec:
		var d execData
		if s.decode(msg, &d) {
			s.editor.Exec(d.Command, d.Value)
		}

	case TypeToolbar:
		var d execData
		if s.decode(msg, &d) {
			s.toolbar(d.Command)
		}

	case TypeLink:
		var d linkData
		if !s.decode(msg, &d) {
			return
		}
		if _, err := s.editor.InsertLink(d.URL, d.Text); err != nil {
			s.fail(msg.Type, err)
			return
		}
		s.state()

	case TypeImage:
		var d imageData
		if s.decode(msg, &d) {
			s.background(ctx, msg.Type, func(ctx context.Context) error {
				_, err := s.editor.InsertImage(ctx, upload.File{Name: d.Name, ContentType: d.ContentType, Data: d.Data})
				return err
			})
		}

	case TypeImport:
		var d importData
		if !s.decode(msg, &d) {
			return
		}
		if s.importer == nil {
			s.fail(msg.Type, errImportDisabled)
			return
		}
		s.background(ctx, msg.Type, func(ctx context.Context) error {
			res, err := s.importer.Import(ctx, d.URL)
			if err != nil {
				return err
			}
			_, err = s.editor.Paste(editor.Clipboard{HTML: res.HTML, Text: res.Text})
			return err
		})

	case TypeGetHTML:
		s.state()

	default:
		s.fail("dispatch", unknownType(msg.Type))
	}
}

// toolbar 工具栏按钮
func (s *Session) toolbar(cmd string) {
	switch {
	case editor.IsBuiltin(cmd):
		s.editor.Exec(cmd, "")
	case cmd == "link", cmd == "image":
		s.write(TypePrompt, PromptData{Command: cmd})
	case cmd == "clear":
		s.editor.Clear()
		s.state()
	case cmd == "export":
		s.editor.Export()
	default:
		s.editor.Custom(cmd)
	}
}

// background 在独立协程中执行耗时操作，完成后报告结果
func (s *Session) background(ctx context.Context, op string, fn func(ctx context.Context) error) {
	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()

		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			s.fail(op, err)
			return
		}
		s.state()
	}()
}

func (s *Session) decode(msg Message, v any) bool {
	if len(msg.Data) == 0 {
		return true
	}
	if err := json.Unmarshal(msg.Data, v); err != nil {
		s.fail(msg.Type, err)
		return false
	}
	return true
}
