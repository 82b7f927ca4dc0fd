// Package handler 编辑器服务的 HTTP 接口
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
	"github.com/julienschmidt/httprouter"

	"github.com/newsflow/go-editor-service/internal/config"
	"github.com/newsflow/go-editor-service/internal/editor"
	"github.com/newsflow/go-editor-service/internal/importer"
	"github.com/newsflow/go-editor-service/internal/linkcheck"
	"github.com/newsflow/go-editor-service/internal/logging"
	"github.com/newsflow/go-editor-service/internal/processor"
	"github.com/newsflow/go-editor-service/internal/sanitizer"
	"github.com/newsflow/go-editor-service/internal/session"
	"github.com/newsflow/go-editor-service/internal/upload"
)

// ImageStore 读取已上传的图片
type ImageStore interface {
	Get(ctx context.Context, id string) (upload.File, error)
}

// Importer 导入远程页面
type Importer interface {
	Import(ctx context.Context, url string) (*importer.Result, error)
}

// Deps 外部依赖，未设置的字段使用默认实现或关闭对应功能
type Deps struct {
	Sanitizer sanitizer.Sanitizer // 默认黑名单净化器
	Uploader  upload.Uploader     // 默认内联为 data: 地址
	Images    ImageStore          // 为空时 /images/:id 返回 404
	Importer  Importer            // 为空时 /import 返回 503
	Logger    *log.Logger
}

// Handler HTTP 处理器
type Handler struct {
	config    *config.Config
	sanitizer sanitizer.Sanitizer
	hardened  *sanitizer.Hardened
	resolver  *linkcheck.Resolver
	uploader  upload.Uploader
	images    ImageStore
	importer  Importer
	processor *processor.ImageProcessor
	sessions  *session.Manager
	validate  *validator.Validate
	semaphore chan struct{}
	logger    *log.Logger
}

// New 创建处理器
func New(cfg *config.Config, deps Deps) (*Handler, error) {
	resolver, err := linkcheck.NewResolver(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	if deps.Sanitizer == nil {
		deps.Sanitizer = sanitizer.NewDenylist()
	}
	if deps.Uploader == nil {
		deps.Uploader = upload.DataURL{}
	}
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	h := &Handler{
		config:    cfg,
		sanitizer: deps.Sanitizer,
		hardened:  sanitizer.NewHardened(),
		resolver:  resolver,
		uploader:  deps.Uploader,
		images:    deps.Images,
		importer:  deps.Importer,
		processor: processor.NewImageProcessor(),
		validate:  validator.New(),
		semaphore: make(chan struct{}, maxConcurrent),
		logger:    deps.Logger,
	}

	var sessionImporter session.Importer
	if deps.Importer != nil {
		sessionImporter = deps.Importer
	}
	h.sessions = session.NewManager(session.Config{
		EditorOptions: h.editorOptions,
		Importer:      sessionImporter,
		TaskTimeout:   cfg.RequestTimeout,
		Logger:        deps.Logger,
	})
	return h, nil
}

// editorOptions 每个编辑器共享的选项
func (h *Handler) editorOptions() editor.Options {
	return editor.Options{
		Placeholder:    h.config.Placeholder,
		Sanitizer:      h.sanitizer,
		Uploader:       h.uploader,
		Resolver:       h.resolver,
		MaxImageSizeMB: h.config.MaxImageSizeMB,
		Logger:         h.logger,
	}
}

// Router 注册路由
func (h *Handler) Router() *httprouter.Router {
	router := httprouter.New()
	router.GET("/health", h.handleHealth)
	router.POST("/sanitize", h.handleSanitize)
	router.POST("/paste", h.handlePaste)
	router.POST("/link", h.handleLink)
	router.POST("/upload", h.handleUpload)
	router.GET("/images/:id", h.handleImage)
	router.POST("/import", h.handleImport)
	router.Handler(http.MethodGet, "/ws", h.sessions)

	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, http.StatusNotFound, "Not found")
	})
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v interface{}) {
		h.logger.Error("handler panicked", "path", r.URL.Path, "panic", v)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
	return router
}

// Sessions 会话管理器
func (h *Handler) Sessions() *session.Manager {
	return h.sessions
}

// Close 关闭所有会话
func (h *Handler) Close() {
	h.sessions.CloseAll()
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status      string `json:"status"`
	Concurrency int    `json:"concurrency"`
	Available   int    `json:"available"`
	Sessions    int    `json:"sessions"`
	ImageStore  bool   `json:"imageStore"`
	Import      bool   `json:"import"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.writeJSON(w, http.StatusOK, HealthResponse{
		Status:      "ok",
		Concurrency: cap(h.semaphore),
		Available:   cap(h.semaphore) - len(h.semaphore),
		Sessions:    h.sessions.Len(),
		ImageStore:  h.images != nil,
		Import:      h.importer != nil,
	})
}

// acquire 获取并发信号量，满载时返回 false 并写回 503
func (h *Handler) acquire(w http.ResponseWriter) (release func(), ok bool) {
	select {
	case h.semaphore <- struct{}{}:
		return func() { <-h.semaphore }, true
	default:
		h.writeError(w, http.StatusServiceUnavailable, "Server is busy")
		return nil, false
	}
}

// decode 解析并校验 JSON 请求体，失败时已写回错误
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		h.writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func (h *Handler) timeout(r *http.Request) (context.Context, context.CancelFunc) {
	timeout := h.config.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return context.WithTimeout(r.Context(), timeout)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// writeErr 按错误类型映射状态码
func (h *Handler) writeErr(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "op", op, "status", status, "err", err)
	} else {
		h.logger.Debug("request rejected", "op", op, "status", status, "err", err)
	}
	h.writeError(w, status, err.Error())
}
