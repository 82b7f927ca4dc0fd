package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/newsflow/go-editor-service/internal/editor"
	"github.com/newsflow/go-editor-service/internal/processor"
	"github.com/newsflow/go-editor-service/internal/sanitizer"
	"github.com/newsflow/go-editor-service/internal/upload"
)

// maxBodyBytes JSON 请求体上限
const maxBodyBytes = 4 << 20

// SanitizeRequest 净化请求
type SanitizeRequest struct {
	HTML     string `json:"html" validate:"max=2097152"`
	Hardened bool   `json:"hardened,omitempty"`
}

// SanitizeResponse 净化响应
type SanitizeResponse struct {
	HTML       string            `json:"html"`
	Text       string            `json:"text"`
	CharCount  int               `json:"charCount"`
	CountLabel string            `json:"countLabel"`
	Images     []processor.Image `json:"images"`
}

// PasteRequest 剪贴板内容
type PasteRequest struct {
	HTML string `json:"html" validate:"max=2097152"`
	Text string `json:"text" validate:"max=2097152"`
}

// PasteResponse 实际插入的片段
type PasteResponse struct {
	HTML string `json:"html"`
}

// LinkRequest 插入链接
type LinkRequest struct {
	URL  string `json:"url" validate:"required,max=2048"`
	Text string `json:"text,omitempty" validate:"max=1024"`
}

// LinkResponse 规范化后的地址及链接标记
type LinkResponse struct {
	URL  string `json:"url"`
	HTML string `json:"html"`
}

// UploadResponse 上传结果
type UploadResponse struct {
	URL  string `json:"url"`
	HTML string `json:"html"`
}

// ImportRequest 导入请求
type ImportRequest struct {
	URL string `json:"url" validate:"required,max=2048"`
}

// handleSanitize 净化任意片段
func (h *Handler) handleSanitize(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req SanitizeRequest
	if !h.decode(w, r, &req) {
		return
	}

	var s sanitizer.Sanitizer = h.sanitizer
	if req.Hardened {
		s = h.hardened
	}
	clean := s.Sanitize(req.HTML)
	count := sanitizer.CharCount(clean)

	h.writeJSON(w, http.StatusOK, SanitizeResponse{
		HTML:       clean,
		Text:       sanitizer.PlainText(clean),
		CharCount:  count,
		CountLabel: countLabel(count),
		Images:     h.processor.ListImages(clean),
	})
}

// handlePaste 处理粘贴：优先 HTML，其次纯文本，结果经过净化
func (h *Handler) handlePaste(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req PasteRequest
	if !h.decode(w, r, &req) {
		return
	}

	ed := editor.New(h.editorOptions())
	inserted, err := ed.Paste(editor.Clipboard{HTML: req.HTML, Text: req.Text})
	if err != nil {
		h.writeErr(w, "paste", err)
		return
	}
	h.writeJSON(w, http.StatusOK, PasteResponse{HTML: inserted})
}

// handleLink 校验地址并返回链接标记
func (h *Handler) handleLink(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req LinkRequest
	if !h.decode(w, r, &req) {
		return
	}

	ed := editor.New(h.editorOptions())
	url, err := ed.InsertLink(req.URL, req.Text)
	if err != nil {
		h.writeErr(w, "link", err)
		return
	}
	h.writeJSON(w, http.StatusOK, LinkResponse{URL: url, HTML: ed.GetHTML()})
}

// handleUpload 接收 multipart 字段 file，上传后返回地址与 <img> 标记
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit := int64(h.config.MaxImageSizeMB) << 20
	// 留出 multipart 头部的余量，精确的大小检查由编辑器完成
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeErr(w, "upload", editor.ErrImageTooLarge)
			return
		}
		h.writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeErr(w, "upload", err)
		return
	}

	release, ok := h.acquire(w)
	if !ok {
		return
	}
	defer release()

	ctx, cancel := h.timeout(r)
	defer cancel()

	ed := editor.New(h.editorOptions())
	url, err := ed.InsertImage(ctx, upload.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		h.writeErr(w, "upload", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, UploadResponse{URL: url, HTML: ed.GetHTML()})
}

// handleImage 输出 Redis 中保存的图片
func (h *Handler) handleImage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if h.images == nil {
		h.writeErr(w, "image", upload.ErrNotFound)
		return
	}

	f, err := h.images.Get(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeErr(w, "image", err)
		return
	}

	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	w.Write(f.Data)
}

// handleImport 导入远程页面
func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h.importer == nil {
		h.writeError(w, http.StatusServiceUnavailable, "import is not enabled")
		return
	}

	var req ImportRequest
	if !h.decode(w, r, &req) {
		return
	}

	release, ok := h.acquire(w)
	if !ok {
		return
	}
	defer release()

	ctx, cancel := h.timeout(r)
	defer cancel()

	res, err := h.importer.Import(ctx, req.URL)
	if err != nil {
		h.writeErr(w, "import", err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}
