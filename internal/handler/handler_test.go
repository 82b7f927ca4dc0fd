package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/newsflow/go-editor-service/internal/config"
	"github.com/newsflow/go-editor-service/internal/editor"
	"github.com/newsflow/go-editor-service/internal/importer"
	"github.com/newsflow/go-editor-service/internal/linkcheck"
	"github.com/newsflow/go-editor-service/internal/upload"
)

var pngPixel = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func testConfig() *config.Config {
	return &config.Config{
		MaxConcurrent:  4,
		RequestTimeout: 5 * time.Second,
		BaseURL:        "https://docs.example.com/guide/",
		MaxImageSizeMB: 1,
		Placeholder:    "Start writing...",
	}
}

func newTestHandler(t *testing.T, deps Deps) http.Handler {
	t.Helper()
	h, err := New(testConfig(), deps)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(h.Close)
	return h.Router()
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, out
}

func TestHealth(t *testing.T) {
	router := newTestHandler(t, Deps{})
	rec, body := doJSON(t, router, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["status"] != "ok" || body["concurrency"] != float64(4) || body["import"] != false {
		t.Errorf("body = %v", body)
	}
}

func TestSanitize(t *testing.T) {
	router := newTestHandler(t, Deps{})

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantHTML   string
		wantCount  string
	}{
		{
			name:       "端到端净化",
			body:       `{"html":"<p onclick=\"steal()\">Hi <script>alert(1)</script><img src=\"javascript:evil()\"></p>"}`,
			wantStatus: http.StatusOK,
			wantHTML:   "<p>Hi <img></p>",
			wantCount:  "2 characters",
		},
		{
			name:       "白名单模式移除 style",
			body:       `{"html":"<p style=\"position:fixed\">x</p>","hardened":true}`,
			wantStatus: http.StatusOK,
			wantHTML:   "<p>x</p>",
			wantCount:  "1 characters",
		},
		{
			name:       "空片段",
			body:       `{"html":""}`,
			wantStatus: http.StatusOK,
			wantHTML:   "",
			wantCount:  "0 characters",
		},
		{
			name:       "请求体不是 JSON",
			body:       `<p>`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := doJSON(t, router, http.MethodPost, "/sanitize", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				if body["error"] == nil {
					t.Errorf("missing error field: %v", body)
				}
				return
			}
			if body["html"] != tt.wantHTML {
				t.Errorf("html = %q, want %q", body["html"], tt.wantHTML)
			}
			if body["countLabel"] != tt.wantCount {
				t.Errorf("countLabel = %q, want %q", body["countLabel"], tt.wantCount)
			}
		})
	}
}

func TestSanitize_ListsImages(t *testing.T) {
	router := newTestHandler(t, Deps{})
	_, body := doJSON(t, router, http.MethodPost, "/sanitize", `{"html":"<img src=\"https://cdn.example.com/a.png\" alt=\"a\">"}`)
	images, ok := body["images"].([]any)
	if !ok || len(images) != 1 {
		t.Fatalf("images = %v", body["images"])
	}
	if img := images[0].(map[string]any); img["src"] != "https://cdn.example.com/a.png" || img["alt"] != "a" {
		t.Errorf("image = %v", img)
	}
}

func TestPaste(t *testing.T) {
	router := newTestHandler(t, Deps{})

	tests := []struct {
		name       string
		body       string
		wantStatus int
		want       string
	}{
		{"优先 HTML", `{"html":"<b>bold</b>","text":"bold"}`, http.StatusOK, "<b>bold</b>"},
		{"只有文本", `{"text":"hello"}`, http.StatusOK, "hello"},
		{"剪贴板为空", `{}`, http.StatusBadRequest, "clipboard has no html or text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := doJSON(t, router, http.MethodPost, "/paste", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			key := "html"
			if tt.wantStatus != http.StatusOK {
				key = "error"
			}
			if body[key] != tt.want {
				t.Errorf("%s = %q, want %q", key, body[key], tt.want)
			}
		})
	}
}

func TestLink(t *testing.T) {
	router := newTestHandler(t, Deps{})

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantURL    string
		wantError  string
	}{
		{
			name:       "绝对地址",
			body:       `{"url":"https://example.com/a","text":"A"}`,
			wantStatus: http.StatusOK,
			wantURL:    "https://example.com/a",
		},
		{
			name:       "相对地址按基准解析",
			body:       `{"url":"intro"}`,
			wantStatus: http.StatusOK,
			wantURL:    "https://docs.example.com/guide/intro",
		},
		{
			name:       "javascript 协议",
			body:       `{"url":"javascript:alert(1)"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "invalid URL",
		},
		{
			name:       "缺少地址",
			body:       `{"text":"x"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "URL is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := doJSON(t, router, http.MethodPost, "/link", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantError != "" {
				if body["error"] != tt.wantError {
					t.Errorf("error = %q, want %q", body["error"], tt.wantError)
				}
				return
			}
			if body["url"] != tt.wantURL {
				t.Errorf("url = %q, want %q", body["url"], tt.wantURL)
			}
			html, _ := body["html"].(string)
			if !strings.Contains(html, `target="_blank" rel="noopener noreferrer"`) {
				t.Errorf("html = %q", html)
			}
		})
	}
}

func multipartBody(t *testing.T, name string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if data != nil {
		fw, err := mw.CreateFormFile("file", name)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(data)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestUpload(t *testing.T) {
	oversized := append(append([]byte{}, pngPixel...), bytes.Repeat([]byte{0}, 1<<20)...)

	tests := []struct {
		name       string
		deps       Deps
		file       []byte
		wantStatus int
		wantURL    string
	}{
		{
			name:       "默认内联",
			file:       pngPixel,
			wantStatus: http.StatusCreated,
			wantURL:    "data:image/png;base64,",
		},
		{
			name: "注入上传器",
			deps: Deps{Uploader: upload.UploaderFunc(func(ctx context.Context, f upload.File) (string, error) {
				return "https://cdn.example.com/" + f.Name, nil
			})},
			file:       pngPixel,
			wantStatus: http.StatusCreated,
			wantURL:    "https://cdn.example.com/pixel.png",
		},
		{
			name:       "不是图片",
			file:       []byte("plain text"),
			wantStatus: http.StatusUnsupportedMediaType,
		},
		{
			name:       "超过大小限制",
			file:       oversized,
			wantStatus: http.StatusRequestEntityTooLarge,
		},
		{
			name: "上传器失败",
			deps: Deps{Uploader: upload.UploaderFunc(func(context.Context, upload.File) (string, error) {
				return "", errors.New("disk full")
			})},
			file:       pngPixel,
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "缺少文件",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestHandler(t, tt.deps)
			body, contentType := multipartBody(t, "pixel.png", tt.file)
			req := httptest.NewRequest(http.MethodPost, "/upload", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantURL == "" {
				return
			}
			var resp UploadResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if !strings.HasPrefix(resp.URL, tt.wantURL) {
				t.Errorf("url = %q, want prefix %q", resp.URL, tt.wantURL)
			}
			if !strings.Contains(resp.HTML, `alt="pixel.png" style="max-width:100%"`) {
				t.Errorf("html = %q", resp.HTML)
			}
		})
	}
}

type memoryStore map[string]upload.File

func (m memoryStore) Get(ctx context.Context, id string) (upload.File, error) {
	f, ok := m[id]
	if !ok {
		return upload.File{}, upload.ErrNotFound
	}
	return f, nil
}

func TestImage(t *testing.T) {
	store := memoryStore{"abc": {Name: "a.png", ContentType: "image/png", Data: pngPixel}}

	t.Run("存在", func(t *testing.T) {
		router := newTestHandler(t, Deps{Images: store})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/images/abc", nil))
		if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
			t.Fatalf("status = %d, content-type = %q", rec.Code, rec.Header().Get("Content-Type"))
		}
		if !bytes.Equal(rec.Body.Bytes(), pngPixel) {
			t.Error("body mismatch")
		}
	})

	t.Run("不存在", func(t *testing.T) {
		router := newTestHandler(t, Deps{Images: store})
		rec, _ := doJSON(t, router, http.MethodGet, "/images/missing", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("未配置存储", func(t *testing.T) {
		router := newTestHandler(t, Deps{})
		rec, _ := doJSON(t, router, http.MethodGet, "/images/abc", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d", rec.Code)
		}
	})
}

type importerFunc func(ctx context.Context, url string) (*importer.Result, error)

func (f importerFunc) Import(ctx context.Context, url string) (*importer.Result, error) {
	return f(ctx, url)
}

func TestImport(t *testing.T) {
	imp := importerFunc(func(ctx context.Context, url string) (*importer.Result, error) {
		switch url {
		case "https://ok.example.com":
			return &importer.Result{URL: url, Title: "T", HTML: "<p>x</p>", Text: "x", CharCount: 1}, nil
		case "https://down.example.com":
			return nil, fmt.Errorf("%w: %w", importer.ErrFetchFailed, errors.New("connection refused"))
		case "https://pdf.example.com":
			return nil, importer.ErrNotHTML
		default:
			return nil, linkcheck.ErrInvalidURL
		}
	})
	router := newTestHandler(t, Deps{Importer: imp})

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"成功", `{"url":"https://ok.example.com"}`, http.StatusOK},
		{"抓取失败", `{"url":"https://down.example.com"}`, http.StatusBadGateway},
		{"不是 HTML", `{"url":"https://pdf.example.com"}`, http.StatusUnsupportedMediaType},
		{"非法地址", `{"url":"ftp://x"}`, http.StatusUnprocessableEntity},
		{"缺少地址", `{}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := doJSON(t, router, http.MethodPost, "/import", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus == http.StatusOK && body["title"] != "T" {
				t.Errorf("body = %v", body)
			}
		})
	}
}

func TestImport_Disabled(t *testing.T) {
	router := newTestHandler(t, Deps{})
	rec, _ := doJSON(t, router, http.MethodPost, "/import", `{"url":"https://ok.example.com"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestRouting(t *testing.T) {
	router := newTestHandler(t, Deps{})

	rec, body := doJSON(t, router, http.MethodGet, "/sanitize", "")
	if rec.Code != http.StatusMethodNotAllowed || body["error"] == nil {
		t.Errorf("GET /sanitize status = %d body = %v", rec.Code, body)
	}

	rec, body = doJSON(t, router, http.MethodGet, "/nope", "")
	if rec.Code != http.StatusNotFound || body["error"] == nil {
		t.Errorf("GET /nope status = %d body = %v", rec.Code, body)
	}
}

func TestWebSocket(t *testing.T) {
	router := newTestHandler(t, Deps{})
	srv := httptest.NewServer(router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg struct {
		Type string `json:"type"`
		Data struct {
			Placeholder string `json:"placeholder"`
		} `json:"data"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != "init" || msg.Data.Placeholder != "Start writing..." {
		t.Errorf("first message = %+v", msg)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{linkcheck.ErrInvalidURL, http.StatusUnprocessableEntity},
		{editor.ErrEmptyClipboard, http.StatusBadRequest},
		{fmt.Errorf("%w: max 5MB", editor.ErrImageTooLarge), http.StatusRequestEntityTooLarge},
		{upload.ErrNotImage, http.StatusUnsupportedMediaType},
		{upload.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: %w", editor.ErrUploadFailed, upload.ErrEmptyResult), http.StatusBadGateway},
		{importer.ErrNoArticle, http.StatusUnprocessableEntity},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
