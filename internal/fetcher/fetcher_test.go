package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/newsflow/go-editor-service/internal/config"
	"github.com/newsflow/go-editor-service/internal/logging"
)

type stubClient struct {
	result *FetchResult
	calls  int
}

func (s *stubClient) Fetch(ctx context.Context, url string) *FetchResult {
	s.calls++
	r := *s.result
	r.URL = url
	return &r
}

func testConfig() *config.Config {
	return &config.Config{
		RequestTimeout:  5 * time.Second,
		MaxIdleConns:    10,
		MaxConnsPerHost: 2,
		UserAgent:       "editor-test",
	}
}

func TestStandardClient_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "editor-test" {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		switch r.URL.Path {
		case "/ok":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte("<p>hello</p>"))
		case "/logo.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write([]byte("\x89PNG\r\n\x1a\n"))
		case "/moved":
			http.Redirect(w, r, "/ok", http.StatusFound)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewStandardClient(testConfig())

	tests := []struct {
		name       string
		path       string
		wantHTML   string
		wantStatus int
		wantFinal  string
	}{
		{"正常页面", "/ok", "<p>hello</p>", 200, srv.URL + "/ok"},
		{"跟随重定向", "/moved", "<p>hello</p>", 200, srv.URL + "/ok"},
		{"404", "/missing", "", 404, srv.URL + "/missing"},
		{"非页面不读取正文", "/logo.png", "", 200, srv.URL + "/logo.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := c.Fetch(context.Background(), srv.URL+tt.path)
			if r.HTML != tt.wantHTML {
				t.Errorf("HTML = %q, want %q", r.HTML, tt.wantHTML)
			}
			if r.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", r.StatusCode, tt.wantStatus)
			}
			if r.FinalURL != tt.wantFinal {
				t.Errorf("FinalURL = %q, want %q", r.FinalURL, tt.wantFinal)
			}
			if r.Strategy != "standard" {
				t.Errorf("Strategy = %q", r.Strategy)
			}
			if tt.wantStatus == 200 && r.Error != nil {
				t.Errorf("Error = %v", r.Error)
			}
			if tt.wantStatus != 200 {
				var httpErr *HTTPError
				if !errors.As(r.Error, &httpErr) || httpErr.StatusCode != tt.wantStatus {
					t.Errorf("Error = %v, want HTTPError %d", r.Error, tt.wantStatus)
				}
			}
		})
	}
}

func TestIsMarkup(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"", true},
		{"text/html; charset=utf-8", true},
		{"application/xhtml+xml", true},
		{"TEXT/HTML", true},
		{"image/png", false},
		{"application/pdf", false},
	}

	for _, tt := range tests {
		if got := isMarkup(tt.contentType); got != tt.want {
			t.Errorf("isMarkup(%q) = %v, want %v", tt.contentType, got, tt.want)
		}
	}
}

func TestFetcher_Fallback(t *testing.T) {
	failing := &stubClient{result: &FetchResult{Strategy: "cycletls", Error: &HTTPError{StatusCode: 403}}}
	empty := &stubClient{result: &FetchResult{Strategy: "empty"}}
	working := &stubClient{result: &FetchResult{Strategy: "standard", HTML: "<p>ok</p>", StatusCode: 200}}
	unused := &stubClient{result: &FetchResult{Strategy: "unused", HTML: "x"}}

	f := NewWithClients(logging.Discard(), failing, empty, working, unused)
	r := f.Fetch(context.Background(), "https://example.com")

	if r.Strategy != "standard" || r.HTML != "<p>ok</p>" {
		t.Errorf("Fetch() = %+v", r)
	}
	if failing.calls != 1 || empty.calls != 1 || working.calls != 1 || unused.calls != 0 {
		t.Errorf("calls = %d %d %d %d", failing.calls, empty.calls, working.calls, unused.calls)
	}
}

func TestFetcher_AllFail(t *testing.T) {
	last := &stubClient{result: &FetchResult{Strategy: "standard", Error: &HTTPError{StatusCode: 500}}}
	f := NewWithClients(logging.Discard(), last)

	r := f.Fetch(context.Background(), "https://example.com")
	var httpErr *HTTPError
	if !errors.As(r.Error, &httpErr) || httpErr.StatusCode != 500 {
		t.Errorf("Error = %v", r.Error)
	}
}

func TestFetcher_CanceledContext(t *testing.T) {
	c := &stubClient{result: &FetchResult{HTML: "x"}}
	f := NewWithClients(logging.Discard(), c)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := f.Fetch(ctx, "https://example.com")
	if !errors.Is(r.Error, context.Canceled) {
		t.Errorf("Error = %v, want context.Canceled", r.Error)
	}
	if c.calls != 0 {
		t.Errorf("client called %d times", c.calls)
	}
}

func TestFetcher_NoClients(t *testing.T) {
	f := NewWithClients(logging.Discard())
	if r := f.Fetch(context.Background(), "https://example.com"); r.Error == nil {
		t.Error("expected error without clients")
	}
}
