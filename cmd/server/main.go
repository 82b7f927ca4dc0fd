package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/newsflow/go-editor-service/internal/config"
	"github.com/newsflow/go-editor-service/internal/fetcher"
	"github.com/newsflow/go-editor-service/internal/handler"
	"github.com/newsflow/go-editor-service/internal/importer"
	"github.com/newsflow/go-editor-service/internal/logging"
	"github.com/newsflow/go-editor-service/internal/queue"
	"github.com/newsflow/go-editor-service/internal/sanitizer"
	"github.com/newsflow/go-editor-service/internal/upload"
)

func main() {
	// 加载配置
	cfg := config.DefaultConfig()
	logger := logging.New(logging.Options{Level: cfg.LogLevel, Prefix: "editor"})

	var s sanitizer.Sanitizer = sanitizer.NewDenylist()
	if cfg.HardenedSanitizer {
		s = sanitizer.NewHardened()
	}

	// 页面导入
	f := fetcher.New(cfg, logger)
	defer f.Close()
	imp := importer.New(f, s, logger)

	deps := handler.Deps{
		Sanitizer: s,
		Importer:  imp,
		Logger:    logger,
	}

	// Redis 图片存储（可选）
	if cfg.RedisURL != "" {
		store, err := upload.NewRedisStore(cfg.RedisURL, cfg.BaseURL, cfg.ImageTTL)
		if err != nil {
			logger.Warn("redis image store unavailable, images are inlined", "err", err)
		} else {
			defer store.Close()
			deps.Uploader = store
			deps.Images = store
		}
	}

	h, err := handler.New(cfg, deps)
	if err != nil {
		logger.Fatal("failed to create handler", "err", err)
	}

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 启动 Redis 队列消费者（可选）
	consumerDone := make(chan struct{})
	if cfg.RedisURL != "" {
		go func() {
			defer close(consumerDone)
			startQueueConsumer(ctx, cfg, logger, queue.NewTaskHandler(s, imp))
		}()
	} else {
		close(consumerDone)
	}

	// 优雅关闭
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server")
		cancel()
		h.Close()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "err", err)
		}
	}()

	logger.Info("editor service starting",
		"port", cfg.HTTPPort,
		"maxConcurrent", cfg.MaxConcurrent,
		"hardened", cfg.HardenedSanitizer,
		"redis", cfg.RedisURL != "",
	)

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", "err", err)
	}

	<-consumerDone
	logger.Info("server stopped")
}

// startQueueConsumer 启动队列消费者，阻塞到 ctx 取消
func startQueueConsumer(ctx context.Context, cfg *config.Config, logger *log.Logger, taskHandler queue.TaskHandler) {
	hostname, _ := os.Hostname()
	q, err := queue.NewRedisQueue(cfg.RedisURL, "editor-"+hostname, logger)
	if err != nil {
		logger.Error("failed to connect to redis queue", "err", err)
		return
	}
	defer q.Close()

	q.StartConsumer(ctx, taskHandler, cfg.QueueConcurrency)
}
