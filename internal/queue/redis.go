// Package queue 基于 Redis 列表的净化 / 导入任务队列
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/newsflow/go-editor-service/internal/logging"
)

// 任务类型
const (
	KindSanitize = "sanitize"
	KindImport   = "import"
)

// Task 队列任务
type Task struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	DocumentID string    `json:"documentId,omitempty"`
	HTML       string    `json:"html,omitempty"` // sanitize
	URL        string    `json:"url,omitempty"`  // import
	CreatedAt  time.Time `json:"createdAt"`
}

// Result 任务结果
type Result struct {
	TaskID     string `json:"taskId"`
	DocumentID string `json:"documentId,omitempty"`
	Kind       string `json:"kind"`
	Success    bool   `json:"success"`
	HTML       string `json:"html,omitempty"`
	Text       string `json:"text,omitempty"`
	Title      string `json:"title,omitempty"`
	CharCount  int    `json:"charCount"`
	Duration   int64  `json:"duration"` // 毫秒
	Error      string `json:"error,omitempty"`
}

// RedisQueue Redis 队列消费者
type RedisQueue struct {
	client       *redis.Client
	taskQueue    string
	resultQueue  string
	consumerName string
	logger       *log.Logger
}

// NewRedisQueue 创建 Redis 队列并测试连接
func NewRedisQueue(redisURL, consumerName string, logger *log.Logger) (*RedisQueue, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = logging.Discard()
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &RedisQueue{
		client:       client,
		taskQueue:    "editor:tasks",
		resultQueue:  "editor:results",
		consumerName: consumerName,
		logger:       logger.With("consumer", consumerName),
	}, nil
}

// Enqueue 推入任务
func (q *RedisQueue) Enqueue(ctx context.Context, task *Task) error {
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return q.client.RPush(ctx, q.taskQueue, data).Err()
}

// ConsumeTask 阻塞等待一个任务，超时返回 nil
func (q *RedisQueue) ConsumeTask(ctx context.Context) (*Task, error) {
	result, err := q.client.BLPop(ctx, 30*time.Second, q.taskQueue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(result) < 2 {
		return nil, nil
	}

	var task Task
	if err := json.Unmarshal([]byte(result[1]), &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// PublishResult 发布结果
func (q *RedisQueue) PublishResult(ctx context.Context, result *Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return q.client.RPush(ctx, q.resultQueue, data).Err()
}

// PopResult 取出一个结果，没有结果时返回 nil
func (q *RedisQueue) PopResult(ctx context.Context) (*Result, error) {
	data, err := q.client.LPop(ctx, q.resultQueue).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Close 关闭连接
func (q *RedisQueue) Close() error {
	return q.client.Close()
}

// StartConsumer 启动消费者，ctx 取消后等待进行中的任务结束再返回
func (q *RedisQueue) StartConsumer(ctx context.Context, handler TaskHandler, concurrency int) {
	if concurrency < 1 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	defer wg.Wait()

	q.logger.Info("queue consumer started", "queue", q.taskQueue, "concurrency", concurrency)
	for {
		select {
		case <-ctx.Done():
			q.logger.Info("queue consumer stopped")
			return
		default:
		}

		task, err := q.ConsumeTask(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			q.logger.Error("consume task failed", "err", err)
			time.Sleep(time.Second)
			continue
		}
		if task == nil {
			continue
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(t *Task) {
			defer func() {
				<-sem
				wg.Done()
			}()

			result := handler(ctx, t)
			// 发布结果不随 ctx 取消
			if err := q.PublishResult(context.WithoutCancel(ctx), result); err != nil {
				q.logger.Error("publish result failed", "task", t.ID, "err", err)
			}
		}(task)
	}
}

// GetQueueLength 待处理任务数
func (q *RedisQueue) GetQueueLength(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.taskQueue).Result()
}
