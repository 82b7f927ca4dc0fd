package upload

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore 把图片存入 Redis，返回 /images/<id> 地址
type RedisStore struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	baseURL string
}

// NewRedisStore 创建 Redis 图片存储
func NewRedisStore(redisURL, baseURL string, ttl time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &RedisStore{
		client:  client,
		prefix:  "editor:images:",
		ttl:     ttl,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Upload 保存图片，内容必须能被识别为 image/*
func (s *RedisStore) Upload(ctx context.Context, f File) (string, error) {
	contentType, err := DetectImage(f.Data)
	if err != nil {
		return "", err
	}

	id := uuid.New().String()
	key := s.prefix + id

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, "type", contentType, "name", f.Name, "data", f.Data)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return "", err
	}

	return s.baseURL + "/images/" + id, nil
}

// Get 读取图片
func (s *RedisStore) Get(ctx context.Context, id string) (File, error) {
	if _, err := uuid.Parse(id); err != nil {
		return File{}, ErrNotFound
	}

	values, err := s.client.HGetAll(ctx, s.prefix+id).Result()
	if err != nil {
		return File{}, err
	}
	if len(values) == 0 {
		return File{}, ErrNotFound
	}

	return File{
		Name:        values["name"],
		ContentType: values["type"],
		Data:        []byte(values["data"]),
	}, nil
}

// Close 关闭连接
func (s *RedisStore) Close() error {
	return s.client.Close()
}
