package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisStore 基于 Redis 的快照存储
// 值为 JSON 序列化的 Line 数组，键为 cart_<userId>（可带命名空间前缀）。
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore 创建 Redis 快照存储
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: strings.TrimSpace(prefix),
	}
}

func (s *RedisStore) key(userID uint) string {
	if s.prefix == "" {
		return SnapshotKey(userID)
	}
	return fmt.Sprintf("%s:%s", s.prefix, SnapshotKey(userID))
}

// Load 读取用户快照
func (s *RedisStore) Load(ctx context.Context, userID uint) ([]Line, bool, error) {
	if s.client == nil {
		return nil, false, nil
	}
	payload, err := s.client.Get(ctx, s.key(userID)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var lines []Line
	if err := json.Unmarshal([]byte(payload), &lines); err != nil {
		return nil, false, err
	}
	return lines, true, nil
}

// Save 覆盖写入用户快照（快照跨会话保留，不设过期时间）
func (s *RedisStore) Save(ctx context.Context, userID uint, lines []Line) error {
	if s.client == nil {
		return nil
	}
	if lines == nil {
		lines = []Line{}
	}
	payload, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(userID), payload, 0).Err()
}

// Delete 删除用户快照
func (s *RedisStore) Delete(ctx context.Context, userID uint) error {
	if s.client == nil {
		return nil
	}
	return s.client.Del(ctx, s.key(userID)).Err()
}
