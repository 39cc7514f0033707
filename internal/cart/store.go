package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/tripmall/internal/constants"
)

// Store 购物车快照存储
// Load 返回 found=false 表示该用户从未持久化过快照。
type Store interface {
	Load(ctx context.Context, userID uint) (lines []Line, found bool, err error)
	Save(ctx context.Context, userID uint, lines []Line) error
	Delete(ctx context.Context, userID uint) error
}

// SnapshotKey 快照存储键：cart_<userId>
func SnapshotKey(userID uint) string {
	return fmt.Sprintf("%s%d", constants.CartKeyPrefix, userID)
}

// MemoryStore 进程内快照存储，用于测试与未启用 Redis 的部署
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string][]Line
}

// NewMemoryStore 创建内存快照存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string][]Line)}
}

// Load 读取用户快照
func (s *MemoryStore) Load(_ context.Context, userID uint) ([]Line, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.snapshots[SnapshotKey(userID)]
	if !ok {
		return nil, false, nil
	}
	lines := make([]Line, len(stored))
	copy(lines, stored)
	return lines, true, nil
}

// Save 覆盖写入用户快照
func (s *MemoryStore) Save(_ context.Context, userID uint, lines []Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]Line, len(lines))
	copy(stored, lines)
	s.snapshots[SnapshotKey(userID)] = stored
	return nil
}

// Delete 删除用户快照
func (s *MemoryStore) Delete(_ context.Context, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, SnapshotKey(userID))
	return nil
}

// Has 判断快照是否存在（仅测试用）
func (s *MemoryStore) Has(userID uint) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.snapshots[SnapshotKey(userID)]
	return ok
}
