package cart

import (
	"context"
	"sync"

	"github.com/tripmall/internal/logger"
)

// State 购物车生命周期状态
type State int

const (
	// StateUnauthenticated 未登录，所有变更操作直接忽略
	StateUnauthenticated State = iota
	// StateLoading 已登录，正在从存储恢复快照
	StateLoading
	// StateReady 快照恢复完成，可变更并持久化
	StateReady
)

// Manager 单个用户的购物车状态机
//
// 状态转移只由 OnAuthChange 驱动：
//
//	Unauthenticated -> Loading(userID) -> Ready(userID, lines)
//
// 内存中的行列表是当前会话的唯一事实，存储只是跨会话的尽力而为缓存：
// 持久化失败只记日志，不回滚内存，也不向调用方报错。
// 持久化写入只在快照恢复完成之后发生，避免登录后的快速加购
// 用空快照覆盖掉上一次会话保存的内容。
type Manager struct {
	mu     sync.Mutex
	store  Store
	userID uint
	state  State
	loaded bool
	lines  []Line
}

// NewManager 创建购物车状态机，初始为未登录状态
func NewManager(store Store) *Manager {
	return &Manager{
		store: store,
		state: StateUnauthenticated,
	}
}

// OnAuthChange 通知登录态变化
// userID 为 0 表示登出：删除该用户的持久化快照并清空内存。
// 切换账号等价于先登出旧账号再登录新账号。
func (m *Manager) OnAuthChange(ctx context.Context, userID uint) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if userID == m.userID {
		return
	}

	if m.userID != 0 {
		m.signOutLocked(ctx)
	}

	if userID == 0 {
		return
	}

	m.userID = userID
	m.state = StateLoading
	m.loaded = false
	m.lines = nil

	lines, found, err := m.store.Load(ctx, userID)
	if err != nil {
		// 恢复失败按空车处理，不阻塞登录
		logger.Warnw("cart_snapshot_load_failed", "user_id", userID, "error", err)
		lines = nil
	}
	if !found {
		lines = nil
	}
	m.lines = lines
	m.loaded = true
	m.state = StateReady
	logger.Debugw("cart_ready", "user_id", userID, "restored_lines", len(lines))
}

// signOutLocked 登出清理：删除存储快照并清空内存行
func (m *Manager) signOutLocked(ctx context.Context) {
	if err := m.store.Delete(ctx, m.userID); err != nil {
		logger.Warnw("cart_snapshot_delete_failed", "user_id", m.userID, "error", err)
	}
	logger.Debugw("cart_destroyed", "user_id", m.userID)
	m.userID = 0
	m.state = StateUnauthenticated
	m.loaded = false
	m.lines = nil
}

// AddItem 加入商品
// 已存在的商品数量加一并钳制到库存上限，否则追加数量为 1 的新行。
// 库存下调后再次加购时，已有行的数量也会被压回库存上限，
// 库存归零则直接删行：任何行的数量都不允许落在 [1, 库存] 之外。
func (m *Manager) AddItem(ctx context.Context, product Product) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.readyLocked("add_item") {
		return
	}

	p := product.sanitize()
	for i := range m.lines {
		if m.lines[i].ProductID == p.ID {
			if p.Stock < 1 {
				logger.Debugw("cart_line_dropped_out_of_stock", "user_id", m.userID, "product_id", p.ID)
				m.removeLocked(ctx, p.ID)
				return
			}
			quantity := m.lines[i].Quantity + 1
			if quantity > p.Stock {
				quantity = p.Stock
			}
			m.lines[i].Quantity = quantity
			m.lines[i].Stock = p.Stock
			m.persistLocked(ctx)
			return
		}
	}

	if p.Stock < 1 {
		logger.Debugw("cart_add_item_out_of_stock", "user_id", m.userID, "product_id", p.ID)
		return
	}
	m.lines = append(m.lines, Line{
		ProductID:     p.ID,
		Name:          p.Name,
		Type:          p.Type,
		Destination:   p.Destination,
		ImageURL:      p.ImageURL,
		UnitPrice:     p.Price,
		OriginalPrice: p.OriginalPrice,
		Quantity:      1,
		Stock:         p.Stock,
	})
	m.persistLocked(ctx)
}

// RemoveItem 删除商品行，不存在时为空操作
func (m *Manager) RemoveItem(ctx context.Context, productID uint) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.readyLocked("remove_item") {
		return
	}
	m.removeLocked(ctx, productID)
}

// UpdateQuantity 设置商品数量
// 数量小于等于 0 时等价于删除该行，超出库存时静默钳制到库存上限。
func (m *Manager) UpdateQuantity(ctx context.Context, productID uint, quantity int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.readyLocked("update_quantity") {
		return
	}

	if quantity <= 0 {
		m.removeLocked(ctx, productID)
		return
	}

	for i := range m.lines {
		if m.lines[i].ProductID == productID {
			if quantity > m.lines[i].Stock {
				quantity = m.lines[i].Stock
			}
			if quantity < 1 {
				m.removeLocked(ctx, productID)
				return
			}
			m.lines[i].Quantity = quantity
			m.persistLocked(ctx)
			return
		}
	}
}

// Clear 清空购物车
func (m *Manager) Clear(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.readyLocked("clear") {
		return
	}
	m.lines = nil
	m.persistLocked(ctx)
}

// Lines 返回当前行列表的副本
func (m *Manager) Lines() []Line {
	m.mu.Lock()
	defer m.mu.Unlock()

	lines := make([]Line, len(m.lines))
	copy(lines, m.lines)
	return lines
}

// Total 合计金额：sum(单价 * 数量)，未登录或空车为 0
func (m *Manager) Total() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	var total float64
	for _, line := range m.lines {
		qty := line.Quantity
		if qty < 0 {
			qty = 0
		}
		total += coerceNumber(line.UnitPrice) * float64(qty)
	}
	return total
}

// ItemCount 合计件数：sum(数量)
func (m *Manager) ItemCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int
	for _, line := range m.lines {
		if line.Quantity > 0 {
			count += line.Quantity
		}
	}
	return count
}

// UserID 返回当前绑定的用户，未登录为 0
func (m *Manager) UserID() uint {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userID
}

// StateSnapshot 返回当前状态（仅诊断用）
func (m *Manager) StateSnapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) removeLocked(ctx context.Context, productID uint) {
	for i := range m.lines {
		if m.lines[i].ProductID == productID {
			m.lines = append(m.lines[:i], m.lines[i+1:]...)
			m.persistLocked(ctx)
			return
		}
	}
}

// readyLocked 判断是否可以执行变更操作，未登录的调用只记日志
func (m *Manager) readyLocked(op string) bool {
	if m.state != StateReady || m.userID == 0 {
		logger.Debugw("cart_mutation_ignored_unauthenticated", "op", op)
		return false
	}
	return true
}

// persistLocked 尽力而为地写回快照，只有恢复完成后才允许写
func (m *Manager) persistLocked(ctx context.Context) {
	if !m.loaded || m.userID == 0 {
		return
	}
	if err := m.store.Save(ctx, m.userID, m.lines); err != nil {
		logger.Warnw("cart_snapshot_save_failed", "user_id", m.userID, "error", err)
	}
}
