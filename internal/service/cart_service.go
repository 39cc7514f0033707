package service

import (
	"context"
	"sync"

	"github.com/tripmall/internal/cart"
	"github.com/tripmall/internal/logger"
	"github.com/tripmall/internal/repository"
)

// CartView 购物车视图
type CartView struct {
	Lines     []cart.Line `json:"lines"`
	Total     float64     `json:"total"`
	ItemCount int         `json:"item_count"`
}

// CartService 购物车服务
// 为每个已登录用户维护一个独立的购物车状态机，登录后首次访问时创建并
// 恢复快照，登出时销毁。状态机实例之间互不共享，账号切换不会串车。
type CartService struct {
	store       cart.Store
	productRepo repository.ProductRepository

	mu       sync.Mutex
	managers map[uint]*cartEntry
}

// cartEntry 状态机及其一次性恢复闸门
// once 保证并发首访时所有调用方都等到快照恢复完成后才拿到状态机，
// 否则后到的变更会被状态机当作未登录丢弃。
type cartEntry struct {
	once    sync.Once
	manager *cart.Manager
}

// NewCartService 创建购物车服务
func NewCartService(store cart.Store, productRepo repository.ProductRepository) *CartService {
	return &CartService{
		store:       store,
		productRepo: productRepo,
		managers:    make(map[uint]*cartEntry),
	}
}

// managerFor 获取用户的购物车状态机，首次访问时创建并恢复快照
func (s *CartService) managerFor(ctx context.Context, userID uint) *cart.Manager {
	s.mu.Lock()
	entry, ok := s.managers[userID]
	if !ok {
		entry = &cartEntry{manager: cart.NewManager(s.store)}
		s.managers[userID] = entry
	}
	s.mu.Unlock()

	entry.once.Do(func() {
		entry.manager.OnAuthChange(ctx, userID)
	})
	return entry.manager
}

// Get 获取购物车视图
func (s *CartService) Get(ctx context.Context, userID uint) CartView {
	manager := s.managerFor(ctx, userID)
	return CartView{
		Lines:     manager.Lines(),
		Total:     manager.Total(),
		ItemCount: manager.ItemCount(),
	}
}

// AddItem 将商品加入购物车（已存在则数量加一，受库存钳制）
func (s *CartService) AddItem(ctx context.Context, userID uint, productID uint) (CartView, error) {
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return CartView{}, err
	}
	if product == nil || !product.IsActive {
		return CartView{}, ErrProductNotFound
	}

	item := cart.Product{
		ID:          product.ID,
		Name:        product.Name,
		Type:        product.Type,
		Destination: product.Destination,
		ImageURL:    product.ImageURL,
		Price:       product.Price.Float64(),
		Stock:       product.Stock,
	}
	if product.OriginalPrice != nil {
		original := product.OriginalPrice.Float64()
		item.OriginalPrice = &original
	}

	manager := s.managerFor(ctx, userID)
	manager.AddItem(ctx, item)
	return s.Get(ctx, userID), nil
}

// UpdateQuantity 调整商品数量，小于等于 0 等价于删除
func (s *CartService) UpdateQuantity(ctx context.Context, userID uint, productID uint, quantity int) CartView {
	manager := s.managerFor(ctx, userID)
	manager.UpdateQuantity(ctx, productID, quantity)
	return s.Get(ctx, userID)
}

// RemoveItem 删除商品行
func (s *CartService) RemoveItem(ctx context.Context, userID uint, productID uint) CartView {
	manager := s.managerFor(ctx, userID)
	manager.RemoveItem(ctx, productID)
	return s.Get(ctx, userID)
}

// Clear 清空购物车
func (s *CartService) Clear(ctx context.Context, userID uint) CartView {
	manager := s.managerFor(ctx, userID)
	manager.Clear(ctx)
	return s.Get(ctx, userID)
}

// Lines 返回当前行列表（下单时使用）
func (s *CartService) Lines(ctx context.Context, userID uint) []cart.Line {
	return s.managerFor(ctx, userID).Lines()
}

// SignOut 登出清理：删除持久化快照并销毁状态机实例
func (s *CartService) SignOut(ctx context.Context, userID uint) {
	s.mu.Lock()
	entry, ok := s.managers[userID]
	if ok {
		delete(s.managers, userID)
	}
	s.mu.Unlock()

	if ok {
		// 抢占尚未执行的首次恢复，之后迟到的变更按未登录丢弃
		entry.once.Do(func() {})
		if entry.manager.UserID() != 0 {
			entry.manager.OnAuthChange(ctx, 0)
			return
		}
	}
	// 状态机从未完成登录绑定（或本进程从未创建过），直接删除存储快照
	if err := s.store.Delete(ctx, userID); err != nil {
		logger.Warnw("cart_snapshot_delete_failed", "user_id", userID, "error", err)
	}
}
