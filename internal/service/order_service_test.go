package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/tripmall/internal/cart"
	"github.com/tripmall/internal/config"
	"github.com/tripmall/internal/constants"
	"github.com/tripmall/internal/models"
	"github.com/tripmall/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupOrderServiceTest(t *testing.T) (*OrderService, *CartService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	cartService := NewCartService(cart.NewMemoryStore(), productRepo)
	cfg := &config.Config{Order: config.OrderConfig{PendingExpireMinutes: 30}}
	orderService := NewOrderService(cfg, orderRepo, productRepo, cartService, nil)
	return orderService, cartService, db
}

func createTestProduct(t *testing.T, db *gorm.DB, name string, price float64, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:     name,
		Type:     constants.ProductTypeFlight,
		Price:    models.NewMoneyFromFloat(price),
		Currency: constants.SiteCurrencyDefault,
		Stock:    stock,
		IsActive: true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func validContact() CheckoutInput {
	return CheckoutInput{
		ContactName:  "张三",
		ContactEmail: "zhangsan@example.com",
		ContactPhone: "13800000000",
	}
}

func TestCreateFromCartEmptyCart(t *testing.T) {
	orderService, _, _ := setupOrderServiceTest(t)
	if _, err := orderService.CreateFromCart(context.Background(), 1, validContact()); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("empty cart want ErrEmptyCart, got %v", err)
	}
}

func TestCreateFromCartRequiresContact(t *testing.T) {
	orderService, cartService, db := setupOrderServiceTest(t)
	product := createTestProduct(t, db, "上海直飞大阪", 1200, 5)
	if _, err := cartService.AddItem(context.Background(), 1, product.ID); err != nil {
		t.Fatalf("add item failed: %v", err)
	}

	if _, err := orderService.CreateFromCart(context.Background(), 1, CheckoutInput{}); !errors.Is(err, ErrInvalidOrderContact) {
		t.Fatalf("missing contact want ErrInvalidOrderContact, got %v", err)
	}
}

func TestCreateFromCartHappyPath(t *testing.T) {
	orderService, cartService, db := setupOrderServiceTest(t)
	ctx := context.Background()
	product := createTestProduct(t, db, "上海直飞大阪", 1200, 5)

	if _, err := cartService.AddItem(ctx, 1, product.ID); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	cartService.UpdateQuantity(ctx, 1, product.ID, 3)

	order, err := orderService.CreateFromCart(ctx, 1, validContact())
	if err != nil {
		t.Fatalf("create from cart failed: %v", err)
	}
	if order.Status != constants.OrderStatusPending {
		t.Fatalf("order status want pending, got %s", order.Status)
	}
	if order.TotalAmount.String() != "3600.00" {
		t.Fatalf("total want 3600.00, got %s", order.TotalAmount.String())
	}
	if len(order.Items) != 1 || order.Items[0].Quantity != 3 {
		t.Fatalf("order items unexpected: %+v", order.Items)
	}
	if order.ExpiresAt == nil || !order.ExpiresAt.After(time.Now()) {
		t.Fatalf("expires_at should be in the future: %v", order.ExpiresAt)
	}
	if order.OrderNo == "" {
		t.Fatalf("order no should be generated")
	}

	var reloaded models.Product
	if err := db.First(&reloaded, product.ID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if reloaded.Stock != 2 {
		t.Fatalf("stock want 2 after reserve, got %d", reloaded.Stock)
	}

	view := cartService.Get(ctx, 1)
	if len(view.Lines) != 0 {
		t.Fatalf("cart should be cleared after checkout, got %d lines", len(view.Lines))
	}
}

func TestCreateFromCartInsufficientStock(t *testing.T) {
	orderService, cartService, db := setupOrderServiceTest(t)
	ctx := context.Background()
	product := createTestProduct(t, db, "札幌温泉酒店", 900, 2)

	if _, err := cartService.AddItem(ctx, 1, product.ID); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	cartService.UpdateQuantity(ctx, 1, product.ID, 2)

	// 他处下单把库存抢走
	if err := db.Model(&models.Product{}).Where("id = ?", product.ID).Update("stock", 1).Error; err != nil {
		t.Fatalf("shrink stock failed: %v", err)
	}

	if _, err := orderService.CreateFromCart(ctx, 1, validContact()); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("want ErrInsufficientStock, got %v", err)
	}

	// 事务回滚后库存不变，购物车保留
	var reloaded models.Product
	if err := db.First(&reloaded, product.ID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if reloaded.Stock != 1 {
		t.Fatalf("stock should stay 1 after rollback, got %d", reloaded.Stock)
	}
	view := cartService.Get(ctx, 1)
	if len(view.Lines) != 1 {
		t.Fatalf("cart should keep lines after failed checkout, got %d", len(view.Lines))
	}
}

func TestUpdateStatusTransitions(t *testing.T) {
	orderService, cartService, db := setupOrderServiceTest(t)
	ctx := context.Background()
	product := createTestProduct(t, db, "京都包车一日", 450, 4)

	if _, err := cartService.AddItem(ctx, 2, product.ID); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	order, err := orderService.CreateFromCart(ctx, 2, validContact())
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if _, err := orderService.UpdateStatus(order.ID, constants.OrderStatusDelivered); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("pending->delivered want ErrInvalidTransition, got %v", err)
	}

	confirmed, err := orderService.UpdateStatus(order.ID, constants.OrderStatusConfirmed)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if confirmed.Status != constants.OrderStatusConfirmed || confirmed.ConfirmedAt == nil {
		t.Fatalf("confirm not applied: %+v", confirmed)
	}

	delivered, err := orderService.UpdateStatus(order.ID, constants.OrderStatusDelivered)
	if err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	if delivered.Status != constants.OrderStatusDelivered || delivered.DeliveredAt == nil {
		t.Fatalf("deliver not applied: %+v", delivered)
	}

	if _, err := orderService.UpdateStatus(order.ID, constants.OrderStatusCancelled); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("delivered->cancelled want ErrInvalidTransition, got %v", err)
	}
}

func TestCancelReleasesStock(t *testing.T) {
	orderService, cartService, db := setupOrderServiceTest(t)
	ctx := context.Background()
	product := createTestProduct(t, db, "普吉岛接送机", 80, 3)

	if _, err := cartService.AddItem(ctx, 3, product.ID); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	cartService.UpdateQuantity(ctx, 3, product.ID, 2)
	order, err := orderService.CreateFromCart(ctx, 3, validContact())
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	cancelled, err := orderService.UpdateStatus(order.ID, constants.OrderStatusCancelled)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != constants.OrderStatusCancelled || cancelled.CanceledAt == nil {
		t.Fatalf("cancel not applied: %+v", cancelled)
	}

	var reloaded models.Product
	if err := db.First(&reloaded, product.ID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if reloaded.Stock != 3 {
		t.Fatalf("stock want 3 after release, got %d", reloaded.Stock)
	}
}

// raceCancelOrderRepo 在首次读取订单后把它抢先取消并归还库存，
// 模拟超时取消任务在管理端"读取-校验-写入"窗口内先落库的并发时序。
type raceCancelOrderRepo struct {
	*repository.GormOrderRepository
	productRepo repository.ProductRepository
	flipped     bool
}

func (r *raceCancelOrderRepo) GetByID(id uint) (*models.Order, error) {
	order, err := r.GormOrderRepository.GetByID(id)
	if err != nil || order == nil || r.flipped {
		return order, err
	}
	r.flipped = true
	if _, err := r.GormOrderRepository.UpdateStatus(id, constants.OrderStatusPending, constants.OrderStatusCancelled, nil); err != nil {
		return nil, err
	}
	for _, item := range order.Items {
		if _, err := r.productRepo.ReleaseStock(item.ProductID, item.Quantity); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func TestCancelRaceReleasesStockOnce(t *testing.T) {
	orderService, cartService, db := setupOrderServiceTest(t)
	ctx := context.Background()
	product := createTestProduct(t, db, "清迈丛林飞跃", 150, 4)

	if _, err := cartService.AddItem(ctx, 6, product.ID); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	cartService.UpdateQuantity(ctx, 6, product.ID, 2)
	order, err := orderService.CreateFromCart(ctx, 6, validContact())
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	productRepo := repository.NewProductRepository(db)
	racingRepo := &raceCancelOrderRepo{
		GormOrderRepository: repository.NewOrderRepository(db),
		productRepo:         productRepo,
	}
	cfg := &config.Config{Order: config.OrderConfig{PendingExpireMinutes: 30}}
	racingService := NewOrderService(cfg, racingRepo, productRepo, cartService, nil)

	// 管理端取消读到的还是 pending，但写入时状态已被抢先改掉
	if _, err := racingService.UpdateStatus(order.ID, constants.OrderStatusCancelled); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("raced cancel want ErrInvalidTransition, got %v", err)
	}

	var reloaded models.Product
	if err := db.First(&reloaded, product.ID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if reloaded.Stock != 4 {
		t.Fatalf("stock must be released exactly once, want 4 got %d", reloaded.Stock)
	}

	current, err := orderService.GetByIDAndUser(order.ID, 6)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if current.Status != constants.OrderStatusCancelled {
		t.Fatalf("order want cancelled, got %s", current.Status)
	}
}

func TestCancelIfExpired(t *testing.T) {
	orderService, cartService, db := setupOrderServiceTest(t)
	ctx := context.Background()
	product := createTestProduct(t, db, "台北夜市美食团", 60, 5)

	if _, err := cartService.AddItem(ctx, 4, product.ID); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	order, err := orderService.CreateFromCart(ctx, 4, validContact())
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	// 未到期时跳过
	if err := orderService.CancelIfExpired(order.ID); err != nil {
		t.Fatalf("not-expired cancel should be noop, got %v", err)
	}
	current, err := orderService.GetByIDAndUser(order.ID, 4)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if current.Status != constants.OrderStatusPending {
		t.Fatalf("order should stay pending, got %s", current.Status)
	}

	// 到期后取消并归还库存
	past := time.Now().Add(-time.Minute)
	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).Update("expires_at", past).Error; err != nil {
		t.Fatalf("backdate expires_at failed: %v", err)
	}
	if err := orderService.CancelIfExpired(order.ID); err != nil {
		t.Fatalf("expired cancel failed: %v", err)
	}
	current, err = orderService.GetByIDAndUser(order.ID, 4)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if current.Status != constants.OrderStatusCancelled {
		t.Fatalf("order want cancelled, got %s", current.Status)
	}

	var reloaded models.Product
	if err := db.First(&reloaded, product.ID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if reloaded.Stock != 5 {
		t.Fatalf("stock want 5 after expired cancel, got %d", reloaded.Stock)
	}
}

func TestListByUserOnlyOwnOrders(t *testing.T) {
	orderService, cartService, db := setupOrderServiceTest(t)
	ctx := context.Background()
	product := createTestProduct(t, db, "胡志明市城市通票", 40, 10)

	for _, userID := range []uint{10, 11} {
		if _, err := cartService.AddItem(ctx, userID, product.ID); err != nil {
			t.Fatalf("add item failed: %v", err)
		}
		if _, err := orderService.CreateFromCart(ctx, userID, validContact()); err != nil {
			t.Fatalf("create order failed: %v", err)
		}
	}

	orders, total, err := orderService.ListByUser(OrderListInput{UserID: 10})
	if err != nil {
		t.Fatalf("list by user failed: %v", err)
	}
	if total != 1 || len(orders) != 1 || orders[0].UserID != 10 {
		t.Fatalf("user list unexpected: total=%d orders=%+v", total, orders)
	}

	_, total, err = orderService.ListAdmin(OrderListInput{})
	if err != nil {
		t.Fatalf("list admin failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("admin list want 2 orders, got %d", total)
	}
}
