package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/tripmall/internal/cart"
	"github.com/tripmall/internal/constants"
	"github.com/tripmall/internal/models"
	"github.com/tripmall/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupCartServiceTest(t *testing.T) (*CartService, *cart.MemoryStore, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	store := cart.NewMemoryStore()
	return NewCartService(store, repository.NewProductRepository(db)), store, db
}

func TestCartAddItemUnknownProduct(t *testing.T) {
	svc, _, _ := setupCartServiceTest(t)
	if _, err := svc.AddItem(context.Background(), 1, 999); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("unknown product want ErrProductNotFound, got %v", err)
	}
}

func TestCartAddItemInactiveProduct(t *testing.T) {
	svc, _, db := setupCartServiceTest(t)
	product := &models.Product{
		Name:     "已下架线路",
		Type:     constants.ProductTypePackage,
		Price:    models.NewMoneyFromFloat(100),
		Stock:    5,
		IsActive: false,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	if _, err := svc.AddItem(context.Background(), 1, product.ID); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("inactive product want ErrProductNotFound, got %v", err)
	}
}

func TestCartViewTotals(t *testing.T) {
	svc, _, db := setupCartServiceTest(t)
	ctx := context.Background()
	product := &models.Product{
		Name:     "大阪环球影城门票",
		Type:     constants.ProductTypePackage,
		Price:    models.NewMoneyFromFloat(75.5),
		Stock:    10,
		IsActive: true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	view, err := svc.AddItem(ctx, 7, product.ID)
	if err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	if view.ItemCount != 1 || view.Total != 75.5 {
		t.Fatalf("view after add unexpected: %+v", view)
	}

	view = svc.UpdateQuantity(ctx, 7, product.ID, 4)
	if view.ItemCount != 4 || view.Total != 302 {
		t.Fatalf("view after update unexpected: %+v", view)
	}

	view = svc.RemoveItem(ctx, 7, product.ID)
	if view.ItemCount != 0 || len(view.Lines) != 0 {
		t.Fatalf("view after remove unexpected: %+v", view)
	}
}

func TestCartSignOutDeletesSnapshot(t *testing.T) {
	svc, store, db := setupCartServiceTest(t)
	ctx := context.Background()
	product := &models.Product{
		Name:     "曼谷接送机",
		Type:     constants.ProductTypeCar,
		Price:    models.NewMoneyFromFloat(30),
		Stock:    3,
		IsActive: true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	if _, err := svc.AddItem(ctx, 8, product.ID); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	if !store.Has(8) {
		t.Fatalf("snapshot should exist after add")
	}

	svc.SignOut(ctx, 8)
	if store.Has(8) {
		t.Fatalf("snapshot should be deleted on sign out")
	}
	view := svc.Get(ctx, 8)
	if len(view.Lines) != 0 {
		t.Fatalf("cart should be empty after sign out, got %+v", view.Lines)
	}
}

func TestCartSignOutWithoutManagerDeletesSnapshot(t *testing.T) {
	svc, store, _ := setupCartServiceTest(t)
	ctx := context.Background()

	// 其他进程留下的快照：本进程从未创建过该用户的状态机
	if err := store.Save(ctx, 9, []cart.Line{{ProductID: 1, Name: "遗留行", UnitPrice: 10, Quantity: 1, Stock: 5}}); err != nil {
		t.Fatalf("seed snapshot failed: %v", err)
	}

	svc.SignOut(ctx, 9)
	if store.Has(9) {
		t.Fatalf("snapshot should be deleted even without in-process manager")
	}
}

func TestCartConcurrentFirstAccessLosesNoMutations(t *testing.T) {
	svc, _, db := setupCartServiceTest(t)
	ctx := context.Background()
	product := &models.Product{
		Name:     "冲绳潜水体验",
		Type:     constants.ProductTypePackage,
		Price:    models.NewMoneyFromFloat(120),
		Stock:    100,
		IsActive: true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	// 同一用户的首批并发请求都必须等快照恢复完成后才执行变更
	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.AddItem(ctx, 21, product.ID); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent add failed: %v", err)
	}

	view := svc.Get(ctx, 21)
	if view.ItemCount != workers {
		t.Fatalf("all concurrent adds should land, want %d got %d", workers, view.ItemCount)
	}
}

func TestCartIsolatedPerUser(t *testing.T) {
	svc, _, db := setupCartServiceTest(t)
	ctx := context.Background()
	product := &models.Product{
		Name:     "新加坡环球影城",
		Type:     constants.ProductTypePackage,
		Price:    models.NewMoneyFromFloat(88),
		Stock:    9,
		IsActive: true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	if _, err := svc.AddItem(ctx, 100, product.ID); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	other := svc.Get(ctx, 101)
	if len(other.Lines) != 0 {
		t.Fatalf("user 101 should not see user 100 cart: %+v", other.Lines)
	}
}
