//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"testing"

	"github.com/tripmall/internal/constants"
	"github.com/tripmall/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := []interface{}{
		&models.OrderItem{},
		&models.Order{},
		&models.Product{},
		&models.User{},
	}
	_ = db.Migrator().DropTable(cleanupModels...)

	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresProductRepositorySearchIsCaseInsensitive(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewProductRepository(db)

	product := models.Product{
		Name:        "Tokyo Round Trip",
		Type:        constants.ProductTypeFlight,
		Destination: "Tokyo",
		Price:       models.NewMoneyFromDecimal(decimal.NewFromInt(2380)),
		Currency:    "CNY",
		Stock:       10,
		IsActive:    true,
	}
	if err := repo.Create(&product); err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	_, total, err := repo.List(ProductListFilter{Page: 1, PageSize: 10, Search: "tokyo"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("lowercase search should match via ILIKE, total=%d", total)
	}
}

func TestPostgresStockReservationIsAtomic(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewProductRepository(db)

	product := models.Product{
		Name:     "Kyoto Ryokan",
		Type:     constants.ProductTypeLodging,
		Price:    models.NewMoneyFromDecimal(decimal.NewFromInt(3200)),
		Currency: "CNY",
		Stock:    1,
		IsActive: true,
	}
	if err := repo.Create(&product); err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	affected, err := repo.ReserveStock(product.ID, 1)
	if err != nil || affected != 1 {
		t.Fatalf("first reserve want affected=1, got %d err=%v", affected, err)
	}
	affected, err = repo.ReserveStock(product.ID, 1)
	if err != nil {
		t.Fatalf("second reserve should not error: %v", err)
	}
	if affected != 0 {
		t.Fatalf("second reserve should be rejected, affected=%d", affected)
	}
}

func TestPostgresOrderLifecycleRoundTrip(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewOrderRepository(db)

	order := models.Order{
		OrderNo:     "T-PG-1",
		UserID:      1,
		Status:      constants.OrderStatusPending,
		Currency:    "CNY",
		TotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(2380)),
	}
	items := []models.OrderItem{{
		ProductID:  1,
		Name:       "Tokyo Round Trip",
		Type:       constants.ProductTypeFlight,
		UnitPrice:  models.NewMoneyFromDecimal(decimal.NewFromInt(2380)),
		Quantity:   1,
		TotalPrice: models.NewMoneyFromDecimal(decimal.NewFromInt(2380)),
	}}
	if err := repo.Create(&order, items); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	got, err := repo.GetByID(order.ID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if got == nil || len(got.Items) != 1 {
		t.Fatalf("order round trip failed: %+v", got)
	}

	affected, err := repo.UpdateStatus(order.ID, constants.OrderStatusPending, constants.OrderStatusConfirmed, nil)
	if err != nil {
		t.Fatalf("update status failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("update affected want 1 got %d", affected)
	}
	got, _ = repo.GetByID(order.ID)
	if got.Status != constants.OrderStatusConfirmed {
		t.Fatalf("status want confirmed got %s", got.Status)
	}
}
