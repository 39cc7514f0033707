package repository

import (
	"fmt"
	"strings"
	"testing"

	"github.com/tripmall/internal/constants"
	"github.com/tripmall/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRepositoryTestDB(t *testing.T, migrations ...interface{}) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(migrations...); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return db
}

func newTestProduct(name, productType, destination string, price float64, stock int, active bool) models.Product {
	return models.Product{
		Name:        name,
		Type:        productType,
		Destination: destination,
		Price:       models.NewMoneyFromDecimal(decimal.NewFromFloat(price)),
		Currency:    "CNY",
		Stock:       stock,
		IsActive:    active,
	}
}

func TestProductRepositoryListFilters(t *testing.T) {
	db := setupRepositoryTestDB(t, &models.Product{})
	repo := NewProductRepository(db)

	seed := []models.Product{
		newTestProduct("东京往返机票", constants.ProductTypeFlight, "东京", 2380, 50, true),
		newTestProduct("京都温泉旅馆", constants.ProductTypeLodging, "京都", 3200, 10, true),
		newTestProduct("冲绳租车", constants.ProductTypeCar, "冲绳", 280, 30, true),
		newTestProduct("已下架套餐", constants.ProductTypePackage, "马累", 16000, 0, false),
	}
	for i := range seed {
		if err := repo.Create(&seed[i]); err != nil {
			t.Fatalf("create product failed: %v", err)
		}
	}

	products, total, err := repo.List(ProductListFilter{Page: 1, PageSize: 10, OnlyActive: true})
	if err != nil {
		t.Fatalf("list active failed: %v", err)
	}
	if total != 3 || len(products) != 3 {
		t.Fatalf("active list want 3 got total=%d len=%d", total, len(products))
	}

	products, total, err = repo.List(ProductListFilter{Page: 1, PageSize: 10, Type: constants.ProductTypeLodging})
	if err != nil {
		t.Fatalf("list by type failed: %v", err)
	}
	if total != 1 || products[0].Name != "京都温泉旅馆" {
		t.Fatalf("type filter unexpected result: total=%d", total)
	}

	products, total, err = repo.List(ProductListFilter{Page: 1, PageSize: 10, Search: "机票"})
	if err != nil {
		t.Fatalf("list by search failed: %v", err)
	}
	if total != 1 || products[0].Destination != "东京" {
		t.Fatalf("search filter unexpected result: total=%d", total)
	}

	products, _, err = repo.List(ProductListFilter{Page: 1, PageSize: 10, OnlyActive: true, SortBy: "price_asc"})
	if err != nil {
		t.Fatalf("list sorted failed: %v", err)
	}
	if products[0].Name != "冲绳租车" {
		t.Fatalf("price_asc should put cheapest first, got %s", products[0].Name)
	}
}

func TestProductRepositoryReserveAndReleaseStock(t *testing.T) {
	db := setupRepositoryTestDB(t, &models.Product{})
	repo := NewProductRepository(db)

	product := newTestProduct("巴厘岛别墅", constants.ProductTypeLodging, "巴厘岛", 4500, 3, true)
	if err := repo.Create(&product); err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	affected, err := repo.ReserveStock(product.ID, 2)
	if err != nil {
		t.Fatalf("reserve stock failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("reserve affected want 1 got %d", affected)
	}

	affected, err = repo.ReserveStock(product.ID, 5)
	if err != nil {
		t.Fatalf("over-reserve should not error: %v", err)
	}
	if affected != 0 {
		t.Fatalf("over-reserve affected want 0 got %d", affected)
	}

	got, err := repo.GetByID(product.ID)
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	if got.Stock != 1 {
		t.Fatalf("stock after reserve want 1 got %d", got.Stock)
	}

	if _, err := repo.ReleaseStock(product.ID, 2); err != nil {
		t.Fatalf("release stock failed: %v", err)
	}
	got, _ = repo.GetByID(product.ID)
	if got.Stock != 3 {
		t.Fatalf("stock after release want 3 got %d", got.Stock)
	}

	if _, err := repo.ReserveStock(0, 1); err == nil {
		t.Fatalf("reserve with zero product id should error")
	}
	if _, err := repo.ReleaseStock(product.ID, 0); err == nil {
		t.Fatalf("release with zero quantity should error")
	}
}

func TestProductRepositorySoftDelete(t *testing.T) {
	db := setupRepositoryTestDB(t, &models.Product{})
	repo := NewProductRepository(db)

	product := newTestProduct("少女峰七日游", constants.ProductTypePackage, "因特拉肯", 18800, 10, true)
	if err := repo.Create(&product); err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	if err := repo.Delete(product.ID); err != nil {
		t.Fatalf("delete product failed: %v", err)
	}

	got, err := repo.GetByID(product.ID)
	if err != nil {
		t.Fatalf("get after delete failed: %v", err)
	}
	if got != nil {
		t.Fatalf("soft-deleted product should not be found")
	}

	var count int64
	if err := db.Unscoped().Model(&models.Product{}).Where("id = ?", product.ID).Count(&count).Error; err != nil {
		t.Fatalf("unscoped count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("soft-deleted row should remain, count=%d", count)
	}
}
