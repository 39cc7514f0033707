package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/tripmall/internal/constants"
	"github.com/tripmall/internal/models"
	"github.com/tripmall/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupProductServiceTest(t *testing.T) (*ProductService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return NewProductService(repository.NewProductRepository(db)), db
}

func TestCreateProductValidation(t *testing.T) {
	svc, _ := setupProductServiceTest(t)

	_, err := svc.Create(ProductInput{Name: "", Type: constants.ProductTypeFlight, Price: 100})
	if !errors.Is(err, ErrInvalidProductName) {
		t.Fatalf("empty name want ErrInvalidProductName, got %v", err)
	}

	_, err = svc.Create(ProductInput{Name: "东京直飞往返", Type: "cruise", Price: 100})
	if !errors.Is(err, ErrInvalidProductType) {
		t.Fatalf("unknown type want ErrInvalidProductType, got %v", err)
	}

	_, err = svc.Create(ProductInput{Name: "东京直飞往返", Type: constants.ProductTypeFlight, Price: -1})
	if !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("negative price want ErrInvalidPrice, got %v", err)
	}

	_, err = svc.Create(ProductInput{Name: "东京直飞往返", Type: constants.ProductTypeFlight, Price: 100, Stock: -2})
	if !errors.Is(err, ErrInvalidStock) {
		t.Fatalf("negative stock want ErrInvalidStock, got %v", err)
	}
}

func TestCreateProductNormalizesInput(t *testing.T) {
	svc, _ := setupProductServiceTest(t)

	product, err := svc.Create(ProductInput{
		Name:     "  巴厘岛五日跟团  ",
		Type:     " Package ",
		Price:    1299.999,
		Currency: "usd",
		Stock:    10,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if product.Name != "巴厘岛五日跟团" {
		t.Fatalf("name not trimmed: %q", product.Name)
	}
	if product.Type != constants.ProductTypePackage {
		t.Fatalf("type not normalized: %q", product.Type)
	}
	if product.Currency != "USD" {
		t.Fatalf("currency not normalized: %q", product.Currency)
	}
	if product.Price.String() != "1300.00" {
		t.Fatalf("price not rounded: %s", product.Price.String())
	}
	if !product.IsActive {
		t.Fatalf("new product should default to active")
	}
}

func TestListPublicSkipsInactive(t *testing.T) {
	svc, _ := setupProductServiceTest(t)

	if _, err := svc.Create(ProductInput{Name: "冲绳租车三日", Type: constants.ProductTypeCar, Price: 200, Stock: 3}); err != nil {
		t.Fatalf("create active failed: %v", err)
	}
	inactive := false
	if _, err := svc.Create(ProductInput{Name: "已下架酒店", Type: constants.ProductTypeLodging, Price: 300, Stock: 3, IsActive: &inactive}); err != nil {
		t.Fatalf("create inactive failed: %v", err)
	}

	items, total, err := svc.ListPublic(ProductListInput{})
	if err != nil {
		t.Fatalf("list public failed: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("want 1 active product, got total=%d len=%d", total, len(items))
	}
	if items[0].Name != "冲绳租车三日" {
		t.Fatalf("unexpected product: %q", items[0].Name)
	}

	items, total, err = svc.ListAdmin(ProductListInput{})
	if err != nil {
		t.Fatalf("list admin failed: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("admin list want 2 products, got total=%d len=%d", total, len(items))
	}
}

func TestGetPublicByIDHidesInactive(t *testing.T) {
	svc, _ := setupProductServiceTest(t)

	inactive := false
	product, err := svc.Create(ProductInput{Name: "停售航线", Type: constants.ProductTypeFlight, Price: 500, Stock: 2, IsActive: &inactive})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := svc.GetPublicByID(product.ID); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("inactive product want ErrProductNotFound, got %v", err)
	}

	got, err := svc.GetAdminByID(product.ID)
	if err != nil {
		t.Fatalf("admin get failed: %v", err)
	}
	if got.ID != product.ID {
		t.Fatalf("admin get returned wrong product: %d", got.ID)
	}
}

func TestUpdateProductReplacesFields(t *testing.T) {
	svc, _ := setupProductServiceTest(t)

	product, err := svc.Create(ProductInput{Name: "首尔自由行", Type: constants.ProductTypePackage, Price: 800, Stock: 5})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	original := 999.0
	updated, err := svc.Update(product.ID, ProductInput{
		Name:          "首尔自由行（升级版）",
		Type:          constants.ProductTypePackage,
		Price:         899,
		OriginalPrice: &original,
		Stock:         8,
		Destination:   "Seoul",
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Stock != 8 || updated.Destination != "Seoul" {
		t.Fatalf("update not applied: %+v", updated)
	}
	if updated.OriginalPrice == nil || updated.OriginalPrice.String() != "999.00" {
		t.Fatalf("original price not set: %+v", updated.OriginalPrice)
	}

	if _, err := svc.Update(product.ID+100, ProductInput{Name: "x", Type: constants.ProductTypeFlight, Price: 1}); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("missing product want ErrProductNotFound, got %v", err)
	}
}

func TestDeleteProductSoftDeletes(t *testing.T) {
	svc, _ := setupProductServiceTest(t)

	product, err := svc.Create(ProductInput{Name: "清迈民宿两晚", Type: constants.ProductTypeLodging, Price: 150, Stock: 4})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := svc.Delete(product.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := svc.GetAdminByID(product.ID); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("deleted product want ErrProductNotFound, got %v", err)
	}
	if err := svc.Delete(product.ID); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("double delete want ErrProductNotFound, got %v", err)
	}
}
