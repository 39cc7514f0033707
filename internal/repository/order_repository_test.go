package repository

import (
	"testing"
	"time"

	"github.com/tripmall/internal/constants"
	"github.com/tripmall/internal/models"

	"github.com/shopspring/decimal"
)

func newTestOrder(userID uint, orderNo, status string, total float64) models.Order {
	return models.Order{
		OrderNo:     orderNo,
		UserID:      userID,
		Status:      status,
		Currency:    "CNY",
		TotalAmount: models.NewMoneyFromDecimal(decimal.NewFromFloat(total)),
		ContactName: "测试联系人",
	}
}

func TestOrderRepositoryCreateAndGet(t *testing.T) {
	db := setupRepositoryTestDB(t, &models.Order{}, &models.OrderItem{})
	repo := NewOrderRepository(db)

	order := newTestOrder(7, "T20260101120000AAAA1111", constants.OrderStatusPending, 4760)
	items := []models.OrderItem{
		{
			ProductID:   3,
			Name:        "东京往返机票",
			Type:        constants.ProductTypeFlight,
			Destination: "东京",
			UnitPrice:   models.NewMoneyFromDecimal(decimal.NewFromInt(2380)),
			Quantity:    2,
			TotalPrice:  models.NewMoneyFromDecimal(decimal.NewFromInt(4760)),
		},
	}
	if err := repo.Create(&order, items); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	got, err := repo.GetByID(order.ID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if got == nil || got.OrderNo != order.OrderNo {
		t.Fatalf("order not found after create")
	}
	if len(got.Items) != 1 || got.Items[0].OrderID != order.ID {
		t.Fatalf("order items should be preloaded and linked, got %d items", len(got.Items))
	}

	got, err = repo.GetByIDAndUser(order.ID, 999)
	if err != nil {
		t.Fatalf("get by wrong user failed: %v", err)
	}
	if got != nil {
		t.Fatalf("order should not be visible to another user")
	}
}

func TestOrderRepositoryListExpiredPending(t *testing.T) {
	db := setupRepositoryTestDB(t, &models.Order{}, &models.OrderItem{})
	repo := NewOrderRepository(db)

	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	expired := newTestOrder(1, "T-EXPIRED", constants.OrderStatusPending, 100)
	expired.ExpiresAt = &past
	fresh := newTestOrder(1, "T-FRESH", constants.OrderStatusPending, 100)
	fresh.ExpiresAt = &future
	confirmed := newTestOrder(1, "T-CONFIRMED", constants.OrderStatusConfirmed, 100)
	confirmed.ExpiresAt = &past

	for _, o := range []*models.Order{&expired, &fresh, &confirmed} {
		if err := repo.Create(o, nil); err != nil {
			t.Fatalf("create order failed: %v", err)
		}
	}

	orders, err := repo.ListExpiredPending(now, 10)
	if err != nil {
		t.Fatalf("list expired pending failed: %v", err)
	}
	if len(orders) != 1 || orders[0].OrderNo != "T-EXPIRED" {
		t.Fatalf("only the expired pending order should match, got %d", len(orders))
	}
}

func TestOrderRepositoryListAdminFilters(t *testing.T) {
	db := setupRepositoryTestDB(t, &models.Order{}, &models.OrderItem{})
	repo := NewOrderRepository(db)

	for _, o := range []models.Order{
		newTestOrder(1, "T-A1", constants.OrderStatusPending, 100),
		newTestOrder(1, "T-A2", constants.OrderStatusCancelled, 200),
		newTestOrder(2, "T-B1", constants.OrderStatusPending, 300),
	} {
		order := o
		if err := repo.Create(&order, nil); err != nil {
			t.Fatalf("create order failed: %v", err)
		}
	}

	_, total, err := repo.ListAdmin(OrderListFilter{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list admin failed: %v", err)
	}
	if total != 3 {
		t.Fatalf("admin list total want 3 got %d", total)
	}

	orders, total, err := repo.ListAdmin(OrderListFilter{Page: 1, PageSize: 10, UserID: 1, Status: constants.OrderStatusPending})
	if err != nil {
		t.Fatalf("list admin filtered failed: %v", err)
	}
	if total != 1 || orders[0].OrderNo != "T-A1" {
		t.Fatalf("filtered admin list unexpected: total=%d", total)
	}

	orders, total, err = repo.ListByUser(OrderListFilter{Page: 1, PageSize: 10, UserID: 2})
	if err != nil {
		t.Fatalf("list by user failed: %v", err)
	}
	if total != 1 || orders[0].OrderNo != "T-B1" {
		t.Fatalf("user list unexpected: total=%d", total)
	}
}

func TestOrderRepositoryUpdateStatus(t *testing.T) {
	db := setupRepositoryTestDB(t, &models.Order{}, &models.OrderItem{})
	repo := NewOrderRepository(db)

	order := newTestOrder(5, "T-STATUS", constants.OrderStatusPending, 100)
	if err := repo.Create(&order, nil); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	now := time.Now()
	affected, err := repo.UpdateStatus(order.ID, constants.OrderStatusPending, constants.OrderStatusConfirmed, map[string]interface{}{
		"confirmed_at": &now,
	})
	if err != nil {
		t.Fatalf("update status failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("update affected want 1 got %d", affected)
	}

	got, _ := repo.GetByID(order.ID)
	if got.Status != constants.OrderStatusConfirmed {
		t.Fatalf("status want confirmed got %s", got.Status)
	}
	if got.ConfirmedAt == nil {
		t.Fatalf("confirmed_at should be set")
	}
}

func TestOrderRepositoryUpdateStatusGuardsObservedStatus(t *testing.T) {
	db := setupRepositoryTestDB(t, &models.Order{}, &models.OrderItem{})
	repo := NewOrderRepository(db)

	order := newTestOrder(5, "T-GUARD", constants.OrderStatusPending, 100)
	if err := repo.Create(&order, nil); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	affected, err := repo.UpdateStatus(order.ID, constants.OrderStatusPending, constants.OrderStatusCancelled, nil)
	if err != nil || affected != 1 {
		t.Fatalf("first cancel want affected=1, got %d err=%v", affected, err)
	}

	// 第二个取消方看到的还是 pending，条件更新必须落空
	affected, err = repo.UpdateStatus(order.ID, constants.OrderStatusPending, constants.OrderStatusCancelled, nil)
	if err != nil {
		t.Fatalf("stale cancel should not error: %v", err)
	}
	if affected != 0 {
		t.Fatalf("stale cancel affected want 0 got %d", affected)
	}

	got, _ := repo.GetByID(order.ID)
	if got.Status != constants.OrderStatusCancelled {
		t.Fatalf("status want cancelled got %s", got.Status)
	}
}
