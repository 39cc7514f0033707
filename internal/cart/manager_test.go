package cart

import (
	"context"
	"errors"
	"math"
	"testing"
)

func testProduct(id uint, price float64, stock int) Product {
	return Product{
		ID:    id,
		Name:  "bali-beach-package",
		Type:  "package",
		Price: price,
		Stock: stock,
	}
}

func TestAddItemRequiresAuthenticatedUser(t *testing.T) {
	m := NewManager(NewMemoryStore())

	m.AddItem(context.Background(), testProduct(1, 100, 5))
	m.RemoveItem(context.Background(), 1)
	m.UpdateQuantity(context.Background(), 1, 3)
	m.Clear(context.Background())

	if got := len(m.Lines()); got != 0 {
		t.Fatalf("expected empty cart without auth, got %d lines", got)
	}
	if m.Total() != 0 {
		t.Fatalf("expected zero total without auth, got %v", m.Total())
	}
	if m.ItemCount() != 0 {
		t.Fatalf("expected zero item count without auth, got %d", m.ItemCount())
	}
}

func TestAddItemClampsToStock(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore())
	m.OnAuthChange(ctx, 1)

	stock := 4
	for i := 0; i < stock+5; i++ {
		m.AddItem(ctx, testProduct(7, 199.99, stock))
	}

	lines := m.Lines()
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0].Quantity != stock {
		t.Fatalf("expected quantity clamped to %d, got %d", stock, lines[0].Quantity)
	}
}

func TestAddItemDeduplicatesByProduct(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore())
	m.OnAuthChange(ctx, 1)

	m.AddItem(ctx, testProduct(3, 80, 10))
	m.AddItem(ctx, testProduct(3, 80, 10))

	lines := m.Lines()
	if len(lines) != 1 {
		t.Fatalf("expected single line after re-add, got %d", len(lines))
	}
	if lines[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", lines[0].Quantity)
	}
}

func TestAddItemClampsExistingLineAfterStockDrop(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore())
	m.OnAuthChange(ctx, 1)

	for i := 0; i < 5; i++ {
		m.AddItem(ctx, testProduct(7, 199.99, 5))
	}

	// 库存从 5 降到 3 后再次加购，已有行必须被压回库存上限
	m.AddItem(ctx, testProduct(7, 199.99, 3))

	lines := m.Lines()
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0].Quantity != 3 {
		t.Fatalf("expected quantity clamped down to 3, got %d", lines[0].Quantity)
	}
	if lines[0].Stock != 3 {
		t.Fatalf("expected stock refreshed to 3, got %d", lines[0].Stock)
	}

	// 库存归零后再次加购，行直接删除
	m.AddItem(ctx, testProduct(7, 199.99, 0))
	if got := len(m.Lines()); got != 0 {
		t.Fatalf("expected line removed when stock hits zero, got %d lines", got)
	}
}

func TestAddItemSkipsOutOfStockProduct(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore())
	m.OnAuthChange(ctx, 1)

	m.AddItem(ctx, testProduct(9, 50, 0))

	if got := len(m.Lines()); got != 0 {
		t.Fatalf("expected no line for zero-stock product, got %d", got)
	}
}

func TestUpdateQuantityZeroOrNegativeRemovesLine(t *testing.T) {
	ctx := context.Background()

	for _, qty := range []int{0, -3} {
		m := NewManager(NewMemoryStore())
		m.OnAuthChange(ctx, 1)
		m.AddItem(ctx, testProduct(5, 120, 8))

		m.UpdateQuantity(ctx, 5, qty)

		if got := len(m.Lines()); got != 0 {
			t.Fatalf("quantity=%d: expected line removed, got %d lines", qty, got)
		}
	}
}

func TestUpdateQuantityClampsToStock(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore())
	m.OnAuthChange(ctx, 1)
	m.AddItem(ctx, testProduct(5, 120, 8))

	m.UpdateQuantity(ctx, 5, 50)

	lines := m.Lines()
	if len(lines) != 1 || lines[0].Quantity != 8 {
		t.Fatalf("expected quantity clamped to 8, got %+v", lines)
	}
}

func TestTotalAndItemCount(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore())
	m.OnAuthChange(ctx, 1)

	m.AddItem(ctx, testProduct(1, 100, 10))
	m.UpdateQuantity(ctx, 1, 2)
	m.AddItem(ctx, testProduct(2, 50, 10))
	m.UpdateQuantity(ctx, 2, 3)

	if got := m.Total(); got != 350 {
		t.Fatalf("expected total 350, got %v", got)
	}
	if got := m.ItemCount(); got != 5 {
		t.Fatalf("expected item count 5, got %d", got)
	}
}

func TestTotalToleratesCorruptedSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Save(ctx, 1, []Line{
		{ProductID: 1, UnitPrice: math.NaN(), Quantity: 2},
		{ProductID: 2, UnitPrice: 50, Quantity: -4},
		{ProductID: 3, UnitPrice: 25, Quantity: 2},
	}); err != nil {
		t.Fatalf("seed snapshot failed: %v", err)
	}

	m := NewManager(store)
	m.OnAuthChange(ctx, 1)

	if got := m.Total(); got != 50 {
		t.Fatalf("expected corrupted factors coerced, total=50, got %v", got)
	}
	if got := m.ItemCount(); got != 2 {
		t.Fatalf("expected negative quantities ignored, count=2, got %d", got)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first := NewManager(store)
	first.OnAuthChange(ctx, 42)
	first.AddItem(ctx, testProduct(1, 100, 10))
	first.AddItem(ctx, testProduct(2, 50, 10))
	first.UpdateQuantity(ctx, 2, 3)

	// 模拟新会话：同一用户、新的状态机实例
	second := NewManager(store)
	second.OnAuthChange(ctx, 42)

	want := map[uint]int{1: 1, 2: 3}
	lines := second.Lines()
	if len(lines) != len(want) {
		t.Fatalf("expected %d restored lines, got %d", len(want), len(lines))
	}
	for _, line := range lines {
		if want[line.ProductID] != line.Quantity {
			t.Fatalf("restored line mismatch: product=%d quantity=%d", line.ProductID, line.Quantity)
		}
	}
}

func TestSignOutDeletesSnapshotAndClearsLines(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	m := NewManager(store)
	m.OnAuthChange(ctx, 7)
	m.AddItem(ctx, testProduct(1, 100, 10))
	if !store.Has(7) {
		t.Fatalf("expected snapshot persisted before sign-out")
	}

	m.OnAuthChange(ctx, 0)

	if store.Has(7) {
		t.Fatalf("expected snapshot deleted on sign-out")
	}
	if got := len(m.Lines()); got != 0 {
		t.Fatalf("expected in-memory lines cleared, got %d", got)
	}
}

func TestNoCrossUserLeakage(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	m := NewManager(store)
	m.OnAuthChange(ctx, 1)
	m.AddItem(ctx, testProduct(1, 100, 10))
	m.AddItem(ctx, testProduct(2, 50, 10))

	// 账号切换：登出用户 1，登入无历史快照的用户 2
	m.OnAuthChange(ctx, 2)

	if got := len(m.Lines()); got != 0 {
		t.Fatalf("expected empty cart for fresh user, got %d lines", got)
	}
	if m.UserID() != 2 {
		t.Fatalf("expected manager bound to user 2, got %d", m.UserID())
	}
}

func TestMutationAfterLoadPreservesRestoredLines(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Save(ctx, 9, []Line{
		{ProductID: 1, Name: "tokyo-flight", Type: "flight", UnitPrice: 400, Quantity: 2, Stock: 5},
	}); err != nil {
		t.Fatalf("seed snapshot failed: %v", err)
	}

	m := NewManager(store)
	m.OnAuthChange(ctx, 9)
	m.AddItem(ctx, testProduct(2, 50, 10))

	// 登录后的第一次加购不能覆盖掉恢复出来的快照
	persisted, found, err := store.Load(ctx, 9)
	if err != nil || !found {
		t.Fatalf("expected persisted snapshot, found=%v err=%v", found, err)
	}
	if len(persisted) != 2 {
		t.Fatalf("expected restored line kept alongside new line, got %d lines", len(persisted))
	}
}

type failingStore struct {
	loadErr   error
	saveErr   error
	deleteErr error
}

func (s *failingStore) Load(context.Context, uint) ([]Line, bool, error) {
	return nil, false, s.loadErr
}

func (s *failingStore) Save(context.Context, uint, []Line) error {
	return s.saveErr
}

func (s *failingStore) Delete(context.Context, uint) error {
	return s.deleteErr
}

func TestStoreFailuresNeverPropagate(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{
		loadErr:   errors.New("load boom"),
		saveErr:   errors.New("save boom"),
		deleteErr: errors.New("delete boom"),
	}

	m := NewManager(store)
	m.OnAuthChange(ctx, 1)
	m.AddItem(ctx, testProduct(1, 100, 10))

	// 内存状态是当前会话的事实，存储报错不回滚
	if got := len(m.Lines()); got != 1 {
		t.Fatalf("expected in-memory line despite save failure, got %d", got)
	}

	m.OnAuthChange(ctx, 0)
	if got := len(m.Lines()); got != 0 {
		t.Fatalf("expected lines cleared despite delete failure, got %d", got)
	}
}
