package repository

import (
	"fmt"
	"time"

	"github.com/tripmall/internal/constants"
	"github.com/tripmall/internal/models"

	"gorm.io/gorm"
)

// DashboardRepository 仪表盘聚合查询接口
// 说明：仅聚合统计数据，不承载业务规则。
type DashboardRepository interface {
	GetOverview(startAt, endAt time.Time) (DashboardOverviewRow, error)
	GetOrderTrends(startAt, endAt time.Time) ([]DashboardOrderTrendRow, error)
	GetStockStats(lowStockThreshold int) (DashboardStockStatsRow, error)
	GetTopProducts(startAt, endAt time.Time, limit int) ([]DashboardProductRankingRow, error)
	GetTopDestinations(startAt, endAt time.Time, limit int) ([]DashboardDestinationRankingRow, error)
}

// DashboardOverviewRow 仪表盘总览原始统计结果
type DashboardOverviewRow struct {
	OrdersTotal      int64
	PendingOrders    int64
	ConfirmedOrders  int64
	DeliveredOrders  int64
	CancelledOrders  int64
	RevenueConfirmed float64
	NewUsers         int64
	ActiveProducts   int64
	Currency         string
}

// DashboardOrderTrendRow 订单趋势统计
type DashboardOrderTrendRow struct {
	Day             string
	OrdersTotal     int64
	OrdersConfirmed int64
}

// DashboardStockStatsRow 库存统计
type DashboardStockStatsRow struct {
	OutOfStockProducts int64
	LowStockProducts   int64
}

// DashboardProductRankingRow 商品排行原始行
type DashboardProductRankingRow struct {
	ProductID uint
	Name      string
	Orders    int64
	Quantity  int64
	Amount    float64
}

// DashboardDestinationRankingRow 目的地排行原始行
type DashboardDestinationRankingRow struct {
	Destination string
	Orders      int64
	Amount      float64
}

// GormDashboardRepository GORM 仪表盘聚合实现
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository 创建仪表盘仓库
func NewDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

func revenueOrderStatuses() []string {
	return []string{
		constants.OrderStatusConfirmed,
		constants.OrderStatusDelivered,
	}
}

// GetOverview 获取总览统计
func (r *GormDashboardRepository) GetOverview(startAt, endAt time.Time) (DashboardOverviewRow, error) {
	result := DashboardOverviewRow{}

	orderBase := func() *gorm.DB {
		return r.db.Model(&models.Order{}).
			Where("created_at >= ? AND created_at < ?", startAt, endAt)
	}

	if err := orderBase().Count(&result.OrdersTotal).Error; err != nil {
		return result, err
	}
	if err := orderBase().Where("status = ?", constants.OrderStatusPending).Count(&result.PendingOrders).Error; err != nil {
		return result, err
	}
	if err := orderBase().Where("status = ?", constants.OrderStatusConfirmed).Count(&result.ConfirmedOrders).Error; err != nil {
		return result, err
	}
	if err := orderBase().Where("status = ?", constants.OrderStatusDelivered).Count(&result.DeliveredOrders).Error; err != nil {
		return result, err
	}
	if err := orderBase().Where("status = ?", constants.OrderStatusCancelled).Count(&result.CancelledOrders).Error; err != nil {
		return result, err
	}

	if err := orderBase().
		Where("status IN ?", revenueOrderStatuses()).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&result.RevenueConfirmed).Error; err != nil {
		return result, err
	}

	if err := r.db.Model(&models.User{}).
		Where("created_at >= ? AND created_at < ?", startAt, endAt).
		Count(&result.NewUsers).Error; err != nil {
		return result, err
	}

	if err := r.db.Model(&models.Product{}).
		Where("is_active = ?", true).
		Count(&result.ActiveProducts).Error; err != nil {
		return result, err
	}

	_ = r.db.Model(&models.Order{}).
		Where("created_at >= ? AND created_at < ? AND currency <> ''", startAt, endAt).
		Order("id DESC").
		Limit(1).
		Pluck("currency", &result.Currency).Error

	return result, nil
}

// GetOrderTrends 获取按日订单趋势
func (r *GormDashboardRepository) GetOrderTrends(startAt, endAt time.Time) ([]DashboardOrderTrendRow, error) {
	type totalRow struct {
		Day   string
		Total int64
	}
	type confirmedRow struct {
		Day       string
		Confirmed int64
	}

	var totals []totalRow
	dayExpr := "CAST(date(created_at) AS TEXT)"
	if err := r.db.Model(&models.Order{}).
		Select(fmt.Sprintf("%s as day, COUNT(*) as total", dayExpr)).
		Where("created_at >= ? AND created_at < ?", startAt, endAt).
		Group(dayExpr).
		Order("day asc").
		Scan(&totals).Error; err != nil {
		return nil, err
	}

	var confirmed []confirmedRow
	if err := r.db.Model(&models.Order{}).
		Select(fmt.Sprintf("%s as day, COUNT(*) as confirmed", dayExpr)).
		Where("created_at >= ? AND created_at < ? AND status IN ?", startAt, endAt, revenueOrderStatuses()).
		Group(dayExpr).
		Order("day asc").
		Scan(&confirmed).Error; err != nil {
		return nil, err
	}

	confirmedMap := make(map[string]int64, len(confirmed))
	for _, item := range confirmed {
		confirmedMap[item.Day] = item.Confirmed
	}

	result := make([]DashboardOrderTrendRow, 0, len(totals))
	for _, item := range totals {
		result = append(result, DashboardOrderTrendRow{
			Day:             item.Day,
			OrdersTotal:     item.Total,
			OrdersConfirmed: confirmedMap[item.Day],
		})
	}
	return result, nil
}

// GetStockStats 获取上架商品的库存告警统计
func (r *GormDashboardRepository) GetStockStats(lowStockThreshold int) (DashboardStockStatsRow, error) {
	result := DashboardStockStatsRow{}
	if lowStockThreshold <= 0 {
		lowStockThreshold = 5
	}

	if err := r.db.Model(&models.Product{}).
		Where("is_active = ? AND stock <= 0", true).
		Count(&result.OutOfStockProducts).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.Product{}).
		Where("is_active = ? AND stock > 0 AND stock <= ?", true, lowStockThreshold).
		Count(&result.LowStockProducts).Error; err != nil {
		return result, err
	}
	return result, nil
}

// GetTopProducts 获取商品销量排行榜
func (r *GormDashboardRepository) GetTopProducts(startAt, endAt time.Time, limit int) ([]DashboardProductRankingRow, error) {
	if limit <= 0 {
		limit = 5
	}
	rows := make([]DashboardProductRankingRow, 0)
	if err := r.db.Model(&models.OrderItem{}).
		Select(`
			order_items.product_id as product_id,
			order_items.name as name,
			COUNT(DISTINCT order_items.order_id) as orders,
			COALESCE(SUM(order_items.quantity), 0) as quantity,
			COALESCE(SUM(order_items.total_price), 0) as amount
		`).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.created_at >= ? AND orders.created_at < ? AND orders.status IN ?", startAt, endAt, revenueOrderStatuses()).
		Group("order_items.product_id, order_items.name").
		Order("amount DESC, quantity DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetTopDestinations 获取热门目的地排行榜
func (r *GormDashboardRepository) GetTopDestinations(startAt, endAt time.Time, limit int) ([]DashboardDestinationRankingRow, error) {
	if limit <= 0 {
		limit = 5
	}
	rows := make([]DashboardDestinationRankingRow, 0)
	if err := r.db.Model(&models.OrderItem{}).
		Select(`
			order_items.destination as destination,
			COUNT(DISTINCT order_items.order_id) as orders,
			COALESCE(SUM(order_items.total_price), 0) as amount
		`).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.created_at >= ? AND orders.created_at < ? AND orders.status IN ? AND order_items.destination <> ''", startAt, endAt, revenueOrderStatuses()).
		Group("order_items.destination").
		Order("amount DESC, orders DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
