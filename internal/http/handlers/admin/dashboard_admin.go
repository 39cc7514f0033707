package admin

import (
	"strconv"
	"time"

	"github.com/tripmall/internal/http/response"

	"github.com/gin-gonic/gin"
)

const dashboardDefaultRangeDays = 30
const dashboardMaxRangeDays = 365

// GetAdminDashboard 仪表盘统计（按天数范围聚合）
func (h *Handler) GetAdminDashboard(c *gin.Context) {
	days := dashboardDefaultRangeDays
	if raw := c.Query("days"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			days = parsed
		}
	}
	if days > dashboardMaxRangeDays {
		days = dashboardMaxRangeDays
	}

	endAt := time.Now()
	startAt := endAt.AddDate(0, 0, -days)

	overview, err := h.DashboardRepo.GetOverview(startAt, endAt)
	if err != nil {
		respondError(c, response.CodeInternal, "统计数据获取失败", err)
		return
	}
	trends, err := h.DashboardRepo.GetOrderTrends(startAt, endAt)
	if err != nil {
		respondError(c, response.CodeInternal, "统计数据获取失败", err)
		return
	}
	stock, err := h.DashboardRepo.GetStockStats(0)
	if err != nil {
		respondError(c, response.CodeInternal, "统计数据获取失败", err)
		return
	}
	topProducts, err := h.DashboardRepo.GetTopProducts(startAt, endAt, 5)
	if err != nil {
		respondError(c, response.CodeInternal, "统计数据获取失败", err)
		return
	}
	topDestinations, err := h.DashboardRepo.GetTopDestinations(startAt, endAt, 5)
	if err != nil {
		respondError(c, response.CodeInternal, "统计数据获取失败", err)
		return
	}

	response.Success(c, gin.H{
		"range_days": days,
		"overview": gin.H{
			"orders_total":      overview.OrdersTotal,
			"pending_orders":    overview.PendingOrders,
			"confirmed_orders":  overview.ConfirmedOrders,
			"delivered_orders":  overview.DeliveredOrders,
			"cancelled_orders":  overview.CancelledOrders,
			"revenue_confirmed": overview.RevenueConfirmed,
			"new_users":         overview.NewUsers,
			"active_products":   overview.ActiveProducts,
			"currency":          overview.Currency,
		},
		"order_trends": trends,
		"stock": gin.H{
			"out_of_stock_products": stock.OutOfStockProducts,
			"low_stock_products":    stock.LowStockProducts,
		},
		"top_products":     topProducts,
		"top_destinations": topDestinations,
	})
}

// AdminCaptcha 获取管理端登录验证码
func (h *Handler) AdminCaptcha(c *gin.Context) {
	if h.CaptchaService == nil || !h.CaptchaService.Enabled() {
		response.Success(c, gin.H{"enabled": false})
		return
	}

	challenge, err := h.CaptchaService.GenerateImageChallenge()
	if err != nil {
		respondError(c, response.CodeInternal, "验证码生成失败", err)
		return
	}
	response.Success(c, gin.H{
		"enabled":      true,
		"captcha_id":   challenge.CaptchaID,
		"image_base64": challenge.ImageBase64,
	})
}
