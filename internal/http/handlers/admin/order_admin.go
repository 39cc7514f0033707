package admin

import (
	"errors"
	"strconv"
	"time"

	handlershared "github.com/tripmall/internal/http/handlers/shared"
	"github.com/tripmall/internal/http/response"
	"github.com/tripmall/internal/service"

	"github.com/gin-gonic/gin"
)

// OrderStatusRequest 订单状态变更请求
type OrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// GetAdminOrders 订单列表 (Admin)
func (h *Handler) GetAdminOrders(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)

	input := service.OrderListInput{
		Page:     page,
		PageSize: pageSize,
		Status:   c.Query("status"),
		OrderNo:  c.Query("order_no"),
	}
	if raw := c.Query("user_id"); raw != "" {
		if userID, err := strconv.ParseUint(raw, 10, 64); err == nil {
			input.UserID = uint(userID)
		}
	}
	if raw := c.Query("created_from"); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			input.CreatedFrom = &ts
		}
	}
	if raw := c.Query("created_to"); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			input.CreatedTo = &ts
		}
	}

	orders, total, err := h.OrderService.ListAdmin(input)
	if err != nil {
		respondError(c, response.CodeInternal, "订单列表获取失败", err)
		return
	}
	response.SuccessWithPage(c, orders, handlershared.BuildPagination(page, pageSize, total))
}

// GetAdminOrder 订单详情 (Admin)
func (h *Handler) GetAdminOrder(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	order, err := h.OrderRepo.GetByID(id)
	if err != nil {
		respondError(c, response.CodeInternal, "订单获取失败", err)
		return
	}
	if order == nil {
		respondError(c, response.CodeNotFound, "订单不存在", nil)
		return
	}
	response.Success(c, order)
}

// UpdateAdminOrderStatus 变更订单状态 (Admin)
func (h *Handler) UpdateAdminOrderStatus(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req OrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	order, err := h.OrderService.UpdateStatus(id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "订单不存在", nil)
		case errors.Is(err, service.ErrInvalidTransition):
			respondError(c, response.CodeBadRequest, "订单状态不允许该变更", nil)
		default:
			respondError(c, response.CodeInternal, "订单状态变更失败", err)
		}
		return
	}
	requestLog(c).Infow("admin_order_status_changed", "order_id", order.ID, "status", order.Status)
	response.Success(c, order)
}
