package admin

import (
	"errors"
	"strconv"
	"time"

	handlershared "github.com/tripmall/internal/http/handlers/shared"
	"github.com/tripmall/internal/http/response"
	"github.com/tripmall/internal/repository"
	"github.com/tripmall/internal/service"

	"github.com/gin-gonic/gin"
)

// UserStatusRequest 用户状态变更请求
type UserStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// GetAdminUsers 用户列表 (Admin)
func (h *Handler) GetAdminUsers(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)

	filter := repository.UserListFilter{
		Page:     page,
		PageSize: pageSize,
		Keyword:  c.Query("keyword"),
		Status:   c.Query("status"),
	}
	if raw := c.Query("created_from"); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.CreatedFrom = &ts
		}
	}
	if raw := c.Query("created_to"); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.CreatedTo = &ts
		}
	}

	users, total, err := h.UserAuthService.ListUsers(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "用户列表获取失败", err)
		return
	}
	response.SuccessWithPage(c, users, handlershared.BuildPagination(page, pageSize, total))
}

// GetAdminUser 用户详情 (Admin)
func (h *Handler) GetAdminUser(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	user, err := h.UserAuthService.GetUserByID(id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "用户不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "用户信息获取失败", err)
		return
	}
	response.Success(c, user)
}

// UpdateAdminUserStatus 启用/禁用用户 (Admin)
func (h *Handler) UpdateAdminUserStatus(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req UserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	user, err := h.UserAuthService.SetUserStatus(id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidUserStatus):
			respondError(c, response.CodeBadRequest, "无效的用户状态", nil)
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "用户不存在", nil)
		default:
			respondError(c, response.CodeInternal, "用户状态变更失败", err)
		}
		return
	}
	requestLog(c).Infow("admin_user_status_changed", "user_id", user.ID, "status", user.Status)
	response.Success(c, user)
}

// GetAdminUserLoginLogs 登录日志列表 (Admin)
func (h *Handler) GetAdminUserLoginLogs(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)

	filter := repository.UserLoginLogListFilter{
		Page:     page,
		PageSize: pageSize,
		Email:    c.Query("email"),
		Status:   c.Query("status"),
	}
	if raw := c.Query("user_id"); raw != "" {
		if userID, err := strconv.ParseUint(raw, 10, 64); err == nil {
			filter.UserID = uint(userID)
		}
	}
	if raw := c.Query("created_from"); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.CreatedFrom = &ts
		}
	}
	if raw := c.Query("created_to"); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.CreatedTo = &ts
		}
	}

	logs, total, err := h.UserAuthService.ListLoginLogs(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "登录日志获取失败", err)
		return
	}
	response.SuccessWithPage(c, logs, handlershared.BuildPagination(page, pageSize, total))
}
