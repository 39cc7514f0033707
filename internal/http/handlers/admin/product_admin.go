package admin

import (
	"errors"
	"strconv"

	handlershared "github.com/tripmall/internal/http/handlers/shared"
	"github.com/tripmall/internal/http/response"
	"github.com/tripmall/internal/service"

	"github.com/gin-gonic/gin"
)

func respondProductError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		respondError(c, response.CodeNotFound, "商品不存在", nil)
	case errors.Is(err, service.ErrInvalidProductName):
		respondError(c, response.CodeBadRequest, "商品名称不能为空", nil)
	case errors.Is(err, service.ErrInvalidProductType):
		respondError(c, response.CodeBadRequest, "无效的商品类型", nil)
	case errors.Is(err, service.ErrInvalidPrice):
		respondError(c, response.CodeBadRequest, "无效的价格", nil)
	case errors.Is(err, service.ErrInvalidStock):
		respondError(c, response.CodeBadRequest, "无效的库存数量", nil)
	default:
		respondError(c, response.CodeInternal, "商品操作失败", err)
	}
}

func parseIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "非法的 ID", nil)
		return 0, false
	}
	return uint(id), true
}

// GetAdminProducts 商品列表 (Admin)
func (h *Handler) GetAdminProducts(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)

	input := service.ProductListInput{
		Page:        page,
		PageSize:    pageSize,
		Type:        c.Query("type"),
		Destination: c.Query("destination"),
		Search:      c.Query("search"),
		SortBy:      c.Query("sort_by"),
	}
	if raw := c.Query("featured"); raw != "" {
		featured := raw == "true" || raw == "1"
		input.Featured = &featured
	}

	products, total, err := h.ProductService.ListAdmin(input)
	if err != nil {
		respondError(c, response.CodeInternal, "商品列表获取失败", err)
		return
	}
	response.SuccessWithPage(c, products, handlershared.BuildPagination(page, pageSize, total))
}

// GetAdminProduct 商品详情 (Admin)
func (h *Handler) GetAdminProduct(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	product, err := h.ProductService.GetAdminByID(id)
	if err != nil {
		respondProductError(c, err)
		return
	}
	response.Success(c, product)
}

// CreateAdminProduct 创建商品 (Admin)
func (h *Handler) CreateAdminProduct(c *gin.Context) {
	var req service.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	product, err := h.ProductService.Create(req)
	if err != nil {
		respondProductError(c, err)
		return
	}
	requestLog(c).Infow("admin_product_created", "product_id", product.ID, "name", product.Name)
	response.Success(c, product)
}

// UpdateAdminProduct 更新商品 (Admin)
func (h *Handler) UpdateAdminProduct(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req service.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	product, err := h.ProductService.Update(id, req)
	if err != nil {
		respondProductError(c, err)
		return
	}
	response.Success(c, product)
}

// DeleteAdminProduct 删除商品 (Admin)
func (h *Handler) DeleteAdminProduct(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.ProductService.Delete(id); err != nil {
		respondProductError(c, err)
		return
	}
	requestLog(c).Infow("admin_product_deleted", "product_id", id)
	response.SuccessWithMsg(c, "商品已删除", nil)
}
