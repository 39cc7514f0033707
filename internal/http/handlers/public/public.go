package public

import (
	"strconv"

	handlershared "github.com/tripmall/internal/http/handlers/shared"
	"github.com/tripmall/internal/http/response"
	"github.com/tripmall/internal/service"

	"github.com/gin-gonic/gin"
)

// ListProducts 前台商品列表
func (h *Handler) ListProducts(c *gin.Context) {
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

	products, total, err := h.ProductService.ListPublic(input)
	if err != nil {
		respondError(c, response.CodeInternal, "商品列表获取失败", err)
		return
	}

	response.SuccessWithPage(c, gin.H{"items": products}, handlershared.BuildPagination(page, pageSize, total))
}

// GetProduct 前台商品详情
func (h *Handler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "非法的商品 ID", nil)
		return
	}

	product, err := h.ProductService.GetPublicByID(uint(id))
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, product)
}

// Health 健康检查
func (h *Handler) Health(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}
