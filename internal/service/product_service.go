package service

import (
	"strings"

	"github.com/tripmall/internal/constants"
	"github.com/tripmall/internal/models"
	"github.com/tripmall/internal/repository"

	"github.com/shopspring/decimal"
)

// ProductService 商品服务
type ProductService struct {
	productRepo repository.ProductRepository
}

// NewProductService 创建商品服务
func NewProductService(productRepo repository.ProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

// ProductListInput 商品列表查询参数
type ProductListInput struct {
	Page        int
	PageSize    int
	Type        string
	Destination string
	Search      string
	Featured    *bool
	SortBy      string
}

// ProductInput 创建/更新商品的输入
type ProductInput struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Type          string   `json:"type"`
	Price         float64  `json:"price"`
	OriginalPrice *float64 `json:"original_price"`
	Currency      string   `json:"currency"`
	Stock         int      `json:"stock"`
	ImageURL      string   `json:"image_url"`
	Destination   string   `json:"destination"`
	DurationDays  int      `json:"duration_days"`
	Featured      bool     `json:"featured"`
	IsActive      *bool    `json:"is_active"`
}

// ListPublic 前台商品列表（只含上架商品）
func (s *ProductService) ListPublic(input ProductListInput) ([]models.Product, int64, error) {
	filter := repository.ProductListFilter{
		Page:        normalizePage(input.Page),
		PageSize:    normalizePageSize(input.PageSize),
		Type:        normalizeProductType(input.Type),
		Destination: strings.TrimSpace(input.Destination),
		Search:      strings.TrimSpace(input.Search),
		Featured:    input.Featured,
		OnlyActive:  true,
		SortBy:      input.SortBy,
	}
	return s.productRepo.List(filter)
}

// GetPublicByID 前台商品详情（下架视为不存在）
func (s *ProductService) GetPublicByID(id uint) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// ListAdmin 管理端商品列表（含下架商品）
func (s *ProductService) ListAdmin(input ProductListInput) ([]models.Product, int64, error) {
	filter := repository.ProductListFilter{
		Page:        normalizePage(input.Page),
		PageSize:    normalizePageSize(input.PageSize),
		Type:        normalizeProductType(input.Type),
		Destination: strings.TrimSpace(input.Destination),
		Search:      strings.TrimSpace(input.Search),
		Featured:    input.Featured,
		SortBy:      input.SortBy,
	}
	return s.productRepo.List(filter)
}

// GetAdminByID 管理端商品详情
func (s *ProductService) GetAdminByID(id uint) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// Create 创建商品
func (s *ProductService) Create(input ProductInput) (*models.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	product := models.Product{
		Name:         strings.TrimSpace(input.Name),
		Description:  strings.TrimSpace(input.Description),
		Type:         normalizeProductType(input.Type),
		Price:        models.NewMoneyFromDecimal(decimal.NewFromFloat(input.Price)),
		Currency:     normalizeCurrency(input.Currency),
		Stock:        input.Stock,
		ImageURL:     strings.TrimSpace(input.ImageURL),
		Destination:  strings.TrimSpace(input.Destination),
		DurationDays: input.DurationDays,
		Featured:     input.Featured,
		IsActive:     true,
	}
	if input.OriginalPrice != nil && *input.OriginalPrice > 0 {
		original := models.NewMoneyFromFloat(*input.OriginalPrice)
		product.OriginalPrice = &original
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := s.productRepo.Create(&product); err != nil {
		return nil, err
	}
	return &product, nil
}

// Update 更新商品
func (s *ProductService) Update(id uint, input ProductInput) (*models.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	product.Name = strings.TrimSpace(input.Name)
	product.Description = strings.TrimSpace(input.Description)
	product.Type = normalizeProductType(input.Type)
	product.Price = models.NewMoneyFromFloat(input.Price)
	product.Currency = normalizeCurrency(input.Currency)
	product.Stock = input.Stock
	product.ImageURL = strings.TrimSpace(input.ImageURL)
	product.Destination = strings.TrimSpace(input.Destination)
	product.DurationDays = input.DurationDays
	product.Featured = input.Featured
	product.OriginalPrice = nil
	if input.OriginalPrice != nil && *input.OriginalPrice > 0 {
		original := models.NewMoneyFromFloat(*input.OriginalPrice)
		product.OriginalPrice = &original
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := s.productRepo.Update(product); err != nil {
		return nil, err
	}
	return product, nil
}

// Delete 删除商品
func (s *ProductService) Delete(id uint) error {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductNotFound
	}
	return s.productRepo.Delete(id)
}

func validateProductInput(input ProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return ErrInvalidProductName
	}
	if !isValidProductType(input.Type) {
		return ErrInvalidProductType
	}
	if input.Price < 0 {
		return ErrInvalidPrice
	}
	if input.OriginalPrice != nil && *input.OriginalPrice < 0 {
		return ErrInvalidPrice
	}
	if input.Stock < 0 {
		return ErrInvalidStock
	}
	return nil
}

func isValidProductType(productType string) bool {
	normalized := normalizeProductType(productType)
	for _, t := range constants.ProductTypes {
		if normalized == t {
			return true
		}
	}
	return false
}

func normalizeProductType(productType string) string {
	return strings.ToLower(strings.TrimSpace(productType))
}

func normalizeCurrency(currency string) string {
	normalized := strings.ToUpper(strings.TrimSpace(currency))
	if normalized == "" {
		return constants.SiteCurrencyDefault
	}
	return normalized
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func normalizePageSize(pageSize int) int {
	if pageSize <= 0 {
		return 20
	}
	if pageSize > 100 {
		return 100
	}
	return pageSize
}
