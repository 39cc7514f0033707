package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tripmall/internal/config"
	"github.com/tripmall/internal/constants"
	"github.com/tripmall/internal/logger"
	"github.com/tripmall/internal/models"
	"github.com/tripmall/internal/queue"
	"github.com/tripmall/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// allowedTransitions 订单状态转移表
// pending -> confirmed/cancelled, confirmed -> delivered/cancelled，
// delivered 与 cancelled 为终态。
var allowedTransitions = map[string][]string{
	constants.OrderStatusPending:   {constants.OrderStatusConfirmed, constants.OrderStatusCancelled},
	constants.OrderStatusConfirmed: {constants.OrderStatusDelivered, constants.OrderStatusCancelled},
	constants.OrderStatusDelivered: {},
	constants.OrderStatusCancelled: {},
}

// OrderService 订单服务
type OrderService struct {
	cfg         *config.Config
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	cartService *CartService
	queueClient *queue.Client
}

// NewOrderService 创建订单服务
func NewOrderService(
	cfg *config.Config,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	cartService *CartService,
	queueClient *queue.Client,
) *OrderService {
	return &OrderService{
		cfg:         cfg,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		cartService: cartService,
		queueClient: queueClient,
	}
}

// CheckoutInput 结算输入
type CheckoutInput struct {
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
	ClientIP     string `json:"-"`
}

// CreateFromCart 从购物车创建订单
// 逐行条件扣减库存，金额以商品当前价格为准在服务端重新计算，
// 订单与订单项在同一事务内落库，成功后清空购物车并调度超时取消任务。
func (s *OrderService) CreateFromCart(ctx context.Context, userID uint, input CheckoutInput) (*models.Order, error) {
	if userID == 0 {
		return nil, ErrNotFound
	}
	contactName := strings.TrimSpace(input.ContactName)
	contactEmail := strings.TrimSpace(input.ContactEmail)
	if contactName == "" || contactEmail == "" {
		return nil, ErrInvalidOrderContact
	}

	lines := s.cartService.Lines(ctx, userID)
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	productIDs := make([]uint, 0, len(lines))
	for _, line := range lines {
		productIDs = append(productIDs, line.ProductID)
	}
	products, err := s.productRepo.ListByIDs(productIDs)
	if err != nil {
		return nil, err
	}
	productByID := make(map[uint]models.Product, len(products))
	for _, p := range products {
		productByID[p.ID] = p
	}

	expiresAt := time.Now().Add(s.pendingExpireDuration())
	order := models.Order{
		OrderNo:      generateOrderNo(),
		UserID:       userID,
		Status:       constants.OrderStatusPending,
		Currency:     constants.SiteCurrencyDefault,
		ContactName:  contactName,
		ContactEmail: contactEmail,
		ContactPhone: strings.TrimSpace(input.ContactPhone),
		ClientIP:     input.ClientIP,
		ExpiresAt:    &expiresAt,
	}

	err = s.productRepo.Transaction(func(tx *gorm.DB) error {
		txProductRepo := s.productRepo.WithTx(tx)
		txOrderRepo := s.orderRepo.WithTx(tx)

		total := decimal.Zero
		items := make([]models.OrderItem, 0, len(lines))
		for _, line := range lines {
			product, ok := productByID[line.ProductID]
			if !ok || !product.IsActive {
				return ErrProductInactive
			}
			if line.Quantity < 1 {
				continue
			}

			affected, reserveErr := txProductRepo.ReserveStock(product.ID, line.Quantity)
			if reserveErr != nil {
				return reserveErr
			}
			if affected == 0 {
				return ErrInsufficientStock
			}

			lineTotal := product.Price.Decimal.Mul(decimal.NewFromInt(int64(line.Quantity)))
			total = total.Add(lineTotal)
			items = append(items, models.OrderItem{
				ProductID:   product.ID,
				Name:        product.Name,
				Type:        product.Type,
				Destination: product.Destination,
				ImageURL:    product.ImageURL,
				UnitPrice:   product.Price,
				Quantity:    line.Quantity,
				TotalPrice:  models.NewMoneyFromDecimal(lineTotal),
			})
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		order.TotalAmount = models.NewMoneyFromDecimal(total)
		return txOrderRepo.Create(&order, items)
	})
	if err != nil {
		return nil, err
	}

	// 下单成功后清空购物车
	s.cartService.Clear(ctx, userID)

	if s.queueClient != nil {
		if enqueueErr := s.queueClient.EnqueueOrderTimeoutCancel(order.ID, expiresAt); enqueueErr != nil {
			logger.Warnw("order_timeout_cancel_enqueue_failed", "order_id", order.ID, "error", enqueueErr)
		}
	}

	logger.Infow("order_created",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"user_id", userID,
		"total", order.TotalAmount.String(),
	)

	created, err := s.orderRepo.GetByID(order.ID)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return &order, nil
	}
	return created, nil
}

// GetByIDAndUser 获取用户订单详情
func (s *OrderService) GetByIDAndUser(id uint, userID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(id, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// OrderListInput 订单列表查询参数
type OrderListInput struct {
	Page        int
	PageSize    int
	UserID      uint
	Status      string
	OrderNo     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// ListByUser 用户订单列表
func (s *OrderService) ListByUser(input OrderListInput) ([]models.Order, int64, error) {
	return s.orderRepo.ListByUser(repository.OrderListFilter{
		Page:     normalizePage(input.Page),
		PageSize: normalizePageSize(input.PageSize),
		UserID:   input.UserID,
		Status:   strings.TrimSpace(input.Status),
		OrderNo:  strings.TrimSpace(input.OrderNo),
	})
}

// ListAdmin 管理端订单列表
func (s *OrderService) ListAdmin(input OrderListInput) ([]models.Order, int64, error) {
	return s.orderRepo.ListAdmin(repository.OrderListFilter{
		Page:        normalizePage(input.Page),
		PageSize:    normalizePageSize(input.PageSize),
		UserID:      input.UserID,
		Status:      strings.TrimSpace(input.Status),
		OrderNo:     strings.TrimSpace(input.OrderNo),
		CreatedFrom: input.CreatedFrom,
		CreatedTo:   input.CreatedTo,
	})
}

// UpdateStatus 管理端变更订单状态，按转移表校验
// 取消时归还库存。
func (s *OrderService) UpdateStatus(id uint, target string) (*models.Order, error) {
	target = strings.ToLower(strings.TrimSpace(target))

	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	if !transitionAllowed(order.Status, target) {
		return nil, ErrInvalidTransition
	}

	now := time.Now()
	updates := map[string]interface{}{}
	switch target {
	case constants.OrderStatusConfirmed:
		updates["confirmed_at"] = now
	case constants.OrderStatusDelivered:
		updates["delivered_at"] = now
	case constants.OrderStatusCancelled:
		updates["canceled_at"] = now
	}

	err = s.productRepo.Transaction(func(tx *gorm.DB) error {
		txOrderRepo := s.orderRepo.WithTx(tx)
		affected, err := txOrderRepo.UpdateStatus(order.ID, order.Status, target, updates)
		if err != nil {
			return err
		}
		// 状态被并发变更（例如超时取消先落库），按非法转移处理，库存不归还
		if affected == 0 {
			return ErrInvalidTransition
		}
		if target == constants.OrderStatusCancelled {
			return releaseOrderStock(s.productRepo.WithTx(tx), order.Items)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("order_status_changed",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"from", order.Status,
		"to", target,
	)
	if s.queueClient != nil {
		if enqueueErr := s.queueClient.EnqueueOrderStatusNotify(order.ID, target); enqueueErr != nil {
			logger.Warnw("order_status_notify_enqueue_failed", "order_id", order.ID, "error", enqueueErr)
		}
	}

	return s.orderRepo.GetByID(order.ID)
}

// CancelIfExpired 取消仍处于待确认状态的超时订单（队列任务路径）
// 订单已不处于 pending 或尚未到期时静默跳过。
func (s *OrderService) CancelIfExpired(orderID uint) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		logger.Debugw("order_timeout_cancel_skipped_missing", "order_id", orderID)
		return nil
	}
	if order.Status != constants.OrderStatusPending {
		logger.Debugw("order_timeout_cancel_skipped_status", "order_id", orderID, "status", order.Status)
		return nil
	}
	if order.ExpiresAt != nil && order.ExpiresAt.After(time.Now()) {
		logger.Debugw("order_timeout_cancel_skipped_not_expired", "order_id", orderID)
		return nil
	}

	now := time.Now()
	raced := false
	err = s.productRepo.Transaction(func(tx *gorm.DB) error {
		txOrderRepo := s.orderRepo.WithTx(tx)
		affected, err := txOrderRepo.UpdateStatus(order.ID, constants.OrderStatusPending, constants.OrderStatusCancelled, map[string]interface{}{
			"canceled_at": now,
		})
		if err != nil {
			return err
		}
		// 管理端取消抢先落库时这里影响行数为 0，库存只能归还一次
		if affected == 0 {
			raced = true
			return nil
		}
		return releaseOrderStock(s.productRepo.WithTx(tx), order.Items)
	})
	if err != nil {
		return err
	}
	if raced {
		logger.Debugw("order_timeout_cancel_skipped_raced", "order_id", order.ID)
		return nil
	}

	logger.Infow("order_timeout_cancelled", "order_id", order.ID, "order_no", order.OrderNo)
	return nil
}

// CancelExpired 批量取消超时订单（兜底扫描路径）
func (s *OrderService) CancelExpired(limit int) (int, error) {
	orders, err := s.orderRepo.ListExpiredPending(time.Now(), limit)
	if err != nil {
		return 0, err
	}
	cancelled := 0
	for _, order := range orders {
		if err := s.CancelIfExpired(order.ID); err != nil {
			logger.Warnw("order_expired_cancel_failed", "order_id", order.ID, "error", err)
			continue
		}
		cancelled++
	}
	return cancelled, nil
}

func (s *OrderService) pendingExpireDuration() time.Duration {
	minutes := 30
	if s.cfg != nil && s.cfg.Order.PendingExpireMinutes > 0 {
		minutes = s.cfg.Order.PendingExpireMinutes
	}
	return time.Duration(minutes) * time.Minute
}

func transitionAllowed(from, to string) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func releaseOrderStock(productRepo repository.ProductRepository, items []models.OrderItem) error {
	for _, item := range items {
		if _, err := productRepo.ReleaseStock(item.ProductID, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// generateOrderNo 生成订单编号：时间戳 + 随机后缀
func generateOrderNo() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("T%s%s", time.Now().Format("20060102150405"), strings.ToUpper(suffix))
}
