package provider

import (
	"github.com/tripmall/internal/authz"
	"github.com/tripmall/internal/cache"
	"github.com/tripmall/internal/cart"
	"github.com/tripmall/internal/config"
	"github.com/tripmall/internal/logger"
	"github.com/tripmall/internal/models"
	"github.com/tripmall/internal/queue"
	"github.com/tripmall/internal/repository"
	"github.com/tripmall/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	CartStore   cart.Store

	// Repositories
	AdminRepo        repository.AdminRepository
	UserRepo         repository.UserRepository
	ProductRepo      repository.ProductRepository
	OrderRepo        repository.OrderRepository
	UserLoginLogRepo repository.UserLoginLogRepository
	DashboardRepo    repository.DashboardRepository

	// Services
	AuthzService    *authz.Service
	AuthService     *service.AuthService
	UserAuthService *service.UserAuthService
	CaptchaService  *service.CaptchaService
	ProductService  *service.ProductService
	CartService     *service.CartService
	OrderService    *service.OrderService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 购物车快照存储：Redis 可用时持久化到 Redis，否则退化为进程内存储
	if cache.Enabled() {
		c.CartStore = cart.NewRedisStore(cache.Client(), cfg.Redis.Prefix)
	} else {
		logger.Warnw("provider_cart_store_fallback_memory", "reason", "redis_disabled")
		c.CartStore = cart.NewMemoryStore()
	}

	// 2. 初始化 Repositories
	c.initRepositories()

	// 3. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.UserLoginLogRepo = repository.NewUserLoginLogRepository(db)
	c.DashboardRepo = repository.NewDashboardRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.ProductService = service.NewProductService(c.ProductRepo)
	c.CartService = service.NewCartService(c.CartStore, c.ProductRepo)
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo, c.UserLoginLogRepo, c.CartService)
	c.OrderService = service.NewOrderService(c.Config, c.OrderRepo, c.ProductRepo, c.CartService, c.QueueClient)
}
