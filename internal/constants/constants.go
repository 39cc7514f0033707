package constants

// 订单状态常量
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// 商品类型常量
const (
	ProductTypeFlight  = "flight"
	ProductTypeLodging = "lodging"
	ProductTypeCar     = "car"
	ProductTypePackage = "package"
)

// ProductTypes 支持的商品类型列表
var ProductTypes = []string{
	ProductTypeFlight,
	ProductTypeLodging,
	ProductTypeCar,
	ProductTypePackage,
}

// 商品库存状态常量
const (
	ProductStockStatusInStock    = "in_stock"
	ProductStockStatusLowStock   = "low_stock"
	ProductStockStatusOutOfStock = "out_of_stock"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 登录日志状态常量
const (
	LoginLogStatusSuccess = "success"
	LoginLogStatusFailed  = "failed"
)

// 登录失败原因常量
const (
	LoginFailReasonBadRequest         = "bad_request"
	LoginFailReasonCaptchaRequired    = "captcha_required"
	LoginFailReasonCaptchaInvalid     = "captcha_invalid"
	LoginFailReasonInvalidCredentials = "invalid_credentials"
	LoginFailReasonUserDisabled       = "user_disabled"
)

// 队列常量
const (
	QueueDefault           = "default"
	QueueCritical          = "critical"
	TaskOrderTimeoutCancel = "order:timeout_cancel"
	TaskOrderStatusNotify  = "order:status_notify"
)

// 缓存键常量
const (
	RedisPrefixDefault = "tm"
	CartKeyPrefix      = "cart_" // 购物车快照键：cart_<userId>
)

// 币种常量
const (
	SiteCurrencyDefault = "USD"
)
