package service

import "errors"

// 业务哨兵错误，处理器通过 errors.Is 映射为响应码
var (
	ErrNotFound            = errors.New("资源不存在")
	ErrInvalidCredentials  = errors.New("账号或密码错误")
	ErrUserDisabled        = errors.New("账号已被禁用")
	ErrEmailTaken          = errors.New("邮箱已被注册")
	ErrWeakPassword        = errors.New("密码不符合安全策略")
	ErrInvalidEmail        = errors.New("无效的邮箱地址")
	ErrInvalidPassword     = errors.New("原密码错误")
	ErrInvalidUserStatus   = errors.New("无效的用户状态")
	ErrCaptchaRequired     = errors.New("需要验证码")
	ErrCaptchaInvalid      = errors.New("验证码错误")
	ErrInvalidProductType  = errors.New("无效的商品类型")
	ErrInvalidProductName  = errors.New("商品名称不能为空")
	ErrInvalidPrice        = errors.New("无效的价格")
	ErrInvalidStock        = errors.New("无效的库存数量")
	ErrProductNotFound     = errors.New("商品不存在")
	ErrProductInactive     = errors.New("商品已下架")
	ErrEmptyCart           = errors.New("购物车为空")
	ErrInsufficientStock   = errors.New("库存不足")
	ErrOrderNotFound       = errors.New("订单不存在")
	ErrInvalidTransition   = errors.New("订单状态不允许该变更")
	ErrInvalidOrderContact = errors.New("无效的订单联系人信息")
)
