package public

import (
	"errors"

	"github.com/tripmall/internal/http/response"
	"github.com/tripmall/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var userAuthErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidEmail, code: response.CodeBadRequest, msg: "邮箱格式不正确"},
	{target: service.ErrWeakPassword, code: response.CodeBadRequest, msg: "密码不符合安全策略"},
	{target: service.ErrEmailTaken, code: response.CodeConflict, msg: "邮箱已被注册"},
	{target: service.ErrInvalidCredentials, code: response.CodeUnauthorized, msg: "账号或密码错误"},
	{target: service.ErrUserDisabled, code: response.CodeForbidden, msg: "账号已被禁用"},
}

var cartErrorRules = []mappedHandlerError{
	{target: service.ErrProductNotFound, code: response.CodeNotFound, msg: "商品不存在或已下架"},
}

var checkoutErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidOrderContact, code: response.CodeBadRequest, msg: "请填写联系人姓名和邮箱"},
	{target: service.ErrEmptyCart, code: response.CodeBadRequest, msg: "购物车为空"},
	{target: service.ErrProductInactive, code: response.CodeBadRequest, msg: "部分商品已下架，请调整购物车"},
	{target: service.ErrInsufficientStock, code: response.CodeBadRequest, msg: "库存不足，请调整购买数量"},
}

func respondUserAuthError(c *gin.Context, err error) {
	respondWithMappedError(c, err, userAuthErrorRules, response.CodeInternal, "操作失败，请稍后重试")
}

func respondCartError(c *gin.Context, err error) {
	respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "购物车操作失败")
}

func respondCheckoutError(c *gin.Context, err error) {
	respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "下单失败，请稍后重试")
}
