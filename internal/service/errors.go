package service

import "errors"

// 业务错误。handler 按错误类型映射状态码：
// 校验/状态类 4xx，签名失败 4xx，依赖故障 5xx。
var (
	ErrProductNotFound      = errors.New("商品不存在或已下架")
	ErrNoPurchasableVariant = errors.New("商品没有可售规格")
	ErrVariantNotFound      = errors.New("商品规格不存在")
	ErrInsufficientStock    = errors.New("库存不足")

	ErrVoucherNotFound  = errors.New("优惠券不存在")
	ErrVoucherInactive  = errors.New("优惠券已停用")
	ErrVoucherExpired   = errors.New("优惠券不在有效期内")
	ErrVoucherExhausted = errors.New("优惠券已被领完")
	ErrVoucherMinOrder  = errors.New("未达到优惠券使用门槛")

	ErrOrderNotFound       = errors.New("订单不存在")
	ErrOrderNotCancellable = errors.New("当前状态不可取消")
	ErrOrderNotPayable     = errors.New("当前状态不可支付")
	ErrOrderNotShippable   = errors.New("当前状态不可发货")
	ErrOrderNotDeliverable = errors.New("当前状态不可签收")
	ErrStockRestoreFailed  = errors.New("库存回补失败")

	ErrPaymentNotFound = errors.New("支付流水不存在")
	ErrPaymentMismatch = errors.New("支付流水与订单不匹配")
)
