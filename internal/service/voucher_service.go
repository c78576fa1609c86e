package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/quyenltph31426/kiddie-kingdom-be/internal/datamodels/voucher"
)

// VoucherService 优惠券校验与核销
type VoucherService struct {
	vouchers voucher.Repository
}

// NewVoucherService 创建优惠券服务
func NewVoucherService(vouchers voucher.Repository) *VoucherService {
	return &VoucherService{vouchers: vouchers}
}

// Discount 校验通过后的优惠结果
type Discount struct {
	Voucher *voucher.Voucher
	Amount  int64
}

// Verify 校验优惠码并计算优惠金额。
// 有效 = 启用 + 在有效期内 + 未用尽 + 小计达到门槛。
func (s *VoucherService) Verify(ctx context.Context, code string, subtotal int64) (*Discount, error) {
	v, err := s.vouchers.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVoucherNotFound
		}
		return nil, err
	}
	if v.Status != 1 {
		return nil, ErrVoucherInactive
	}
	if !v.WithinWindow(time.Now()) {
		return nil, ErrVoucherExpired
	}
	if v.Exhausted() {
		return nil, ErrVoucherExhausted
	}
	if subtotal < v.MinOrderValue {
		return nil, ErrVoucherMinOrder
	}

	return &Discount{Voucher: v, Amount: discountAmount(v, subtotal)}, nil
}

// Apply 核销优惠券（使用次数 +1）。每张订单只允许调用一次，
// 并发下次数用尽时返回 ErrVoucherExhausted。
func (s *VoucherService) Apply(ctx context.Context, voucherID int64) error {
	ok, err := s.vouchers.IncrementUsage(ctx, voucherID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrVoucherExhausted
	}
	return nil
}

// discountAmount 计算优惠金额。
// 比例券按小计取百分比并受减免上限约束（上限为 0 表示不设上限），
// 固定券不超过小计，优惠永远不会把应付金额打成负数。
func discountAmount(v *voucher.Voucher, subtotal int64) int64 {
	switch v.DiscountType {
	case voucher.DiscountPercentage:
		amount := subtotal * v.Value / 100
		if v.MaxDiscountValue > 0 && amount > v.MaxDiscountValue {
			amount = v.MaxDiscountValue
		}
		return amount
	case voucher.DiscountFixed:
		if v.Value > subtotal {
			return subtotal
		}
		return v.Value
	default:
		return 0
	}
}
