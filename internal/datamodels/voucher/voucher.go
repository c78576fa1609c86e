package voucher

import (
	"context"
	"time"
)

// DiscountType 优惠类型
type DiscountType string

const (
	DiscountPercentage DiscountType = "PERCENTAGE"
	DiscountFixed      DiscountType = "FIXED"
)

// Voucher 优惠券模型
type Voucher struct {
	ID               int64        `gorm:"primaryKey" json:"id"`
	Code             string       `gorm:"uniqueIndex;size:64;not null" json:"code"`
	Name             string       `gorm:"size:128" json:"name"`
	DiscountType     DiscountType `gorm:"size:16;not null" json:"discount_type"`
	Value            int64        `gorm:"not null" json:"value"`            // PERCENTAGE 时为百分比，FIXED 时为金额（VND）
	MinOrderValue    int64        `gorm:"not null" json:"min_order_value"`  // 使用门槛
	MaxDiscountValue int64        `gorm:"not null" json:"max_discount_value"` // 百分比券的减免上限
	UsageLimit       int64        `gorm:"not null" json:"usage_limit"`      // 0 表示不限次数
	UsedCount        int64        `gorm:"not null" json:"used_count"`
	StartAt          time.Time    `gorm:"index" json:"start_at"`
	EndAt            time.Time    `gorm:"index" json:"end_at"`
	Status           int          `gorm:"index;default:1" json:"status"` // 0:停用 1:启用
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// WithinWindow 是否在有效期内
func (v *Voucher) WithinWindow(now time.Time) bool {
	return !now.Before(v.StartAt) && !now.After(v.EndAt)
}

// Exhausted 使用次数是否已用尽
func (v *Voucher) Exhausted() bool {
	return v.UsageLimit > 0 && v.UsedCount >= v.UsageLimit
}

// Repository 优惠券仓储接口
type Repository interface {
	GetByCode(ctx context.Context, code string) (*Voucher, error)
	GetByID(ctx context.Context, id int64) (*Voucher, error)
	Create(ctx context.Context, v *Voucher) error
	ListAll(ctx context.Context) ([]*Voucher, error)

	// IncrementUsage 原子地把使用次数 +1，次数已达上限时返回 false。
	IncrementUsage(ctx context.Context, id int64) (bool, error)
}
