package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/quyenltph31426/kiddie-kingdom-be/internal/datamodels/voucher"
)

type voucherRepo struct {
	db *gorm.DB
}

// NewVoucherRepository 创建优惠券仓储
func NewVoucherRepository(db *gorm.DB) voucher.Repository {
	return &voucherRepo{db: db}
}

func (r *voucherRepo) GetByCode(ctx context.Context, code string) (*voucher.Voucher, error) {
	var v voucher.Voucher
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *voucherRepo) GetByID(ctx context.Context, id int64) (*voucher.Voucher, error) {
	var v voucher.Voucher
	if err := r.db.WithContext(ctx).First(&v, id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *voucherRepo) Create(ctx context.Context, v *voucher.Voucher) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *voucherRepo) ListAll(ctx context.Context) ([]*voucher.Voucher, error) {
	var list []*voucher.Voucher
	if err := r.db.WithContext(ctx).Order("id DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *voucherRepo) IncrementUsage(ctx context.Context, id int64) (bool, error) {
	// usage_limit=0 表示不限次数，否则条件更新兜住并发下的超用
	res := r.db.WithContext(ctx).Model(&voucher.Voucher{}).
		Where("id = ? AND (usage_limit = 0 OR used_count < usage_limit)", id).
		Update("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
