package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/quyenltph31426/kiddie-kingdom-be/internal/datamodels/review"
)

type reviewRepo struct {
	db *gorm.DB
}

// NewReviewRepository 创建评价仓储
func NewReviewRepository(db *gorm.DB) review.Repository {
	return &reviewRepo{db: db}
}

func (r *reviewRepo) Create(ctx context.Context, rv *review.Review) error {
	return r.db.WithContext(ctx).Create(rv).Error
}

func (r *reviewRepo) ListByProduct(ctx context.Context, productID int64, limit int) ([]*review.Review, error) {
	if limit <= 0 {
		limit = 20
	}
	var list []*review.Review
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND status = ?", productID, 1).
		Order("id DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *reviewRepo) ExistsForOrderItem(ctx context.Context, orderID, productID, userID int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&review.Review{}).
		Where("order_id = ? AND product_id = ? AND user_id = ?", orderID, productID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *reviewRepo) CountByProduct(ctx context.Context, productID int64) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&review.Review{}).
		Where("product_id = ? AND status = ?", productID, 1).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
