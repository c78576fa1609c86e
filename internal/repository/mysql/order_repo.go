package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/quyenltph31426/kiddie-kingdom-be/internal/datamodels/order"
)

type orderRepo struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) order.Repository {
	return &orderRepo{db: db}
}

func (r *orderRepo) Create(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *orderRepo) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).Preload("Items").First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) GetByCode(ctx context.Context, code string) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).Preload("Items").
		Where("code = ?", code).
		First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) GetForUser(ctx context.Context, id, userID int64) (*order.Order, error) {
	var o order.Order
	// 不存在与不属于本人对外不区分，统一 ErrRecordNotFound
	if err := r.db.WithContext(ctx).Preload("Items").
		Where("id = ? AND user_id = ?", id, userID).
		First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) ListByUser(ctx context.Context, userID int64, f order.ListFilter) ([]*order.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&order.Order{}).Where("user_id = ?", userID)
	if f.PaymentStatus != "" {
		query = query.Where("payment_status = ?", f.PaymentStatus)
	}
	if f.ShippingStatus != "" {
		query = query.Where("shipping_status = ?", f.ShippingStatus)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := f.Page
	if page <= 0 {
		page = 1
	}
	pageSize := f.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	var list []*order.Order
	if err := query.Preload("Items").
		Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *orderRepo) ListRecent(ctx context.Context, limit int) ([]*order.Order, error) {
	if limit <= 0 {
		limit = 20
	}
	var list []*order.Order
	if err := r.db.WithContext(ctx).Preload("Items").
		Order("id DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// 状态流转统一走带条件的 UPDATE，靠 RowsAffected 判断当前状态是否符合预期，
// 并发回调/重复请求下同一笔订单只会有一次流转成功。

func (r *orderRepo) MarkPaid(ctx context.Context, id int64, paidAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&order.Order{}).
		Where("id = ? AND payment_status = ?", id, order.PaymentStatusPending).
		Updates(map[string]interface{}{
			"payment_status": order.PaymentStatusCompleted,
			"paid_at":        paidAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *orderRepo) CancelPending(ctx context.Context, id int64, reason string, at time.Time) (bool, error) {
	// 取消把支付置为 FAILED（终态），第二次取消自然不再命中
	res := r.db.WithContext(ctx).Model(&order.Order{}).
		Where("id = ? AND payment_status = ?", id, order.PaymentStatusPending).
		Updates(map[string]interface{}{
			"payment_status":   order.PaymentStatusFailed,
			"shipping_status":  order.ShippingStatusCanceled,
			"cancelled_at":     at,
			"cancelled_reason": reason,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *orderRepo) CancelCOD(ctx context.Context, id int64, reason string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&order.Order{}).
		Where("id = ? AND payment_method = ? AND payment_status = ? AND shipping_status = ?",
			id, order.PaymentMethodCOD, order.PaymentStatusPending, order.ShippingStatusPending).
		Updates(map[string]interface{}{
			"shipping_status":  order.ShippingStatusCanceled,
			"cancelled_at":     at,
			"cancelled_reason": reason,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *orderRepo) MarkShipped(ctx context.Context, id int64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&order.Order{}).
		Where("id = ? AND shipping_status = ?", id, order.ShippingStatusPending).
		Updates(map[string]interface{}{
			"shipping_status": order.ShippingStatusShipped,
			"shipped_at":      at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *orderRepo) MarkDelivered(ctx context.Context, id int64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&order.Order{}).
		Where("id = ? AND shipping_status = ?", id, order.ShippingStatusShipped).
		Updates(map[string]interface{}{
			"shipping_status": order.ShippingStatusDelivered,
			"delivered_at":    at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
