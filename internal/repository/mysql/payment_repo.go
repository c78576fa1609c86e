package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/quyenltph31426/kiddie-kingdom-be/internal/datamodels/order"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/datamodels/payment"
)

type paymentRepo struct {
	db *gorm.DB
}

// NewPaymentRepository 创建支付流水仓储
func NewPaymentRepository(db *gorm.DB) payment.Repository {
	return &paymentRepo{db: db}
}

func (r *paymentRepo) Create(ctx context.Context, h *payment.History) error {
	return r.db.WithContext(ctx).Create(h).Error
}

func (r *paymentRepo) GetByTransactionID(ctx context.Context, txnID string) (*payment.History, error) {
	var h payment.History
	if err := r.db.WithContext(ctx).Where("transaction_id = ?", txnID).First(&h).Error; err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *paymentRepo) ListByOrder(ctx context.Context, orderID int64) ([]*payment.History, error) {
	var list []*payment.History
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *paymentRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]*payment.History, error) {
	if limit <= 0 {
		limit = 20
	}
	var list []*payment.History
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *paymentRepo) ListRecent(ctx context.Context, limit int) ([]*payment.History, error) {
	if limit <= 0 {
		limit = 20
	}
	var list []*payment.History
	if err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *paymentRepo) Complete(ctx context.Context, orderID int64, txnID string, details payment.Details, paidAt time.Time) (bool, error) {
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1) 锁定流水，终态流水直接跳过（回调重放）
		var h payment.History
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("transaction_id = ?", txnID).
			First(&h).Error; err != nil {
			return err
		}
		if h.Terminal() {
			return nil
		}

		// 2) 更新流水为已完成
		h.Status = payment.StatusCompleted
		h.Details = details
		h.CompletedAt = &paidAt
		if err := tx.Save(&h).Error; err != nil {
			return err
		}

		// 3) 同步订单支付状态。订单若已因其它流水完成支付，
		// 条件更新不命中即可，以流水为事实依据不报错。
		if err := tx.Model(&order.Order{}).
			Where("id = ? AND payment_status = ?", orderID, order.PaymentStatusPending).
			Updates(map[string]interface{}{
				"payment_status": order.PaymentStatusCompleted,
				"paid_at":        paidAt,
			}).Error; err != nil {
			return err
		}

		applied = true
		return nil
	})
	return applied, err
}

func (r *paymentRepo) Fail(ctx context.Context, txnID string, reason string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&payment.History{}).
		Where("transaction_id = ? AND status = ?", txnID, payment.StatusPending).
		Updates(map[string]interface{}{
			"status":         payment.StatusFailed,
			"failure_reason": reason,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
