package review

import (
	"context"
	"time"
)

// Review 商品评价模型（下单购买后才允许评价）
type Review struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	ProductID int64     `gorm:"index;not null" json:"product_id"`
	OrderID   int64     `gorm:"index;not null" json:"order_id"`
	UserID    int64     `gorm:"index;not null" json:"user_id"`
	Rating    int       `gorm:"not null" json:"rating"` // 1~5
	Content   string    `gorm:"size:1024" json:"content"`
	Status    int       `gorm:"index;default:1" json:"status"` // 0:隐藏 1:展示
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// Repository 评价仓储接口
type Repository interface {
	Create(ctx context.Context, r *Review) error
	ListByProduct(ctx context.Context, productID int64, limit int) ([]*Review, error)
	// ExistsForOrderItem 同一订单内同一商品是否已评价过
	ExistsForOrderItem(ctx context.Context, orderID, productID, userID int64) (bool, error)
	CountByProduct(ctx context.Context, productID int64) (int64, error)
}
