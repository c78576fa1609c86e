package order

import (
	"context"
	"time"
)

// PaymentMethod 支付方式，下单后不可变更
type PaymentMethod string

const (
	PaymentMethodCOD    PaymentMethod = "CASH_ON_DELIVERY"
	PaymentMethodOnline PaymentMethod = "ONLINE_PAYMENT"
)

// PaymentStatus 支付状态机：PENDING -> COMPLETED / FAILED（终态）
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// ShippingStatus 履约状态机：PENDING -> SHIPPED -> DELIVERED，或 PENDING -> CANCELED
type ShippingStatus string

const (
	ShippingStatusPending   ShippingStatus = "PENDING"
	ShippingStatusShipped   ShippingStatus = "SHIPPED"
	ShippingStatusDelivered ShippingStatus = "DELIVERED"
	ShippingStatusCanceled  ShippingStatus = "CANCELED"
)

// ShippingAddress 收货地址快照，下单后独立于用户资料
type ShippingAddress struct {
	Name        string `gorm:"size:128" json:"name"`
	Phone       string `gorm:"size:32" json:"phone"`
	AddressLine string `gorm:"size:255" json:"address_line"`
	Ward        string `gorm:"size:64" json:"ward"`
	District    string `gorm:"size:64" json:"district"`
	City        string `gorm:"size:64" json:"city"`
	PostalCode  string `gorm:"size:16" json:"postal_code"`
}

// OrderItem 订单行，价格与商品信息在下单时刻快照，后续商品修改不影响历史订单
type OrderItem struct {
	ID          int64  `gorm:"primaryKey" json:"id"`
	OrderID     int64  `gorm:"index;not null" json:"order_id"`
	ProductID   int64  `gorm:"index;not null" json:"product_id"`
	VariantID   int64  `gorm:"index;not null" json:"variant_id"` // 下单时解析出的具体 SKU
	Quantity    int64  `gorm:"not null" json:"quantity"`
	UnitPrice   int64  `gorm:"not null" json:"unit_price"` // 单位：VND
	ProductName string `gorm:"size:255;not null" json:"product_name"`
	Attributes  string `gorm:"size:512" json:"attributes"` // SKU 属性快照（JSON）
}

// Order 订单模型
type Order struct {
	ID              int64           `gorm:"primaryKey" json:"id"`
	Code            string          `gorm:"uniqueIndex;size:32;not null" json:"code"`
	UserID          int64           `gorm:"index;not null" json:"user_id"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	Subtotal        int64           `gorm:"not null" json:"subtotal"`
	DiscountAmount  int64           `gorm:"not null" json:"discount_amount"`
	TotalAmount     int64           `gorm:"not null" json:"total_amount"`
	PaymentMethod   PaymentMethod   `gorm:"size:32;index;not null" json:"payment_method"`
	PaymentStatus   PaymentStatus   `gorm:"size:16;index;not null" json:"payment_status"`
	ShippingStatus  ShippingStatus  `gorm:"size:16;index;not null" json:"shipping_status"`
	VoucherID       *int64          `gorm:"index" json:"voucher_id,omitempty"`
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:ship_" json:"shipping_address"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	ShippedAt       *time.Time      `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty"`
	CancelledAt     *time.Time      `json:"cancelled_at,omitempty"`
	CancelledReason string          `gorm:"size:255" json:"cancelled_reason,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ComputeSubtotal 按订单行重新计算小计，金额永远服务端重算，不信任客户端
func ComputeSubtotal(items []OrderItem) int64 {
	var sum int64
	for _, it := range items {
		sum += it.UnitPrice * it.Quantity
	}
	return sum
}

// ComputeTotal 实付金额 = max(0, 小计 - 优惠金额)
func ComputeTotal(subtotal, discount int64) int64 {
	total := subtotal - discount
	if total < 0 {
		return 0
	}
	return total
}

// CanCancel 仅支付未完成的订单可取消
func (o *Order) CanCancel() bool {
	return o.PaymentStatus == PaymentStatusPending
}

// CanCancelCOD 货到付款订单取消的附加条件：未支付且未发货
func (o *Order) CanCancelCOD() bool {
	return o.PaymentMethod == PaymentMethodCOD &&
		o.PaymentStatus == PaymentStatusPending &&
		o.ShippingStatus == ShippingStatusPending
}

// Payable 在线支付且仍在等待支付的订单可以（重新）发起网关支付
func (o *Order) Payable() bool {
	return o.PaymentMethod == PaymentMethodOnline && o.PaymentStatus == PaymentStatusPending
}

// ListFilter 订单列表查询条件
type ListFilter struct {
	PaymentStatus  PaymentStatus
	ShippingStatus ShippingStatus
	Page           int
	PageSize       int
}

// Repository 订单仓储接口。
// 状态流转一律用带条件的 UPDATE 实现（WHERE 限定当前状态），
// 返回 false 表示订单已不在期望状态，由调用方决定是报错还是幂等返回。
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	GetByCode(ctx context.Context, code string) (*Order, error)
	// GetForUser 查询本人订单；不存在与不属于本人统一返回 gorm.ErrRecordNotFound
	GetForUser(ctx context.Context, id, userID int64) (*Order, error)
	ListByUser(ctx context.Context, userID int64, f ListFilter) ([]*Order, int64, error)
	ListRecent(ctx context.Context, limit int) ([]*Order, error)

	MarkPaid(ctx context.Context, id int64, paidAt time.Time) (bool, error)
	CancelPending(ctx context.Context, id int64, reason string, at time.Time) (bool, error)
	CancelCOD(ctx context.Context, id int64, reason string, at time.Time) (bool, error)
	MarkShipped(ctx context.Context, id int64, at time.Time) (bool, error)
	MarkDelivered(ctx context.Context, id int64, at time.Time) (bool, error)
}
