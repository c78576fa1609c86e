package payment

import (
	"context"
	"time"
)

// Status 单次支付尝试的状态
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// ProviderVNPay 当前唯一接入的网关
const ProviderVNPay = "VNPAY"

// Details 网关回传的业务字段。已知字段显式建模，
// 其余原样进 Extra，保证序列化结构可见又不丢供应商扩展数据。
type Details struct {
	BankCode     string            `json:"bank_code,omitempty"`
	BankTranNo   string            `json:"bank_tran_no,omitempty"`
	CardType     string            `json:"card_type,omitempty"`
	PayDate      string            `json:"pay_date,omitempty"`
	GatewayTxnNo string            `json:"gateway_txn_no,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"`
}

// History 支付流水。一笔订单可以有多次支付尝试（失败后重试），
// 流水独立于订单生命周期，作为对账与审计的事实依据。
type History struct {
	ID            int64      `gorm:"primaryKey" json:"id"`
	OrderID       int64      `gorm:"index;not null" json:"order_id"`
	UserID        int64      `gorm:"index;not null" json:"user_id"`
	Amount        int64      `gorm:"not null" json:"amount"` // 单位：VND
	Currency      string     `gorm:"size:8;not null" json:"currency"`
	Provider      string     `gorm:"size:32;not null" json:"provider"`
	TransactionID string     `gorm:"uniqueIndex;size:64;not null" json:"transaction_id"`
	Status        Status     `gorm:"size:16;index;not null" json:"status"`
	Details       Details    `gorm:"serializer:json" json:"details"`
	FailureReason string     `gorm:"size:255" json:"failure_reason,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Terminal 是否已到终态，终态流水不允许再被回调修改
func (h *History) Terminal() bool {
	return h.Status == StatusCompleted || h.Status == StatusFailed
}

// Repository 支付流水仓储接口
type Repository interface {
	Create(ctx context.Context, h *History) error
	GetByTransactionID(ctx context.Context, txnID string) (*History, error)
	ListByOrder(ctx context.Context, orderID int64) ([]*History, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]*History, error)
	ListRecent(ctx context.Context, limit int) ([]*History, error)

	// Complete 把流水置为 COMPLETED 并同步把订单标记为已支付，
	// 两者在同一个事务里原子完成；流水已处于终态时返回 false 且不做任何修改。
	Complete(ctx context.Context, orderID int64, txnID string, details Details, paidAt time.Time) (bool, error)
	// Fail 把流水置为 FAILED 并记录原因，订单保持待支付（可重试）。
	Fail(ctx context.Context, txnID string, reason string) (bool, error)
}
