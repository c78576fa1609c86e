package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/quyenltph31426/kiddie-kingdom-be/internal/datamodels/order"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/datamodels/payment"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/datamodels/user"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/mail"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/vnpay"
)

// PaymentService 支付跳转生成与回调对账
type PaymentService struct {
	gateway  *vnpay.Client
	payments payment.Repository
	orders   order.Repository
	users    user.Repository
	mailer   mail.Mailer
	currency string
}

// NewPaymentService 创建支付服务
func NewPaymentService(
	gateway *vnpay.Client,
	payments payment.Repository,
	orders order.Repository,
	users user.Repository,
	mailer mail.Mailer,
	currency string,
) *PaymentService {
	return &PaymentService{
		gateway:  gateway,
		payments: payments,
		orders:   orders,
		users:    users,
		mailer:   mailer,
		currency: currency,
	}
}

// RedirectInfo 返回给客户端的支付跳转信息
type RedirectInfo struct {
	TransactionID string `json:"transaction_id"`
	URL           string `json:"url"`
}

// CreateRedirect 为订单发起一次支付尝试：
// 先构造带签名的跳转地址，落一条 PENDING 流水后才把地址交给调用方。
func (s *PaymentService) CreateRedirect(ctx context.Context, o *order.Order, clientIP string) (*RedirectInfo, error) {
	redirect, err := s.gateway.BuildPaymentURL(vnpay.PaymentRequest{
		OrderID:   o.ID,
		Amount:    o.TotalAmount,
		OrderInfo: fmt.Sprintf("Thanh toan don hang %s", o.Code),
		ClientIP:  clientIP,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return nil, err
	}

	h := &payment.History{
		OrderID:       o.ID,
		UserID:        o.UserID,
		Amount:        o.TotalAmount,
		Currency:      s.currency,
		Provider:      payment.ProviderVNPay,
		TransactionID: redirect.TransactionID,
		Status:        payment.StatusPending,
	}
	if err := s.payments.Create(ctx, h); err != nil {
		GetMonitor().RecordDBError()
		return nil, err
	}
	return &RedirectInfo{TransactionID: redirect.TransactionID, URL: redirect.URL}, nil
}

// ReturnResult 回调处理结果
type ReturnResult struct {
	OrderID   int64  `json:"order_id"`
	OrderCode string `json:"order_code"`
	Success   bool   `json:"success"`
	Replayed  bool   `json:"replayed,omitempty"`
	Message   string `json:"message"`
}

// HandleReturn 处理网关回跳，完成回调与本地订单/流水的对账。
// 验签失败不改任何状态；重放的回调按历史结果返回，不会二次发信；
// 成功回调把流水与订单作为一个单元原子更新。
func (s *PaymentService) HandleReturn(ctx context.Context, query url.Values) (*ReturnResult, error) {
	cb, err := s.gateway.VerifyReturn(query)
	if err != nil {
		GetMonitor().RecordCallbackInvalid()
		return nil, err
	}
	GetMonitor().RecordCallbackRequest()

	h, err := s.payments.GetByTransactionID(ctx, cb.TxnRef)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	// 对账键是 (orderId, transactionId)，两者必须同时吻合
	if h.OrderID != cb.OrderID {
		return nil, ErrPaymentMismatch
	}
	if cb.Amount != h.Amount {
		zap.L().Warn("callback amount differs from ledger",
			zap.String("txn_ref", cb.TxnRef),
			zap.Int64("callback_amount", cb.Amount),
			zap.Int64("ledger_amount", h.Amount))
	}

	o, err := s.orders.GetByID(ctx, h.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	result := &ReturnResult{OrderID: o.ID, OrderCode: o.Code}

	// 终态流水：重放回调，不再做任何状态修改
	if h.Terminal() {
		GetMonitor().RecordCallbackReplayed()
		result.Success = h.Status == payment.StatusCompleted
		result.Replayed = true
		result.Message = "重复回调，按历史结果返回"
		return result, nil
	}

	if cb.Succeeded() {
		applied, err := s.payments.Complete(ctx, o.ID, cb.TxnRef, detailsFromCallback(cb), time.Now())
		if err != nil {
			GetMonitor().RecordDBError()
			return nil, err
		}
		result.Success = true
		result.Message = "支付成功"
		if applied {
			GetMonitor().RecordCallbackSuccess()
			s.sendConfirmationMail(ctx, o)
		} else {
			// 并发回调只有一个能完成流转，输掉的按重放处理
			GetMonitor().RecordCallbackReplayed()
			result.Replayed = true
		}
		return result, nil
	}

	// 失败原因带上网关原始响应码，便于对账回溯
	reason := fmt.Sprintf("%s (code %s)", vnpay.ResponseMessage(cb.ResponseCode), cb.ResponseCode)
	if _, err := s.payments.Fail(ctx, cb.TxnRef, reason); err != nil {
		GetMonitor().RecordDBError()
		return nil, err
	}
	// 订单保持待支付，可通过 pay 接口重新发起
	GetMonitor().RecordCallbackFailed()
	result.Success = false
	result.Message = reason
	return result, nil
}

// ListByUser 查询本人支付流水
func (s *PaymentService) ListByUser(ctx context.Context, userID int64, limit int) ([]*payment.History, error) {
	return s.payments.ListByUser(ctx, userID, limit)
}

// ListByOrder 查询指定订单的全部支付尝试
func (s *PaymentService) ListByOrder(ctx context.Context, orderID int64) ([]*payment.History, error) {
	return s.payments.ListByOrder(ctx, orderID)
}

// ListRecent 后台查询最近流水
func (s *PaymentService) ListRecent(ctx context.Context, limit int) ([]*payment.History, error) {
	return s.payments.ListRecent(ctx, limit)
}

// sendConfirmationMail 支付完成后的确认邮件，尽力而为，失败只记录
func (s *PaymentService) sendConfirmationMail(ctx context.Context, o *order.Order) {
	u, err := s.users.GetByID(ctx, o.UserID)
	if err != nil {
		GetMonitor().RecordMailFailure()
		zap.L().Warn("load user for confirmation mail failed",
			zap.Int64("order_id", o.ID), zap.Error(err))
		return
	}

	name := u.FullName
	if name == "" {
		name = u.Username
	}
	msg := &mail.OrderConfirmation{
		To:           u.Email,
		CustomerName: name,
		OrderID:      o.ID,
		OrderCode:    o.Code,
		CreatedAt:    o.CreatedAt,
		Total:        o.TotalAmount,
		Address:      formatAddress(o.ShippingAddress),
	}
	for _, it := range o.Items {
		msg.Items = append(msg.Items, mail.Line{
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		})
	}

	if err := s.mailer.SendOrderConfirmation(ctx, msg); err != nil {
		GetMonitor().RecordMQError()
		GetMonitor().RecordMailFailure()
		zap.L().Warn("send order confirmation failed",
			zap.Int64("order_id", o.ID), zap.Error(err))
	}
}

// detailsFromCallback 把回调参数整理进流水明细，
// 已建模字段之外的 vnp_ 参数原样收进 Extra。
func detailsFromCallback(cb *vnpay.Callback) payment.Details {
	d := payment.Details{
		BankCode:     cb.BankCode,
		BankTranNo:   cb.BankTranNo,
		CardType:     cb.CardType,
		PayDate:      cb.PayDate,
		GatewayTxnNo: cb.TransactionNo,
	}
	known := map[string]bool{
		"vnp_TxnRef":        true,
		"vnp_ResponseCode":  true,
		"vnp_Amount":        true,
		"vnp_BankCode":      true,
		"vnp_BankTranNo":    true,
		"vnp_CardType":      true,
		"vnp_PayDate":       true,
		"vnp_TransactionNo": true,
	}
	for k, v := range cb.Raw {
		if known[k] || v == "" {
			continue
		}
		if d.Extra == nil {
			d.Extra = make(map[string]string)
		}
		d.Extra[k] = v
	}
	return d
}

func formatAddress(a order.ShippingAddress) string {
	parts := make([]string, 0, 5)
	for _, p := range []string{a.AddressLine, a.Ward, a.District, a.City, a.PostalCode} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
