package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/quyenltph31426/kiddie-kingdom-be/internal/datamodels/cart"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/datamodels/order"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/datamodels/product"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/datamodels/review"
)

// OrderService 订单聚合：下单、取消、发起支付与查询
type OrderService struct {
	orders    order.Repository
	products  product.Repository
	reviews   review.Repository
	inventory *InventoryService
	vouchers  *VoucherService
	payments  *PaymentService
}

// NewOrderService 创建订单服务
func NewOrderService(
	orders order.Repository,
	products product.Repository,
	reviews review.Repository,
	inventory *InventoryService,
	vouchers *VoucherService,
	payments *PaymentService,
) *OrderService {
	return &OrderService{
		orders:    orders,
		products:  products,
		reviews:   reviews,
		inventory: inventory,
		vouchers:  vouchers,
		payments:  payments,
	}
}

// CreateOrderRequest 下单入参
type CreateOrderRequest struct {
	Items         []cart.Item           `json:"items"`
	PaymentMethod order.PaymentMethod   `json:"payment_method"`
	VoucherCode   string                `json:"voucher_code"`
	Address       order.ShippingAddress `json:"shipping_address"`
	ClientIP      string                `json:"-"`
}

// CreateResult 下单结果，在线支付订单附带网关跳转信息
type CreateResult struct {
	Order    *order.Order  `json:"order"`
	Redirect *RedirectInfo `json:"payment,omitempty"`
}

// Create 下单。
// 1) 并行解析校验所有购物行（任何一行失败整单失败，不落库）
// 2) 服务端重算金额，可选校验优惠券
// 3) 生成订单号并连同订单行一次性落库
// 4) 落库后核销优惠券、逐项扣库存（两者失败都只记录）
// 5) 在线支付订单立即生成网关跳转
func (s *OrderService) Create(ctx context.Context, userID int64, req *CreateOrderRequest) (*CreateResult, error) {
	GetMonitor().RecordCheckoutRequest()

	if req.PaymentMethod != order.PaymentMethodCOD && req.PaymentMethod != order.PaymentMethodOnline {
		return nil, fmt.Errorf("不支持的支付方式: %q", req.PaymentMethod)
	}

	items, err := s.inventory.ResolveAndReserve(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	subtotal := order.ComputeSubtotal(items)

	var (
		discount  int64
		voucherID *int64
	)
	if req.VoucherCode != "" {
		d, err := s.vouchers.Verify(ctx, req.VoucherCode, subtotal)
		if err != nil {
			return nil, err
		}
		discount = d.Amount
		voucherID = &d.Voucher.ID
	}

	o := &order.Order{
		Code:            newOrderCode(time.Now()),
		UserID:          userID,
		Items:           items,
		Subtotal:        subtotal,
		DiscountAmount:  discount,
		TotalAmount:     order.ComputeTotal(subtotal, discount),
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   order.PaymentStatusPending,
		ShippingStatus:  order.ShippingStatusPending,
		VoucherID:       voucherID,
		ShippingAddress: req.Address,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		GetMonitor().RecordDBError()
		return nil, err
	}

	// 订单已落库，优惠券核销失败不回滚订单，只记录
	if voucherID != nil {
		if err := s.vouchers.Apply(ctx, *voucherID); err != nil {
			zap.L().Warn("voucher apply failed after order persisted",
				zap.Int64("order_id", o.ID),
				zap.Int64("voucher_id", *voucherID),
				zap.Error(err))
		}
	}

	s.inventory.DebitStock(ctx, o.Items)

	result := &CreateResult{Order: o}
	if o.PaymentMethod == order.PaymentMethodOnline {
		redirect, err := s.payments.CreateRedirect(ctx, o, req.ClientIP)
		if err != nil {
			// 订单已创建，跳转可稍后通过 pay 接口重新发起
			return nil, fmt.Errorf("发起支付失败: %w", err)
		}
		result.Redirect = redirect
	}

	GetMonitor().RecordCheckoutSuccess()
	return result, nil
}

// Cancel 取消订单。仅支付未完成的订单可取消；
// 支付置为 FAILED、履约置为 CANCELED，库存回补尽力而为。
func (s *OrderService) Cancel(ctx context.Context, orderID, userID int64) (*order.Order, error) {
	o, err := s.getOwned(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	ok, err := s.orders.CancelPending(ctx, o.ID, "用户取消", time.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrOrderNotCancellable
	}
	s.inventory.RestoreStock(ctx, o.Items)
	return s.orders.GetByID(ctx, o.ID)
}

// CancelCashOnDelivery 取消货到付款订单，要求未支付且未发货。
// 与普通取消不同，这条路径上库存回补失败按内部错误上抛。
func (s *OrderService) CancelCashOnDelivery(ctx context.Context, orderID, userID int64, reason string) (*order.Order, error) {
	o, err := s.getOwned(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if reason == "" {
		reason = "用户取消"
	}
	ok, err := s.orders.CancelCOD(ctx, o.ID, reason, time.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrOrderNotCancellable
	}
	if !s.inventory.RestoreStock(ctx, o.Items) {
		return nil, ErrStockRestoreFailed
	}
	return s.orders.GetByID(ctx, o.ID)
}

// ProcessPayment 为在线支付订单（重新）发起网关跳转
func (s *OrderService) ProcessPayment(ctx context.Context, orderID, userID int64, clientIP string) (*RedirectInfo, error) {
	o, err := s.getOwned(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if !o.Payable() {
		return nil, ErrOrderNotPayable
	}
	return s.payments.CreateRedirect(ctx, o, clientIP)
}

// DetailItem 订单行及其商品目录信息与评价状态
type DetailItem struct {
	order.OrderItem
	ProductSlug   string `json:"product_slug,omitempty"`
	ProductImages string `json:"product_images,omitempty"`
	IsReviewed    bool   `json:"is_reviewed"`
}

// OrderDetail 订单详情
type OrderDetail struct {
	*order.Order
	Items []DetailItem `json:"items"`
}

// GetDetail 查询本人订单详情
func (s *OrderService) GetDetail(ctx context.Context, orderID, userID int64) (*OrderDetail, error) {
	o, err := s.getOwned(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, o), nil
}

// List 分页查询本人订单
func (s *OrderService) List(ctx context.Context, userID int64, f order.ListFilter) ([]*order.Order, int64, error) {
	return s.orders.ListByUser(ctx, userID, f)
}

// ListRecent 后台查询最近订单
func (s *OrderService) ListRecent(ctx context.Context, limit int) ([]*order.Order, error) {
	return s.orders.ListRecent(ctx, limit)
}

// AdminGet 后台按 ID 查询订单详情（不做归属校验）
func (s *OrderService) AdminGet(ctx context.Context, orderID int64) (*OrderDetail, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return s.enrich(ctx, o), nil
}

// AdminGetByCode 后台按订单号查询详情，客服对账拿到的通常是订单号而非内部 ID
func (s *OrderService) AdminGetByCode(ctx context.Context, code string) (*OrderDetail, error) {
	o, err := s.orders.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return s.enrich(ctx, o), nil
}

// MarkShipped 后台发货：履约 PENDING → SHIPPED
func (s *OrderService) MarkShipped(ctx context.Context, orderID int64) (*order.Order, error) {
	if _, err := s.orders.GetByID(ctx, orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	ok, err := s.orders.MarkShipped(ctx, orderID, time.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrOrderNotShippable
	}
	return s.orders.GetByID(ctx, orderID)
}

// MarkDelivered 后台签收：履约 SHIPPED → DELIVERED。
// 货到付款订单在签收时同步完成支付。
func (s *OrderService) MarkDelivered(ctx context.Context, orderID int64) (*order.Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	now := time.Now()
	ok, err := s.orders.MarkDelivered(ctx, orderID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrOrderNotDeliverable
	}
	if o.PaymentMethod == order.PaymentMethodCOD {
		if _, err := s.orders.MarkPaid(ctx, orderID, now); err != nil {
			zap.L().Warn("mark cod order paid on delivery failed",
				zap.Int64("order_id", orderID), zap.Error(err))
		}
	}
	return s.orders.GetByID(ctx, orderID)
}

func (s *OrderService) getOwned(ctx context.Context, orderID, userID int64) (*order.Order, error) {
	o, err := s.orders.GetForUser(ctx, orderID, userID)
	if err != nil {
		// 不存在与不属于本人对外不区分
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return o, nil
}

// enrich 给订单行补充商品目录信息与评价状态，查不到时保持快照原样
func (s *OrderService) enrich(ctx context.Context, o *order.Order) *OrderDetail {
	detail := &OrderDetail{Order: o, Items: make([]DetailItem, 0, len(o.Items))}
	for _, it := range o.Items {
		di := DetailItem{OrderItem: it}
		if p, err := s.products.GetByID(ctx, it.ProductID); err == nil {
			di.ProductSlug = p.Slug
			di.ProductImages = p.Images
		}
		if reviewed, err := s.reviews.ExistsForOrderItem(ctx, o.ID, it.ProductID, o.UserID); err == nil {
			di.IsReviewed = reviewed
		}
		detail.Items = append(detail.Items, di)
	}
	return detail
}

// newOrderCode 订单号：OD + 时间戳 + 4 位随机数。
// 碰撞概率可忽略，数据库唯一索引兜底。
func newOrderCode(t time.Time) string {
	return fmt.Sprintf("OD%s%04d", t.Format("060102150405"), rand.Intn(10000))
}
