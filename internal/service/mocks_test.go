package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/quyenltph31426/kiddie-kingdom-be/internal/datamodels/cart"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/datamodels/order"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/datamodels/payment"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/datamodels/product"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/datamodels/review"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/datamodels/user"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/datamodels/voucher"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/mail"
)

// ---------- 商品 ----------

type mockProductRepo struct {
	products   map[int64]*product.Product
	adjustFail bool // 强制库存调整失败
}

func newMockProductRepo(products ...*product.Product) *mockProductRepo {
	m := &mockProductRepo{products: make(map[int64]*product.Product)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockProductRepo) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (m *mockProductRepo) GetVariant(ctx context.Context, productID, variantID int64) (*product.Variant, error) {
	p, ok := m.products[productID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	for i := range p.Variants {
		if p.Variants[i].ID == variantID {
			return &p.Variants[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProductRepo) ListActive(ctx context.Context) ([]*product.Product, error) {
	var out []*product.Product
	for _, id := range m.sortedIDs() {
		if m.products[id].Active() {
			out = append(out, m.products[id])
		}
	}
	return out, nil
}

func (m *mockProductRepo) ListByCategory(ctx context.Context, category string) ([]*product.Product, error) {
	var out []*product.Product
	for _, id := range m.sortedIDs() {
		p := m.products[id]
		if p.Active() && p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProductRepo) ListAll(ctx context.Context) ([]*product.Product, error) {
	var out []*product.Product
	for _, id := range m.sortedIDs() {
		out = append(out, m.products[id])
	}
	return out, nil
}

func (m *mockProductRepo) Create(ctx context.Context, p *product.Product) error {
	m.products[p.ID] = p
	return nil
}

func (m *mockProductRepo) Update(ctx context.Context, p *product.Product) error {
	m.products[p.ID] = p
	return nil
}

func (m *mockProductRepo) Delete(ctx context.Context, id int64) error {
	delete(m.products, id)
	return nil
}

func (m *mockProductRepo) AdjustVariantStock(ctx context.Context, productID, variantID, quantity int64, debit bool) (bool, error) {
	if m.adjustFail {
		return false, nil
	}
	p, ok := m.products[productID]
	if !ok {
		return false, nil
	}
	for i := range p.Variants {
		v := &p.Variants[i]
		if v.ID != variantID {
			continue
		}
		if debit {
			if v.Quantity < quantity {
				return false, nil
			}
			v.Quantity -= quantity
		} else {
			v.Quantity += quantity
		}
		return true, nil
	}
	return false, nil
}

func (m *mockProductRepo) sortedIDs() []int64 {
	ids := make([]int64, 0, len(m.products))
	for id := range m.products {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (m *mockProductRepo) stock(productID, variantID int64) int64 {
	p, ok := m.products[productID]
	if !ok {
		return -1
	}
	for i := range p.Variants {
		if p.Variants[i].ID == variantID {
			return p.Variants[i].Quantity
		}
	}
	return -1
}

// ---------- 订单 ----------

// mockOrderRepo 的状态流转复刻仓储契约：
// 带条件判断，不满足返回 false 且不做修改。
type mockOrderRepo struct {
	orders    map[int64]*order.Order
	nextID    int64
	createErr error
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[int64]*order.Order)}
}

func (m *mockOrderRepo) Create(ctx context.Context, o *order.Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	o.ID = m.nextID
	o.CreatedAt = time.Now()
	for i := range o.Items {
		o.Items[i].ID = int64(i + 1)
		o.Items[i].OrderID = o.ID
	}
	m.orders[o.ID] = o
	return nil
}

func (m *mockOrderRepo) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return o, nil
}

func (m *mockOrderRepo) GetByCode(ctx context.Context, code string) (*order.Order, error) {
	for _, o := range m.orders {
		if o.Code == code {
			return o, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockOrderRepo) GetForUser(ctx context.Context, id, userID int64) (*order.Order, error) {
	o, ok := m.orders[id]
	if !ok || o.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return o, nil
}

func (m *mockOrderRepo) ListByUser(ctx context.Context, userID int64, f order.ListFilter) ([]*order.Order, int64, error) {
	var out []*order.Order
	for id := m.nextID; id >= 1; id-- {
		o, ok := m.orders[id]
		if !ok || o.UserID != userID {
			continue
		}
		if f.PaymentStatus != "" && o.PaymentStatus != f.PaymentStatus {
			continue
		}
		if f.ShippingStatus != "" && o.ShippingStatus != f.ShippingStatus {
			continue
		}
		out = append(out, o)
	}
	return out, int64(len(out)), nil
}

func (m *mockOrderRepo) ListRecent(ctx context.Context, limit int) ([]*order.Order, error) {
	var out []*order.Order
	for id := m.nextID; id >= 1 && len(out) < limit; id-- {
		if o, ok := m.orders[id]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) MarkPaid(ctx context.Context, id int64, paidAt time.Time) (bool, error) {
	o, ok := m.orders[id]
	if !ok || o.PaymentStatus != order.PaymentStatusPending {
		return false, nil
	}
	o.PaymentStatus = order.PaymentStatusCompleted
	o.PaidAt = &paidAt
	return true, nil
}

func (m *mockOrderRepo) CancelPending(ctx context.Context, id int64, reason string, at time.Time) (bool, error) {
	o, ok := m.orders[id]
	if !ok || o.PaymentStatus != order.PaymentStatusPending {
		return false, nil
	}
	o.PaymentStatus = order.PaymentStatusFailed
	o.ShippingStatus = order.ShippingStatusCanceled
	o.CancelledAt = &at
	o.CancelledReason = reason
	return true, nil
}

func (m *mockOrderRepo) CancelCOD(ctx context.Context, id int64, reason string, at time.Time) (bool, error) {
	o, ok := m.orders[id]
	if !ok ||
		o.PaymentMethod != order.PaymentMethodCOD ||
		o.PaymentStatus != order.PaymentStatusPending ||
		o.ShippingStatus != order.ShippingStatusPending {
		return false, nil
	}
	o.ShippingStatus = order.ShippingStatusCanceled
	o.CancelledAt = &at
	o.CancelledReason = reason
	return true, nil
}

func (m *mockOrderRepo) MarkShipped(ctx context.Context, id int64, at time.Time) (bool, error) {
	o, ok := m.orders[id]
	if !ok || o.ShippingStatus != order.ShippingStatusPending {
		return false, nil
	}
	o.ShippingStatus = order.ShippingStatusShipped
	o.ShippedAt = &at
	return true, nil
}

func (m *mockOrderRepo) MarkDelivered(ctx context.Context, id int64, at time.Time) (bool, error) {
	o, ok := m.orders[id]
	if !ok || o.ShippingStatus != order.ShippingStatusShipped {
		return false, nil
	}
	o.ShippingStatus = order.ShippingStatusDelivered
	o.DeliveredAt = &at
	return true, nil
}

// ---------- 支付流水 ----------

type mockPaymentRepo struct {
	byTxn  map[string]*payment.History
	orders *mockOrderRepo
	nextID int64
}

func newMockPaymentRepo(orders *mockOrderRepo) *mockPaymentRepo {
	return &mockPaymentRepo{byTxn: make(map[string]*payment.History), orders: orders}
}

func (m *mockPaymentRepo) Create(ctx context.Context, h *payment.History) error {
	if _, exists := m.byTxn[h.TransactionID]; exists {
		return fmt.Errorf("duplicate transaction id %q", h.TransactionID)
	}
	m.nextID++
	h.ID = m.nextID
	h.CreatedAt = time.Now()
	m.byTxn[h.TransactionID] = h
	return nil
}

func (m *mockPaymentRepo) GetByTransactionID(ctx context.Context, txnID string) (*payment.History, error) {
	h, ok := m.byTxn[txnID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return h, nil
}

func (m *mockPaymentRepo) ListByOrder(ctx context.Context, orderID int64) ([]*payment.History, error) {
	var out []*payment.History
	for _, h := range m.byTxn {
		if h.OrderID == orderID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *mockPaymentRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]*payment.History, error) {
	var out []*payment.History
	for _, h := range m.byTxn {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *mockPaymentRepo) ListRecent(ctx context.Context, limit int) ([]*payment.History, error) {
	var out []*payment.History
	for _, h := range m.byTxn {
		out = append(out, h)
	}
	return out, nil
}

func (m *mockPaymentRepo) Complete(ctx context.Context, orderID int64, txnID string, details payment.Details, paidAt time.Time) (bool, error) {
	h, ok := m.byTxn[txnID]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	if h.Terminal() {
		return false, nil
	}
	h.Status = payment.StatusCompleted
	h.Details = details
	h.CompletedAt = &paidAt
	// 订单若已被其它流水推进，条件更新不命中也不算错
	_, _ = m.orders.MarkPaid(ctx, orderID, paidAt)
	return true, nil
}

func (m *mockPaymentRepo) Fail(ctx context.Context, txnID string, reason string) (bool, error) {
	h, ok := m.byTxn[txnID]
	if !ok || h.Status != payment.StatusPending {
		return false, nil
	}
	h.Status = payment.StatusFailed
	h.FailureReason = reason
	return true, nil
}

// ---------- 优惠券 ----------

type mockVoucherRepo struct {
	byID map[int64]*voucher.Voucher
}

func newMockVoucherRepo(vouchers ...*voucher.Voucher) *mockVoucherRepo {
	m := &mockVoucherRepo{byID: make(map[int64]*voucher.Voucher)}
	for _, v := range vouchers {
		m.byID[v.ID] = v
	}
	return m
}

func (m *mockVoucherRepo) GetByCode(ctx context.Context, code string) (*voucher.Voucher, error) {
	for _, v := range m.byID {
		if v.Code == code {
			return v, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockVoucherRepo) GetByID(ctx context.Context, id int64) (*voucher.Voucher, error) {
	v, ok := m.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return v, nil
}

func (m *mockVoucherRepo) Create(ctx context.Context, v *voucher.Voucher) error {
	m.byID[v.ID] = v
	return nil
}

func (m *mockVoucherRepo) ListAll(ctx context.Context) ([]*voucher.Voucher, error) {
	var out []*voucher.Voucher
	for _, v := range m.byID {
		out = append(out, v)
	}
	return out, nil
}

func (m *mockVoucherRepo) IncrementUsage(ctx context.Context, id int64) (bool, error) {
	v, ok := m.byID[id]
	if !ok {
		return false, nil
	}
	if v.UsageLimit > 0 && v.UsedCount >= v.UsageLimit {
		return false, nil
	}
	v.UsedCount++
	return true, nil
}

// ---------- 用户 ----------

type mockUserRepo struct {
	byID map[int64]*user.User
}

func newMockUserRepo(users ...*user.User) *mockUserRepo {
	m := &mockUserRepo{byID: make(map[int64]*user.User)}
	for _, u := range users {
		m.byID[u.ID] = u
	}
	return m
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	for _, u := range m.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Create(ctx context.Context, u *user.User) error {
	m.byID[u.ID] = u
	return nil
}

func (m *mockUserRepo) ListAll(ctx context.Context) ([]*user.User, error) {
	var out []*user.User
	for _, u := range m.byID {
		out = append(out, u)
	}
	return out, nil
}

// ---------- 评价 ----------

type mockReviewRepo struct {
	reviewed map[string]bool
	counts   map[int64]int64
}

func newMockReviewRepo() *mockReviewRepo {
	return &mockReviewRepo{reviewed: make(map[string]bool), counts: make(map[int64]int64)}
}

func reviewKey(orderID, productID, userID int64) string {
	return fmt.Sprintf("%d:%d:%d", orderID, productID, userID)
}

func (m *mockReviewRepo) Create(ctx context.Context, r *review.Review) error {
	m.reviewed[reviewKey(r.OrderID, r.ProductID, r.UserID)] = true
	if r.Status == 1 {
		m.counts[r.ProductID]++
	}
	return nil
}

func (m *mockReviewRepo) ListByProduct(ctx context.Context, productID int64, limit int) ([]*review.Review, error) {
	return nil, nil
}

func (m *mockReviewRepo) ExistsForOrderItem(ctx context.Context, orderID, productID, userID int64) (bool, error) {
	return m.reviewed[reviewKey(orderID, productID, userID)], nil
}

func (m *mockReviewRepo) CountByProduct(ctx context.Context, productID int64) (int64, error) {
	return m.counts[productID], nil
}

// ---------- 购物车 ----------

type mockCartStore struct {
	carts   map[int64]*cart.Cart
	saveErr error
}

func newMockCartStore() *mockCartStore {
	return &mockCartStore{carts: make(map[int64]*cart.Cart)}
}

func (m *mockCartStore) Get(ctx context.Context, userID int64) (*cart.Cart, error) {
	if c, ok := m.carts[userID]; ok {
		return c, nil
	}
	return &cart.Cart{UserID: userID}, nil
}

func (m *mockCartStore) Save(ctx context.Context, c *cart.Cart) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.carts[c.UserID] = c
	return nil
}

func (m *mockCartStore) Clear(ctx context.Context, userID int64) error {
	delete(m.carts, userID)
	return nil
}

// ---------- 邮件 ----------

type mockMailer struct {
	sent    []*mail.OrderConfirmation
	sendErr error
}

func (m *mockMailer) SendOrderConfirmation(ctx context.Context, msg *mail.OrderConfirmation) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, msg)
	return nil
}
