package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/quyenltph31426/kiddie-kingdom-be/internal/datamodels/cart"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/datamodels/order"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/datamodels/product"
)

// InventoryService 下单前的商品/规格/库存解析与下单后的库存调整
type InventoryService struct {
	products product.Repository
}

// NewInventoryService 创建库存服务
func NewInventoryService(products product.Repository) *InventoryService {
	return &InventoryService{products: products}
}

// ResolveAndReserve 把购物行解析成带价格与名称快照的订单行。
// 各行并行校验，任何一行失败整体失败，错误信息指向具体商品；
// 未指定规格的行可能拆成多条订单行（份额分摊到多个规格上）。
// 这一步只校验不扣库存，扣减在订单落库之后由 DebitStock 逐项执行。
func (s *InventoryService) ResolveAndReserve(ctx context.Context, items []cart.Item) ([]order.OrderItem, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("订单至少需要一个商品")
	}

	resolved := make([][]order.OrderItem, len(items))
	g, gctx := errgroup.WithContext(ctx)
	for i, it := range items {
		i, it := i, it
		g.Go(func() error {
			lines, err := s.resolveLine(gctx, it)
			if err != nil {
				return err
			}
			resolved[i] = lines
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]order.OrderItem, 0, len(items))
	for _, lines := range resolved {
		out = append(out, lines...)
	}
	return out, nil
}

func (s *InventoryService) resolveLine(ctx context.Context, it cart.Item) ([]order.OrderItem, error) {
	if it.Quantity <= 0 {
		return nil, fmt.Errorf("商品 %d 的购买数量必须大于 0", it.ProductID)
	}

	p, err := s.products.GetByID(ctx, it.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id=%d", ErrProductNotFound, it.ProductID)
		}
		return nil, err
	}
	if !p.Active() {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, p.Name)
	}
	if len(p.Variants) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPurchasableVariant, p.Name)
	}

	if it.VariantID > 0 {
		var chosen *product.Variant
		for i := range p.Variants {
			if p.Variants[i].ID == it.VariantID {
				chosen = &p.Variants[i]
				break
			}
		}
		if chosen == nil {
			return nil, fmt.Errorf("%w: %s(规格 %d)", ErrVariantNotFound, p.Name, it.VariantID)
		}
		if chosen.Quantity < it.Quantity {
			return nil, fmt.Errorf("%w: %s", ErrInsufficientStock, p.Name)
		}
		return []order.OrderItem{{
			ProductID:   p.ID,
			VariantID:   chosen.ID,
			Quantity:    it.Quantity,
			UnitPrice:   chosen.Price,
			ProductName: p.Name,
			Attributes:  chosen.Attributes,
		}}, nil
	}

	// 未指定规格：校验所有规格的总库存，按最低价计价。
	// 份额从最低价规格起逐个分摊成多条订单行，
	// 保证后续扣减落在真实库存上，不会把数量堆到单个规格上扣不动。
	variants := make([]*product.Variant, 0, len(p.Variants))
	var total int64
	for i := range p.Variants {
		variants = append(variants, &p.Variants[i])
		total += p.Variants[i].Quantity
	}
	if total < it.Quantity {
		return nil, fmt.Errorf("%w: %s", ErrInsufficientStock, p.Name)
	}
	sort.Slice(variants, func(i, j int) bool {
		if variants[i].Price != variants[j].Price {
			return variants[i].Price < variants[j].Price
		}
		return variants[i].ID < variants[j].ID
	})
	unitPrice := variants[0].Price

	lines := make([]order.OrderItem, 0, 1)
	remaining := it.Quantity
	for _, v := range variants {
		if remaining == 0 {
			break
		}
		take := v.Quantity
		if take > remaining {
			take = remaining
		}
		if take == 0 {
			continue
		}
		lines = append(lines, order.OrderItem{
			ProductID:   p.ID,
			VariantID:   v.ID,
			Quantity:    take,
			UnitPrice:   unitPrice,
			ProductName: p.Name,
			Attributes:  v.Attributes,
		})
		remaining -= take
	}
	return lines, nil
}

// DebitStock 订单落库后逐项扣库存。单项失败只记录不回滚已扣项，
// 留下的对账缺口由运营侧核对处理。
func (s *InventoryService) DebitStock(ctx context.Context, items []order.OrderItem) {
	for _, it := range items {
		ok, err := s.products.AdjustVariantStock(ctx, it.ProductID, it.VariantID, it.Quantity, true)
		if err != nil || !ok {
			GetMonitor().RecordStockAdjustFailure()
			zap.L().Warn("stock debit failed",
				zap.Int64("product_id", it.ProductID),
				zap.Int64("variant_id", it.VariantID),
				zap.Int64("quantity", it.Quantity),
				zap.Error(err))
		}
	}
}

// RestoreStock 取消订单时逐项回补库存，返回是否全部成功
func (s *InventoryService) RestoreStock(ctx context.Context, items []order.OrderItem) bool {
	allOK := true
	for _, it := range items {
		ok, err := s.products.AdjustVariantStock(ctx, it.ProductID, it.VariantID, it.Quantity, false)
		if err != nil || !ok {
			allOK = false
			GetMonitor().RecordStockAdjustFailure()
			zap.L().Warn("stock restore failed",
				zap.Int64("product_id", it.ProductID),
				zap.Int64("variant_id", it.VariantID),
				zap.Int64("quantity", it.Quantity),
				zap.Error(err))
		}
	}
	return allOK
}
