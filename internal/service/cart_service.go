package service

import (
	"context"
	"fmt"

	"github.com/quyenltph31426/kiddie-kingdom-be/internal/datamodels/cart"
)

// CartService 购物车读写。
// 只做结构校验，商品与库存的完整校验在下单时进行。
type CartService struct {
	store cart.Store
}

// NewCartService 创建购物车服务
func NewCartService(store cart.Store) *CartService {
	return &CartService{store: store}
}

// Get 读取购物车
func (s *CartService) Get(ctx context.Context, userID int64) (*cart.Cart, error) {
	c, err := s.store.Get(ctx, userID)
	if err != nil {
		GetMonitor().RecordRedisError()
		return nil, err
	}
	return c, nil
}

// Replace 整体覆盖购物车，数量非正的行被剔除
func (s *CartService) Replace(ctx context.Context, userID int64, items []cart.Item) (*cart.Cart, error) {
	c := &cart.Cart{UserID: userID}
	for _, it := range items {
		if it.ProductID <= 0 {
			return nil, fmt.Errorf("非法商品: %d", it.ProductID)
		}
		if it.Quantity > 0 {
			c.Items = append(c.Items, it)
		}
	}
	if err := s.store.Save(ctx, c); err != nil {
		GetMonitor().RecordRedisError()
		return nil, err
	}
	return c, nil
}

// Add 合并一行（数量可为负，归零即删行）
func (s *CartService) Add(ctx context.Context, userID int64, it cart.Item) (*cart.Cart, error) {
	if it.ProductID <= 0 {
		return nil, fmt.Errorf("非法商品: %d", it.ProductID)
	}
	c, err := s.store.Get(ctx, userID)
	if err != nil {
		GetMonitor().RecordRedisError()
		return nil, err
	}
	c.Merge(it)
	if err := s.store.Save(ctx, c); err != nil {
		GetMonitor().RecordRedisError()
		return nil, err
	}
	return c, nil
}

// Clear 清空购物车
func (s *CartService) Clear(ctx context.Context, userID int64) error {
	if err := s.store.Clear(ctx, userID); err != nil {
		GetMonitor().RecordRedisError()
		return err
	}
	return nil
}
