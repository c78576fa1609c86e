package service

import (
	"context"
	"testing"

	"github.com/quyenltph31426/kiddie-kingdom-be/internal/datamodels/cart"
)

func TestCartService_AddAndGet(t *testing.T) {
	svc := NewCartService(newMockCartStore())
	ctx := context.Background()

	c, err := svc.Add(ctx, 7, cart.Item{ProductID: 1, VariantID: 11, Quantity: 2})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(c.Items) != 1 || c.Items[0].Quantity != 2 {
		t.Errorf("cart after add: %+v", c)
	}

	// 同一行合并
	c, err = svc.Add(ctx, 7, cart.Item{ProductID: 1, VariantID: 11, Quantity: 3})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(c.Items) != 1 || c.Items[0].Quantity != 5 {
		t.Errorf("cart after merge: %+v", c)
	}

	got, err := svc.Get(ctx, 7)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].Quantity != 5 {
		t.Errorf("persisted cart: %+v", got)
	}

	// 其他用户的购物车互不可见
	other, err := svc.Get(ctx, 8)
	if err != nil {
		t.Fatalf("Get other: %v", err)
	}
	if len(other.Items) != 0 {
		t.Errorf("user 8 cart should be empty: %+v", other)
	}
}

func TestCartService_Replace(t *testing.T) {
	svc := NewCartService(newMockCartStore())
	ctx := context.Background()

	c, err := svc.Replace(ctx, 7, []cart.Item{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 0},  // 非正数量剔除
		{ProductID: 3, Quantity: -1}, // 同上
	})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if len(c.Items) != 1 || c.Items[0].ProductID != 1 {
		t.Errorf("cart after replace: %+v", c)
	}

	if _, err := svc.Replace(ctx, 7, []cart.Item{{ProductID: 0, Quantity: 1}}); err == nil {
		t.Error("invalid product id must be rejected")
	}
}

func TestCartService_Clear(t *testing.T) {
	svc := NewCartService(newMockCartStore())
	ctx := context.Background()

	if _, err := svc.Add(ctx, 7, cart.Item{ProductID: 1, Quantity: 1}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := svc.Clear(ctx, 7); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	c, err := svc.Get(ctx, 7)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(c.Items) != 0 {
		t.Errorf("cart should be empty after clear: %+v", c)
	}
}
