package service

import (
	"context"
	"errors"
	"testing"

	"github.com/quyenltph31426/kiddie-kingdom-be/internal/datamodels/cart"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/datamodels/product"
)

func bikeProduct() *product.Product {
	return &product.Product{
		ID:     1,
		Name:   "Xe dap tre em",
		Status: 1,
		Variants: []product.Variant{
			{ID: 11, ProductID: 1, SKU: "BIKE-BLU", Attributes: `{"color":"xanh"}`, Price: 1590000, Quantity: 5},
			{ID: 12, ProductID: 1, SKU: "BIKE-PNK", Attributes: `{"color":"hong"}`, Price: 1490000, Quantity: 3},
		},
	}
}

func TestResolveAndReserve_SpecificVariant(t *testing.T) {
	svc := NewInventoryService(newMockProductRepo(bikeProduct()))

	items, err := svc.ResolveAndReserve(context.Background(), []cart.Item{
		{ProductID: 1, VariantID: 11, Quantity: 2},
	})
	if err != nil {
		t.Fatalf("ResolveAndReserve: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	it := items[0]
	if it.VariantID != 11 || it.UnitPrice != 1590000 || it.Quantity != 2 {
		t.Errorf("unexpected line: %+v", it)
	}
	if it.ProductName != "Xe dap tre em" || it.Attributes != `{"color":"xanh"}` {
		t.Errorf("snapshot fields not filled: %+v", it)
	}
}

// 未指定规格时按最低价规格成交
func TestResolveAndReserve_CheapestVariant(t *testing.T) {
	svc := NewInventoryService(newMockProductRepo(bikeProduct()))

	items, err := svc.ResolveAndReserve(context.Background(), []cart.Item{
		{ProductID: 1, Quantity: 1},
	})
	if err != nil {
		t.Fatalf("ResolveAndReserve: %v", err)
	}
	if items[0].VariantID != 12 {
		t.Errorf("VariantID = %d, want cheapest variant 12", items[0].VariantID)
	}
	if items[0].UnitPrice != 1490000 {
		t.Errorf("UnitPrice = %d, want 1490000", items[0].UnitPrice)
	}
}

// 未指定规格且数量超过最低价规格库存时，份额从最低价起拆到多个规格上，
// 统一按最低价计价，扣减后各规格库存真实减少
func TestResolveAndReserve_SplitAcrossVariants(t *testing.T) {
	repo := newMockProductRepo(bikeProduct())
	svc := NewInventoryService(repo)
	ctx := context.Background()

	// 最低价规格 12 只有 3 件，买 4 件要溢到规格 11
	items, err := svc.ResolveAndReserve(ctx, []cart.Item{
		{ProductID: 1, Quantity: 4},
	})
	if err != nil {
		t.Fatalf("ResolveAndReserve: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if items[0].VariantID != 12 || items[0].Quantity != 3 {
		t.Errorf("first line = %+v, want variant 12 qty 3", items[0])
	}
	if items[1].VariantID != 11 || items[1].Quantity != 1 {
		t.Errorf("second line = %+v, want variant 11 qty 1", items[1])
	}
	for _, it := range items {
		if it.UnitPrice != 1490000 {
			t.Errorf("line %+v priced at %d, want lowest price 1490000", it, it.UnitPrice)
		}
	}

	svc.DebitStock(ctx, items)
	if got := repo.stock(1, 12); got != 0 {
		t.Errorf("variant 12 stock after debit = %d, want 0", got)
	}
	if got := repo.stock(1, 11); got != 4 {
		t.Errorf("variant 11 stock after debit = %d, want 4", got)
	}

	// 取消回补后两个规格都恢复原量
	if !svc.RestoreStock(ctx, items) {
		t.Error("RestoreStock reported failure")
	}
	if got := repo.stock(1, 12); got != 3 {
		t.Errorf("variant 12 stock after restore = %d, want 3", got)
	}
	if got := repo.stock(1, 11); got != 5 {
		t.Errorf("variant 11 stock after restore = %d, want 5", got)
	}
}

func TestResolveAndReserve_InsufficientStock(t *testing.T) {
	svc := NewInventoryService(newMockProductRepo(bikeProduct()))

	// 指定规格：库存 5，要 6
	_, err := svc.ResolveAndReserve(context.Background(), []cart.Item{
		{ProductID: 1, VariantID: 11, Quantity: 6},
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("expected ErrInsufficientStock, got %v", err)
	}

	// 未指定规格：总库存 8，要 9
	_, err = svc.ResolveAndReserve(context.Background(), []cart.Item{
		{ProductID: 1, Quantity: 9},
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("expected ErrInsufficientStock for summed stock, got %v", err)
	}
}

func TestResolveAndReserve_ProductProblems(t *testing.T) {
	inactive := bikeProduct()
	inactive.ID = 2
	inactive.Status = 0

	bare := &product.Product{ID: 3, Name: "Chua len ke", Status: 1}

	svc := NewInventoryService(newMockProductRepo(bikeProduct(), inactive, bare))
	ctx := context.Background()

	if _, err := svc.ResolveAndReserve(ctx, []cart.Item{{ProductID: 999, Quantity: 1}}); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("missing product: expected ErrProductNotFound, got %v", err)
	}
	if _, err := svc.ResolveAndReserve(ctx, []cart.Item{{ProductID: 2, Quantity: 1}}); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("inactive product: expected ErrProductNotFound, got %v", err)
	}
	if _, err := svc.ResolveAndReserve(ctx, []cart.Item{{ProductID: 3, Quantity: 1}}); !errors.Is(err, ErrNoPurchasableVariant) {
		t.Errorf("no variants: expected ErrNoPurchasableVariant, got %v", err)
	}
	if _, err := svc.ResolveAndReserve(ctx, []cart.Item{{ProductID: 1, VariantID: 999, Quantity: 1}}); !errors.Is(err, ErrVariantNotFound) {
		t.Errorf("missing variant: expected ErrVariantNotFound, got %v", err)
	}
	if _, err := svc.ResolveAndReserve(ctx, nil); err == nil {
		t.Error("empty items: expected error")
	}
	if _, err := svc.ResolveAndReserve(ctx, []cart.Item{{ProductID: 1, Quantity: 0}}); err == nil {
		t.Error("zero quantity: expected error")
	}
}

// 任何一行失败整体失败
func TestResolveAndReserve_OneBadLineFailsAll(t *testing.T) {
	svc := NewInventoryService(newMockProductRepo(bikeProduct()))

	_, err := svc.ResolveAndReserve(context.Background(), []cart.Item{
		{ProductID: 1, VariantID: 11, Quantity: 1},
		{ProductID: 999, Quantity: 1},
	})
	if !errors.Is(err, ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound, got %v", err)
	}
}

func TestDebitAndRestoreStock(t *testing.T) {
	repo := newMockProductRepo(bikeProduct())
	svc := NewInventoryService(repo)
	ctx := context.Background()

	items, err := svc.ResolveAndReserve(ctx, []cart.Item{
		{ProductID: 1, VariantID: 11, Quantity: 2},
	})
	if err != nil {
		t.Fatalf("ResolveAndReserve: %v", err)
	}

	svc.DebitStock(ctx, items)
	if got := repo.stock(1, 11); got != 3 {
		t.Errorf("stock after debit = %d, want 3", got)
	}

	if !svc.RestoreStock(ctx, items) {
		t.Error("RestoreStock reported failure")
	}
	if got := repo.stock(1, 11); got != 5 {
		t.Errorf("stock after restore = %d, want 5", got)
	}

	repo.adjustFail = true
	if svc.RestoreStock(ctx, items) {
		t.Error("RestoreStock should report failure when adjustments fail")
	}
}
