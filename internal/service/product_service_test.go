package service

import (
	"context"
	"errors"
	"testing"

	"github.com/quyenltph31426/kiddie-kingdom-be/internal/datamodels/review"
)

func TestProductGetDetail(t *testing.T) {
	reviews := newMockReviewRepo()
	svc := NewProductService(newMockProductRepo(bikeProduct()), reviews)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := reviews.Create(ctx, &review.Review{OrderID: int64(i + 1), ProductID: 1, UserID: 7, Rating: 5, Status: 1}); err != nil {
			t.Fatalf("seed review: %v", err)
		}
	}

	detail, err := svc.GetDetail(ctx, 1)
	if err != nil {
		t.Fatalf("GetDetail: %v", err)
	}
	if detail.ReviewCount != 3 {
		t.Errorf("ReviewCount = %d, want 3", detail.ReviewCount)
	}
	if len(detail.Variants) != 2 {
		t.Errorf("variants = %d, want 2", len(detail.Variants))
	}

	if _, err := svc.GetDetail(ctx, 999); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("missing product = %v, want ErrProductNotFound", err)
	}
}

// 后台手工调库存：正数补货、负数扣减、扣超与规格不存在分别报错
func TestProductAdjustStock(t *testing.T) {
	repo := newMockProductRepo(bikeProduct())
	svc := NewProductService(repo, newMockReviewRepo())
	ctx := context.Background()

	v, err := svc.AdjustStock(ctx, 1, 11, 5)
	if err != nil {
		t.Fatalf("AdjustStock +5: %v", err)
	}
	if v.Quantity != 10 {
		t.Errorf("quantity after restock = %d, want 10", v.Quantity)
	}

	v, err = svc.AdjustStock(ctx, 1, 11, -4)
	if err != nil {
		t.Fatalf("AdjustStock -4: %v", err)
	}
	if v.Quantity != 6 {
		t.Errorf("quantity after debit = %d, want 6", v.Quantity)
	}

	if _, err := svc.AdjustStock(ctx, 1, 11, -7); !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("over-debit = %v, want ErrInsufficientStock", err)
	}
	if got := repo.stock(1, 11); got != 6 {
		t.Errorf("stock after rejected debit = %d, want 6", got)
	}

	if _, err := svc.AdjustStock(ctx, 1, 999, 1); !errors.Is(err, ErrVariantNotFound) {
		t.Errorf("missing variant = %v, want ErrVariantNotFound", err)
	}
}

func TestProductListActive(t *testing.T) {
	inactive := bikeProduct()
	inactive.ID = 2
	inactive.Status = 0
	svc := NewProductService(newMockProductRepo(bikeProduct(), inactive), newMockReviewRepo())

	list, err := svc.ListActive(context.Background())
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(list) != 1 || list[0].ID != 1 {
		t.Errorf("active products: %+v", list)
	}
}
