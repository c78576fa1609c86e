package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/quyenltph31426/kiddie-kingdom-be/internal/datamodels/product"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/datamodels/review"
)

// ProductService 商品目录读取与后台维护
type ProductService struct {
	products product.Repository
	reviews  review.Repository
}

// NewProductService 创建商品服务
func NewProductService(products product.Repository, reviews review.Repository) *ProductService {
	return &ProductService{products: products, reviews: reviews}
}

// ProductDetail 商品详情，附带评价数
type ProductDetail struct {
	*product.Product
	ReviewCount int64 `json:"review_count"`
}

func (s *ProductService) ListActive(ctx context.Context) ([]*product.Product, error) {
	return s.products.ListActive(ctx)
}

func (s *ProductService) ListAll(ctx context.Context) ([]*product.Product, error) {
	return s.products.ListAll(ctx)
}

func (s *ProductService) ListByCategory(ctx context.Context, category string) ([]*product.Product, error) {
	return s.products.ListByCategory(ctx, category)
}

// GetDetail 商品详情（含 SKU 列表与评价数）
func (s *ProductService) GetDetail(ctx context.Context, id int64) (*ProductDetail, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	detail := &ProductDetail{Product: p}
	if count, err := s.reviews.CountByProduct(ctx, id); err == nil {
		detail.ReviewCount = count
	}
	return detail, nil
}

// AdjustStock 后台手工调整规格库存，delta 可正可负，返回调整后的规格
func (s *ProductService) AdjustStock(ctx context.Context, productID, variantID, delta int64) (*product.Variant, error) {
	if delta == 0 {
		v, err := s.products.GetVariant(ctx, productID, variantID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVariantNotFound
		}
		return v, err
	}
	qty, debit := delta, false
	if qty < 0 {
		qty, debit = -qty, true
	}
	ok, err := s.products.AdjustVariantStock(ctx, productID, variantID, qty, debit)
	if err != nil {
		return nil, err
	}
	if !ok {
		// 规格不存在与库存不足都不会命中条件更新，查一次区分开
		if _, err := s.products.GetVariant(ctx, productID, variantID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrVariantNotFound
			}
			return nil, err
		}
		return nil, ErrInsufficientStock
	}
	return s.products.GetVariant(ctx, productID, variantID)
}

func (s *ProductService) Create(ctx context.Context, p *product.Product) error {
	return s.products.Create(ctx, p)
}

func (s *ProductService) Update(ctx context.Context, p *product.Product) error {
	return s.products.Update(ctx, p)
}

func (s *ProductService) Delete(ctx context.Context, id int64) error {
	return s.products.Delete(ctx, id)
}
