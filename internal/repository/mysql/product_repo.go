package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/quyenltph31426/kiddie-kingdom-be/internal/datamodels/product"
)

type productRepo struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) product.Repository {
	return &productRepo{db: db}
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	var p product.Product
	if err := r.db.WithContext(ctx).Preload("Variants").First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) GetVariant(ctx context.Context, productID, variantID int64) (*product.Variant, error) {
	var v product.Variant
	if err := r.db.WithContext(ctx).
		Where("id = ? AND product_id = ?", variantID, productID).
		First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *productRepo) ListActive(ctx context.Context) ([]*product.Product, error) {
	var list []*product.Product
	if err := r.db.WithContext(ctx).
		Preload("Variants").
		Where("status = ?", 1).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *productRepo) ListByCategory(ctx context.Context, category string) ([]*product.Product, error) {
	var list []*product.Product
	query := r.db.WithContext(ctx).Preload("Variants").Where("status = ?", 1)
	if category != "" && category != "all" {
		query = query.Where("category = ?", category)
	}
	if err := query.Order("id DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *productRepo) ListAll(ctx context.Context) ([]*product.Product, error) {
	var list []*product.Product
	if err := r.db.WithContext(ctx).
		Preload("Variants").
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *productRepo) Create(ctx context.Context, p *product.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) Update(ctx context.Context, p *product.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *productRepo) Delete(ctx context.Context, id int64) error {
	// 先删除关联的 SKU
	if err := r.db.WithContext(ctx).Where("product_id = ?", id).Delete(&product.Variant{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&product.Product{}, id).Error
}

func (r *productRepo) AdjustVariantStock(ctx context.Context, productID, variantID, quantity int64, debit bool) (bool, error) {
	query := r.db.WithContext(ctx).Model(&product.Variant{}).
		Where("id = ? AND product_id = ?", variantID, productID)
	if debit {
		// 条件更新保证库存永不为负
		query = query.Where("quantity >= ?", quantity)
	}
	expr := gorm.Expr("quantity + ?", quantity)
	if debit {
		expr = gorm.Expr("quantity - ?", quantity)
	}
	res := query.Update("quantity", expr)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
