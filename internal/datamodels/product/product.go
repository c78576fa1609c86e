package product

import (
	"context"
	"time"
)

// Product 商品模型（SPU），可购买库存全部挂在 SKU 上
type Product struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Slug        string    `gorm:"uniqueIndex;size:255" json:"slug"`
	Description string    `gorm:"size:2048" json:"description"`
	Category    string    `gorm:"size:64;index" json:"category"`
	Images      string    `gorm:"size:2048" json:"images"` // 图片 URL 列表（JSON）
	Status      int       `gorm:"index" json:"status"`     // 0:下架 1:在售
	Variants    []Variant `gorm:"foreignKey:ProductID" json:"variants"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Active 商品是否可购买
func (p *Product) Active() bool {
	return p.Status == 1
}

// Variant 商品 SKU，价格与库存的最小单位
type Variant struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	ProductID  int64     `gorm:"index;not null" json:"product_id"`
	SKU        string    `gorm:"uniqueIndex;size:64" json:"sku"`
	Attributes string    `gorm:"size:512" json:"attributes"` // 规格属性（JSON），下单时原样快照
	Price      int64     `gorm:"not null" json:"price"`      // 单位：VND
	Quantity   int64     `gorm:"not null" json:"quantity"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Repository 商品仓储接口
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Product, error)
	GetVariant(ctx context.Context, productID, variantID int64) (*Variant, error)
	ListActive(ctx context.Context) ([]*Product, error)
	ListByCategory(ctx context.Context, category string) ([]*Product, error)
	ListAll(ctx context.Context) ([]*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) error

	// AdjustVariantStock 扣减（debit=true）或回补指定 SKU 的库存。
	// 扣减用条件 UPDATE 保证不会扣成负数，库存不够时返回 false。
	AdjustVariantStock(ctx context.Context, productID, variantID, quantity int64, debit bool) (bool, error)
}
