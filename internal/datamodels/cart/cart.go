package cart

import "context"

// Item 购物车中的一行
type Item struct {
	ProductID int64 `json:"product_id"`
	VariantID int64 `json:"variant_id,omitempty"` // 0 表示未选规格
	Quantity  int64 `json:"quantity"`
}

// Cart 用户购物车，整体以 JSON 存入 Redis
type Cart struct {
	UserID int64  `json:"user_id"`
	Items  []Item `json:"items"`
}

// Merge 合并同一 product/variant 的行，数量累加；qty<=0 时删除该行
func (c *Cart) Merge(it Item) {
	for i := range c.Items {
		if c.Items[i].ProductID == it.ProductID && c.Items[i].VariantID == it.VariantID {
			c.Items[i].Quantity += it.Quantity
			if c.Items[i].Quantity <= 0 {
				c.Items = append(c.Items[:i], c.Items[i+1:]...)
			}
			return
		}
	}
	if it.Quantity > 0 {
		c.Items = append(c.Items, it)
	}
}

// Store 购物车存储接口
type Store interface {
	Get(ctx context.Context, userID int64) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Clear(ctx context.Context, userID int64) error
}
