package cart

import "testing"

func TestMerge(t *testing.T) {
	c := &Cart{UserID: 1}

	c.Merge(Item{ProductID: 10, VariantID: 100, Quantity: 2})
	c.Merge(Item{ProductID: 11, Quantity: 1})
	if len(c.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(c.Items))
	}

	// 相同商品相同规格数量累加
	c.Merge(Item{ProductID: 10, VariantID: 100, Quantity: 3})
	if c.Items[0].Quantity != 5 {
		t.Errorf("quantity = %d, want 5", c.Items[0].Quantity)
	}

	// 相同商品不同规格是独立行
	c.Merge(Item{ProductID: 10, VariantID: 101, Quantity: 1})
	if len(c.Items) != 3 {
		t.Errorf("items = %d, want 3", len(c.Items))
	}

	// 数量减到 0 以下删除该行
	c.Merge(Item{ProductID: 10, VariantID: 100, Quantity: -5})
	if len(c.Items) != 2 {
		t.Errorf("items = %d, want 2 after removal", len(c.Items))
	}
	for _, it := range c.Items {
		if it.ProductID == 10 && it.VariantID == 100 {
			t.Error("line should have been removed")
		}
	}

	// 负数量的新行不进购物车
	c.Merge(Item{ProductID: 99, Quantity: -1})
	if len(c.Items) != 2 {
		t.Errorf("items = %d, want 2", len(c.Items))
	}
}
