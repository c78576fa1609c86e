package redis

import (
	"context"
	"encoding/json"
	"fmt"

	radix "github.com/mediocregopher/radix/v3"

	"github.com/quyenltph31426/kiddie-kingdom-be/internal/datamodels/cart"
)

// 购物车 30 天过期，每次写入续期
const cartTTLSeconds = 30 * 24 * 3600

type cartStore struct {
	client radix.Client
}

// NewCartStore 创建基于 Redis 的购物车存储
func NewCartStore(client radix.Client) cart.Store {
	return &cartStore{client: client}
}

func cartKey(userID int64) string {
	return fmt.Sprintf("cart:user:%d", userID)
}

func (s *cartStore) Get(ctx context.Context, userID int64) (*cart.Cart, error) {
	var raw string
	if err := s.client.Do(radix.Cmd(&raw, "GET", cartKey(userID))); err != nil {
		return nil, err
	}
	c := &cart.Cart{UserID: userID}
	if raw == "" {
		return c, nil
	}
	if err := json.Unmarshal([]byte(raw), c); err != nil {
		return nil, err
	}
	c.UserID = userID
	return c, nil
}

func (s *cartStore) Save(ctx context.Context, c *cart.Cart) error {
	body, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.client.Do(radix.FlatCmd(nil, "SETEX", cartKey(c.UserID), cartTTLSeconds, body))
}

func (s *cartStore) Clear(ctx context.Context, userID int64) error {
	return s.client.Do(radix.Cmd(nil, "DEL", cartKey(userID)))
}
