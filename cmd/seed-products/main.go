package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/quyenltph31426/kiddie-kingdom-be/internal/auth"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/config"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/datamodels/product"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/datamodels/review"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/datamodels/user"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/datamodels/voucher"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/logger"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/repository/mysql"
)

// 往本地库里灌一批演示数据：商品 + 规格、优惠券、测试用户，
// 并为每个测试用户签一个开发用 JWT，方便直接拿去调接口。
func main() {
	cfg, err := config.Load(os.Getenv("KK_CONFIG_DIR"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.Init(true)
	defer logger.Sync()

	db := mysql.Init(&cfg.MySQL)
	productRepo := mysql.NewProductRepository(db)
	voucherRepo := mysql.NewVoucherRepository(db)
	userRepo := mysql.NewUserRepository(db)
	reviewRepo := mysql.NewReviewRepository(db)

	ctx := context.Background()

	fmt.Println("🌱 写入演示数据...")

	products := demoProducts()
	for i := range products {
		if err := productRepo.Create(ctx, &products[i]); err != nil {
			fmt.Printf("❌ 商品 %s: %v\n", products[i].Name, err)
			continue
		}
		fmt.Printf("✅ 商品 %s（%d 个规格）\n", products[i].Name, len(products[i].Variants))
	}

	for _, v := range demoVouchers() {
		if err := voucherRepo.Create(ctx, v); err != nil {
			fmt.Printf("❌ 优惠券 %s: %v\n", v.Code, err)
			continue
		}
		fmt.Printf("✅ 优惠券 %s\n", v.Code)
	}

	users := demoUsers()
	fmt.Println("\n👤 测试用户与开发 token:")
	for _, u := range users {
		// 脚本可以反复跑：用户已存在时直接复用，不重复建
		if existing, err := userRepo.GetByUsername(ctx, u.Username); err == nil {
			*u = *existing
		} else if err := userRepo.Create(ctx, u); err != nil {
			fmt.Printf("❌ 用户 %s: %v\n", u.Username, err)
			continue
		}
		token, err := auth.GenerateToken(&cfg.JWT, u.ID, u.Username)
		if err != nil {
			fmt.Printf("❌ 用户 %s 签发 token 失败: %v\n", u.Username, err)
			continue
		}
		fmt.Printf("✅ %s (id=%d)\n   Authorization: Bearer %s\n", u.Username, u.ID, token)
	}

	for _, r := range demoReviews(products, users) {
		if err := reviewRepo.Create(ctx, r); err != nil {
			fmt.Printf("❌ 评价: %v\n", err)
		}
	}
	fmt.Println("✅ 商品评价")

	fmt.Println("\n完成。")
}

func demoProducts() []product.Product {
	return []product.Product{
		{
			Name:        "Xe dap tre em Stitch 16 inch",
			Slug:        "xe-dap-tre-em-stitch-16",
			Description: "Xe dap cho be 4-8 tuoi, khung thep, banh phu 16 inch",
			Category:    "xe-dap",
			Images:      `["https://cdn.kiddie-kingdom.vn/p/stitch-16-1.jpg"]`,
			Status:      1,
			Variants: []product.Variant{
				{SKU: "BIKE-ST16-BLU", Attributes: `{"color":"xanh"}`, Price: 1590000, Quantity: 25},
				{SKU: "BIKE-ST16-PNK", Attributes: `{"color":"hong"}`, Price: 1590000, Quantity: 18},
			},
		},
		{
			Name:        "Bo xep hinh go 120 chi tiet",
			Slug:        "bo-xep-hinh-go-120",
			Description: "Do choi go an toan, son khong doc hai, cho be tu 3 tuoi",
			Category:    "do-choi-go",
			Images:      `["https://cdn.kiddie-kingdom.vn/p/wood-120-1.jpg"]`,
			Status:      1,
			Variants: []product.Variant{
				{SKU: "WOOD-120-STD", Attributes: `{}`, Price: 385000, Quantity: 120},
			},
		},
		{
			Name:        "Gau bong Teddy 60cm",
			Slug:        "gau-bong-teddy-60",
			Description: "Gau bong long min, ruot bong gon cao cap",
			Category:    "gau-bong",
			Images:      `["https://cdn.kiddie-kingdom.vn/p/teddy-60-1.jpg"]`,
			Status:      1,
			Variants: []product.Variant{
				{SKU: "TEDDY-60-BRN", Attributes: `{"color":"nau"}`, Price: 259000, Quantity: 60},
				{SKU: "TEDDY-60-WHT", Attributes: `{"color":"trang"}`, Price: 279000, Quantity: 45},
				{SKU: "TEDDY-60-GRY", Attributes: `{"color":"xam"}`, Price: 279000, Quantity: 0},
			},
		},
		{
			Name:        "Bo lego thanh pho 450 manh",
			Slug:        "bo-lego-thanh-pho-450",
			Description: "Bo lap rap chu de thanh pho, kem so do huong dan",
			Category:    "lap-rap",
			Images:      `["https://cdn.kiddie-kingdom.vn/p/city-450-1.jpg"]`,
			Status:      1,
			Variants: []product.Variant{
				{SKU: "LEGO-CITY-450", Attributes: `{}`, Price: 690000, Quantity: 35},
			},
		},
		{
			Name:        "Dan piano mini 37 phim",
			Slug:        "dan-piano-mini-37",
			Description: "Dan phim sang, co che do thu am, dung pin AA",
			Category:    "am-nhac",
			Images:      `["https://cdn.kiddie-kingdom.vn/p/piano-37-1.jpg"]`,
			Status:      0,
			Variants: []product.Variant{
				{SKU: "PIANO-37-RED", Attributes: `{"color":"do"}`, Price: 420000, Quantity: 10},
			},
		},
	}
}

func demoVouchers() []*voucher.Voucher {
	now := time.Now()
	return []*voucher.Voucher{
		{
			Code:             "WELCOME10",
			Name:             "Giam 10% cho don dau tien",
			DiscountType:     voucher.DiscountPercentage,
			Value:            10,
			MinOrderValue:    200000,
			MaxDiscountValue: 100000,
			UsageLimit:       1000,
			StartAt:          now.AddDate(0, 0, -1),
			EndAt:            now.AddDate(0, 3, 0),
			Status:           1,
		},
		{
			Code:             "FREESHIP30K",
			Name:             "Giam thang 30k",
			DiscountType:     voucher.DiscountFixed,
			Value:            30000,
			MinOrderValue:    150000,
			UsageLimit:       0,
			StartAt:          now.AddDate(0, 0, -1),
			EndAt:            now.AddDate(0, 1, 0),
			Status:           1,
		},
		{
			Code:             "SUMMER24",
			Name:             "Het han tu lau, de test nhanh",
			DiscountType:     voucher.DiscountPercentage,
			Value:            15,
			MinOrderValue:    0,
			MaxDiscountValue: 50000,
			UsageLimit:       10,
			StartAt:          now.AddDate(-1, 0, 0),
			EndAt:            now.AddDate(0, -6, 0),
			Status:           1,
		},
	}
}

// demoReviews 给前两个商品挂几条评价，详情页的评分统计才有东西可看
func demoReviews(products []product.Product, users []*user.User) []*review.Review {
	if len(products) < 2 || len(users) < 2 {
		return nil
	}
	return []*review.Review{
		{UserID: users[0].ID, ProductID: products[0].ID, Rating: 5, Content: "Be nha minh rat thich, xe chac chan", Status: 1},
		{UserID: users[1].ID, ProductID: products[0].ID, Rating: 4, Content: "Giao hang nhanh, lap rap hoi lau", Status: 1},
		{UserID: users[0].ID, ProductID: products[1].ID, Rating: 5, Content: "Go min, khong co canh sac", Status: 1},
	}
}

func demoUsers() []*user.User {
	return []*user.User{
		{Username: "quyenltph", Email: "quyenltph@example.com", FullName: "Luu Thi Phuong Quyen"},
		{Username: "minhanh", Email: "minhanh@example.com", FullName: "Tran Minh Anh"},
	}
}
