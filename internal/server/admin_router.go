package server

import (
	"fmt"
	"time"

	"github.com/kataras/iris/v12"

	"github.com/quyenltph31426/kiddie-kingdom-be/internal/config"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/datamodels/product"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/datamodels/voucher"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/repository/mysql"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/service"
)

// RegisterAdminRoutes 注册后台管理端的 HTTP 路由
// 端口通常是 8081，只在内网暴露，与前台 API 服务分离。
// 后台不走支付网关也不发邮件，只依赖数据库。
func RegisterAdminRoutes(app *iris.Application, cfg *config.Config) {
	db := mysql.Init(&cfg.MySQL)

	// 仓储与服务
	productRepo := mysql.NewProductRepository(db)
	orderRepo := mysql.NewOrderRepository(db)
	userRepo := mysql.NewUserRepository(db)
	paymentRepo := mysql.NewPaymentRepository(db)
	voucherRepo := mysql.NewVoucherRepository(db)
	reviewRepo := mysql.NewReviewRepository(db)

	inventorySvc := service.NewInventoryService(productRepo)
	voucherSvc := service.NewVoucherService(voucherRepo)
	productSvc := service.NewProductService(productRepo, reviewRepo)
	// 后台不发起支付，支付服务留空
	orderSvc := service.NewOrderService(orderRepo, productRepo, reviewRepo, inventorySvc, voucherSvc, nil)

	api := app.Party("/api")

	// 健康检查
	api.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"status": "ok"})
	})

	// ---------- 商品管理 ----------

	// 商品列表（含下架商品）
	api.Get("/products", func(ctx iris.Context) {
		list, err := productSvc.ListAll(ctx.Request().Context())
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	// 商品详情
	api.Get("/products/{id:uint64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetUint64("id")
		detail, err := productSvc.GetDetail(ctx.Request().Context(), int64(id))
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": detail})
	})

	// 新建商品（连同规格一起建）
	api.Post("/products", func(ctx iris.Context) {
		var req productRequest
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(iris.StatusBadRequest, iris.Map{"code": iris.StatusBadRequest, "msg": "请求参数错误"})
			return
		}
		var p product.Product
		if err := req.applyTo(&p); err != nil {
			ctx.StopWithJSON(iris.StatusBadRequest, iris.Map{"code": iris.StatusBadRequest, "msg": err.Error()})
			return
		}
		if err := productSvc.Create(ctx.Request().Context(), &p); err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": p})
	})

	// 更新商品基本信息（不动规格，规格调整走库存接口）
	api.Put("/products/{id:uint64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetUint64("id")
		p, err := productRepo.GetByID(ctx.Request().Context(), int64(id))
		if err != nil {
			writeErr(ctx, service.ErrProductNotFound)
			return
		}
		var req productRequest
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(iris.StatusBadRequest, iris.Map{"code": iris.StatusBadRequest, "msg": "请求参数错误"})
			return
		}
		req.applyBasicsTo(p)
		if err := productSvc.Update(ctx.Request().Context(), p); err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": p})
	})

	// 删除商品
	api.Delete("/products/{id:uint64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetUint64("id")
		if err := productSvc.Delete(ctx.Request().Context(), int64(id)); err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "msg": "ok"})
	})

	// 手工调整规格库存（delta 可正可负）
	api.Post("/products/{id:uint64}/stock", func(ctx iris.Context) {
		id, _ := ctx.Params().GetUint64("id")
		var req struct {
			VariantID int64 `json:"variant_id"`
			Delta     int64 `json:"delta"`
		}
		if err := ctx.ReadJSON(&req); err != nil || req.Delta == 0 {
			ctx.StopWithJSON(iris.StatusBadRequest, iris.Map{"code": iris.StatusBadRequest, "msg": "请求参数错误"})
			return
		}
		v, err := productSvc.AdjustStock(ctx.Request().Context(), int64(id), req.VariantID, req.Delta)
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": v})
	})

	// ---------- 订单管理 ----------

	// 最近订单
	api.Get("/orders", func(ctx iris.Context) {
		limit := ctx.URLParamIntDefault("limit", 20)
		list, err := orderSvc.ListRecent(ctx.Request().Context(), limit)
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	// 订单详情（不限归属人）
	api.Get("/orders/{id:uint64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetUint64("id")
		detail, err := orderSvc.AdminGet(ctx.Request().Context(), int64(id))
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": detail})
	})

	// 按订单号查询（客服核单场景）
	api.Get("/orders/code/{code:string}", func(ctx iris.Context) {
		detail, err := orderSvc.AdminGetByCode(ctx.Request().Context(), ctx.Params().GetString("code"))
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": detail})
	})

	// 发货
	api.Post("/orders/{id:uint64}/ship", func(ctx iris.Context) {
		id, _ := ctx.Params().GetUint64("id")
		o, err := orderSvc.MarkShipped(ctx.Request().Context(), int64(id))
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": o})
	})

	// 签收（货到付款订单会同时完成支付）
	api.Post("/orders/{id:uint64}/deliver", func(ctx iris.Context) {
		id, _ := ctx.Params().GetUint64("id")
		o, err := orderSvc.MarkDelivered(ctx.Request().Context(), int64(id))
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": o})
	})

	// 某订单的全部支付流水
	api.Get("/orders/{id:uint64}/payments", func(ctx iris.Context) {
		id, _ := ctx.Params().GetUint64("id")
		list, err := paymentRepo.ListByOrder(ctx.Request().Context(), int64(id))
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	// ---------- 支付流水 ----------

	api.Get("/payments", func(ctx iris.Context) {
		limit := ctx.URLParamIntDefault("limit", 20)
		list, err := paymentRepo.ListRecent(ctx.Request().Context(), limit)
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	// ---------- 优惠券管理 ----------

	api.Get("/vouchers", func(ctx iris.Context) {
		list, err := voucherRepo.ListAll(ctx.Request().Context())
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	api.Post("/vouchers", func(ctx iris.Context) {
		var req voucherRequest
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(iris.StatusBadRequest, iris.Map{"code": iris.StatusBadRequest, "msg": "请求参数错误"})
			return
		}
		v, err := req.toVoucher()
		if err != nil {
			ctx.StopWithJSON(iris.StatusBadRequest, iris.Map{"code": iris.StatusBadRequest, "msg": err.Error()})
			return
		}
		if err := voucherRepo.Create(ctx.Request().Context(), v); err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": v})
	})

	// ---------- 用户 ----------

	api.Get("/users", func(ctx iris.Context) {
		list, err := userRepo.ListAll(ctx.Request().Context())
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	// ---------- 运行指标 ----------

	api.Get("/stats", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"code": 0, "data": service.GetMonitor().GetStats()})
	})

	api.Post("/stats/reset", func(ctx iris.Context) {
		service.GetMonitor().Reset()
		ctx.JSON(iris.Map{"code": 0, "msg": "ok"})
	})
}

// productRequest 后台建商品的请求体
type productRequest struct {
	Name        string           `json:"name"`
	Slug        string           `json:"slug"`
	Description string           `json:"description"`
	Category    string           `json:"category"`
	Images      string           `json:"images"`
	Status      int              `json:"status"`
	Variants    []variantRequest `json:"variants"`
}

type variantRequest struct {
	SKU        string `json:"sku"`
	Attributes string `json:"attributes"`
	Price      int64  `json:"price"`
	Quantity   int64  `json:"quantity"`
}

// applyTo 校验请求并填充商品与规格
func (r *productRequest) applyTo(p *product.Product) error {
	if r.Name == "" {
		return fmt.Errorf("商品名称不能为空")
	}
	if r.Slug == "" {
		return fmt.Errorf("商品 slug 不能为空")
	}
	if len(r.Variants) == 0 {
		return fmt.Errorf("至少需要一个商品规格")
	}
	r.applyBasicsTo(p)
	p.Variants = make([]product.Variant, 0, len(r.Variants))
	for _, vr := range r.Variants {
		if vr.SKU == "" {
			return fmt.Errorf("规格 SKU 不能为空")
		}
		if vr.Price <= 0 {
			return fmt.Errorf("规格 %s 价格需大于 0", vr.SKU)
		}
		if vr.Quantity < 0 {
			return fmt.Errorf("规格 %s 库存不能为负", vr.SKU)
		}
		p.Variants = append(p.Variants, product.Variant{
			SKU:        vr.SKU,
			Attributes: vr.Attributes,
			Price:      vr.Price,
			Quantity:   vr.Quantity,
		})
	}
	return nil
}

// applyBasicsTo 只覆盖商品基本字段，空值跳过
func (r *productRequest) applyBasicsTo(p *product.Product) {
	if r.Name != "" {
		p.Name = r.Name
	}
	if r.Slug != "" {
		p.Slug = r.Slug
	}
	if r.Description != "" {
		p.Description = r.Description
	}
	if r.Category != "" {
		p.Category = r.Category
	}
	if r.Images != "" {
		p.Images = r.Images
	}
	p.Status = r.Status
}

// voucherRequest 后台建优惠券的请求体，时间字段接受多种常见写法
type voucherRequest struct {
	Code             string `json:"code"`
	Name             string `json:"name"`
	DiscountType     string `json:"discount_type"`
	Value            int64  `json:"value"`
	MinOrderValue    int64  `json:"min_order_value"`
	MaxDiscountValue int64  `json:"max_discount_value"`
	UsageLimit       int64  `json:"usage_limit"`
	StartAt          string `json:"start_at"`
	EndAt            string `json:"end_at"`
}

func (r *voucherRequest) toVoucher() (*voucher.Voucher, error) {
	if r.Code == "" {
		return nil, fmt.Errorf("优惠券码不能为空")
	}
	dt := voucher.DiscountType(r.DiscountType)
	if dt != voucher.DiscountPercentage && dt != voucher.DiscountFixed {
		return nil, fmt.Errorf("非法的折扣类型")
	}
	if r.Value <= 0 {
		return nil, fmt.Errorf("折扣值需大于 0")
	}
	if dt == voucher.DiscountPercentage && r.Value > 100 {
		return nil, fmt.Errorf("百分比折扣不能超过 100")
	}
	startAt, err := parseAdminTime(r.StartAt)
	if err != nil {
		return nil, fmt.Errorf("生效时间格式错误")
	}
	endAt, err := parseAdminTime(r.EndAt)
	if err != nil {
		return nil, fmt.Errorf("失效时间格式错误")
	}
	if !endAt.After(startAt) {
		return nil, fmt.Errorf("失效时间需晚于生效时间")
	}
	return &voucher.Voucher{
		Code:             r.Code,
		Name:             r.Name,
		DiscountType:     dt,
		Value:            r.Value,
		MinOrderValue:    r.MinOrderValue,
		MaxDiscountValue: r.MaxDiscountValue,
		UsageLimit:       r.UsageLimit,
		StartAt:          startAt,
		EndAt:            endAt,
		Status:           1,
	}, nil
}

// parseAdminTime 兼容后台表单里几种常见的时间格式
func parseAdminTime(s string) (time.Time, error) {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04",
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time format: %q", s)
}
