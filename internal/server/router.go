package server

import (
	"errors"
	"strings"
	"time"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"

	"github.com/quyenltph31426/kiddie-kingdom-be/internal/auth"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/config"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/datamodels/cart"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/datamodels/order"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/datamodels/product"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/infra/mq"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/infra/redis"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/mail"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/middleware"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/repository/mysql"
	redisrepo "github.com/quyenltph31426/kiddie-kingdom-be/internal/repository/redis"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/service"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/vnpay"
)

// RegisterRoutes 注册前台 API 路由
func RegisterRoutes(app *iris.Application, cfg *config.Config) {
	// 初始化基础设施
	db := mysql.Init(&cfg.MySQL)
	redisClient := redis.Init(&cfg.Redis)
	mqConn := mq.Init(&cfg.RabbitMQ)

	// 仓储层
	userRepo := mysql.NewUserRepository(db)
	productRepo := mysql.NewProductRepository(db)
	orderRepo := mysql.NewOrderRepository(db)
	paymentRepo := mysql.NewPaymentRepository(db)
	voucherRepo := mysql.NewVoucherRepository(db)
	reviewRepo := mysql.NewReviewRepository(db)
	cartStore := redisrepo.NewCartStore(redisClient)

	// JWT 解析结果按一致性哈希分片缓存在 redis
	ring := auth.NewShardRing(cfg.Auth.Nodes, cfg.Auth.HashReplicas)
	tokenCache := auth.NewTokenCache(redisClient, ring, time.Duration(cfg.Auth.TokenCacheTTLSeconds)*time.Second)

	// 服务层
	gateway := vnpay.NewClient(cfg.VNPay)
	mailer := mail.NewQueueMailer(mqConn)
	cartSvc := service.NewCartService(cartStore)
	productSvc := service.NewProductService(productRepo, reviewRepo)
	inventorySvc := service.NewInventoryService(productRepo)
	voucherSvc := service.NewVoucherService(voucherRepo)
	paymentSvc := service.NewPaymentService(gateway, paymentRepo, orderRepo, userRepo, mailer, cfg.VNPay.CurrCode)
	orderSvc := service.NewOrderService(orderRepo, productRepo, reviewRepo, inventorySvc, voucherSvc, paymentSvc)

	app.Use(middleware.RequestID())

	api := app.Party("/api")

	// 健康检查，带出依赖状态
	api.Get("/health", func(ctx iris.Context) {
		status := "ok"
		redisOK := redis.Ping() == nil
		mqOK := mq.Healthy()
		if !redisOK || !mqOK {
			status = "degraded"
		}
		ctx.JSON(iris.Map{"status": status, "redis": redisOK, "mq": mqOK})
	})

	// ---------- 商品目录（无需登录） ----------

	// 商品列表，支持按分类过滤与关键字搜索
	api.Get("/products", func(ctx iris.Context) {
		var (
			list []*product.Product
			err  error
		)
		if category := ctx.URLParam("category"); category != "" {
			list, err = productSvc.ListByCategory(ctx.Request().Context(), category)
		} else {
			list, err = productSvc.ListActive(ctx.Request().Context())
		}
		if err != nil {
			writeErr(ctx, err)
			return
		}
		if keyword := strings.ToLower(ctx.URLParam("q")); keyword != "" {
			filtered := make([]*product.Product, 0, len(list))
			for _, p := range list {
				if strings.Contains(strings.ToLower(p.Name), keyword) ||
					strings.Contains(strings.ToLower(p.Description), keyword) {
					filtered = append(filtered, p)
				}
			}
			list = filtered
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	// 商品详情（带评价数）
	api.Get("/products/{id:uint64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetUint64("id")
		detail, err := productSvc.GetDetail(ctx.Request().Context(), int64(id))
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": detail})
	})

	// 商品评价列表
	api.Get("/products/{id:uint64}/reviews", func(ctx iris.Context) {
		id, _ := ctx.Params().GetUint64("id")
		limit := ctx.URLParamIntDefault("limit", 20)
		list, err := reviewRepo.ListByProduct(ctx.Request().Context(), int64(id), limit)
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	// ---------- 支付网关回跳（由 VNPay 重定向，无登录态） ----------

	api.Get("/payments/vnpay-return", func(ctx iris.Context) {
		result, err := paymentSvc.HandleReturn(ctx.Request().Context(), ctx.Request().URL.Query())
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": result})
	})

	// ---------- 登录态接口 ----------

	authAPI := api.Party("/", authMiddleware(&cfg.JWT, tokenCache))

	// 购物车
	authAPI.Get("/cart", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		c, err := cartSvc.Get(ctx.Request().Context(), userID)
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": c})
	})

	// 向购物车合并一行（同商品同规格累加数量，数量 <=0 删除该行）
	authAPI.Post("/cart", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		var it cart.Item
		if err := ctx.ReadJSON(&it); err != nil {
			ctx.StopWithJSON(iris.StatusBadRequest, iris.Map{"code": iris.StatusBadRequest, "msg": "请求参数错误"})
			return
		}
		c, err := cartSvc.Add(ctx.Request().Context(), userID, it)
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": c})
	})

	// 整体覆盖购物车
	authAPI.Put("/cart", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		var req struct {
			Items []cart.Item `json:"items"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(iris.StatusBadRequest, iris.Map{"code": iris.StatusBadRequest, "msg": "请求参数错误"})
			return
		}
		c, err := cartSvc.Replace(ctx.Request().Context(), userID, req.Items)
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": c})
	})

	authAPI.Delete("/cart", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		if err := cartSvc.Clear(ctx.Request().Context(), userID); err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "msg": "ok"})
	})

	// 下单前试算优惠券。直接给 subtotal，或给 items 由服务端现算小计。
	authAPI.Post("/vouchers/verify", func(ctx iris.Context) {
		var req struct {
			Code     string      `json:"code"`
			Subtotal int64       `json:"subtotal"`
			Items    []cart.Item `json:"items"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(iris.StatusBadRequest, iris.Map{"code": iris.StatusBadRequest, "msg": "请求参数错误"})
			return
		}
		if req.Code == "" {
			ctx.StopWithJSON(iris.StatusBadRequest, iris.Map{"code": iris.StatusBadRequest, "msg": "优惠券码不能为空"})
			return
		}
		subtotal := req.Subtotal
		if len(req.Items) > 0 {
			resolved, err := inventorySvc.ResolveAndReserve(ctx.Request().Context(), req.Items)
			if err != nil {
				writeErr(ctx, err)
				return
			}
			subtotal = order.ComputeSubtotal(resolved)
		}
		d, err := voucherSvc.Verify(ctx.Request().Context(), req.Code, subtotal)
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": iris.Map{
			"voucher":         d.Voucher,
			"subtotal":        subtotal,
			"discount_amount": d.Amount,
			"total":           subtotal - d.Amount,
		}})
	})

	// 下单
	authAPI.Post("/orders", middleware.CheckoutRateLimit(), func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		var req service.CreateOrderRequest
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(iris.StatusBadRequest, iris.Map{"code": iris.StatusBadRequest, "msg": "请求参数错误"})
			return
		}
		req.ClientIP = ctx.RemoteAddr()
		result, err := orderSvc.Create(ctx.Request().Context(), userID, &req)
		if err != nil {
			writeErr(ctx, err)
			return
		}
		// 下单成功后清空购物车，失败只记日志不影响订单
		if err := cartSvc.Clear(ctx.Request().Context(), userID); err != nil {
			zap.L().Warn("clear cart after checkout failed",
				zap.Int64("user_id", userID), zap.Error(err))
		}
		ctx.JSON(iris.Map{"code": 0, "data": result})
	})

	// 订单列表（分页 + 状态过滤）
	authAPI.Get("/orders", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		f := order.ListFilter{
			Page:     ctx.URLParamIntDefault("page", 1),
			PageSize: ctx.URLParamIntDefault("page_size", 20),
		}
		if ps := ctx.URLParam("payment_status"); ps != "" {
			switch s := order.PaymentStatus(ps); s {
			case order.PaymentStatusPending, order.PaymentStatusCompleted, order.PaymentStatusFailed:
				f.PaymentStatus = s
			default:
				ctx.StopWithJSON(iris.StatusBadRequest, iris.Map{"code": iris.StatusBadRequest, "msg": "非法的支付状态"})
				return
			}
		}
		if ss := ctx.URLParam("shipping_status"); ss != "" {
			switch s := order.ShippingStatus(ss); s {
			case order.ShippingStatusPending, order.ShippingStatusShipped,
				order.ShippingStatusDelivered, order.ShippingStatusCanceled:
				f.ShippingStatus = s
			default:
				ctx.StopWithJSON(iris.StatusBadRequest, iris.Map{"code": iris.StatusBadRequest, "msg": "非法的发货状态"})
				return
			}
		}
		list, total, err := orderSvc.List(ctx.Request().Context(), userID, f)
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": iris.Map{
			"items":     list,
			"total":     total,
			"page":      f.Page,
			"page_size": f.PageSize,
		}})
	})

	// 订单详情
	authAPI.Get("/orders/{id:uint64}", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		id, _ := ctx.Params().GetUint64("id")
		detail, err := orderSvc.GetDetail(ctx.Request().Context(), int64(id), userID)
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": detail})
	})

	// 取消未支付订单
	authAPI.Post("/orders/{id:uint64}/cancel", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		id, _ := ctx.Params().GetUint64("id")
		o, err := orderSvc.Cancel(ctx.Request().Context(), int64(id), userID)
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": o})
	})

	// 取消货到付款订单（可带原因）
	authAPI.Post("/orders/{id:uint64}/cod-cancel", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		id, _ := ctx.Params().GetUint64("id")
		var req struct {
			Reason string `json:"reason"`
		}
		ctx.ReadJSON(&req) // body 可为空
		o, err := orderSvc.CancelCashOnDelivery(ctx.Request().Context(), int64(id), userID, req.Reason)
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": o})
	})

	// 对待支付订单重新发起支付跳转
	authAPI.Post("/orders/{id:uint64}/pay", middleware.CheckoutRateLimit(), func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		id, _ := ctx.Params().GetUint64("id")
		redirect, err := orderSvc.ProcessPayment(ctx.Request().Context(), int64(id), userID, ctx.RemoteAddr())
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": redirect})
	})

	// 本人支付流水
	authAPI.Get("/payments", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		limit := ctx.URLParamIntDefault("limit", 20)
		list, err := paymentSvc.ListByUser(ctx.Request().Context(), userID, limit)
		if err != nil {
			writeErr(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})
}

// authMiddleware 校验 JWT 并把用户身份写入请求上下文，解析结果走 redis 缓存
func authMiddleware(cfg *config.JWTConfig, cache *auth.TokenCache) iris.Handler {
	return func(ctx iris.Context) {
		token := strings.TrimPrefix(ctx.GetHeader("Authorization"), "Bearer ")
		if token == "" {
			ctx.StopWithJSON(iris.StatusUnauthorized, iris.Map{"code": iris.StatusUnauthorized, "msg": "未登录"})
			return
		}
		claims, hit, err := cache.Get(ctx.Request().Context(), token)
		if err != nil {
			// redis 故障降级为直接解析
			zap.L().Warn("token cache get failed", zap.Error(err))
			hit = false
		}
		// 缓存 TTL 可能长于令牌剩余有效期，过期的命中按未命中处理
		if hit && claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
			hit = false
		}
		if !hit {
			claims, err = auth.ParseToken(cfg, token)
			if err != nil {
				ctx.StopWithJSON(iris.StatusUnauthorized, iris.Map{"code": iris.StatusUnauthorized, "msg": "登录已失效"})
				return
			}
			if err := cache.Set(ctx.Request().Context(), token, claims); err != nil {
				zap.L().Warn("token cache set failed", zap.Error(err))
			}
		}
		ctx.Values().Set("user_id", claims.UserID)
		ctx.Values().Set("username", claims.Username)
		ctx.Next()
	}
}

// writeErr 把服务层错误翻译成 HTTP 状态码，未识别的一律按 500 处理
func writeErr(ctx iris.Context, err error) {
	status := iris.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrVariantNotFound),
		errors.Is(err, service.ErrVoucherNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrPaymentNotFound):
		status = iris.StatusNotFound
	case errors.Is(err, service.ErrNoPurchasableVariant),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrVoucherInactive),
		errors.Is(err, service.ErrVoucherExpired),
		errors.Is(err, service.ErrVoucherExhausted),
		errors.Is(err, service.ErrVoucherMinOrder),
		errors.Is(err, service.ErrOrderNotCancellable),
		errors.Is(err, service.ErrOrderNotPayable),
		errors.Is(err, service.ErrOrderNotShippable),
		errors.Is(err, service.ErrOrderNotDeliverable),
		errors.Is(err, service.ErrPaymentMismatch),
		errors.Is(err, vnpay.ErrInvalidSignature):
		status = iris.StatusBadRequest
	}
	if status == iris.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("path", ctx.Path()), zap.Error(err))
		ctx.StopWithJSON(status, iris.Map{"code": status, "msg": "服务内部错误"})
		return
	}
	ctx.StopWithJSON(status, iris.Map{"code": status, "msg": err.Error()})
}
