package middleware

import (
	"sync"
	"time"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

// TokenBucket 令牌桶限流器，按秒补充
type TokenBucket struct {
	mu       sync.Mutex
	capacity int64
	tokens   int64
	perSec   int64
	last     time.Time // 上次结算补充的时间点
}

// NewTokenBucket 创建满桶的限流器
func NewTokenBucket(capacity, perSec int64) *TokenBucket {
	return &TokenBucket{
		capacity: capacity,
		tokens:   capacity,
		perSec:   perSec,
		last:     time.Now(),
	}
}

// Allow 取一个令牌，桶空返回 false
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	// 按整秒结算补充，last 只推进已结算的部分，秒内余量不丢
	secs := int64(time.Since(tb.last) / time.Second)
	if secs > 0 {
		tb.tokens = min(tb.capacity, tb.tokens+secs*tb.perSec)
		tb.last = tb.last.Add(time.Duration(secs) * time.Second)
	}

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// RateLimitMiddleware 桶空时直接以 429 拒绝
func RateLimitMiddleware(bucket *TokenBucket) iris.Handler {
	return func(ctx iris.Context) {
		if !bucket.Allow() {
			zap.L().Debug("rate limit exceeded", zap.String("path", ctx.Path()))
			ctx.Header("Retry-After", "1")
			ctx.StopWithJSON(iris.StatusTooManyRequests, iris.Map{
				"code": iris.StatusTooManyRequests,
				"msg":  "请求过于频繁，请稍后再试",
			})
			return
		}
		ctx.Next()
	}
}

var (
	checkoutRateLimiter = NewTokenBucket(50, 20) // 下单与发起支付共用
)

// CheckoutRateLimit 下单/支付接口限流
func CheckoutRateLimit() iris.Handler {
	return RateLimitMiddleware(checkoutRateLimiter)
}
