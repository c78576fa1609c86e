package middleware

import (
	"github.com/google/uuid"
	"github.com/kataras/iris/v12"
)

// RequestIDKey ctx.Values 中的请求标识键
const RequestIDKey = "request_id"

// RequestID 注入 X-Request-ID，客户端已带则透传，响应头原样带回
func RequestID() iris.Handler {
	return func(ctx iris.Context) {
		rid := ctx.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.New().String()
		}
		ctx.Values().Set(RequestIDKey, rid)
		ctx.Header("X-Request-ID", rid)
		ctx.Next()
	}
}
