package main

import (
	"log"
	"os"

	"github.com/kataras/iris/v12"

	"github.com/quyenltph31426/kiddie-kingdom-be/internal/config"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/logger"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/server"
)

func main() {
	cfg, err := config.Load(os.Getenv("KK_CONFIG_DIR"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	// 前台服务要签支付链接、验回调签名，网关凭据缺一不可
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger.Init(os.Getenv("KK_DEBUG") != "")
	defer logger.Sync()

	app := iris.New()
	server.RegisterRoutes(app, cfg)

	addr := cfg.Server.Addr()
	log.Printf("api server listening on %s", addr)
	if err := app.Run(iris.Addr(addr)); err != nil {
		log.Fatalf("failed to run api server: %v", err)
	}
}
