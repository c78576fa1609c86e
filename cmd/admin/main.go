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
	// 后台不接网关，不做 Validate，凭据缺失也能起
	cfg, err := config.Load(os.Getenv("KK_CONFIG_DIR"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.Init(os.Getenv("KK_DEBUG") != "")
	defer logger.Sync()

	app := iris.New()
	server.RegisterAdminRoutes(app, cfg)

	addr := cfg.AdminServer.Addr()
	log.Printf("admin server listening on %s", addr)
	if err := app.Run(iris.Addr(addr)); err != nil {
		log.Fatalf("failed to run admin server: %v", err)
	}
}
