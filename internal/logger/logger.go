package logger

import (
	"log"

	"go.uber.org/zap"
)

// Init 初始化全局 zap 日志器，业务代码统一使用 zap.L()
func Init(debug bool) {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	zap.ReplaceGlobals(l)
}

// Sync 进程退出前刷新缓冲日志
func Sync() {
	_ = zap.L().Sync()
}
