package redis

import (
	"log"
	"sync"

	radix "github.com/mediocregopher/radix/v3"

	"github.com/quyenltph31426/kiddie-kingdom-be/internal/config"
)

var (
	client radix.Client
	once   sync.Once
)

// Init 初始化 Redis 连接池。购物车与令牌缓存共用这一个池，
// 连不上直接退出，不让服务带病启动。
func Init(cfg *config.RedisConfig) radix.Client {
	once.Do(func() {
		size := cfg.PoolSize
		if size <= 0 {
			size = 10
		}
		connFunc := func(network, addr string) (radix.Conn, error) {
			var opts []radix.DialOpt
			if cfg.Password != "" {
				opts = append(opts, radix.DialAuthPass(cfg.Password))
			}
			if cfg.DB > 0 {
				opts = append(opts, radix.DialSelectDB(cfg.DB))
			}
			return radix.Dial(network, addr, opts...)
		}
		pool, err := radix.NewPool("tcp", cfg.Addr, size, radix.PoolConnFunc(connFunc))
		if err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		if err := pool.Do(radix.Cmd(nil, "PING")); err != nil {
			log.Fatalf("redis ping failed: %v", err)
		}
		client = pool
	})
	return client
}

// Client 获取 Redis 客户端
func Client() radix.Client {
	return client
}

// Ping 健康检查探活
func Ping() error {
	if client == nil {
		return nil
	}
	return client.Do(radix.Cmd(nil, "PING"))
}
