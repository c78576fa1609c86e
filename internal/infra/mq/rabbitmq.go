package mq

import (
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/quyenltph31426/kiddie-kingdom-be/internal/config"
)

var (
	conn *amqp.Connection
	once sync.Once
)

// Init 建立 RabbitMQ 连接。确认邮件的投递依赖这条连接，
// 拨号失败直接退出；运行中断连只记录，发信方按发送失败兜底。
func Init(cfg *config.RabbitMQConfig) *amqp.Connection {
	once.Do(func() {
		c, err := amqp.Dial(cfg.URL)
		if err != nil {
			log.Fatalf("failed to connect rabbitmq: %v", err)
		}
		conn = c

		closed := conn.NotifyClose(make(chan *amqp.Error, 1))
		go func() {
			if reason := <-closed; reason != nil {
				log.Printf("rabbitmq connection closed: %v", reason)
			}
		}()
	})
	return conn
}

// Conn 获取 MQ 连接
func Conn() *amqp.Connection {
	return conn
}

// Healthy 连接是否仍然可用
func Healthy() bool {
	return conn != nil && !conn.IsClosed()
}
