package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/quyenltph31426/kiddie-kingdom-be/internal/config"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/infra/mq"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/logger"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/mail"
	"github.com/quyenltph31426/kiddie-kingdom-be/internal/service"
)

func main() {
	cfg, err := config.Load(os.Getenv("KK_CONFIG_DIR"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.Init(os.Getenv("KK_DEBUG") != "")
	defer logger.Sync()

	mqConn := mq.Init(&cfg.RabbitMQ)

	ch, err := mqConn.Channel()
	if err != nil {
		log.Fatalf("failed to open channel: %v", err)
	}
	defer ch.Close()

	if _, err = ch.QueueDeclare(mail.MailQueue, true, false, false, false, nil); err != nil {
		log.Fatalf("failed to declare queue: %v", err)
	}

	// 手动确认，投递失败的消息重新入队
	msgs, err := ch.Consume(mail.MailQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("failed to consume: %v", err)
	}

	log.Println("mail worker started, waiting for messages...")

	for d := range msgs {
		handleMessage(d)
	}
}

func handleMessage(d amqp.Delivery) {
	var m mail.OrderConfirmation
	if err := json.Unmarshal(d.Body, &m); err != nil {
		log.Printf("invalid message: %v", err)
		service.GetMonitor().RecordWorkerFailed()
		// 消息格式错误，拒绝并丢弃
		_ = d.Nack(false, false)
		return
	}
	if m.To == "" {
		log.Printf("order %d confirmation has no recipient, dropping", m.OrderID)
		service.GetMonitor().RecordWorkerFailed()
		_ = d.Nack(false, false)
		return
	}

	if err := deliver(&m); err != nil {
		log.Printf("deliver mail for order %d failed: %v", m.OrderID, err)
		service.GetMonitor().RecordWorkerFailed()
		// 投递失败重新入队，等下一轮重试
		_ = d.Nack(false, true)
		return
	}

	service.GetMonitor().RecordWorkerProcessed()
	_ = d.Ack(false)
}

// deliver 把确认邮件交给出站通道。SMTP 网关还没接上，
// 先整封写进日志，方便联调时核对内容。
func deliver(m *mail.OrderConfirmation) error {
	zap.L().Info("order confirmation mail",
		zap.String("to", m.To),
		zap.String("order_code", m.OrderCode),
		zap.String("body", renderBody(m)))
	return nil
}

func renderBody(m *mail.OrderConfirmation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Xin chao %s,\n\n", m.CustomerName)
	fmt.Fprintf(&b, "Don hang %s da duoc thanh toan thanh cong.\n\n", m.OrderCode)
	for _, it := range m.Items {
		fmt.Fprintf(&b, "  - %s x%d  %d VND\n", it.ProductName, it.Quantity, it.UnitPrice*it.Quantity)
	}
	fmt.Fprintf(&b, "\nTong cong: %d VND\n", m.Total)
	if m.Address != "" {
		fmt.Fprintf(&b, "Giao den: %s\n", m.Address)
	}
	b.WriteString("\nCam on ban da mua sam tai Kiddie Kingdom!\n")
	return b.String()
}
