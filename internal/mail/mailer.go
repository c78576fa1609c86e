package mail

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// MailQueue 订单确认邮件队列
const MailQueue = "order_confirmation_queue"

// Line 邮件中的订单行
type Line struct {
	ProductName string `json:"product_name"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
}

// OrderConfirmation 订单确认邮件内容
type OrderConfirmation struct {
	To           string    `json:"to"`
	CustomerName string    `json:"customer_name"`
	OrderID      int64     `json:"order_id"`
	OrderCode    string    `json:"order_code"`
	CreatedAt    time.Time `json:"created_at"`
	Items        []Line    `json:"items"`
	Total        int64     `json:"total"`
	Address      string    `json:"address"`
}

// Mailer 订单确认邮件发送接口。
// 发送失败由调用方按 best-effort 处理，不阻断业务流程。
type Mailer interface {
	SendOrderConfirmation(ctx context.Context, msg *OrderConfirmation) error
}

// QueueMailer 把邮件任务投递到 RabbitMQ，由 mail-worker 异步消费发送
type QueueMailer struct {
	conn *amqp.Connection
}

// NewQueueMailer 创建队列投递实现
func NewQueueMailer(conn *amqp.Connection) *QueueMailer {
	return &QueueMailer{conn: conn}
}

func (m *QueueMailer) SendOrderConfirmation(ctx context.Context, msg *OrderConfirmation) error {
	ch, err := m.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if _, err = ch.QueueDeclare(MailQueue, true, false, false, false, nil); err != nil {
		return err
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return ch.PublishWithContext(
		ctx,
		"",
		MailQueue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.New().String(),
			Body:         body,
		},
	)
}

// LogMailer 只打日志不真正发信，开发环境或 MQ 不可用时的兜底实现
type LogMailer struct{}

func (LogMailer) SendOrderConfirmation(ctx context.Context, msg *OrderConfirmation) error {
	zap.L().Info("order confirmation mail (log only)",
		zap.String("to", msg.To),
		zap.String("order_code", msg.OrderCode),
		zap.Int64("total", msg.Total))
	return nil
}
