package service

import (
	"sync"
	"time"
)

// Monitor 运行指标，统计错误与业务量
type Monitor struct {
	mu sync.RWMutex

	// 错误统计
	RedisErrors int64
	MQErrors    int64
	DBErrors    int64

	// 下单统计
	CheckoutRequests int64
	CheckoutSuccess  int64

	// 回调统计
	CallbackRequests int64
	CallbackInvalid  int64
	CallbackSuccess  int64
	CallbackFailed   int64
	CallbackReplayed int64

	// 旁路失败（不阻断业务，只计数）
	StockAdjustFailures int64
	MailFailures        int64

	// 邮件 worker
	WorkerProcessed int64
	WorkerFailed    int64

	// 时间统计
	LastRedisError   time.Time
	LastMQError      time.Time
	LastDBError      time.Time
	LastCheckoutTime time.Time
	LastCallbackTime time.Time
	LastWorkerTime   time.Time
}

var globalMonitor = &Monitor{}

// GetMonitor 获取全局监控实例
func GetMonitor() *Monitor {
	return globalMonitor
}

// RecordRedisError 记录 Redis 错误
func (m *Monitor) RecordRedisError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RedisErrors++
	m.LastRedisError = time.Now()
}

// RecordMQError 记录 MQ 错误
func (m *Monitor) RecordMQError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MQErrors++
	m.LastMQError = time.Now()
}

// RecordDBError 记录数据库错误
func (m *Monitor) RecordDBError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DBErrors++
	m.LastDBError = time.Now()
}

// RecordCheckoutRequest 记录下单请求
func (m *Monitor) RecordCheckoutRequest() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CheckoutRequests++
	m.LastCheckoutTime = time.Now()
}

// RecordCheckoutSuccess 记录下单成功
func (m *Monitor) RecordCheckoutSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CheckoutSuccess++
}

// RecordCallbackRequest 记录验签通过的支付回调
func (m *Monitor) RecordCallbackRequest() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallbackRequests++
	m.LastCallbackTime = time.Now()
}

// RecordCallbackInvalid 记录验签失败的回调
func (m *Monitor) RecordCallbackInvalid() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallbackInvalid++
}

// RecordCallbackSuccess 记录首次完成支付的回调
func (m *Monitor) RecordCallbackSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallbackSuccess++
}

// RecordCallbackFailed 记录网关返回失败的回调
func (m *Monitor) RecordCallbackFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallbackFailed++
}

// RecordCallbackReplayed 记录重放回调
func (m *Monitor) RecordCallbackReplayed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallbackReplayed++
}

// RecordStockAdjustFailure 记录库存调整失败
func (m *Monitor) RecordStockAdjustFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StockAdjustFailures++
}

// RecordMailFailure 记录确认邮件失败
func (m *Monitor) RecordMailFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MailFailures++
}

// RecordWorkerProcessed 记录 worker 处理成功
func (m *Monitor) RecordWorkerProcessed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WorkerProcessed++
	m.LastWorkerTime = time.Now()
}

// RecordWorkerFailed 记录 worker 处理失败
func (m *Monitor) RecordWorkerFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WorkerFailed++
}

// GetStats 获取统计信息
func (m *Monitor) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	checkoutRate := float64(0)
	if m.CheckoutRequests > 0 {
		checkoutRate = float64(m.CheckoutSuccess) / float64(m.CheckoutRequests) * 100
	}

	workerRate := float64(0)
	totalWorker := m.WorkerProcessed + m.WorkerFailed
	if totalWorker > 0 {
		workerRate = float64(m.WorkerProcessed) / float64(totalWorker) * 100
	}

	return map[string]interface{}{
		"errors": map[string]interface{}{
			"redis":        m.RedisErrors,
			"mq":           m.MQErrors,
			"db":           m.DBErrors,
			"stock_adjust": m.StockAdjustFailures,
			"mail":         m.MailFailures,
		},
		"checkout": map[string]interface{}{
			"requests":     m.CheckoutRequests,
			"success":      m.CheckoutSuccess,
			"success_rate": checkoutRate,
		},
		"callback": map[string]interface{}{
			"requests": m.CallbackRequests,
			"invalid":  m.CallbackInvalid,
			"success":  m.CallbackSuccess,
			"failed":   m.CallbackFailed,
			"replayed": m.CallbackReplayed,
		},
		"worker": map[string]interface{}{
			"processed":    m.WorkerProcessed,
			"failed":       m.WorkerFailed,
			"success_rate": workerRate,
		},
		"last_events": map[string]interface{}{
			"redis_error": m.LastRedisError,
			"mq_error":    m.LastMQError,
			"db_error":    m.LastDBError,
			"checkout":    m.LastCheckoutTime,
			"callback":    m.LastCallbackTime,
			"worker":      m.LastWorkerTime,
		},
	}
}

// Reset 重置统计（测试用）
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RedisErrors = 0
	m.MQErrors = 0
	m.DBErrors = 0
	m.CheckoutRequests = 0
	m.CheckoutSuccess = 0
	m.CallbackRequests = 0
	m.CallbackInvalid = 0
	m.CallbackSuccess = 0
	m.CallbackFailed = 0
	m.CallbackReplayed = 0
	m.StockAdjustFailures = 0
	m.MailFailures = 0
	m.WorkerProcessed = 0
	m.WorkerFailed = 0
}
