package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/quyenltph31426/kiddie-kingdom-be/internal/config"
)

const (
	version    = "2.1.0"
	commandPay = "pay"

	// 网关时间戳格式 yyyyMMddHHmmss
	timeLayout = "20060102150405"
	// 交易号里的短时间戳 yyMMddHHmmss
	txnRefLayout = "060102150405"
)

// 网关响应码
const (
	ResponseCodeSuccess        = "00"
	ResponseCodeCustomerCancel = "24"
)

// ErrInvalidSignature 验签失败。对外只报失败，不回显期望的签名值。
var ErrInvalidSignature = errors.New("签名校验失败")

// VNPay 使用 GMT+7 时间戳
var gatewayZone = time.FixedZone("ICT", 7*60*60)

// responseMessages 网关响应码的简短描述，写入流水的失败原因
var responseMessages = map[string]string{
	"00": "success",
	"07": "suspected fraud",
	"09": "card not registered for internet banking",
	"10": "card authentication failed too many times",
	"11": "payment window expired",
	"12": "card or account locked",
	"13": "wrong otp",
	"24": "customer cancelled",
	"51": "insufficient balance",
	"65": "daily transaction limit exceeded",
	"75": "bank under maintenance",
	"79": "wrong payment password too many times",
}

// ResponseMessage 响应码的可读原因，未知码统一归为失败
func ResponseMessage(code string) string {
	if msg, ok := responseMessages[code]; ok {
		return msg
	}
	return "transaction failed"
}

// Client 封装 VNPay 跳转地址构造与回调验签
type Client struct {
	cfg config.VNPayConfig
}

// NewClient 创建网关客户端
func NewClient(cfg config.VNPayConfig) *Client {
	return &Client{cfg: cfg}
}

// PaymentRequest 一次支付跳转的输入
type PaymentRequest struct {
	OrderID   int64
	Amount    int64 // 单位：VND
	OrderInfo string
	ClientIP  string
	CreatedAt time.Time
}

// Redirect 支付跳转结果
type Redirect struct {
	TransactionID string
	URL           string
}

// BuildPaymentURL 构造带签名的支付跳转地址。
// 金额按网关要求以最小货币单位 ×100 传输。
func (c *Client) BuildPaymentURL(req PaymentRequest) (*Redirect, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("支付金额必须大于 0")
	}
	createdAt := req.CreatedAt.In(gatewayZone)
	txnRef := BuildTxnRef(req.CreatedAt, req.OrderID)

	params := map[string]string{
		"vnp_Version":    version,
		"vnp_Command":    commandPay,
		"vnp_TmnCode":    c.cfg.TmnCode,
		"vnp_Locale":     c.cfg.Locale,
		"vnp_CurrCode":   c.cfg.CurrCode,
		"vnp_TxnRef":     txnRef,
		"vnp_OrderInfo":  req.OrderInfo,
		"vnp_OrderType":  c.cfg.OrderType,
		"vnp_Amount":     strconv.FormatInt(req.Amount*100, 10),
		"vnp_ReturnUrl":  c.cfg.ReturnURL,
		"vnp_IpAddr":     req.ClientIP,
		"vnp_CreateDate": createdAt.Format(timeLayout),
	}

	query := canonicalQuery(params)
	secureHash := c.sign(query)
	return &Redirect{
		TransactionID: txnRef,
		URL:           c.cfg.PayURL + "?" + query + "&vnp_SecureHash=" + secureHash,
	}, nil
}

// Callback 验签通过后的回调数据
type Callback struct {
	TxnRef        string
	OrderID       int64
	ResponseCode  string
	Amount        int64 // 单位：VND，已从最小单位还原
	BankCode      string
	BankTranNo    string
	CardType      string
	PayDate       string
	TransactionNo string
	Raw           map[string]string
}

// Succeeded 网关是否返回支付成功
func (cb *Callback) Succeeded() bool {
	return cb.ResponseCode == ResponseCodeSuccess
}

// VerifyReturn 校验回调签名并解析参数。
// 验签不通过返回 ErrInvalidSignature，调用方不得基于未验签数据改任何状态。
func (c *Client) VerifyReturn(query url.Values) (*Callback, error) {
	received := query.Get("vnp_SecureHash")
	if received == "" {
		return nil, ErrInvalidSignature
	}

	// 去掉签名字段后，对剩余 vnp_ 参数按同一套序列化重新计算
	params := make(map[string]string, len(query))
	for k := range query {
		if k == "vnp_SecureHash" || k == "vnp_SecureHashType" {
			continue
		}
		if !strings.HasPrefix(k, "vnp_") {
			continue
		}
		params[k] = query.Get(k)
	}

	expected := c.sign(canonicalQuery(params))
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(received))) {
		return nil, ErrInvalidSignature
	}

	txnRef := params["vnp_TxnRef"]
	orderID, err := ParseTxnRef(txnRef)
	if err != nil {
		return nil, err
	}

	cb := &Callback{
		TxnRef:        txnRef,
		OrderID:       orderID,
		ResponseCode:  params["vnp_ResponseCode"],
		BankCode:      params["vnp_BankCode"],
		BankTranNo:    params["vnp_BankTranNo"],
		CardType:      params["vnp_CardType"],
		PayDate:       params["vnp_PayDate"],
		TransactionNo: params["vnp_TransactionNo"],
		Raw:           params,
	}
	if raw := params["vnp_Amount"]; raw != "" {
		minor, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("非法金额参数: %w", err)
		}
		cb.Amount = minor / 100
	}
	return cb, nil
}

// BuildTxnRef 生成交易号：时间戳 + 订单号，同一订单可多次发起支付
func BuildTxnRef(t time.Time, orderID int64) string {
	return fmt.Sprintf("%s_%d", t.In(gatewayZone).Format(txnRefLayout), orderID)
}

// ParseTxnRef 从交易号还原订单号
func ParseTxnRef(txnRef string) (int64, error) {
	parts := strings.SplitN(txnRef, "_", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("非法交易号: %q", txnRef)
	}
	orderID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || orderID <= 0 {
		return 0, fmt.Errorf("非法交易号: %q", txnRef)
	}
	return orderID, nil
}

// canonicalQuery 参数按 key 升序、URL 编码后拼接。
// 出站签名与入站验签必须共用这一套序列化，顺序或编码不一致都会导致验签失败。
// 空值参数不参与签名，空格编码为 +。
func canonicalQuery(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params[k]))
	}
	return b.String()
}

func (c *Client) sign(data string) string {
	mac := hmac.New(sha512.New, []byte(c.cfg.HashSecret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}
