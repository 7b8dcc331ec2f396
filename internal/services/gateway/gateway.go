package gateway

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
	"time"

	"ticket-shop/models"
)

type Config struct {
	MerchantID string `json:"merchantId" mapstructure:"merchant_id"`
	HashKey    string `json:"hashKey" mapstructure:"hash_key"`
	HashIV     string `json:"hashIv" mapstructure:"hash_iv"`

	// CheckoutURL is the gateway page the buyer's browser posts the
	// payment form to. QueryURL is the server-to-server trade lookup.
	CheckoutURL string `json:"checkoutUrl" mapstructure:"checkout_url"`
	QueryURL    string `json:"queryUrl" mapstructure:"query_url"`

	// NotifyURL receives the settlement webhook; ResultURL is the
	// buyer-facing return redirect.
	NotifyURL string `json:"notifyUrl" mapstructure:"notify_url"`
	ResultURL string `json:"resultUrl" mapstructure:"result_url"`

	Sandbox bool          `json:"sandbox" mapstructure:"sandbox"`
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// Gateway builds signed outbound payment requests and verifies inbound
// settlement notifications for the aio-style payment provider.
type Gateway struct {
	cfg    *Config
	client *Client
}

const (
	FieldCheckMac = "CheckMacValue"

	// RtnCodeSuccess is the provider's only success result code.
	RtnCodeSuccess = "1"
)

func New(cfg *Config) *Gateway {
	return &Gateway{
		cfg:    cfg,
		client: newClient(cfg),
	}
}

func (g *Gateway) Sandbox() bool { return g.cfg.Sandbox }

// CheckoutURL returns the page the signed form must be posted to.
func (g *Gateway) CheckoutURL() string { return g.cfg.CheckoutURL }

// BuildPaymentRequest assembles the flat field map the gateway checkout
// expects, signed with CheckMacValue. Amounts are integer currency units.
func (g *Gateway) BuildPaymentRequest(order *models.Order, itemName string) map[string]string {
	params := map[string]string{
		"MerchantID":        g.cfg.MerchantID,
		"MerchantTradeNo":   order.OrderNumber,
		"MerchantTradeDate": time.Now().Format("2006/01/02 15:04:05"),
		"PaymentType":       "aio",
		"TotalAmount":       order.TotalAmount.Round(0).String(),
		"TradeDesc":         "ticket purchase",
		"ItemName":          itemName,
		"ReturnURL":         g.cfg.NotifyURL,
		"OrderResultURL":    g.cfg.ResultURL,
		"ChoosePayment":     "ALL",
		"EncryptType":       "1",
	}
	params[FieldCheckMac] = g.CheckMacValue(params)
	return params
}

// Sign attaches a CheckMacValue to params in place and returns them.
// Used by the sandbox simulator so its synthetic notifications go through
// the same verification as real ones.
func (g *Gateway) Sign(params map[string]string) map[string]string {
	params[FieldCheckMac] = g.CheckMacValue(params)
	return params
}

// macUnescaper reverts the characters the provider's encoder leaves bare.
var macUnescaper = strings.NewReplacer(
	"%2d", "-",
	"%5f", "_",
	"%2e", ".",
	"%21", "!",
	"%2a", "*",
	"%28", "(",
	"%29", ")",
)

// CheckMacValue computes the provider checksum: sort keys, join k=v with &,
// wrap with HashKey/HashIV, URL-encode, lowercase, selectively un-escape,
// SHA-256, uppercase hex. Any CheckMacValue already present is skipped.
func (g *Gateway) CheckMacValue(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == FieldCheckMac {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("HashKey=")
	b.WriteString(g.cfg.HashKey)
	for _, k := range keys {
		b.WriteString("&")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(params[k])
	}
	b.WriteString("&HashIV=")
	b.WriteString(g.cfg.HashIV)

	encoded := strings.ToLower(url.QueryEscape(b.String()))
	encoded = macUnescaper.Replace(encoded)

	sum := sha256.Sum256([]byte(encoded))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// VerifyNotification recomputes the checksum over the fields, without the
// CheckMacValue itself, and compares case-insensitively in constant time.
// Pure verification; no state changes.
func (g *Gateway) VerifyNotification(params map[string]string) bool {
	received := strings.ToUpper(params[FieldCheckMac])
	if received == "" {
		return false
	}

	expected := g.CheckMacValue(params)
	if len(received) != len(expected) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(received), []byte(expected)) == 1
}

// Notification is the inbound settlement payload, delivered form-encoded on
// the webhook and as query parameters on the buyer return redirect.
type Notification struct {
	MerchantTradeNo string
	TradeNo         string
	RtnCode         string
	RtnMsg          string
	TradeAmt        string
	PaymentDate     string

	// Raw keeps every received field for checksum verification.
	Raw map[string]string
}

func (n *Notification) Succeeded() bool {
	return n.RtnCode == RtnCodeSuccess
}

// ParseNotification flattens url.Values into a Notification. Repeated keys
// keep their first value, matching the provider's wire format.
func ParseNotification(values url.Values) *Notification {
	raw := make(map[string]string, len(values))
	for k := range values {
		raw[k] = values.Get(k)
	}

	return &Notification{
		MerchantTradeNo: raw["MerchantTradeNo"],
		TradeNo:         raw["TradeNo"],
		RtnCode:         raw["RtnCode"],
		RtnMsg:          raw["RtnMsg"],
		TradeAmt:        raw["TradeAmt"],
		PaymentDate:     raw["PaymentDate"],
		Raw:             raw,
	}
}
