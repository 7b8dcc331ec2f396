package gateway

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"ticket-shop/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway() *Gateway {
	return New(&Config{
		MerchantID: "2000132",
		HashKey:    "5294y06JbISpM5x9",
		HashIV:     "v77hoKGq4kWxNNIS",
		NotifyURL:  "https://shop.example.com/api/v1/payment/notify",
		ResultURL:  "https://shop.example.com/api/v1/payment/return",
	})
}

func TestBuildPaymentRequest_Fields(t *testing.T) {
	gw := newTestGateway()

	order := &models.Order{
		OrderNumber: "ORD20250101000123",
		TotalAmount: decimal.RequireFromString("1600.00"),
	}

	params := gw.BuildPaymentRequest(order, "Stalls x 2")

	assert.Equal(t, "2000132", params["MerchantID"])
	assert.Equal(t, "ORD20250101000123", params["MerchantTradeNo"])
	assert.Equal(t, "aio", params["PaymentType"])
	assert.Equal(t, "1600", params["TotalAmount"], "amount must be whole currency units")
	assert.Equal(t, "Stalls x 2", params["ItemName"])
	assert.Equal(t, "ALL", params["ChoosePayment"])
	assert.Equal(t, "1", params["EncryptType"])
	assert.Equal(t, "https://shop.example.com/api/v1/payment/notify", params["ReturnURL"])
	assert.Equal(t, "https://shop.example.com/api/v1/payment/return", params["OrderResultURL"])

	_, err := time.Parse("2006/01/02 15:04:05", params["MerchantTradeDate"])
	assert.NoError(t, err)

	// the request verifies against itself
	assert.NotEmpty(t, params[FieldCheckMac])
	assert.True(t, gw.VerifyNotification(params))
}

func TestCheckMacValue_Deterministic(t *testing.T) {
	gw := newTestGateway()

	params := map[string]string{
		"MerchantTradeNo": "ORD20250101000123",
		"RtnCode":         "1",
		"TradeAmt":        "1600",
	}

	first := gw.CheckMacValue(params)
	second := gw.CheckMacValue(params)
	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
	assert.Equal(t, first, gw.CheckMacValue(map[string]string{
		"TradeAmt":        "1600",
		"MerchantTradeNo": "ORD20250101000123",
		"RtnCode":         "1",
	}), "key order must not matter")
}

func TestCheckMacValue_IgnoresExistingMac(t *testing.T) {
	gw := newTestGateway()

	params := map[string]string{"MerchantTradeNo": "ORD20250101000123"}
	clean := gw.CheckMacValue(params)

	params[FieldCheckMac] = "GARBAGE"
	assert.Equal(t, clean, gw.CheckMacValue(params))
}

func TestVerifyNotification(t *testing.T) {
	gw := newTestGateway()

	params := gw.Sign(map[string]string{
		"MerchantTradeNo": "ORD20250101000123",
		"TradeNo":         "2504301234567890",
		"RtnCode":         "1",
		"RtnMsg":          "Succeeded",
		"TradeAmt":        "1600",
	})
	require.True(t, gw.VerifyNotification(params))

	t.Run("tampered field", func(t *testing.T) {
		tampered := map[string]string{}
		for k, v := range params {
			tampered[k] = v
		}
		tampered["TradeAmt"] = "1"
		assert.False(t, gw.VerifyNotification(tampered))
	})

	t.Run("missing mac", func(t *testing.T) {
		unsigned := map[string]string{}
		for k, v := range params {
			if k == FieldCheckMac {
				continue
			}
			unsigned[k] = v
		}
		assert.False(t, gw.VerifyNotification(unsigned))
	})

	t.Run("lowercased mac accepted", func(t *testing.T) {
		lowered := map[string]string{}
		for k, v := range params {
			lowered[k] = v
		}
		lowered[FieldCheckMac] = strings.ToLower(lowered[FieldCheckMac])
		assert.True(t, gw.VerifyNotification(lowered))
	})

	t.Run("different secrets reject", func(t *testing.T) {
		other := New(&Config{
			MerchantID: "2000132",
			HashKey:    "otherkey00000000",
			HashIV:     "otheriv000000000",
		})
		assert.False(t, other.VerifyNotification(params))
	})
}

func TestVerifyNotification_SpecialCharacters(t *testing.T) {
	gw := newTestGateway()

	// values hitting every selectively un-escaped character plus ones that
	// stay percent-encoded
	params := gw.Sign(map[string]string{
		"MerchantTradeNo": "ORD20250101000123",
		"ItemName":        "VIP seat (front)! *A-B_C.2#Row 1&Row 2",
		"CustomField1":    "100% cotton + tote=free",
	})
	assert.True(t, gw.VerifyNotification(params))
}

func TestParseNotification(t *testing.T) {
	values := url.Values{}
	values.Set("MerchantTradeNo", "ORD20250101000123")
	values.Set("TradeNo", "2504301234567890")
	values.Set("RtnCode", "1")
	values.Set("RtnMsg", "Succeeded")
	values.Set("TradeAmt", "1600")
	values.Set("PaymentDate", "2025/01/01 12:00:00")
	values.Set("CheckMacValue", "ABCD")

	n := ParseNotification(values)
	assert.Equal(t, "ORD20250101000123", n.MerchantTradeNo)
	assert.Equal(t, "2504301234567890", n.TradeNo)
	assert.Equal(t, "1600", n.TradeAmt)
	assert.True(t, n.Succeeded())
	assert.Equal(t, "ABCD", n.Raw["CheckMacValue"])

	n.RtnCode = "10200095"
	assert.False(t, n.Succeeded())
}
