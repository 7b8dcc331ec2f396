package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ticket-shop/internal/status"
	"ticket-shop/utils"
)

// Client makes the server-to-server calls to the gateway. Trade lookups are
// used by manual reconciliation tooling, never by the webhook path.
type Client struct {
	queryURL   string
	merchantID string

	// hc is the http client, bounded so a slow gateway cannot pin a request.
	hc *http.Client

	cb *utils.CircuitBreaker
}

func newClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		queryURL:   cfg.QueryURL,
		merchantID: cfg.MerchantID,
		hc: &http.Client{
			Timeout: timeout,
		},
		cb: utils.NewCircuitBreaker("gateway-query"),
	}
}

// QueryTradeStatus asks the gateway for the current state of a trade. The
// reply is a form-encoded field set signed like a notification; a bad
// checksum is reported as a security error, timeouts as transient.
func (g *Gateway) QueryTradeStatus(ctx context.Context, merchantTradeNo string) (*Notification, error) {
	form := url.Values{}
	form.Set("MerchantID", g.cfg.MerchantID)
	form.Set("MerchantTradeNo", merchantTradeNo)
	form.Set("TimeStamp", strconv.FormatInt(time.Now().Unix(), 10))

	params := make(map[string]string, len(form))
	for k := range form {
		params[k] = form.Get(k)
	}
	form.Set(FieldCheckMac, g.CheckMacValue(params))

	result, err := g.client.cb.Execute(ctx, func() (any, error) {
		return g.client.postForm(ctx, form)
	})
	if err != nil {
		return nil, status.Transient("gateway.QueryTradeStatus", err)
	}

	reply := result.(url.Values)
	n := ParseNotification(reply)
	if !g.VerifyNotification(n.Raw) {
		return nil, status.ErrChecksumMismatch
	}

	return n, nil
}

func (c *Client) postForm(ctx context.Context, form url.Values) (url.Values, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.queryURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("queryTrade: http.NewReq: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("queryTrade: http.Do: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("queryTrade: http.StatusCode: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("queryTrade: read body: %v", err)
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("queryTrade: parse reply: %v", err)
	}

	return values, nil
}
