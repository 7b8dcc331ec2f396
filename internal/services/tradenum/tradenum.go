package tradenum

import (
	"math/big"
	"strings"
	"time"

	"ticket-shop/utils"
)

// The gateway echoes trade numbers in one of two shapes: our internal
// ORD<yyyymmdd><6 digits> order number, or its own DCH-<base36> encoding of
// the same digits. Both must resolve to the same order.
const (
	InternalPrefix = "ORD"
	GatewayPrefix  = "DCH-"

	// internal order numbers carry 8 date digits plus a 6 digit suffix
	digitLen = 14
)

// NewOrderNumber generates an order number for the given day. Uniqueness is
// enforced by the storage index, not here; callers retry on conflict.
func NewOrderNumber(now time.Time) (string, error) {
	suffix, err := utils.GenerateDigits(6)
	if err != nil {
		return "", err
	}
	return InternalPrefix + now.Format("20060102") + suffix, nil
}

// Canonicalizer is a pure rewrite of a received trade number into one
// candidate order number. It reports false when the input is not its shape.
type Canonicalizer struct {
	Name  string
	Apply func(string) (string, bool)
}

// DefaultCanonicalizers returns the rewrite list in priority order. The
// received value itself is always the first candidate.
func DefaultCanonicalizers() []Canonicalizer {
	return []Canonicalizer{
		{Name: "identity", Apply: identity},
		{Name: "gateway-to-internal", Apply: GatewayToInternal},
		{Name: "internal-to-gateway", Apply: InternalToGateway},
	}
}

func identity(s string) (string, bool) {
	return s, s != ""
}

// InternalToGateway rewrites ORD<digits> into the gateway-native
// DCH-<base36> form. Pure string transform, no I/O.
func InternalToGateway(s string) (string, bool) {
	if !strings.HasPrefix(s, InternalPrefix) {
		return "", false
	}

	digits := strings.TrimPrefix(s, InternalPrefix)
	if digits == "" || !allDigits(digits) {
		return "", false
	}

	n, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return "", false
	}

	return GatewayPrefix + strings.ToUpper(n.Text(36)), true
}

// GatewayToInternal decodes DCH-<base36> back into ORD<digits>, zero padded
// to the internal width.
func GatewayToInternal(s string) (string, bool) {
	if !strings.HasPrefix(s, GatewayPrefix) {
		return "", false
	}

	enc := strings.TrimPrefix(s, GatewayPrefix)
	if enc == "" {
		return "", false
	}

	n, ok := new(big.Int).SetString(strings.ToLower(enc), 36)
	if !ok || n.Sign() < 0 {
		return "", false
	}

	digits := n.String()
	for len(digits) < digitLen {
		digits = "0" + digits
	}

	return InternalPrefix + digits, true
}

// Candidates expands a received trade number into the ordered, de-duplicated
// list of order numbers to probe.
func Candidates(received string, canons []Canonicalizer) []string {
	if len(canons) == 0 {
		canons = DefaultCanonicalizers()
	}

	seen := make(map[string]struct{}, len(canons))
	out := make([]string, 0, len(canons))
	for _, c := range canons {
		candidate, ok := c.Apply(received)
		if !ok {
			continue
		}
		if _, dup := seen[candidate]; dup {
			continue
		}
		seen[candidate] = struct{}{}
		out = append(out, candidate)
	}

	return out
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
