package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ticket-shop/internal/services/gateway"
	"ticket-shop/internal/services/tradenum"
	"ticket-shop/internal/status"
	"ticket-shop/models"
	"ticket-shop/monitoring"
	"ticket-shop/utils"

	"github.com/redis/go-redis/v9"
)

// Ack is the literal acknowledgment body the gateway expects on the webhook.
// AckOK stops redelivery; the 0-prefixed forms ask the gateway to retry.
type Ack string

const (
	AckOK       Ack = "1|OK"
	AckChecksum Ack = "0|CheckMacValue verify fail"
	AckRetry    Ack = "0|Transient error"
)

type SettlementOptions struct {
	LockTTL time.Duration
	Sandbox bool
}

// SettlementService applies verified payment outcomes to order state,
// exactly once per order regardless of redelivery.
type SettlementService struct {
	stores   Stores
	gw       *gateway.Gateway
	redis    *redis.Client
	tickets  *TicketService
	notifier *Notifier
	canons   []tradenum.Canonicalizer
	lockTTL  time.Duration
	sandbox  bool

	// newLockToken is swapped in tests
	newLockToken func() (string, error)
}

func NewSettlementService(stores Stores, gw *gateway.Gateway, redisClient *redis.Client, tickets *TicketService, notifier *Notifier, opts *SettlementOptions) *SettlementService {
	lockTTL := 30 * time.Second
	sandbox := false
	if opts != nil {
		if opts.LockTTL > 0 {
			lockTTL = opts.LockTTL
		}
		sandbox = opts.Sandbox
	}

	return &SettlementService{
		stores:       stores,
		gw:           gw,
		redis:        redisClient,
		tickets:      tickets,
		notifier:     notifier,
		canons:       tradenum.DefaultCanonicalizers(),
		lockTTL:      lockTTL,
		sandbox:      sandbox,
		newLockToken: func() (string, error) { return utils.GenerateCode(8) },
	}
}

// ResolveOrder probes the order store with each candidate rewrite of the
// received trade number, in priority order. Shared by the webhook, the buyer
// return redirect and admin reconciliation.
func (s *SettlementService) ResolveOrder(ctx context.Context, receivedTradeNo string) (*models.Order, error) {
	for _, candidate := range tradenum.Candidates(receivedTradeNo, s.canons) {
		order, err := s.stores.Orders().OrderByOrderNumber(ctx, candidate)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, status.ErrOrderNotFound) {
			return nil, err
		}
	}
	return nil, status.ErrOrderNotFound
}

// ApplyNotification runs the settlement state machine for one inbound
// notification and returns the acknowledgment to hand the gateway.
//
//  1. reject unauthentic payloads without touching state;
//  2. an unresolvable trade number is acknowledged OK; it will never
//     resolve, and retry storms help nobody;
//  3. terminal orders acknowledge OK without re-transitioning;
//  4. otherwise transition under the per-order lock, issuing tickets on
//     success;
//  5. transient persistence failures ask for redelivery.
func (s *SettlementService) ApplyNotification(ctx context.Context, n *gateway.Notification) Ack {
	if !s.sandbox && !s.gw.VerifyNotification(n.Raw) {
		// security event: log the trade number only, never payload detail
		slog.Warn("settlement rejected: check mac value mismatch", "trade_no", n.MerchantTradeNo)
		monitoring.TrackChecksumFailure()
		return AckChecksum
	}

	order, err := s.ResolveOrder(ctx, n.MerchantTradeNo)
	if err != nil {
		if errors.Is(err, status.ErrOrderNotFound) {
			slog.Warn("settlement skipped: no order for trade number", "trade_no", n.MerchantTradeNo)
			monitoring.TrackSettlement("unmatched")
			return AckOK
		}
		slog.Error("settlement resolve failed", "trade_no", n.MerchantTradeNo, "error", err)
		monitoring.TrackSettlement("transient")
		return AckRetry
	}

	if order.Terminal() {
		monitoring.TrackSettlement("duplicate")
		return AckOK
	}

	token, err := s.newLockToken()
	if err != nil {
		return AckRetry
	}
	lockKey := fmt.Sprintf("settle:lock:%s", order.OrderNumber)
	locked, err := utils.AcquireLock(ctx, s.redis, lockKey, token, s.lockTTL)
	if err != nil || !locked {
		// a concurrent delivery holds the order; let the gateway retry
		monitoring.TrackSettlement("locked")
		return AckRetry
	}
	defer utils.ReleaseLock(context.WithoutCancel(ctx), s.redis, lockKey, token)

	settled, err := s.settle(ctx, order, n)
	if err != nil {
		slog.Error("settlement failed", "order_number", order.OrderNumber, "error", err)
		monitoring.TrackSettlement("transient")
		return AckRetry
	}

	if settled != nil {
		monitoring.TrackSettlement(settled.Status)
		s.notifier.OrderSettled(settled)
	}
	return AckOK
}

// settle re-reads the order inside one transaction and applies the outcome:
// success means paid/completed, availability decremented and tickets issued;
// any other result code means failed/failed.
func (s *SettlementService) settle(ctx context.Context, order *models.Order, n *gateway.Notification) (*models.Order, error) {
	var settled *models.Order

	err := s.stores.Atomic(ctx, func(tx Stores) error {
		current, err := tx.Orders().OrderByOrderNumber(ctx, order.OrderNumber)
		if err != nil {
			return err
		}
		if current.Terminal() {
			// lost the race to an earlier delivery
			return nil
		}

		if !n.Succeeded() {
			if err := tx.Orders().UpdateStatus(ctx, current.OrderNumber, models.OrderStatusFailed, models.PaymentStatusFailed); err != nil {
				return err
			}
			current.Status = models.OrderStatusFailed
			current.PaymentStatus = models.PaymentStatusFailed
			settled = current
			return nil
		}

		paidAt := time.Now()
		if err := tx.Orders().MarkPaid(ctx, current.OrderNumber, n.TradeNo, paidAt); err != nil {
			return err
		}
		current.Status = models.OrderStatusPaid
		current.PaymentStatus = models.PaymentStatusCompleted
		current.TradeNo = n.TradeNo
		current.PaidAt = &paidAt

		for _, item := range current.Items {
			if err := tx.Inventory().DecrementAvailability(ctx, item.TicketTypeID, item.Quantity); err != nil {
				return err
			}
		}

		if err := s.tickets.issueWithin(ctx, tx, current); err != nil {
			return err
		}

		settled = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	if settled != nil {
		slog.Info("order settled", "order_number", settled.OrderNumber, "status", settled.Status, "trade_no", n.TradeNo)
	}
	return settled, nil
}
