// Package store backs the service persistence interfaces with PocketBase
// records.
package store

import (
	"context"

	"ticket-shop/internal/services"

	"github.com/pocketbase/pocketbase/core"
)

type PBStores struct {
	app core.App
}

func New(app core.App) *PBStores {
	return &PBStores{app: app}
}

func (s *PBStores) Orders() services.OrderStore        { return &orderStore{app: s.app} }
func (s *PBStores) Inventory() services.InventoryStore { return &inventoryStore{app: s.app} }
func (s *PBStores) Tickets() services.TicketStore      { return &ticketStore{app: s.app} }

// Atomic reruns fn against transaction-bound stores; PocketBase rolls the
// whole unit back when fn errors.
func (s *PBStores) Atomic(ctx context.Context, fn func(tx services.Stores) error) error {
	return s.app.RunInTransaction(func(txApp core.App) error {
		return fn(New(txApp))
	})
}
