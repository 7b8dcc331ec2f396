package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		orders, err := app.FindCollectionByNameOrId("orders")
		if err != nil {
			return err
		}
		ticketTypes, err := app.FindCollectionByNameOrId("ticket_types")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("order_items")

		collection.Fields.Add(
			&core.RelationField{
				Name:          "order",
				Required:      true,
				MaxSelect:     1,
				CollectionId:  orders.Id,
				CascadeDelete: false,
			},
			&core.RelationField{
				Name:          "ticket_type",
				Required:      true,
				MaxSelect:     1,
				CollectionId:  ticketTypes.Id,
				CascadeDelete: false,
			},
			&core.NumberField{Name: "quantity", Required: true, OnlyInt: true},
			&core.NumberField{Name: "unit_price", Required: true},
			&core.NumberField{Name: "subtotal", Required: true},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		collection.AddIndex("idx_order_items_order", false, "`order`", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("order_items")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
