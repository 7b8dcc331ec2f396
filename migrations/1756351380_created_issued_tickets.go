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
		orderItems, err := app.FindCollectionByNameOrId("order_items")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("issued_tickets")

		collection.Fields.Add(
			&core.TextField{Name: "code", Required: true},
			&core.RelationField{
				Name:          "order",
				Required:      true,
				MaxSelect:     1,
				CollectionId:  orders.Id,
				CascadeDelete: false,
			},
			&core.RelationField{
				Name:          "order_item",
				Required:      true,
				MaxSelect:     1,
				CollectionId:  orderItems.Id,
				CascadeDelete: false,
			},
			&core.TextField{Name: "buyer"},
			&core.BoolField{Name: "used"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		collection.AddIndex("idx_issued_tickets_code", true, "code", "")
		collection.AddIndex("idx_issued_tickets_order_item", false, "order_item", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("issued_tickets")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
