package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("orders")

		collection.Fields.Add(
			&core.TextField{Name: "order_number", Required: true},
			&core.TextField{Name: "buyer"},
			&core.NumberField{Name: "total_amount"},
			&core.SelectField{
				Name:      "status",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"pending", "paid", "failed"},
			},
			&core.SelectField{
				Name:      "payment_status",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"pending", "completed", "failed"},
			},
			&core.TextField{Name: "trade_no"},
			&core.DateField{Name: "paid_at"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		// order number uniqueness backs the generate-and-retry scheme
		collection.AddIndex("idx_orders_order_number", true, "order_number", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("orders")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
